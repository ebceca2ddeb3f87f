// Package testutil runs analyzers on Python fixtures and compares their
// diagnostics and fixes with expectations embedded in the fixtures.
//
// Fixtures live in testdata/src/<test>/*.py. A comment of the form
//
//	# want "regexp" ...
//
// expects one diagnostic per regexp on its line. The expected result
// of applying all fixes to a file is stored in a .golden file next to
// it. A directory may contain a subprocheck.conf, which configures the
// analyzers for the files in it.
package testutil

import (
	"context"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/lintcmd/runner"
	"github.com/pyguard/subprocheck/pysrc"
)

type Test struct {
	Dir   string
	Files []string
}

func tests(t *testing.T) []Test {
	dirs, err := filepath.Glob("testdata/src/*")
	if err != nil {
		t.Fatalf("couldn't enumerate test data: %s", err)
	}
	var out []Test
	for _, dir := range dirs {
		// Work around Windows paths
		dir = strings.ReplaceAll(dir, `\`, `/`)
		files, err := filepath.Glob(filepath.Join(dir, "*.py"))
		if err != nil {
			t.Fatal(err)
		}
		if len(files) == 0 {
			continue
		}
		out = append(out, Test{Dir: dir, Files: files})
	}
	if len(out) == 0 {
		t.Fatalf("found no tests")
	}
	return out
}

// Run runs a on all fixtures in testdata/src.
func Run(t *testing.T, a *lint.Analyzer) {
	for _, tt := range tests(t) {
		t.Run(filepath.Base(tt.Dir), func(t *testing.T) {
			cfg, err := config.Load(tt.Dir)
			if err != nil {
				t.Fatalf("loading configuration: %s", err)
			}
			for _, file := range tt.Files {
				src, err := os.ReadFile(file)
				if err != nil {
					t.Fatal(err)
				}
				f, err := pysrc.Parse(context.Background(), token.NewFileSet(), file, src)
				if err != nil {
					t.Fatal(err)
				}
				if f.HasErrors() {
					t.Fatalf("%s has syntax errors", file)
				}
				diags, err := runner.Check(f, cfg, []*lint.Analyzer{a})
				if err != nil {
					t.Fatal(err)
				}
				Check(t, file, src, diags)
				CheckSuggestedFixes(t, file, src, diags)
				CheckFixes(t, file, src, cfg, []*lint.Analyzer{a}, diags)
			}
		})
	}
}
