// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file is a modified copy of x/tools/go/analysis/analysistest/analysistest.go

package testutil

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/lintcmd/runner"
	"github.com/pyguard/subprocheck/pysrc"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

var wantRe = regexp.MustCompile(`#\s*want\s+(.*)$`)

type expectation struct {
	line int
	re   *regexp.Regexp
}

// parseExpectations returns the expectations of all want comments in
// src, keyed by line.
func parseExpectations(file string, src []byte) (map[int][]*expectation, error) {
	want := map[int][]*expectation{}
	for i, line := range strings.Split(string(src), "\n") {
		m := wantRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		args := strings.TrimSpace(m[1])
		for args != "" {
			q, err := strconv.QuotedPrefix(args)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: malformed expectation %q: %v", file, i+1, args, err)
			}
			s, err := strconv.Unquote(q)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %v", file, i+1, err)
			}
			re, err := regexp.Compile(s)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %v", file, i+1, err)
			}
			want[i+1] = append(want[i+1], &expectation{line: i + 1, re: re})
			args = strings.TrimSpace(args[len(q):])
		}
	}
	return want, nil
}

// Check compares diagnostics with the want comments of a file.
func Check(t *testing.T, file string, src []byte, diagnostics []runner.Diagnostic) {
	t.Helper()
	want, err := parseExpectations(file, src)
	if err != nil {
		t.Fatal(err)
	}

	for _, diag := range diagnostics {
		posn := diag.Position
		if posn.Filename != file {
			t.Errorf("got diagnostic in file %q, but only checked %q", posn.Filename, file)
			continue
		}
		expects := want[posn.Line]
		var unmatched []string
		matched := false
		for i, exp := range expects {
			if exp.re.MatchString(diag.Message) {
				// matched: remove the expectation.
				expects[i] = expects[len(expects)-1]
				want[posn.Line] = expects[:len(expects)-1]
				matched = true
				break
			}
			unmatched = append(unmatched, fmt.Sprintf("%q", exp.re))
		}
		if matched {
			continue
		}
		if unmatched == nil {
			t.Errorf("%v: unexpected diag: %v", posn, diag.Message)
		} else {
			t.Errorf("%v: diag %q does not match pattern %s", posn, diag.Message, strings.Join(unmatched, " or "))
		}
	}

	// Reject surplus expectations.
	var surplus []string
	for line, expects := range want {
		for _, exp := range expects {
			surplus = append(surplus, fmt.Sprintf("%s:%d: no diagnostic was reported matching %q", file, line, exp.re))
		}
	}
	sort.Strings(surplus)
	for _, err := range surplus {
		t.Errorf("%s", err)
	}
}

func readGolden(t *testing.T, file string) (*txtar.Archive, bool) {
	t.Helper()
	ar, err := txtar.ParseFile(file + ".golden")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false
		}
		t.Fatalf("error reading %s.golden: %v", file, err)
	}
	return ar, true
}

// CheckSuggestedFixes applies the text edits of all suggested fixes and
// compares the result with the file's .golden file.
//
// A golden file either holds the expected source as its comment, which
// is compared with the result of applying all fixes, or one section per
// fix title.
func CheckSuggestedFixes(t *testing.T, file string, src []byte, diagnostics []runner.Diagnostic) {
	t.Helper()
	// fix title -> edits
	fixes := map[string][]runner.TextEdit{}
	for _, diag := range diagnostics {
		for _, sf := range diag.SuggestedFixes {
			for _, edit := range sf.TextEdits {
				if edit.Position.Offset > edit.End.Offset {
					t.Errorf("diagnostic for analysis %v contains suggested fix with malformed edit: pos (%v) > end (%v)",
						diag.Category, edit.Position.Offset, edit.End.Offset)
					continue
				}
				fixes[sf.Message] = append(fixes[sf.Message], edit)
			}
		}
	}

	ar, ok := readGolden(t, file)
	if !ok {
		if len(fixes) > 0 {
			t.Errorf("%s has suggested fixes but no golden file", file)
		}
		return
	}

	if len(ar.Files) == 0 {
		var all []runner.TextEdit
		for _, edits := range fixes {
			all = append(all, edits...)
		}
		compare(t, file, "", string(ar.Comment), applyEdits(src, all))
		return
	}

	if len(ar.Comment) != 0 {
		// we allow either just the comment, or just virtual files, not
		// both.
		t.Errorf("%s.golden has leading comment; we don't know what to do with it", file)
		return
	}
	for title, edits := range fixes {
		found := false
		for _, vf := range ar.Files {
			if vf.Name == title {
				found = true
				compare(t, file, title, string(vf.Data), applyEdits(src, edits))
				break
			}
		}
		if !found {
			t.Errorf("no section for suggested fix %q in %s.golden", title, file)
		}
	}
	for _, vf := range ar.Files {
		if _, ok := fixes[vf.Name]; !ok {
			t.Errorf("%s.golden has section for suggested fix %q, but we didn't produce any fix by that name", file, vf.Name)
		}
	}
}

// CheckFixes applies the descriptors of all diagnostics to a freshly
// parsed copy of the file and compares the result with the golden
// file. Unlike text edits, descriptors are applied one after another,
// each to the result of the previous one.
func CheckFixes(t *testing.T, file string, src []byte, cfg config.Config, analyzers []*lint.Analyzer, diagnostics []runner.Diagnostic) {
	t.Helper()
	plan := runner.NewPlan(diagnostics)
	if len(plan.Fixes) == 0 {
		return
	}
	ar, ok := readGolden(t, file)
	if !ok || len(ar.Files) != 0 {
		// sections per fix title only apply to text edits
		return
	}

	f, err := pysrc.Parse(context.Background(), token.NewFileSet(), file, src)
	if err != nil {
		t.Fatal(err)
	}
	// Fixes without text edits couldn't compute their replacement and
	// mustn't apply either.
	editable := map[lint.Descriptor]bool{}
	for _, diag := range diagnostics {
		editable[diag.Descriptor] = len(diag.SuggestedFixes) > 0
	}
	for _, res := range runner.Fix(f, cfg, analyzers, plan.Fixes) {
		applied := res.Outcome == lint.OutcomeApplied
		if applied != editable[res.Descriptor] {
			t.Errorf("%s: fix %s: %v", res.Descriptor.Site, res.Outcome, res.Err)
		}
	}
	compare(t, file, "", string(ar.Comment), f.Source())
}

func compare(t *testing.T, file, section string, want string, got []byte) {
	t.Helper()
	// the file may contain multiple trailing newlines if the user places
	// empty lines between files in the archive. normalize this to a
	// single newline.
	want = strings.TrimRight(want, "\n") + "\n"
	out := string(bytes.TrimRight(got, "\n")) + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		if section != "" {
			file = fmt.Sprintf("%s[%s]", file, section)
		}
		t.Errorf("suggested fixes failed for %s (-want +got):\n%s", file, diff)
	}
}

func applyEdits(src []byte, edits []runner.TextEdit) []byte {
	// This function isn't efficient, but it doesn't have to be.
	edits = append([]runner.TextEdit(nil), edits...)
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Position.Offset != edits[j].Position.Offset {
			return edits[i].Position.Offset < edits[j].Position.Offset
		}
		return edits[i].End.Offset < edits[j].End.Offset
	})

	var out []byte
	last := 0
	for _, edit := range edits {
		start, end := edit.Position.Offset, edit.End.Offset
		if edit.End == (token.Position{}) {
			end = start
		}
		if start < last {
			// overlapping edit; keep the first
			continue
		}
		out = append(out, src[last:start]...)
		out = append(out, edit.NewText...)
		last = end
	}
	out = append(out, src[last:]...)
	return out
}
