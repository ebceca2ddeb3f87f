// Package runner executes checks on Python files and applies their
// fixes.
//
// Checking a file produces diagnostics, which carry both a text edit
// form of each fix (computed when the problem was found) and a
// descriptor. Descriptors are the durable form: they can be stored in
// a plan and applied later, even after the file has been changed by
// other fixes.
package runner

import (
	"context"
	"fmt"
	"go/token"
	"os"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/analysis/report"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/pysrc"

	"golang.org/x/exp/slices"
)

// TextEdit is a text edit with resolved positions.
type TextEdit struct {
	Position token.Position
	End      token.Position
	NewText  []byte
}

type SuggestedFix struct {
	Message   string
	TextEdits []TextEdit
}

// A Diagnostic is a problem found in a file.
type Diagnostic struct {
	Position       token.Position
	End            token.Position
	Category       string
	Message        string
	Severity       lint.Severity
	SuggestedFixes []SuggestedFix
	// Descriptor identifies the problem independently of the parse
	// tree it was found in.
	Descriptor lint.Descriptor
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s (%s)", d.Message, d.Category)
}

// Check runs analyzers on f and returns their diagnostics in source
// order.
func Check(f *pysrc.File, cfg config.Config, analyzers []*lint.Analyzer) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, a := range analyzers {
		pass := &lint.Pass{
			Analyzer: a,
			Fset:     f.Fset(),
			Filename: f.Name(),
			File:     f.Module(),
			Calls:    f.Calls(),
			Resolver: f,
			Config:   cfg,
			Report: func(finding lint.Finding) {
				diags = append(diags, convert(f.Fset(), finding))
			},
		}
		if err := a.Run(pass); err != nil {
			return nil, fmt.Errorf("running %s on %s: %w", a.Name, f.Name(), err)
		}
	}
	slices.SortFunc(diags, func(a, b Diagnostic) bool {
		if a.Position.Offset != b.Position.Offset {
			return a.Position.Offset < b.Position.Offset
		}
		return a.Category < b.Category
	})
	return diags, nil
}

func convert(fset *token.FileSet, f lint.Finding) Diagnostic {
	ad := report.Diagnostic(f)
	d := Diagnostic{
		Position:   report.DisplayPosition(fset, ad.Pos),
		End:        report.DisplayPosition(fset, ad.End),
		Category:   ad.Category,
		Message:    ad.Message,
		Severity:   f.Severity,
		Descriptor: report.Describe(fset, f),
	}
	for _, sf := range ad.SuggestedFixes {
		fix := SuggestedFix{Message: sf.Message}
		for _, e := range sf.TextEdits {
			fix.TextEdits = append(fix.TextEdits, TextEdit{
				Position: report.DisplayPosition(fset, e.Pos),
				End:      report.DisplayPosition(fset, e.End),
				NewText:  e.NewText,
			})
		}
		d.SuggestedFixes = append(d.SuggestedFixes, fix)
	}
	return d
}

// CheckPath reads, parses and checks the file at path.
func CheckPath(ctx context.Context, path string, cfg config.Config, analyzers []*lint.Analyzer) (*pysrc.File, []Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := pysrc.Parse(ctx, token.NewFileSet(), path, src)
	if err != nil {
		return nil, nil, err
	}
	diags, err := Check(f, cfg, analyzers)
	if err != nil {
		return nil, nil, err
	}
	return f, diags, nil
}
