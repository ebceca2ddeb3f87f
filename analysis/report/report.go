package report

import (
	"go/token"

	"github.com/pyguard/subprocheck/analysis/edit"
	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/pyast"

	"golang.org/x/tools/go/analysis"
)

type Options struct {
	Fix *lint.FixAction
}

type Option func(*Options)

// Fix attaches a fix to the finding.
func Fix(title, command string, replacement pyast.Expr) Option {
	return func(opts *Options) {
		opts.Fix = &lint.FixAction{
			Title:       title,
			Command:     command,
			Replacement: replacement,
		}
	}
}

// Report reports a finding at site. The finding's check and severity
// are taken from the pass's analyzer.
func Report(pass *lint.Pass, site *pyast.Call, message string, opts ...Option) {
	cfg := &Options{}
	for _, opt := range opts {
		opt(cfg)
	}
	pass.Report(Finding(pass.Analyzer, site, message, cfg.Fix))
}

func Finding(a *lint.Analyzer, site *pyast.Call, message string, fix *lint.FixAction) lint.Finding {
	f := lint.Finding{
		Site:    site,
		Message: message,
		Fix:     fix,
	}
	if a != nil {
		f.Check = a.Name
		f.Severity = a.Documentation().Severity
	}
	return f
}

// DisplayPosition returns the position of pos as reported to users.
func DisplayPosition(fset *token.FileSet, pos token.Pos) token.Position {
	return fset.PositionFor(pos, false)
}

// Describe returns the serializable descriptor of a finding.
func Describe(fset *token.FileSet, f lint.Finding) lint.Descriptor {
	start := fset.PositionFor(f.Site.Pos(), false)
	end := fset.PositionFor(f.Site.End(), false)
	d := lint.Descriptor{
		Check: f.Check,
		Site: lint.Site{
			File:   start.Filename,
			Offset: start.Offset,
			End:    end.Offset,
			Callee: f.Site.Callee(),
		},
		Message: f.Message,
	}
	if f.Fix != nil {
		d.Title = f.Fix.Title
		d.Command = f.Fix.Command
	}
	return d
}

// Diagnostic converts a finding into an analysis.Diagnostic, turning
// its fix into a text edit if a replacement is known.
func Diagnostic(f lint.Finding) analysis.Diagnostic {
	d := analysis.Diagnostic{
		Pos:      f.Site.Pos(),
		End:      f.Site.End(),
		Category: f.Check,
		Message:  f.Message,
	}
	if f.Fix != nil && f.Fix.Replacement != nil {
		d.SuggestedFixes = []analysis.SuggestedFix{
			edit.Fix(f.Fix.Title, edit.ReplaceWithNode(f.Site, f.Fix.Replacement)),
		}
	}
	return d
}
