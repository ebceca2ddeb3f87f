// Package lint provides abstractions on top of the syntax tree for
// writing checks and fixes.
package lint

import (
	"fmt"
	"go/token"
	"iter"
	"strings"

	"github.com/pyguard/subprocheck/analysis/code"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/pyast"
)

// Analyzer wraps a check's run function and its documentation.
type Analyzer struct {
	Name string
	// The analyzer's documentation. Unlike the compiled Doc string,
	// the structured form can be rendered for the command line.
	Doc *RawDocumentation
	Run func(pass *Pass) error
	// NewFixer returns the fixer used to apply the findings of this
	// analyzer. It is nil for checks without fixes.
	NewFixer func(cfg config.Config) (Fixer, error)

	compiled *Documentation
}

func InitializeAnalyzer(a *Analyzer) *Analyzer {
	if a.Doc == nil {
		panic(fmt.Sprintf("analyzer %s has no documentation", a.Name))
	}
	a.compiled = a.Doc.Compile()
	return a
}

func (a *Analyzer) Documentation() *Documentation {
	if a.compiled == nil {
		a.compiled = a.Doc.Compile()
	}
	return a.compiled
}

func (a *Analyzer) String() string { return a.Name }

type Severity int

const (
	SeverityNone Severity = iota
	SeverityError
	SeverityWarning
	SeverityWeakWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityWeakWarning:
		return "weak warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

type RawDocumentation struct {
	Title    string
	Text     string
	Before   string
	After    string
	Since    string
	Group    string
	Severity Severity
}

type Documentation struct {
	Title    string
	Text     string
	Before   string
	After    string
	Since    string
	Group    string
	Severity Severity
}

func (doc RawDocumentation) Compile() *Documentation {
	return &Documentation{
		Title:    strings.TrimSpace(doc.Title),
		Text:     strings.TrimSpace(doc.Text),
		Before:   strings.TrimSpace(doc.Before),
		After:    strings.TrimSpace(doc.After),
		Since:    doc.Since,
		Group:    doc.Group,
		Severity: doc.Severity,
	}
}

func (doc *Documentation) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s\n\n", doc.Title)
	if doc.Text != "" {
		fmt.Fprintf(b, "%s\n\n", doc.Text)
	}
	if doc.Before != "" {
		fmt.Fprintln(b, "Before:")
		fmt.Fprintln(b, "")
		for _, line := range strings.Split(doc.Before, "\n") {
			fmt.Fprint(b, "    ", line, "\n")
		}
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, "After:")
		fmt.Fprintln(b, "")
		for _, line := range strings.Split(doc.After, "\n") {
			fmt.Fprint(b, "    ", line, "\n")
		}
		fmt.Fprintln(b, "")
	}
	if doc.Group != "" {
		fmt.Fprintf(b, "Group: %s\n", doc.Group)
	}
	if doc.Since == "" || doc.Since == "Unreleased" {
		fmt.Fprint(b, "Available since\n    unreleased\n")
	} else {
		fmt.Fprintf(b, "Available since\n    %s\n", doc.Since)
	}
	return b.String()
}

// A Pass provides a check with one parsed file and the host services
// needed to analyze it.
type Pass struct {
	Analyzer *Analyzer
	Fset     *token.FileSet
	Filename string
	File     *pyast.Module
	// Calls yields the file's calls in source order. If nil, the calls
	// of File are used.
	Calls    iter.Seq[*pyast.Call]
	Resolver code.SymbolResolver
	Config   config.Config
	Report   func(Finding)
}

// EachCall calls fn for every call in the file, in source order.
func (pass *Pass) EachCall(fn func(*pyast.Call)) {
	if pass.Calls != nil {
		for c := range pass.Calls {
			fn(c)
		}
		return
	}
	for c := range pyast.Calls(pass.File) {
		fn(c)
	}
}
