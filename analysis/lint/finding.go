package lint

import (
	"fmt"

	"github.com/pyguard/subprocheck/analysis/code"
	"github.com/pyguard/subprocheck/pyast"
)

// Finding is a problem reported at a call site.
type Finding struct {
	Check    string
	Site     *pyast.Call
	Message  string
	Severity Severity
	Fix      *FixAction
}

// FixAction describes the fix offered for a finding. It holds the
// statically known command, not the node, so that it can be applied
// later against a possibly changed tree.
type FixAction struct {
	Title   string
	Command string
	// Replacement is the expression the call would be replaced with, as
	// computed at report time. It is nil if the command can't be
	// tokenized.
	Replacement pyast.Expr
}

// Site identifies a call by its byte span and the source text of its
// callee.
type Site struct {
	File   string `json:"file" yaml:"file" msgpack:"file"`
	Offset int    `json:"offset" yaml:"offset" msgpack:"offset"`
	End    int    `json:"end" yaml:"end" msgpack:"end"`
	Callee string `json:"callee" yaml:"callee" msgpack:"callee"`
}

func (s Site) String() string {
	return fmt.Sprintf("%s:#%d-%d (%s)", s.File, s.Offset, s.End, s.Callee)
}

// Descriptor is the serializable form of a finding. Fixes are applied
// to descriptors, never to findings, so that the tree can change
// between detection and application.
type Descriptor struct {
	Check   string `json:"check" yaml:"check" msgpack:"check"`
	Site    Site   `json:"site" yaml:"site" msgpack:"site"`
	Message string `json:"message" yaml:"message" msgpack:"message"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty" msgpack:"title,omitempty"`
	Command string `json:"command" yaml:"command" msgpack:"command"`
}

type Outcome uint8

const (
	// OutcomeApplied means that the call was rewritten.
	OutcomeApplied Outcome = iota
	// OutcomePreconditionLost means that the call no longer exists or no
	// longer qualifies for the fix. The tree is unchanged.
	OutcomePreconditionLost
	// OutcomeNotApplied means that the fix failed. The tree is
	// unchanged and the accompanying error says why.
	OutcomeNotApplied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomePreconditionLost:
		return "precondition lost"
	case OutcomeNotApplied:
		return "not applied"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// FixHost is the editable tree a fix is applied to.
type FixHost interface {
	code.SymbolResolver
	// Locate finds the call identified by site in the current tree.
	Locate(site Site) (*pyast.Call, bool)
	// ReplaceNode replaces old with new. It either succeeds completely
	// or leaves the tree untouched.
	ReplaceNode(old, new pyast.Node) error
}

type Fixer interface {
	Apply(host FixHost, d Descriptor) (Outcome, error)
}
