package code

import (
	"github.com/pyguard/subprocheck/pattern"
	"github.com/pyguard/subprocheck/pyast"
)

// A SymbolResolver maps references to their declarations. It is
// implemented by the host, which owns the project index.
type SymbolResolver interface {
	// ResolveDeclaration returns the statement that declares ref, or
	// nil if the reference is unresolved or ambiguous.
	ResolveDeclaration(ref *pyast.Name) pyast.Node
}

type ValueKind uint8

const (
	Unknown ValueKind = iota
	LiteralString
)

func (k ValueKind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case LiteralString:
		return "LiteralString"
	default:
		return "ValueKind(?)"
	}
}

// ResolvedValue is either a statically known string or Unknown.
type ResolvedValue struct {
	Kind ValueKind
	text string
}

func Literal(s string) ResolvedValue {
	return ResolvedValue{Kind: LiteralString, text: s}
}

// Text returns the literal text and whether the value is known.
func (v ResolvedValue) Text() (string, bool) {
	return v.text, v.Kind == LiteralString
}

func (v ResolvedValue) String() string {
	if v.Kind == LiteralString {
		return "LiteralString(" + pyast.Quote(v.text) + ")"
	}
	return v.Kind.String()
}

var stringDeclQ = pattern.MustParse(`(Assign _ (Str value))`)

// ResolveString classifies expr as a string literal or Unknown.
//
// String literals resolve to their decoded value. Names resolve if
// their declaration is an assignment of a string literal. Resolution
// stops after that one hop: a name assigned from another name is
// Unknown, even if the other name is assigned a literal.
func ResolveString(expr pyast.Node, r SymbolResolver) ResolvedValue {
	switch expr := expr.(type) {
	case *pyast.Str:
		if expr == nil {
			return ResolvedValue{}
		}
		return Literal(expr.Value)
	case *pyast.Name:
		if expr == nil || r == nil {
			return ResolvedValue{}
		}
		decl := r.ResolveDeclaration(expr)
		if decl == nil {
			return ResolvedValue{}
		}
		if m, ok := pattern.Match(stringDeclQ, decl); ok {
			return Literal(m.State["value"].(string))
		}
	}
	return ResolvedValue{}
}
