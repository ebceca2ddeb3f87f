package pyast

import (
	"fmt"
	"strings"
)

// Format renders n as Python source. Nodes that came from a parser
// render close to how they were written; synthesized nodes render in
// a canonical style, with string literals double-quoted.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	if isNil(n) {
		return
	}
	switch n := n.(type) {
	case *Module:
		for i, s := range n.Body {
			if i > 0 {
				b.WriteByte('\n')
			}
			format(b, s)
		}
	case *ExprStmt:
		format(b, n.X)
	case *Assign:
		for _, t := range n.Targets {
			format(b, t)
			b.WriteString(" = ")
		}
		format(b, n.Value)
	case *Call:
		format(b, n.Func)
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, a)
		}
		b.WriteByte(')')
	case *Attribute:
		format(b, n.Value)
		b.WriteByte('.')
		b.WriteString(n.Attr)
	case *Name:
		b.WriteString(n.ID)
	case *Str:
		if n.Raw != "" {
			b.WriteString(n.Raw)
		} else {
			b.WriteString(Quote(n.Value))
		}
	case *Bool:
		if n.Value {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case *Keyword:
		b.WriteString(n.Name)
		b.WriteByte('=')
		format(b, n.Value)
	case *ListLit:
		b.WriteByte('[')
		for i, e := range n.Elts {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, e)
		}
		b.WriteByte(']')
	case *Opaque:
		b.WriteString(n.Text)
	default:
		panic(fmt.Sprintf("pyast: unexpected node type %T", n))
	}
}

// Equal reports whether a and b describe the same syntax, ignoring
// positions and the spelling of string literals.
func Equal(a, b Node) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case *Name:
		return a.ID == b.(*Name).ID
	case *Str:
		return a.Value == b.(*Str).Value
	case *Bool:
		return a.Value == b.(*Bool).Value
	case *Attribute:
		bb := b.(*Attribute)
		return a.Attr == bb.Attr && Equal(a.Value, bb.Value)
	case *Keyword:
		bb := b.(*Keyword)
		return a.Name == bb.Name && Equal(a.Value, bb.Value)
	case *Opaque:
		return a.Text == b.(*Opaque).Text
	case *Module, *ExprStmt, *Assign, *Call, *ListLit:
		ca, cb := Children(a), Children(b)
		if len(ca) != len(cb) {
			return false
		}
		for i := range ca {
			if !Equal(ca[i], cb[i]) {
				return false
			}
		}
		if a, ok := a.(*Assign); ok {
			return len(a.Targets) == len(b.(*Assign).Targets)
		}
		return true
	default:
		panic(fmt.Sprintf("pyast: unexpected node type %T", a))
	}
}
