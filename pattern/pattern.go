// Package pattern implements a small Lisp-like language for describing
// the shape of Python syntax trees, and a matcher for it.
//
// A pattern such as
//
//	(Call (Attribute (Name "subprocess") name@(Or "call" "run")) args@(List _ _))
//
// matches calls of subprocess.call and subprocess.run with at least one
// argument, binding the attribute name to "name" and the arguments to
// "args". Bindings can be reused in a second pattern that is converted
// back into a tree with NodeToPy.
package pattern

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	_ Node = Any{}
	_ Node = Nil{}
	_ Node = String("")
	_ Node = List{}
	_ Node = Binding{}
	_ Node = Or{}
	_ Node = Not{}
	_ Node = Module{}
	_ Node = ExprStmt{}
	_ Node = Assign{}
	_ Node = Call{}
	_ Node = Attribute{}
	_ Node = Name{}
	_ Node = Str{}
	_ Node = Bool{}
	_ Node = Keyword{}
	_ Node = ListLit{}
	_ Node = Opaque{}
)

type Node interface {
	String() string
	isNode()
}

// Any matches any value.
type Any struct{}

// Nil matches nil nodes and empty optional values.
type Nil struct{}

// String matches identifier and attribute names, string literal
// values, and boolean literal values spelled "True" or "False".
type String string

// List matches a slice whose first element matches Head and whose
// remaining elements match Tail. The zero List matches an empty slice.
type List struct {
	Head Node
	Tail Node
}

// Binding matches Node and records the matched value under Name. A
// Binding without a Node matches anything the first time and the same
// value on subsequent uses.
type Binding struct {
	Name string
	Node Node
}

// Or matches if any of its alternatives match. Bindings made by
// failing alternatives are discarded.
type Or struct {
	Nodes []Node
}

// Not matches if Node doesn't.
type Not struct {
	Node Node
}

type (
	Module struct {
		Body Node
	}
	ExprStmt struct {
		X Node
	}
	Assign struct {
		Targets Node
		Value   Node
	}
	Call struct {
		Func Node
		Args Node
	}
	Attribute struct {
		Value Node
		Attr  Node
	}
	Name struct {
		ID Node
	}
	Str struct {
		Value Node
	}
	Bool struct {
		Value Node
	}
	Keyword struct {
		Name  Node
		Value Node
	}
	ListLit struct {
		Elts Node
	}
	Opaque struct {
		Text Node
	}
)

func (Any) isNode()       {}
func (Nil) isNode()       {}
func (String) isNode()    {}
func (List) isNode()      {}
func (Binding) isNode()   {}
func (Or) isNode()        {}
func (Not) isNode()       {}
func (Module) isNode()    {}
func (ExprStmt) isNode()  {}
func (Assign) isNode()    {}
func (Call) isNode()      {}
func (Attribute) isNode() {}
func (Name) isNode()      {}
func (Str) isNode()       {}
func (Bool) isNode()      {}
func (Keyword) isNode()   {}
func (ListLit) isNode()   {}
func (Opaque) isNode()    {}

func (Any) String() string      { return "_" }
func (Nil) String() string      { return "nil" }
func (s String) String() string { return strconv.Quote(string(s)) }

func (l List) String() string {
	if isNil(l.Head) && isNil(l.Tail) {
		return "[]"
	}
	var elems []string
	var cur Node = l
	for {
		ll, ok := cur.(List)
		if !ok {
			return fmt.Sprintf("%s:%s", strings.Join(elems, ":"), cur)
		}
		if isNil(ll.Head) {
			return "[" + strings.Join(elems, " ") + "]"
		}
		elems = append(elems, ll.Head.String())
		cur = ll.Tail
	}
}

func (b Binding) String() string {
	if isNil(b.Node) {
		return b.Name
	}
	if l, ok := b.Node.(List); ok {
		// the short list syntax can't follow an @
		return fmt.Sprintf("%s@(List %s %s)", b.Name, nodeString(l.Head), nodeString(l.Tail))
	}
	return fmt.Sprintf("%s@%s", b.Name, b.Node)
}

func (or Or) String() string {
	s := make([]string, len(or.Nodes))
	for i, n := range or.Nodes {
		s[i] = n.String()
	}
	return "(Or " + strings.Join(s, " ") + ")"
}

func (not Not) String() string { return fmt.Sprintf("(Not %s)", not.Node) }

func (n Module) String() string    { return stringify(n) }
func (n ExprStmt) String() string  { return stringify(n) }
func (n Assign) String() string    { return stringify(n) }
func (n Call) String() string      { return stringify(n) }
func (n Attribute) String() string { return stringify(n) }
func (n Name) String() string      { return stringify(n) }
func (n Str) String() string       { return stringify(n) }
func (n Bool) String() string      { return stringify(n) }
func (n Keyword) String() string   { return stringify(n) }
func (n ListLit) String() string   { return stringify(n) }
func (n Opaque) String() string    { return stringify(n) }

func stringify(n Node) string {
	v := reflect.ValueOf(n)
	var parts []string
	parts = append(parts, v.Type().Name())
	for i := 0; i < v.NumField(); i++ {
		if f, ok := v.Field(i).Interface().(Node); ok && f != nil {
			parts = append(parts, f.String())
		} else {
			parts = append(parts, "nil")
		}
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func nodeString(n Node) string {
	if n == nil {
		return "nil"
	}
	return n.String()
}

func isNil(n Node) bool {
	return n == nil
}
