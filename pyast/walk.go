package pyast

import (
	"fmt"
	"iter"
)

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !isNil(c) {
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Module:
		for _, s := range n.Body {
			add(s)
		}
	case *ExprStmt:
		add(n.X)
	case *Assign:
		for _, t := range n.Targets {
			add(t)
		}
		add(n.Value)
	case *Call:
		add(n.Func)
		for _, a := range n.Args {
			add(a)
		}
	case *Attribute:
		add(n.Value)
	case *Keyword:
		add(n.Value)
	case *ListLit:
		for _, e := range n.Elts {
			add(e)
		}
	case *Opaque:
		for _, c := range n.Children {
			add(c)
		}
	case *Name, *Str, *Bool:
	default:
		panic(fmt.Sprintf("pyast: unexpected node type %T", n))
	}
	return out
}

// Preorder returns an iterator over all nodes of the tree rooted at
// root, in depth-first preorder.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var visit func(n Node) bool
		visit = func(n Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range Children(n) {
				if !visit(c) {
					return false
				}
			}
			return true
		}
		if !isNil(root) {
			visit(root)
		}
	}
}

// Calls returns an iterator over all call expressions below root, in
// source order. Calls nested in arguments follow the enclosing call.
func Calls(root Node) iter.Seq[*Call] {
	return func(yield func(*Call) bool) {
		for n := range Preorder(root) {
			if call, ok := n.(*Call); ok {
				if !yield(call) {
					return
				}
			}
		}
	}
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Module:
		return n == nil
	case *ExprStmt:
		return n == nil
	case *Assign:
		return n == nil
	case *Call:
		return n == nil
	case *Attribute:
		return n == nil
	case *Name:
		return n == nil
	case *Str:
		return n == nil
	case *Bool:
		return n == nil
	case *Keyword:
		return n == nil
	case *ListLit:
		return n == nil
	case *Opaque:
		return n == nil
	default:
		panic(fmt.Sprintf("pyast: unexpected node type %T", n))
	}
}
