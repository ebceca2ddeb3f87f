// Package pyast defines the syntax tree that a host platform hands to
// Python checks.
//
// The set of node types is closed: every node implements an unexported
// method, so code outside this package can switch over Kind or over the
// concrete types without having to account for foreign nodes. Constructs
// the model doesn't name are represented by Opaque, which keeps their
// source text and their converted children.
package pyast

import (
	"fmt"
	"go/token"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindModule
	KindExprStmt
	KindAssign
	KindCall
	KindAttribute
	KindName
	KindStr
	KindBool
	KindKeyword
	KindListLit
	KindOpaque
)

var kindNames = [...]string{
	KindInvalid:   "Invalid",
	KindModule:    "Module",
	KindExprStmt:  "ExprStmt",
	KindAssign:    "Assign",
	KindCall:      "Call",
	KindAttribute: "Attribute",
	KindName:      "Name",
	KindStr:       "Str",
	KindBool:      "Bool",
	KindKeyword:   "Keyword",
	KindListLit:   "ListLit",
	KindOpaque:    "Opaque",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Node is implemented by all nodes in the tree.
type Node interface {
	Pos() token.Pos
	End() token.Pos
	Kind() Kind
	node()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Span is the source range of a node. Nodes synthesized by checks have
// a zero span.
type Span struct {
	From token.Pos
	To   token.Pos
}

func (s Span) Pos() token.Pos { return s.From }
func (s Span) End() token.Pos { return s.To }

type (
	// Module is the root of a parsed file.
	Module struct {
		Span
		Body []Stmt
	}

	// ExprStmt is an expression used as a statement.
	ExprStmt struct {
		Span
		X Expr
	}

	// Assign is an assignment statement whose targets are all plain
	// expressions, as in 'a = b = "x"'. Annotated assignments
	// ('a: str = "x"') are represented as Assign too; the annotation
	// is dropped.
	Assign struct {
		Span
		Targets []Expr
		Value   Expr
	}

	// Call is a call expression. Args holds positional arguments and
	// keyword arguments interleaved in source order.
	Call struct {
		Span
		Func Expr
		Args []Node
	}

	// Attribute is a qualified reference 'Value.Attr'.
	Attribute struct {
		Span
		Value Expr
		Attr  string
	}

	// Name is a bare identifier.
	Name struct {
		Span
		ID string
	}

	// Str is a plain string literal. Raw is the literal as written,
	// including prefix and quotes; it is empty for synthesized nodes.
	// Value is the decoded text.
	Str struct {
		Span
		Raw   string
		Value string
	}

	// Bool is one of the literals True and False.
	Bool struct {
		Span
		Value bool
	}

	// Keyword is a keyword argument 'Name=Value' in a call.
	Keyword struct {
		Span
		Name  string
		Value Expr
	}

	// ListLit is a list display '[a, b, c]'.
	ListLit struct {
		Span
		Elts []Expr
	}

	// Opaque is any construct the model doesn't name, such as an if
	// statement, a binary expression or an f-string.
	Opaque struct {
		Span
		Type     string
		Text     string
		Children []Node
	}
)

func (*Module) Kind() Kind    { return KindModule }
func (*ExprStmt) Kind() Kind  { return KindExprStmt }
func (*Assign) Kind() Kind    { return KindAssign }
func (*Call) Kind() Kind      { return KindCall }
func (*Attribute) Kind() Kind { return KindAttribute }
func (*Name) Kind() Kind      { return KindName }
func (*Str) Kind() Kind       { return KindStr }
func (*Bool) Kind() Kind      { return KindBool }
func (*Keyword) Kind() Kind   { return KindKeyword }
func (*ListLit) Kind() Kind   { return KindListLit }
func (*Opaque) Kind() Kind    { return KindOpaque }

func (*Module) node()    {}
func (*ExprStmt) node()  {}
func (*Assign) node()    {}
func (*Call) node()      {}
func (*Attribute) node() {}
func (*Name) node()      {}
func (*Str) node()       {}
func (*Bool) node()      {}
func (*Keyword) node()   {}
func (*ListLit) node()   {}
func (*Opaque) node()    {}

func (*Call) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Name) exprNode()      {}
func (*Str) exprNode()       {}
func (*Bool) exprNode()      {}
func (*ListLit) exprNode()   {}
func (*Opaque) exprNode()    {}

func (*ExprStmt) stmtNode() {}
func (*Assign) stmtNode()   {}
func (*Opaque) stmtNode()   {}

// Callee returns the source text of the called expression, such as
// "subprocess.run".
func (c *Call) Callee() string {
	return Format(c.Func)
}
