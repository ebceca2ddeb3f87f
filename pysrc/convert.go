package pysrc

import (
	"go/token"
	"strings"

	"github.com/pyguard/subprocheck/pyast"

	sitter "github.com/smacker/go-tree-sitter"
)

// converter turns a tree-sitter tree into a pyast tree, recording
// scopes and bindings along the way.
type converter struct {
	src []byte
	tf  *token.File

	scope  *scope
	scopes []*scope
	refs   map[*pyast.Name]*scope

	// number of ERROR and MISSING nodes
	errors int
}

func newConverter(src []byte, tf *token.File) *converter {
	c := &converter{
		src:  src,
		tf:   tf,
		refs: map[*pyast.Name]*scope{},
	}
	c.scope = c.newScope(scopeModule)
	return c
}

func (c *converter) newScope(kind scopeKind) *scope {
	s := newScope(kind, c.scope)
	c.scopes = append(c.scopes, s)
	return s
}

func (c *converter) span(n *sitter.Node) pyast.Span {
	return pyast.Span{
		From: c.tf.Pos(int(n.StartByte())),
		To:   c.tf.Pos(int(n.EndByte())),
	}
}

func (c *converter) text(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *converter) countErrors(n *sitter.Node) {
	if n.Type() == "ERROR" || n.IsMissing() {
		c.errors++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			c.countErrors(child)
		}
	}
}

func (c *converter) module(root *sitter.Node) *pyast.Module {
	c.countErrors(root)
	m := &pyast.Module{Span: c.span(root)}
	for _, child := range namedChildren(root) {
		m.Body = append(m.Body, c.stmt(child))
	}
	return m
}

func (c *converter) stmt(n *sitter.Node) pyast.Stmt {
	if n.Type() == "expression_statement" {
		children := namedChildren(n)
		if len(children) == 1 {
			child := children[0]
			if child.Type() == "assignment" {
				return c.assignment(child)
			}
			x := c.node(child)
			if e, ok := x.(pyast.Expr); ok {
				return &pyast.ExprStmt{Span: c.span(n), X: e}
			}
		}
		return c.opaque(n)
	}
	if s, ok := c.node(n).(pyast.Stmt); ok {
		return s
	}
	return c.opaque(n)
}

func (c *converter) expr(n *sitter.Node) pyast.Expr {
	x := c.node(n)
	if e, ok := x.(pyast.Expr); ok {
		return e
	}
	return &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n), Children: []pyast.Node{x}}
}

func (c *converter) opaque(n *sitter.Node) *pyast.Opaque {
	o := &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	for _, child := range namedChildren(n) {
		o.Children = append(o.Children, c.node(child))
	}
	return o
}

func (c *converter) name(n *sitter.Node) *pyast.Name {
	name := &pyast.Name{Span: c.span(n), ID: c.text(n)}
	c.refs[name] = c.scope
	return name
}

func (c *converter) bind(name string, decl pyast.Node) {
	c.scope.raw = append(c.scope.raw, binding{name: name, decl: decl})
}

// bindTargets binds all names assigned to by the target n.
func (c *converter) bindTargets(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		c.bind(c.text(n), nil)
	case "attribute", "subscript":
	default:
		for _, child := range namedChildren(n) {
			c.bindTargets(child)
		}
	}
}

func (c *converter) node(n *sitter.Node) pyast.Node {
	switch n.Type() {
	case "identifier":
		return c.name(n)
	case "attribute":
		obj := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return c.opaque(n)
		}
		return &pyast.Attribute{Span: c.span(n), Value: c.expr(obj), Attr: c.text(attr)}
	case "call":
		return c.call(n)
	case "keyword_argument":
		name := n.ChildByFieldName("name")
		value := n.ChildByFieldName("value")
		if name == nil || value == nil {
			return c.opaque(n)
		}
		return &pyast.Keyword{Span: c.span(n), Name: c.text(name), Value: c.expr(value)}
	case "string":
		return c.str(n)
	case "true", "false":
		return &pyast.Bool{Span: c.span(n), Value: n.Type() == "true"}
	case "list":
		l := &pyast.ListLit{Span: c.span(n)}
		for _, child := range namedChildren(n) {
			l.Elts = append(l.Elts, c.expr(child))
		}
		return l
	case "parenthesized_expression":
		if children := namedChildren(n); len(children) == 1 {
			return c.node(children[0])
		}
		return c.opaque(n)
	case "expression_statement":
		return c.stmt(n)
	case "assignment":
		return c.assignment(n)
	case "augmented_assignment":
		c.bindTargets(n.ChildByFieldName("left"))
		return c.opaque(n)
	case "named_expression":
		if name := n.ChildByFieldName("name"); name != nil {
			// assignment expressions in comprehensions bind in the
			// enclosing scope
			s := c.scope
			for s.kind == scopeComprehension && s.parent != nil {
				s = s.parent
			}
			s.raw = append(s.raw, binding{name: c.text(name)})
		}
		return c.opaque(n)
	case "for_statement":
		c.bindTargets(n.ChildByFieldName("left"))
		return c.opaque(n)
	case "as_pattern":
		c.bindTargets(n.ChildByFieldName("alias"))
		return c.opaque(n)
	case "with_item":
		c.bindTargets(n.ChildByFieldName("alias"))
		return c.opaque(n)
	case "except_clause":
		c.exceptAlias(n)
		return c.opaque(n)
	case "import_statement", "import_from_statement":
		c.imports(n)
		return c.opaque(n)
	case "global_statement", "nonlocal_statement":
		for _, child := range namedChildren(n) {
			if child.Type() != "identifier" {
				continue
			}
			if n.Type() == "global_statement" {
				c.scope.globals[c.text(child)] = true
			} else {
				c.scope.nonlocals[c.text(child)] = true
			}
		}
		return &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	case "function_definition":
		return c.function(n)
	case "lambda":
		return c.lambda(n)
	case "class_definition":
		return c.class(n)
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return c.comprehension(n)
	default:
		return c.opaque(n)
	}
}

func (c *converter) call(n *sitter.Node) pyast.Node {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil {
		return c.opaque(n)
	}
	call := &pyast.Call{Span: c.span(n), Func: c.expr(fn)}
	if args == nil {
		return call
	}
	if args.Type() != "argument_list" {
		// f(x for x in y)
		call.Args = []pyast.Node{c.node(args)}
		return call
	}
	for _, arg := range namedChildren(args) {
		call.Args = append(call.Args, c.node(arg))
	}
	return call
}

// str converts a string literal. Literals whose value isn't known
// statically, such as f-strings, and byte strings become opaque.
func (c *converter) str(n *sitter.Node) pyast.Node {
	raw := c.text(n)
	prefix := pyast.Prefix(raw)
	if strings.ContainsAny(prefix, "fb") {
		return c.opaque(n)
	}
	value, err := pyast.Unquote(raw)
	if err != nil {
		return c.opaque(n)
	}
	return &pyast.Str{Span: c.span(n), Raw: raw, Value: value}
}

func (c *converter) assignment(n *sitter.Node) pyast.Stmt {
	var targets []*sitter.Node
	var value *sitter.Node
	for cur := n; ; {
		targets = append(targets, cur.ChildByFieldName("left"))
		right := cur.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" {
			cur = right
			continue
		}
		value = right
		break
	}
	if value == nil {
		// annotation without a value, 'x: int'
		return c.opaque(n)
	}

	simple := true
	for _, t := range targets {
		if t == nil || t.Type() != "identifier" {
			simple = false
			break
		}
	}
	if !simple {
		// Nested assignments bind their own targets when they're
		// converted.
		c.bindTargets(targets[0])
		return c.opaque(n)
	}

	a := &pyast.Assign{Span: c.span(n)}
	for _, t := range targets {
		a.Targets = append(a.Targets, c.name(t))
	}
	a.Value = c.expr(value)
	for _, t := range targets {
		c.bind(c.text(t), a)
	}
	return a
}

func (c *converter) exceptAlias(n *sitter.Node) {
	sawAs := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "as" {
			sawAs = true
			continue
		}
		if sawAs && child.Type() == "identifier" {
			c.bind(c.text(child), nil)
			return
		}
	}
}

func (c *converter) imports(n *sitter.Node) {
	module := n.ChildByFieldName("module_name")
	for _, child := range namedChildren(n) {
		if sameNode(child, module) {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			// 'import a.b' binds a
			name := c.text(child)
			if idx := strings.IndexByte(name, '.'); idx != -1 {
				name = name[:idx]
			}
			c.bind(strings.TrimSpace(name), nil)
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				c.bind(c.text(alias), nil)
			}
		}
	}
}

// function converts a function definition. The name is bound in the
// enclosing scope, the parameters and body are in a new scope, and
// default values are evaluated in the enclosing scope.
func (c *converter) function(n *sitter.Node) pyast.Node {
	outer := c.scope
	name := n.ChildByFieldName("name")
	if name != nil {
		c.bind(c.text(name), nil)
	}
	inner := c.newScope(scopeFunction)
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")

	o := &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	for _, child := range namedChildren(n) {
		switch {
		case sameNode(child, name):
		case sameNode(child, params):
			o.Children = append(o.Children, c.parameters(child, inner))
		case sameNode(child, body):
			c.scope = inner
			o.Children = append(o.Children, c.node(child))
			c.scope = outer
		default:
			o.Children = append(o.Children, c.node(child))
		}
	}
	return o
}

func (c *converter) lambda(n *sitter.Node) pyast.Node {
	outer := c.scope
	inner := c.newScope(scopeFunction)
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")

	o := &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	for _, child := range namedChildren(n) {
		switch {
		case sameNode(child, params):
			o.Children = append(o.Children, c.parameters(child, inner))
		case sameNode(child, body):
			c.scope = inner
			o.Children = append(o.Children, c.node(child))
			c.scope = outer
		default:
			o.Children = append(o.Children, c.node(child))
		}
	}
	return o
}

// parameters binds the parameters in inner. Default values are
// converted in the current scope.
func (c *converter) parameters(n *sitter.Node, inner *scope) pyast.Node {
	o := &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	bindParam := func(p *sitter.Node) {
		if p == nil {
			return
		}
		switch p.Type() {
		case "identifier":
			inner.raw = append(inner.raw, binding{name: c.text(p)})
		case "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			for _, child := range namedChildren(p) {
				if child.Type() == "identifier" {
					inner.raw = append(inner.raw, binding{name: c.text(child)})
				}
			}
		}
	}
	for _, p := range namedChildren(n) {
		switch p.Type() {
		case "default_parameter", "typed_default_parameter":
			bindParam(p.ChildByFieldName("name"))
			if v := p.ChildByFieldName("value"); v != nil {
				o.Children = append(o.Children, c.node(v))
			}
		case "typed_parameter":
			for _, child := range namedChildren(p) {
				if !sameNode(child, p.ChildByFieldName("type")) {
					bindParam(child)
				}
			}
		default:
			bindParam(p)
		}
	}
	return o
}

func (c *converter) class(n *sitter.Node) pyast.Node {
	outer := c.scope
	name := n.ChildByFieldName("name")
	if name != nil {
		c.bind(c.text(name), nil)
	}
	inner := c.newScope(scopeClass)
	body := n.ChildByFieldName("body")

	o := &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	for _, child := range namedChildren(n) {
		switch {
		case sameNode(child, name):
		case sameNode(child, body):
			c.scope = inner
			o.Children = append(o.Children, c.node(child))
			c.scope = outer
		default:
			o.Children = append(o.Children, c.node(child))
		}
	}
	return o
}

// comprehension converts a comprehension in its own scope. Only the
// iterable of the first for clause is evaluated in the enclosing
// scope.
func (c *converter) comprehension(n *sitter.Node) pyast.Node {
	outer := c.scope
	inner := c.newScope(scopeComprehension)

	o := &pyast.Opaque{Span: c.span(n), Type: n.Type(), Text: c.text(n)}
	first := true
	for _, child := range namedChildren(n) {
		if child.Type() != "for_in_clause" {
			c.scope = inner
			o.Children = append(o.Children, c.node(child))
			c.scope = outer
			continue
		}
		clause := &pyast.Opaque{Span: c.span(child), Type: child.Type(), Text: c.text(child)}
		left := child.ChildByFieldName("left")
		c.scope = inner
		c.bindTargets(left)
		c.scope = outer
		for _, cc := range namedChildren(child) {
			if sameNode(cc, left) {
				continue
			}
			if !first {
				c.scope = inner
			}
			clause.Children = append(clause.Children, c.node(cc))
			c.scope = outer
		}
		first = false
		o.Children = append(o.Children, clause)
	}
	return o
}
