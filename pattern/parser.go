package pattern

import (
	"fmt"
	"go/token"
	"iter"
	"reflect"

	"github.com/pyguard/subprocheck/pyast"
)

type Pattern struct {
	Root Node
	// EntryKinds contains the kinds of nodes that could potentially
	// initiate a successful match of the pattern.
	EntryKinds []pyast.Kind

	// Bindings lists the names of all bindings, in order of first
	// appearance.
	Bindings []string
}

func (p Pattern) String() string {
	return p.Root.String()
}

func MustParse(s string) Pattern {
	p := &Parser{}
	pat, err := p.Parse(s)
	if err != nil {
		panic(err)
	}
	return pat
}

var allKinds = []pyast.Kind{
	pyast.KindModule,
	pyast.KindExprStmt,
	pyast.KindAssign,
	pyast.KindCall,
	pyast.KindAttribute,
	pyast.KindName,
	pyast.KindStr,
	pyast.KindBool,
	pyast.KindKeyword,
	pyast.KindListLit,
	pyast.KindOpaque,
}

var nodeToKinds = map[reflect.Type][]pyast.Kind{
	reflect.TypeFor[String]():    nil,
	reflect.TypeFor[List]():      nil,
	reflect.TypeFor[Any]():       allKinds,
	reflect.TypeFor[Module]():    {pyast.KindModule},
	reflect.TypeFor[ExprStmt]():  {pyast.KindExprStmt},
	reflect.TypeFor[Assign]():    {pyast.KindAssign},
	reflect.TypeFor[Call]():      {pyast.KindCall},
	reflect.TypeFor[Attribute](): {pyast.KindAttribute},
	reflect.TypeFor[Name]():      {pyast.KindName},
	reflect.TypeFor[Str]():       {pyast.KindStr},
	reflect.TypeFor[Bool]():      {pyast.KindBool},
	reflect.TypeFor[Keyword]():   {pyast.KindKeyword},
	reflect.TypeFor[ListLit]():   {pyast.KindListLit},
	reflect.TypeFor[Opaque]():    {pyast.KindOpaque},
}

func collectEntryKinds(node Node, m map[pyast.Kind]struct{}) {
	switch node := node.(type) {
	case Or:
		for _, el := range node.Nodes {
			collectEntryKinds(el, m)
		}
	case Not:
		// A negation can match any node the negated pattern rejects.
		for _, k := range allKinds {
			m[k] = struct{}{}
		}
	case Binding:
		collectEntryKinds(node.Node, m)
	case Nil, nil:
		// this branch is reached via bindings
		for _, k := range allKinds {
			m[k] = struct{}{}
		}
	default:
		kinds, ok := nodeToKinds[reflect.TypeOf(node)]
		if !ok {
			panic(fmt.Sprintf("internal error: unhandled type %T", node))
		}
		for _, k := range kinds {
			m[k] = struct{}{}
		}
	}
}

type Parser struct {
	f        *token.File
	cur      item
	last     *item
	nextItem func() (item, bool)

	bindings []string
}

func (p *Parser) addBinding(name string) {
	for _, b := range p.bindings {
		if b == name {
			return
		}
	}
	p.bindings = append(p.bindings, name)
}

func (p *Parser) Parse(s string) (Pattern, error) {
	f := token.NewFileSet().AddFile("<input>", -1, len(s))
	f.SetLinesForContent([]byte(s))

	// Run the lexer iterator as a coroutine.
	// The parser will call 'next' to consume each item.
	// After the parser returns, we must call 'stop' to
	// terminate the coroutine.
	next, stop := iter.Pull(lex(f, s))
	defer stop()

	p.cur = item{}
	p.last = nil
	p.f = f
	p.nextItem = next
	p.bindings = nil

	// Parse.
	root, err := p.node()
	if err != nil {
		return Pattern{}, err
	}
	// Consume final EOF token.
	if it := p.next(); it.typ != itemEOF {
		return Pattern{}, p.unexpectedToken("end of pattern")
	}

	kinds := map[pyast.Kind]struct{}{}
	collectEntryKinds(root, kinds)
	entry := make([]pyast.Kind, 0, len(kinds))
	for _, k := range allKinds {
		if _, ok := kinds[k]; ok {
			entry = append(entry, k)
		}
	}
	return Pattern{
		Root:       root,
		EntryKinds: entry,
		Bindings:   append([]string(nil), p.bindings...),
	}, nil
}

func (p *Parser) next() item {
	if p.last != nil {
		n := *p.last
		p.last = nil
		return n
	}
	var ok bool
	p.cur, ok = p.nextItem()
	if !ok {
		p.cur = item{typ: itemEOF}
	}
	return p.cur
}

func (p *Parser) rewind() {
	p.last = &p.cur
}

func (p *Parser) peek() item {
	n := p.next()
	p.rewind()
	return n
}

func (p *Parser) accept(typ itemType) (item, bool) {
	n := p.next()
	if n.typ == typ {
		return n, true
	}
	p.rewind()
	return item{}, false
}

func (p *Parser) unexpectedToken(valid string) error {
	if p.cur.typ == itemError {
		return fmt.Errorf("error lexing input: %s", p.cur.val)
	}
	var got string
	switch p.cur.typ {
	case itemTypeName, itemVariable, itemString:
		got = p.cur.val
	default:
		got = "'" + p.cur.typ.String() + "'"
	}

	pos := p.f.Position(p.cur.pos)
	return fmt.Errorf("%s: expected %s, found %s", pos, valid, got)
}

func (p *Parser) node() (Node, error) {
	if _, ok := p.accept(itemLeftParen); !ok {
		return nil, p.unexpectedToken("'('")
	}
	typ, ok := p.accept(itemTypeName)
	if !ok {
		return nil, p.unexpectedToken("Node type")
	}

	var objs []Node
	for {
		if _, ok := p.accept(itemRightParen); ok {
			break
		} else {
			p.rewind()
			obj, err := p.object()
			if err != nil {
				return nil, err
			}
			objs = append(objs, obj)
		}
	}

	node, err := populateNode(typ.val, objs)
	if err != nil {
		return nil, err
	}
	if node, ok := node.(Binding); ok {
		p.addBinding(node.Name)
	}
	return node, nil
}

func populateNode(typ string, objs []Node) (Node, error) {
	T, ok := structNodes[typ]
	if !ok {
		return nil, fmt.Errorf("unknown node %s", typ)
	}

	pv := reflect.New(T)
	v := pv.Elem()

	if v.NumField() == 1 {
		f := v.Field(0)
		if f.Type().Kind() == reflect.Slice {
			// Variadic node
			f.Set(reflect.AppendSlice(f, reflect.ValueOf(objs)))
			return v.Interface().(Node), nil
		}
	}

	if len(objs) != v.NumField() {
		return nil, fmt.Errorf("tried to initialize node %s with %d values, expected %d", typ, len(objs), v.NumField())
	}

	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String {
			if obj, ok := objs[i].(String); ok {
				f.Set(reflect.ValueOf(string(obj)))
			} else {
				return nil, fmt.Errorf("first argument of (Binding name node) must be string, but got %s", objs[i])
			}
		} else {
			f.Set(reflect.ValueOf(objs[i]))
		}
	}
	return v.Interface().(Node), nil
}

var structNodes = map[string]reflect.Type{
	"Any":       reflect.TypeFor[Any](),
	"Nil":       reflect.TypeFor[Nil](),
	"List":      reflect.TypeFor[List](),
	"Binding":   reflect.TypeFor[Binding](),
	"Or":        reflect.TypeFor[Or](),
	"Not":       reflect.TypeFor[Not](),
	"Module":    reflect.TypeFor[Module](),
	"ExprStmt":  reflect.TypeFor[ExprStmt](),
	"Assign":    reflect.TypeFor[Assign](),
	"Call":      reflect.TypeFor[Call](),
	"Attribute": reflect.TypeFor[Attribute](),
	"Name":      reflect.TypeFor[Name](),
	"Str":       reflect.TypeFor[Str](),
	"Bool":      reflect.TypeFor[Bool](),
	"Keyword":   reflect.TypeFor[Keyword](),
	"ListLit":   reflect.TypeFor[ListLit](),
	"Opaque":    reflect.TypeFor[Opaque](),
}

func (p *Parser) object() (Node, error) {
	n := p.next()
	switch n.typ {
	case itemLeftParen:
		p.rewind()
		node, err := p.node()
		if err != nil {
			return node, err
		}
		if p.peek().typ == itemColon {
			p.next()
			tail, err := p.object()
			if err != nil {
				return node, err
			}
			return List{Head: node, Tail: tail}, nil
		}
		return node, nil
	case itemLeftBracket:
		p.rewind()
		return p.array()
	case itemVariable:
		v := n
		if v.val == "nil" {
			return Nil{}, nil
		}
		var b Binding
		if _, ok := p.accept(itemAt); ok {
			o, err := p.node()
			if err != nil {
				return nil, err
			}
			b = Binding{
				Name: v.val,
				Node: o,
			}
		} else {
			p.rewind()
			b = Binding{
				Name: v.val,
			}
		}
		p.addBinding(v.val)
		if p.peek().typ == itemColon {
			p.next()
			tail, err := p.object()
			if err != nil {
				return b, err
			}
			return List{Head: b, Tail: tail}, nil
		}
		return b, nil
	case itemBlank:
		if p.peek().typ == itemColon {
			p.next()
			tail, err := p.object()
			if err != nil {
				return Any{}, err
			}
			return List{Head: Any{}, Tail: tail}, nil
		}
		return Any{}, nil
	case itemString:
		return String(n.val), nil
	default:
		return nil, p.unexpectedToken("object")
	}
}

func (p *Parser) array() (Node, error) {
	if _, ok := p.accept(itemLeftBracket); !ok {
		return nil, p.unexpectedToken("'['")
	}

	var objs []Node
	for {
		if _, ok := p.accept(itemRightBracket); ok {
			break
		} else {
			p.rewind()
			obj, err := p.object()
			if err != nil {
				return nil, err
			}
			objs = append(objs, obj)
		}
	}

	tail := List{}
	for i := len(objs) - 1; i >= 0; i-- {
		l := List{
			Head: objs[i],
			Tail: tail,
		}
		tail = l
	}
	return tail, nil
}

/*
Node ::= itemLeftParen itemTypeName Object* itemRightParen
Object ::= Node | Array | Binding | itemVariable | itemBlank | itemString
Array := itemLeftBracket Object* itemRightBracket
Array := Object itemColon Object
Binding ::= itemVariable itemAt Node
*/
