package pattern

import (
	"fmt"
	"reflect"

	"github.com/pyguard/subprocheck/pyast"
)

// State maps binding names to the values they matched: pyast nodes,
// slices of nodes, strings or booleans.
type State = map[string]interface{}

type Matcher struct {
	State State
}

type matcher interface {
	Match(*Matcher, interface{}) (interface{}, bool)
}

// Match reports whether the tree rooted at b matches the pattern a. On
// success, m.State holds the bindings.
func (m *Matcher) Match(a Pattern, b pyast.Node) bool {
	m.State = State{}
	_, ok := match(m, a.Root, b)
	return ok
}

// Match is a convenience wrapper around Matcher.Match.
func Match(a Pattern, b pyast.Node) (*Matcher, bool) {
	m := &Matcher{}
	ok := m.Match(a, b)
	return m, ok
}

func (m *Matcher) fork() *Matcher {
	state := make(State, len(m.State))
	for k, v := range m.State {
		state[k] = v
	}
	return &Matcher{State: state}
}

func (m *Matcher) merge(mc *Matcher) {
	m.State = mc.State
}

func match(m *Matcher, l Node, r interface{}) (interface{}, bool) {
	if _, ok := r.(Node); ok {
		panic("Node mustn't be on right side of match")
	}
	if l == nil {
		return r, isNilValue(r)
	}

	// Statements wrapping a single expression are transparent unless
	// the pattern asks for them.
	if stmt, ok := r.(*pyast.ExprStmt); ok && stmt != nil {
		if _, ok := l.(ExprStmt); !ok {
			if _, ok := l.(Binding); !ok {
				return match(m, l, stmt.X)
			}
		}
	}

	if l, ok := l.(matcher); ok {
		return l.Match(m, r)
	}
	panic(fmt.Sprintf("unexpected pattern node %T", l))
}

func (Any) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return node, true
}

func (Nil) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return node, isNilValue(node)
}

func (s String) Match(m *Matcher, node interface{}) (interface{}, bool) {
	switch node := node.(type) {
	case string:
		return node, string(s) == node
	case bool:
		if node {
			return node, s == "True"
		}
		return node, s == "False"
	default:
		return nil, false
	}
}

func (l List) Match(m *Matcher, node interface{}) (interface{}, bool) {
	v := reflect.ValueOf(node)
	if v.Kind() == reflect.Slice {
		if isNil(l.Head) {
			return node, v.Len() == 0
		}
		if v.Len() == 0 {
			return nil, false
		}
		// OPT(dh): don't check the entire tail if head didn't match
		_, ok1 := match(m, l.Head, v.Index(0).Interface())
		_, ok2 := match(m, l.Tail, v.Slice(1, v.Len()).Interface())
		return node, ok1 && ok2
	}
	// Our empty list does not equal an untyped Go nil. This way, we can
	// tell apart a call without arguments from a missing node.
	return nil, false
}

func (b Binding) Match(m *Matcher, node interface{}) (interface{}, bool) {
	if isNil(b.Node) {
		v, ok := m.State[b.Name]
		if ok {
			// Recall value
			return node, equalValues(v, node)
		}
		// Matching anything
		b.Node = Any{}
	}

	// Store value
	if _, ok := m.State[b.Name]; ok {
		panic(fmt.Sprintf("binding already created: %s", b.Name))
	}
	new, ret := match(m, b.Node, node)
	if ret {
		m.State[b.Name] = new
	}
	return new, ret
}

func (or Or) Match(m *Matcher, node interface{}) (interface{}, bool) {
	for _, opt := range or.Nodes {
		mc := m.fork()
		if ret, ok := match(mc, opt, node); ok {
			m.merge(mc)
			return ret, true
		}
	}
	return nil, false
}

func (not Not) Match(m *Matcher, node interface{}) (interface{}, bool) {
	_, ok := match(m.fork(), not.Node, node)
	if ok {
		return nil, false
	}
	return node, true
}

func (n Module) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n ExprStmt) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Assign) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Call) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Attribute) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Name) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Str) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Bool) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Keyword) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n ListLit) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

func (n Opaque) Match(m *Matcher, node interface{}) (interface{}, bool) {
	return matchNode(m, n, node)
}

// matchNode matches a pattern struct against the pyast node of the same
// name, field by field.
func matchNode(m *Matcher, l Node, r interface{}) (interface{}, bool) {
	rn, ok := r.(pyast.Node)
	if !ok || isNilValue(r) {
		return nil, false
	}
	lv := reflect.ValueOf(l)
	rv := reflect.ValueOf(rn).Elem()
	if lv.Type().Name() != rv.Type().Name() {
		return nil, false
	}
	for i := 0; i < lv.NumField(); i++ {
		name := lv.Type().Field(i).Name
		rf := rv.FieldByName(name)
		if !rf.IsValid() {
			panic(fmt.Sprintf("internal error: %s has no field %s", rv.Type(), name))
		}
		lf, _ := lv.Field(i).Interface().(Node)
		if _, ok := match(m, lf, rf.Interface()); !ok {
			return nil, false
		}
	}
	return r, true
}

func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

func equalValues(a, b interface{}) bool {
	an, aok := a.(pyast.Node)
	bn, bok := b.(pyast.Node)
	if aok && bok {
		return pyast.Equal(an, bn)
	}
	return reflect.DeepEqual(a, b)
}
