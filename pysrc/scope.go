package pysrc

import (
	"github.com/pyguard/subprocheck/pyast"
)

type scopeKind uint8

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
	// comprehensions and generator expressions
	scopeComprehension
)

type binding struct {
	name string
	// decl is the assignment that created the binding, or nil for any
	// other kind of binding (parameters, imports, loop targets, ...).
	decl pyast.Node
}

type scope struct {
	kind   scopeKind
	parent *scope

	// bindings in the order they were encountered, before global and
	// nonlocal declarations have been taken into account.
	raw []binding
	// bindings after finalize
	names map[string][]pyast.Node

	globals   map[string]bool
	nonlocals map[string]bool
}

func newScope(kind scopeKind, parent *scope) *scope {
	return &scope{
		kind:      kind,
		parent:    parent,
		names:     map[string][]pyast.Node{},
		globals:   map[string]bool{},
		nonlocals: map[string]bool{},
	}
}

func (s *scope) module() *scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *scope) bindsRaw(name string) bool {
	for _, b := range s.raw {
		if b.name == name {
			return true
		}
	}
	return false
}

// nonlocalTarget returns the nearest enclosing function scope that
// binds name, or the nearest enclosing function scope if none does.
func (s *scope) nonlocalTarget(name string) *scope {
	var first *scope
	for p := s.parent; p != nil; p = p.parent {
		if p.kind != scopeFunction && p.kind != scopeComprehension {
			continue
		}
		if first == nil {
			first = p
		}
		if p.bindsRaw(name) && !p.nonlocals[name] {
			return p
		}
	}
	if first == nil {
		return s
	}
	return first
}

// target returns the scope that a binding of name in s ends up in.
func (s *scope) target(name string) *scope {
	switch {
	case s.globals[name]:
		return s.module()
	case s.nonlocals[name]:
		return s.nonlocalTarget(name)
	default:
		return s
	}
}

// lookup returns the scope that defines name as seen from s. Class
// scopes are only visible to code directly inside them.
func (s *scope) lookup(name string) *scope {
	if s.globals[name] {
		return s.module()
	}
	if s.nonlocals[name] {
		return s.nonlocalTarget(name)
	}
	if len(s.names[name]) > 0 {
		return s
	}
	for p := s.parent; p != nil; p = p.parent {
		if p.kind == scopeClass {
			continue
		}
		if len(p.names[name]) > 0 {
			return p
		}
	}
	return nil
}

// finalize moves the raw bindings of all scopes to the scopes they
// belong to.
func finalize(scopes []*scope) {
	for _, s := range scopes {
		for _, b := range s.raw {
			t := s.target(b.name)
			t.names[b.name] = append(t.names[b.name], b.decl)
		}
	}
}

type resolver struct {
	scopes []*scope
	refs   map[*pyast.Name]*scope
}

// resolve returns the declaration of ref if ref has exactly one binding
// and that binding is an assignment.
func (r *resolver) resolve(ref *pyast.Name) pyast.Node {
	s, ok := r.refs[ref]
	if !ok {
		return nil
	}
	owner := s.lookup(ref.ID)
	if owner == nil {
		return nil
	}
	decls := owner.names[ref.ID]
	if len(decls) != 1 {
		return nil
	}
	return decls[0]
}
