// Package pysrc parses Python source files into pyast trees and
// provides the services checks and fixes need: declaration lookup,
// locating calls and replacing nodes.
package pysrc

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"iter"
	"unicode/utf8"

	"github.com/pyguard/subprocheck/analysis/edit"
	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/pyast"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"golang.org/x/tools/go/analysis"
)

var (
	ErrInvalidContent = errors.New("invalid content")
	ErrReadOnly       = errors.New("file is read-only")
	ErrStaleNode      = errors.New("node is not part of the current tree")
	ErrSyntax         = errors.New("edit introduces syntax errors")
)

var (
	_ lint.FixHost = (*File)(nil)
)

// File is a parsed Python source file. Replacing nodes produces a new
// tree; nodes of the old tree are stale afterwards.
//
// A File isn't safe for concurrent use.
type File struct {
	fset     *token.FileSet
	name     string
	readOnly bool

	src    []byte
	tf     *token.File
	mod    *pyast.Module
	res    *resolver
	nodes  map[pyast.Node]struct{}
	errors int
}

// Parse parses src. Files with syntax errors are parsed on a best
// effort basis; HasErrors reports whether that happened.
func Parse(ctx context.Context, fset *token.FileSet, filename string, src []byte) (*File, error) {
	f := &File{
		fset: fset,
		name: filename,
	}
	st, err := parse(ctx, fset, filename, src)
	if err != nil {
		return nil, err
	}
	f.swap(st)
	return f, nil
}

type state struct {
	src    []byte
	tf     *token.File
	mod    *pyast.Module
	res    *resolver
	nodes  map[pyast.Node]struct{}
	errors int
}

func parse(ctx context.Context, fset *token.FileSet, filename string, src []byte) (*state, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidContent, filename)
	}

	// tree-sitter parsers aren't safe for concurrent use
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	defer tree.Close()
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: no syntax tree", filename)
	}

	tf := fset.AddFile(filename, -1, len(src))
	tf.SetLinesForContent(src)

	c := newConverter(src, tf)
	mod := c.module(root)
	finalize(c.scopes)

	nodes := map[pyast.Node]struct{}{}
	for n := range pyast.Preorder(mod) {
		nodes[n] = struct{}{}
	}
	return &state{
		src:    src,
		tf:     tf,
		mod:    mod,
		res:    &resolver{scopes: c.scopes, refs: c.refs},
		nodes:  nodes,
		errors: c.errors,
	}, nil
}

func (f *File) swap(st *state) {
	f.src = st.src
	f.tf = st.tf
	f.mod = st.mod
	f.res = st.res
	f.nodes = st.nodes
	f.errors = st.errors
}

func (f *File) Name() string          { return f.name }
func (f *File) Fset() *token.FileSet  { return f.fset }
func (f *File) Module() *pyast.Module { return f.mod }

// Source returns the current content of the file. It must not be
// modified.
func (f *File) Source() []byte { return f.src }

// HasErrors reports whether the file contains syntax errors.
func (f *File) HasErrors() bool { return f.errors > 0 }

// SetReadOnly makes ReplaceNode fail with ErrReadOnly.
func (f *File) SetReadOnly(ro bool) { f.readOnly = ro }

// Calls yields all calls in the file in source order.
func (f *File) Calls() iter.Seq[*pyast.Call] {
	return pyast.Calls(f.mod)
}

// ResolveDeclaration returns the assignment that declares ref, if ref
// has exactly one binding in the scope that defines it and that
// binding is an assignment of names. It returns nil otherwise.
func (f *File) ResolveDeclaration(ref *pyast.Name) pyast.Node {
	if ref == nil {
		return nil
	}
	return f.res.resolve(ref)
}

// Offset returns the byte offset of pos, which must belong to the
// current tree.
func (f *File) Offset(pos token.Pos) int {
	return f.tf.Offset(pos)
}

// Locate returns the call whose span and callee match site.
func (f *File) Locate(site lint.Site) (*pyast.Call, bool) {
	if site.File != "" && site.File != f.name {
		return nil, false
	}
	if site.Offset < 0 || site.End > len(f.src) || site.Offset > site.End {
		return nil, false
	}
	for call := range f.Calls() {
		if f.tf.Offset(call.Pos()) == site.Offset && f.tf.Offset(call.End()) == site.End && call.Callee() == site.Callee {
			return call, true
		}
	}
	return nil, false
}

// ReplaceNode replaces old, which must be a node of the current tree,
// with the source rendering of new, and reparses the file. If the
// result doesn't parse as cleanly as the original, the file is left
// unchanged and ErrSyntax is returned.
func (f *File) ReplaceNode(old, new pyast.Node) error {
	if f.readOnly {
		return ErrReadOnly
	}
	if old == nil {
		return ErrStaleNode
	}
	if _, ok := f.nodes[old]; !ok {
		return ErrStaleNode
	}
	if new == nil {
		return errors.New("replacement is nil")
	}

	e := edit.ReplaceWithNode(old, new)
	src, err := edit.Apply(f.src, f.tf.Base(), []analysis.TextEdit{e})
	if err != nil {
		return err
	}

	st, err := parse(context.Background(), f.fset, f.name, src)
	if err != nil {
		return err
	}
	if st.errors > f.errors {
		text := f.src[f.tf.Offset(old.Pos()):f.tf.Offset(old.End())]
		return fmt.Errorf("%w: replacing %q with %q", ErrSyntax, text, e.NewText)
	}
	f.swap(st)
	return nil
}
