package edit

import (
	"go/token"
	"testing"

	"github.com/pyguard/subprocheck/pyast"

	"golang.org/x/tools/go/analysis"
)

func call(fn string, args ...pyast.Node) *pyast.Call {
	return &pyast.Call{Func: &pyast.Name{ID: fn}, Args: args}
}

func TestApply(t *testing.T) {
	src := []byte(`x = f(a)
y = g(b)
`)
	const base = 10
	pos := func(off int) token.Pos { return token.Pos(base + off) }

	edits := []analysis.TextEdit{
		ReplaceWithNode(Range{pos(13), pos(17)}, call("h")),
		ReplaceWithNode(Range{pos(4), pos(8)}, call("f",
			&pyast.ListLit{Elts: []pyast.Expr{&pyast.Str{Value: "a"}}})),
	}
	got, err := Apply(src, base, edits)
	if err != nil {
		t.Fatal(err)
	}
	want := `x = f(["a"])
y = h()
`
	if string(got) != want {
		t.Errorf("got %q, expected %q", got, want)
	}
}

func TestApplyOverlapping(t *testing.T) {
	src := []byte("abcdef")
	edits := []analysis.TextEdit{
		ReplaceWithNode(Range{1, 4}, &pyast.Name{ID: "x"}),
		ReplaceWithNode(Range{3, 5}, &pyast.Name{ID: "y"}),
	}
	if _, err := Apply(src, 1, edits); err == nil {
		t.Errorf("expected error for overlapping edits")
	}
	if _, err := Apply(src, 1, []analysis.TextEdit{ReplaceWithNode(Range{1, 20}, &pyast.Name{ID: "x"})}); err == nil {
		t.Errorf("expected error for out of range edit")
	}
}

func TestFix(t *testing.T) {
	fix := Fix("Convert",
		ReplaceWithNode(Range{1, 2}, &pyast.Name{ID: "x"}),
		ReplaceWithNode(Range{3, 4}, &pyast.Name{ID: "y"}))
	if fix.Message != "Convert" || len(fix.TextEdits) != 2 {
		t.Errorf("unexpected fix %+v", fix)
	}
}
