package code

import (
	"testing"

	"github.com/pyguard/subprocheck/pattern"
	"github.com/pyguard/subprocheck/pyast"
)

type fakeResolver map[string]pyast.Node

func (r fakeResolver) ResolveDeclaration(ref *pyast.Name) pyast.Node {
	return r[ref.ID]
}

func assign(value pyast.Expr, targets ...string) *pyast.Assign {
	a := &pyast.Assign{Value: value}
	for _, t := range targets {
		a.Targets = append(a.Targets, &pyast.Name{ID: t})
	}
	return a
}

func TestResolveString(t *testing.T) {
	r := fakeResolver{
		"cmd":     assign(&pyast.Str{Raw: `"ls -la"`, Value: "ls -la"}, "cmd"),
		"chained": assign(&pyast.Str{Value: "echo"}, "chained", "other"),
		"alias":   assign(&pyast.Name{ID: "cmd"}, "alias"),
		"number":  assign(&pyast.Opaque{Type: "integer", Text: "42"}, "number"),
		"fstr":    assign(&pyast.Opaque{Type: "string", Text: `f"ls {x}"`}, "fstr"),
		"def":     &pyast.Opaque{Type: "function_definition", Text: "def def(): pass"},
	}

	tests := []struct {
		expr pyast.Node
		r    SymbolResolver
		want ResolvedValue
	}{
		{&pyast.Str{Value: "ls"}, nil, Literal("ls")},
		{&pyast.Str{Value: ""}, r, Literal("")},
		{&pyast.Name{ID: "cmd"}, r, Literal("ls -la")},
		{&pyast.Name{ID: "chained"}, r, Literal("echo")},
		// exactly one hop
		{&pyast.Name{ID: "alias"}, r, ResolvedValue{}},
		{&pyast.Name{ID: "number"}, r, ResolvedValue{}},
		{&pyast.Name{ID: "fstr"}, r, ResolvedValue{}},
		{&pyast.Name{ID: "def"}, r, ResolvedValue{}},
		{&pyast.Name{ID: "undefined"}, r, ResolvedValue{}},
		{&pyast.Name{ID: "cmd"}, nil, ResolvedValue{}},
		{&pyast.Opaque{Text: `"a" + "b"`}, r, ResolvedValue{}},
		{&pyast.Keyword{Name: "args", Value: &pyast.Str{Value: "ls"}}, r, ResolvedValue{}},
		{&pyast.Call{Func: &pyast.Name{ID: "get"}}, r, ResolvedValue{}},
		{nil, r, ResolvedValue{}},
	}

	for _, tc := range tests {
		got := ResolveString(tc.expr, tc.r)
		if got != tc.want {
			var src string
			if tc.expr != nil {
				src = pyast.Format(tc.expr)
			}
			t.Errorf("ResolveString(%s) == %s, expected %s", src, got, tc.want)
		}
	}
}

func TestResolvedValueText(t *testing.T) {
	if s, ok := Literal("").Text(); !ok || s != "" {
		t.Errorf("empty literal reported as (%q, %t)", s, ok)
	}
	if _, ok := (ResolvedValue{}).Text(); ok {
		t.Errorf("zero value reported as known")
	}
}

func TestBuild(t *testing.T) {
	after := pattern.MustParse(`(Call (Attribute qualifier name) [(ListLit tokens)])`)
	expr, err := Build(after, pattern.State{
		"qualifier": &pyast.Name{ID: "subprocess"},
		"name":      "call",
		"tokens":    []pyast.Expr{&pyast.Str{Value: "ls"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := pyast.Format(expr), `subprocess.call(["ls"])`; got != want {
		t.Errorf("got %s, expected %s", got, want)
	}

	if _, err := Build(after, pattern.State{}); err == nil {
		t.Errorf("expected error for missing bindings")
	}
}
