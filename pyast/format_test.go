package pyast

import (
	"testing"
)

func name(id string) *Name { return &Name{ID: id} }

func TestFormat(t *testing.T) {
	tests := []struct {
		node Node
		out  string
	}{
		{
			&Call{
				Func: &Attribute{Value: name("subprocess"), Attr: "call"},
				Args: []Node{&ListLit{Elts: []Expr{&Str{Value: "ls"}, &Str{Value: "-la"}, &Str{Value: "/tmp"}}}},
			},
			`subprocess.call(["ls", "-la", "/tmp"])`,
		},
		{
			&Call{
				Func: &Attribute{Value: name("subprocess"), Attr: "call"},
				Args: []Node{&ListLit{}},
			},
			`subprocess.call([])`,
		},
		{
			&Call{
				Func: &Attribute{Value: name("subprocess"), Attr: "run"},
				Args: []Node{&Str{Raw: `'ls'`, Value: "ls"}, &Keyword{Name: "shell", Value: &Bool{Value: true}}},
			},
			`subprocess.run('ls', shell=True)`,
		},
		{
			&Assign{Targets: []Expr{name("a"), name("b")}, Value: &Str{Value: "x"}},
			`a = b = "x"`,
		},
		{
			&Module{Body: []Stmt{
				&Assign{Targets: []Expr{name("cmd")}, Value: &Str{Raw: `"echo hi"`}},
				&ExprStmt{X: &Call{Func: name("run"), Args: []Node{name("cmd"), &Keyword{Name: "check", Value: &Bool{}}}}},
			}},
			"cmd = \"echo hi\"\nrun(cmd, check=False)",
		},
		{&Opaque{Text: "a + b"}, "a + b"},
	}
	for _, tc := range tests {
		if got := Format(tc.node); got != tc.out {
			t.Errorf("Format(%s) == %q, expected %q", tc.node.Kind(), got, tc.out)
		}
	}
}

func TestEqual(t *testing.T) {
	a := &Call{
		Span: Span{From: 10, To: 40},
		Func: &Attribute{Value: name("subprocess"), Attr: "call"},
		Args: []Node{&Str{Raw: `'ls'`, Value: "ls"}},
	}
	b := &Call{
		Func: &Attribute{Value: name("subprocess"), Attr: "call"},
		Args: []Node{&Str{Value: "ls"}},
	}
	if !Equal(a, b) {
		t.Errorf("expected %s and %s to be equal", Format(a), Format(b))
	}
	b.Args = append(b.Args, &Keyword{Name: "shell", Value: &Bool{Value: true}})
	if Equal(a, b) {
		t.Errorf("expected %s and %s to differ", Format(a), Format(b))
	}
	if !Equal(nil, nil) || Equal(a, nil) {
		t.Errorf("nil handling is broken")
	}
}

func TestCallsOrder(t *testing.T) {
	inner := &Call{Func: name("inner")}
	outer := &Call{Func: name("outer"), Args: []Node{inner}}
	mod := &Module{Body: []Stmt{
		&ExprStmt{X: outer},
		&Opaque{Type: "if_statement", Text: "if x: last()", Children: []Node{&Call{Func: name("last")}}},
	}}

	var got []string
	for call := range Calls(mod) {
		got = append(got, call.Callee())
	}
	want := []string{"outer", "inner", "last"}
	if len(got) != len(want) {
		t.Fatalf("got calls %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d is %s, expected %s", i, got[i], want[i])
		}
	}
}
