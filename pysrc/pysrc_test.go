package pysrc

import (
	"context"
	"errors"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/pyast"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse(context.Background(), token.NewFileSet(), "test.py", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

// lastCall returns the last call of fn in f.
func lastCall(t *testing.T, f *File, fn string) *pyast.Call {
	t.Helper()
	var out *pyast.Call
	for call := range f.Calls() {
		if call.Callee() == fn {
			out = call
		}
	}
	if out == nil {
		t.Fatalf("no call of %s in %q", fn, f.Source())
	}
	return out
}

func TestParse(t *testing.T) {
	src := "import subprocess\nsubprocess.run(\"ls -la\", shell=True)\n"
	f := mustParse(t, src)
	if f.HasErrors() {
		t.Fatal("unexpected syntax errors")
	}
	mod := f.Module()
	if len(mod.Body) != 2 {
		t.Fatalf("got %d statements, want 2", len(mod.Body))
	}
	if k := mod.Body[0].Kind(); k != pyast.KindOpaque {
		t.Errorf("import statement is %s, want %s", k, pyast.KindOpaque)
	}
	stmt, ok := mod.Body[1].(*pyast.ExprStmt)
	if !ok {
		t.Fatalf("second statement is %T, want *pyast.ExprStmt", mod.Body[1])
	}
	call, ok := stmt.X.(*pyast.Call)
	if !ok {
		t.Fatalf("expression is %T, want *pyast.Call", stmt.X)
	}
	if got := call.Callee(); got != "subprocess.run" {
		t.Errorf("callee = %q, want %q", got, "subprocess.run")
	}
	if got, want := pyast.Format(call), `subprocess.run("ls -la", shell=True)`; got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
	if got, want := f.Offset(call.Pos()), 18; got != want {
		t.Errorf("call starts at %d, want %d", got, want)
	}
	if got, want := f.Offset(call.End()), len(src)-1; got != want {
		t.Errorf("call ends at %d, want %d", got, want)
	}

	want := []pyast.Node{
		&pyast.Str{Value: "ls -la"},
		&pyast.Keyword{Name: "shell", Value: &pyast.Bool{Value: true}},
	}
	if len(call.Args) != len(want) {
		t.Fatalf("got %d arguments, want %d", len(call.Args), len(want))
	}
	for i := range want {
		if !pyast.Equal(call.Args[i], want[i]) {
			t.Errorf("argument %d = %s, want %s", i, pyast.Format(call.Args[i]), pyast.Format(want[i]))
		}
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		arg  string
		kind pyast.Kind
		want string
	}{
		{`"ls -la"`, pyast.KindStr, "ls -la"},
		{`'ls'`, pyast.KindStr, "ls"},
		{`r"C:\tmp"`, pyast.KindStr, `C:\tmp`},
		{`"a\tb"`, pyast.KindStr, "a\tb"},
		{`"""ls"""`, pyast.KindStr, "ls"},
		{`f"ls {d}"`, pyast.KindOpaque, ""},
		{`b"ls"`, pyast.KindOpaque, ""},
		{`"ls" " -la"`, pyast.KindOpaque, ""},
		{`("ls")`, pyast.KindStr, "ls"},
	}
	for _, tt := range tests {
		f := mustParse(t, "run("+tt.arg+")\n")
		arg := lastCall(t, f, "run").Args[0]
		if arg.Kind() != tt.kind {
			t.Errorf("%s: got %s, want %s", tt.arg, arg.Kind(), tt.kind)
			continue
		}
		if s, ok := arg.(*pyast.Str); ok && s.Value != tt.want {
			t.Errorf("%s: value = %q, want %q", tt.arg, s.Value, tt.want)
		}
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := Parse(context.Background(), token.NewFileSet(), "bad.py", []byte("x = '\xff'\n"))
	if !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("got %v, want %v", err, ErrInvalidContent)
	}
}

func TestParseSyntaxError(t *testing.T) {
	f := mustParse(t, "subprocess.run(\"ls\", shell=True\n")
	if !f.HasErrors() {
		t.Fatal("expected syntax errors")
	}
}

func TestResolveDeclaration(t *testing.T) {
	tests := []struct {
		name string
		src  string
		// value of the resolved string literal, or "" if the reference
		// shouldn't resolve
		want string
	}{
		{"module", "cmd = \"ls\"\nrun(cmd)\n", "ls"},
		{"annotated", "cmd: str = \"ls\"\nrun(cmd)\n", "ls"},
		{"chained", "a = cmd = \"ls\"\nrun(cmd)\n", "ls"},
		{"two bindings", "cmd = \"ls\"\ncmd = \"pwd\"\nrun(cmd)\n", ""},
		{"undefined", "run(cmd)\n", ""},
		{"use before assignment", "run(cmd)\ncmd = \"ls\"\n", "ls"},
		{"function local", "cmd = \"ls\"\ndef f():\n    cmd = \"pwd\"\n    run(cmd)\n", "pwd"},
		{"function reads module", "cmd = \"ls\"\ndef f():\n    run(cmd)\n", "ls"},
		{"global", "cmd = \"ls\"\ndef f():\n    global cmd\n    cmd = \"pwd\"\n    run(cmd)\n", ""},
		{"nonlocal", "def f():\n    cmd = \"ls\"\n    def g():\n        nonlocal cmd\n        cmd = \"pwd\"\n    run(cmd)\n", ""},
		{"class body", "class C:\n    cmd = \"ls\"\n    run(cmd)\n", "ls"},
		{"class hidden from methods", "class C:\n    cmd = \"ls\"\n    def m(self):\n        run(cmd)\n", ""},
		{"import", "import cmd\nrun(cmd)\n", ""},
		{"import alias", "cmd = \"ls\"\nimport os as cmd\nrun(cmd)\n", ""},
		{"parameter", "def f(cmd=\"ls\"):\n    run(cmd)\n", ""},
		{"default sees module", "cmd = \"ls\"\ndef f(x=run(cmd)):\n    pass\n", "ls"},
		{"for target", "cmd = \"ls\"\nfor cmd in xs:\n    pass\nrun(cmd)\n", ""},
		{"augmented", "cmd = \"ls\"\ncmd += \" -la\"\nrun(cmd)\n", ""},
		{"tuple", "cmd = \"ls\"\ncmd, x = a, b\nrun(cmd)\n", ""},
		{"with", "cmd = \"ls\"\nwith open(p) as cmd:\n    pass\nrun(cmd)\n", ""},
		{"walrus", "cmd = \"ls\"\nif (cmd := other()):\n    pass\nrun(cmd)\n", ""},
		{"comprehension doesn't leak", "cmd = \"ls\"\nxs = [cmd for cmd in ys]\nrun(cmd)\n", "ls"},
		{"non-literal", "cmd = get()\nrun(cmd)\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.src)
			ref, ok := lastCall(t, f, "run").Args[0].(*pyast.Name)
			if !ok {
				t.Fatalf("argument isn't a name")
			}
			decl := f.ResolveDeclaration(ref)
			var got string
			if a, ok := decl.(*pyast.Assign); ok {
				if s, ok := a.Value.(*pyast.Str); ok {
					got = s.Value
				}
			}
			if got != tt.want {
				t.Errorf("resolved to %q (%v), want %q", got, decl, tt.want)
			}
		})
	}
}

func TestResolveForeignName(t *testing.T) {
	f := mustParse(t, "cmd = \"ls\"\nrun(cmd)\n")
	if decl := f.ResolveDeclaration(&pyast.Name{ID: "cmd"}); decl != nil {
		t.Errorf("synthesized name resolved to %v", decl)
	}
	if decl := f.ResolveDeclaration(nil); decl != nil {
		t.Errorf("nil name resolved to %v", decl)
	}
}

func TestLocate(t *testing.T) {
	src := "import subprocess\nsubprocess.run(\"ls\", shell=True)\nsubprocess.run(\"ls\", shell=True)\n"
	f := mustParse(t, src)
	var calls []*pyast.Call
	for call := range f.Calls() {
		calls = append(calls, call)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	for _, call := range calls {
		site := lint.Site{
			File:   "test.py",
			Offset: f.Offset(call.Pos()),
			End:    f.Offset(call.End()),
			Callee: "subprocess.run",
		}
		got, ok := f.Locate(site)
		if !ok || got != call {
			t.Errorf("Locate(%v) = %v, %t", site, got, ok)
		}
	}

	second := lint.Site{Offset: f.Offset(calls[1].Pos()), End: f.Offset(calls[1].End())}
	bad := []lint.Site{
		{File: "other.py", Offset: second.Offset, End: second.End, Callee: "subprocess.run"},
		{Offset: second.Offset, End: second.End, Callee: "subprocess.call"},
		{Offset: second.Offset + 1, End: second.End, Callee: "subprocess.run"},
		{Offset: second.Offset, End: len(src) + 10, Callee: "subprocess.run"},
		{Offset: -1, End: second.End, Callee: "subprocess.run"},
	}
	for _, site := range bad {
		if got, ok := f.Locate(site); ok {
			t.Errorf("Locate(%v) = %v, want no match", site, got)
		}
	}
}

func TestReplaceNode(t *testing.T) {
	f := mustParse(t, "import subprocess\ncmd = \"ls -la\"\nsubprocess.run(cmd, shell=True)\n")
	old := lastCall(t, f, "subprocess.run")
	repl := &pyast.Call{
		Func: &pyast.Attribute{Value: &pyast.Name{ID: "subprocess"}, Attr: "call"},
		Args: []pyast.Node{&pyast.ListLit{Elts: []pyast.Expr{&pyast.Str{Value: "ls"}, &pyast.Str{Value: "-la"}}}},
	}
	if err := f.ReplaceNode(old, repl); err != nil {
		t.Fatalf("ReplaceNode: %v", err)
	}
	want := "import subprocess\ncmd = \"ls -la\"\nsubprocess.call([\"ls\", \"-la\"])\n"
	if diff := cmp.Diff(want, string(f.Source())); diff != "" {
		t.Errorf("source mismatch (-want +got):\n%s", diff)
	}
	if n := len(f.Module().Body); n != 3 {
		t.Errorf("got %d statements after reparse, want 3", n)
	}
	lastCall(t, f, "subprocess.call")

	// nodes of the previous tree are stale
	if err := f.ReplaceNode(old, repl); !errors.Is(err, ErrStaleNode) {
		t.Errorf("replacing stale node: got %v, want %v", err, ErrStaleNode)
	}
}

func TestReplaceNodeReadOnly(t *testing.T) {
	src := "subprocess.run(\"ls\", shell=True)\n"
	f := mustParse(t, src)
	f.SetReadOnly(true)
	call := lastCall(t, f, "subprocess.run")
	if err := f.ReplaceNode(call, &pyast.Name{ID: "x"}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("got %v, want %v", err, ErrReadOnly)
	}
	if string(f.Source()) != src {
		t.Errorf("read-only file was modified: %q", f.Source())
	}
}

func TestReplaceNodeSyntaxError(t *testing.T) {
	src := "subprocess.run(\"ls\", shell=True)\n"
	f := mustParse(t, src)
	call := lastCall(t, f, "subprocess.run")
	if err := f.ReplaceNode(call, &pyast.Opaque{Text: "(("}); !errors.Is(err, ErrSyntax) {
		t.Fatalf("got %v, want %v", err, ErrSyntax)
	}
	if string(f.Source()) != src {
		t.Errorf("file was modified: %q", f.Source())
	}
	// the tree is unchanged, so the call can still be replaced
	if err := f.ReplaceNode(call, &pyast.Name{ID: "x"}); err != nil {
		t.Errorf("ReplaceNode after failed edit: %v", err)
	}
}
