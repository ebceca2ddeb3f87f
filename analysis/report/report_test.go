package report

import (
	"go/token"
	"testing"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/pyast"

	"github.com/google/go-cmp/cmp"
)

const src = `import subprocess
subprocess.run("ls -la", shell=True)
`

func site(fset *token.FileSet) *pyast.Call {
	f := fset.AddFile("a.py", -1, len(src))
	f.SetLinesForContent([]byte(src))
	pos := func(off int) token.Pos { return f.Pos(off) }
	return &pyast.Call{
		Span: pyast.Span{From: pos(18), To: pos(54)},
		Func: &pyast.Attribute{
			Span:  pyast.Span{From: pos(18), To: pos(32)},
			Value: &pyast.Name{Span: pyast.Span{From: pos(18), To: pos(28)}, ID: "subprocess"},
			Attr:  "run",
		},
		Args: []pyast.Node{
			&pyast.Str{Span: pyast.Span{From: pos(33), To: pos(41)}, Raw: `"ls -la"`, Value: "ls -la"},
			&pyast.Keyword{
				Span:  pyast.Span{From: pos(43), To: pos(53)},
				Name:  "shell",
				Value: &pyast.Bool{Span: pyast.Span{From: pos(49), To: pos(53)}, Value: true},
			},
		},
	}
}

var testAnalyzer = lint.InitializeAnalyzer(&lint.Analyzer{
	Name: "TEST1",
	Doc: &lint.RawDocumentation{
		Title:    "Test check",
		Severity: lint.SeverityWeakWarning,
	},
})

func TestReport(t *testing.T) {
	fset := token.NewFileSet()
	call := site(fset)

	var got []lint.Finding
	pass := &lint.Pass{
		Analyzer: testAnalyzer,
		Fset:     fset,
		Report:   func(f lint.Finding) { got = append(got, f) },
	}
	repl := &pyast.Call{
		Func: &pyast.Attribute{Value: &pyast.Name{ID: "subprocess"}, Attr: "call"},
		Args: []pyast.Node{&pyast.ListLit{Elts: []pyast.Expr{&pyast.Str{Value: "ls"}, &pyast.Str{Value: "-la"}}}},
	}
	Report(pass, call, "bad call", Fix("Convert", "ls -la", repl))

	if len(got) != 1 {
		t.Fatalf("got %d findings, expected 1", len(got))
	}
	f := got[0]
	if f.Check != "TEST1" || f.Severity != lint.SeverityWeakWarning || f.Site != call {
		t.Errorf("unexpected finding %+v", f)
	}

	want := lint.Descriptor{
		Check: "TEST1",
		Site: lint.Site{
			File:   "a.py",
			Offset: 18,
			End:    54,
			Callee: "subprocess.run",
		},
		Message: "bad call",
		Title:   "Convert",
		Command: "ls -la",
	}
	if diff := cmp.Diff(want, Describe(fset, f)); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}

	diag := Diagnostic(f)
	if diag.Category != "TEST1" || diag.Pos != call.Pos() || diag.End != call.End() {
		t.Errorf("unexpected diagnostic %+v", diag)
	}
	if len(diag.SuggestedFixes) != 1 {
		t.Fatalf("got %d suggested fixes, expected 1", len(diag.SuggestedFixes))
	}
	edits := diag.SuggestedFixes[0].TextEdits
	if len(edits) != 1 || string(edits[0].NewText) != `subprocess.call(["ls", "-la"])` {
		t.Errorf("unexpected edits %+v", edits)
	}
}

func TestDiagnosticWithoutReplacement(t *testing.T) {
	fset := token.NewFileSet()
	f := Finding(testAnalyzer, site(fset), "bad call", &lint.FixAction{Title: "Convert", Command: `a "b`})
	if diag := Diagnostic(f); len(diag.SuggestedFixes) != 0 {
		t.Errorf("expected no suggested fixes, got %+v", diag.SuggestedFixes)
	}
	if d := Describe(fset, f); d.Command != `a "b` {
		t.Errorf("descriptor lost command: %+v", d)
	}
}
