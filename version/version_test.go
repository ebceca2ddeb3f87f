package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "subprocheck")
	out := buf.String()
	if !strings.HasPrefix(out, "subprocheck ") || !strings.HasSuffix(out, "\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	Verbose(&buf, "subprocheck")
	if !strings.Contains(buf.String(), "Compiled with Go version:") {
		t.Errorf("output lacks Go version:\n%s", buf.String())
	}
}
