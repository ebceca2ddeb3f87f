package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

const Version = "devel"

// version returns a version descriptor and reports whether the
// version is a known release.
func version() (string, bool) {
	if Version != "devel" {
		return Version, true
	}
	v, ok := buildInfoVersion()
	if ok {
		return v, false
	}
	return "devel", false
}

// Print writes the version of the program called name to w.
func Print(w io.Writer, name string) {
	v, release := version()

	if release {
		fmt.Fprintf(w, "%s %s\n", name, v)
	} else if v == "devel" {
		fmt.Fprintf(w, "%s (no version)\n", name)
	} else {
		fmt.Fprintf(w, "%s (devel, %s)\n", name, v)
	}
}

// Verbose is like Print but also includes the Go version and the
// program's dependencies.
func Verbose(w io.Writer, name string) {
	Print(w, name)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compiled with Go version:", runtime.Version())
	printBuildInfo(w)
}

func printModule(w io.Writer, m *debug.Module) {
	fmt.Fprintf(w, "\t%s", m.Path)
	if m.Version != "(devel)" {
		fmt.Fprintf(w, "@%s", m.Version)
	}
	if m.Sum != "" {
		fmt.Fprintf(w, " (sum: %s)", m.Sum)
	}
	if m.Replace != nil {
		fmt.Fprintf(w, " (replace: %s)", m.Replace.Path)
	}
	fmt.Fprintln(w)
}
