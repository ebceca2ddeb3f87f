package lintcmd

import (
	"encoding/json"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/lintcmd/runner"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

func shortPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(cwd, path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}

func relativePositionString(pos token.Position) string {
	s := shortPath(pos.Filename)
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

type statter interface {
	Stats(total, errors, warnings int)
}

type formatter interface {
	Format(checks []*lint.Analyzer, diagnostics []runner.Diagnostic)
}

func newFormatter(name string, w io.Writer, failon map[string]bool) (formatter, error) {
	switch name {
	case "text":
		return textFormatter{W: w}, nil
	case "stylish":
		return &stylishFormatter{W: w, failon: failon}, nil
	case "json":
		return jsonFormatter{W: w}, nil
	case "yaml":
		return yamlFormatter{W: w}, nil
	case "null":
		return nullFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", name)
	}
}

type textFormatter struct {
	W io.Writer
}

func (o textFormatter) Format(_ []*lint.Analyzer, ps []runner.Diagnostic) {
	for _, p := range ps {
		fmt.Fprintf(o.W, "%s: %s\n", relativePositionString(p.Position), p.String())
	}
}

type nullFormatter struct{}

func (nullFormatter) Format([]*lint.Analyzer, []runner.Diagnostic) {}

type location struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

type fix struct {
	Title   string `json:"title" yaml:"title"`
	Command string `json:"command" yaml:"command"`
	// Replacement is the source the call is replaced with. It is empty
	// if the fix can't be computed.
	Replacement string `json:"replacement,omitempty" yaml:"replacement,omitempty"`
}

type problem struct {
	Code     string    `json:"code" yaml:"code"`
	Severity string    `json:"severity,omitempty" yaml:"severity,omitempty"`
	Location location  `json:"location" yaml:"location"`
	End      location  `json:"end" yaml:"end"`
	Message  string    `json:"message" yaml:"message"`
	Site     lint.Site `json:"site" yaml:"site"`
	Fix      *fix      `json:"fix,omitempty" yaml:"fix,omitempty"`
}

func toProblem(p runner.Diagnostic) problem {
	out := problem{
		Code:     p.Category,
		Severity: p.Severity.String(),
		Location: location{
			File:   p.Position.Filename,
			Line:   p.Position.Line,
			Column: p.Position.Column,
		},
		End: location{
			File:   p.End.Filename,
			Line:   p.End.Line,
			Column: p.End.Column,
		},
		Message: p.Message,
		Site:    p.Descriptor.Site,
	}
	if p.Descriptor.Title != "" {
		out.Fix = &fix{
			Title:   p.Descriptor.Title,
			Command: p.Descriptor.Command,
		}
		if len(p.SuggestedFixes) > 0 && len(p.SuggestedFixes[0].TextEdits) > 0 {
			out.Fix.Replacement = string(p.SuggestedFixes[0].TextEdits[0].NewText)
		}
	}
	return out
}

type jsonFormatter struct {
	W io.Writer
}

func (o jsonFormatter) Format(_ []*lint.Analyzer, ps []runner.Diagnostic) {
	enc := json.NewEncoder(o.W)
	for _, p := range ps {
		_ = enc.Encode(toProblem(p))
	}
}

type yamlFormatter struct {
	W io.Writer
}

func (o yamlFormatter) Format(_ []*lint.Analyzer, ps []runner.Diagnostic) {
	out := make([]problem, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProblem(p))
	}
	enc := yaml.NewEncoder(o.W)
	enc.SetIndent(2)
	_ = enc.Encode(out)
	_ = enc.Close()
}

type stylishFormatter struct {
	W io.Writer

	failon map[string]bool

	prevFile string
	tw       *tabwriter.Writer
}

func (o *stylishFormatter) Format(_ []*lint.Analyzer, ps []runner.Diagnostic) {
	errorCode := color.New(color.FgRed, color.Bold).SprintFunc()
	warningCode := color.New(color.FgYellow).SprintFunc()
	for _, p := range ps {
		pos := p.Position
		if pos.Filename == "" {
			pos.Filename = "-"
		}

		if pos.Filename != o.prevFile {
			if o.prevFile != "" {
				o.tw.Flush()
				fmt.Fprintln(o.W)
			}
			fmt.Fprintln(o.W, shortPath(pos.Filename))
			o.prevFile = pos.Filename
			o.tw = tabwriter.NewWriter(o.W, 0, 4, 2, ' ', 0)
		}

		codeFormatter := errorCode
		if !o.failon[p.Category] {
			codeFormatter = warningCode
		}

		fmt.Fprintf(o.tw, "  (%d, %d)\t%s\t%s\n", pos.Line, pos.Column, codeFormatter(p.Category), p.Message)
	}
}

func (o *stylishFormatter) Stats(total, errors, warnings int) {
	if o.tw != nil {
		o.tw.Flush()
		fmt.Fprintln(o.W)
	}

	icon := color.GreenString("✔")
	if warnings != 0 {
		icon = color.New(color.FgYellow, color.Bold).Sprint("!")
	}

	if errors != 0 {
		icon = color.RedString("✘")
	}

	fmt.Fprintf(o.W, " %s %d problems (%d errors, %d warnings)\n", icon, total, errors, warnings)
}
