// Package sec1001 flags subprocess calls that run a statically known
// command through the shell, and rewrites them to pass an argument
// list instead.
package sec1001

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pyguard/subprocheck/analysis/code"
	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/analysis/report"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/pattern"
	"github.com/pyguard/subprocheck/pyast"

	"golang.org/x/exp/slices"
)

const (
	checkName = "SEC1001"
	message   = "Unsafe subprocess call with shell=True"
	fixTitle  = "Convert to safe subprocess call"
)

var SCAnalyzer = lint.InitializeAnalyzer(&lint.Analyzer{
	Name:     checkName,
	Run:      run,
	NewFixer: newFixer,
	Doc: &lint.RawDocumentation{
		Title: "Unsafe subprocess call with shell=True",
		Text: `
Passing shell=True makes the command string subject to shell
interpretation. If any part of the command is ever built from
untrusted input, this allows shell injection.

When the command is a string literal, or a variable assigned a string
literal exactly once, the call can be rewritten to pass the command
as a list of arguments, which doesn't involve the shell. The command
is split on whitespace. Quotes, escapes and shell operators such as
pipes and redirections aren't interpreted, so commands that rely on
them have to be reviewed after the rewrite.

Calls whose shell argument isn't the literal True, such as
shell=flag, aren't flagged. Neither are calls that pass the flag
positionally.`,
		Before:   `subprocess.call("ls -la /tmp", shell=True)`,
		After:    `subprocess.call(["ls", "-la", "/tmp"])`,
		Since:    "Unreleased",
		Group:    "Security",
		Severity: lint.SeverityWeakWarning,
	},
})

var Analyzer = SCAnalyzer

var shellTrueQ = pattern.MustParse(`(Keyword "shell" (Bool "True"))`)

// Matcher decides whether a call site is an unsafe subprocess call. It
// is immutable and safe for concurrent use.
type Matcher struct {
	cfg   Config
	risky pattern.Pattern
	rw    *Rewriter
}

func NewMatcher(cfg Config) (*Matcher, error) {
	if len(cfg.RiskyCalls) == 0 {
		return nil, errors.New("no risky calls configured")
	}
	alts := make([]string, len(cfg.RiskyCalls))
	for i, c := range cfg.RiskyCalls {
		alts[i] = c.pattern()
	}
	src := fmt.Sprintf(`(Call callee@(Or %s) args@(List _ _))`, strings.Join(alts, " "))
	p := pattern.Parser{}
	q, err := p.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("compiling risky calls: %w", err)
	}
	return &Matcher{
		cfg:   cfg,
		risky: q,
		rw:    NewRewriter(cfg),
	}, nil
}

// Inspect returns a finding if site calls one of the risky calls with
// a statically known command and shell=True. The command is the first
// argument in source order.
func (m *Matcher) Inspect(site *pyast.Call, r code.SymbolResolver) (lint.Finding, bool) {
	if site == nil {
		return lint.Finding{}, false
	}
	// The pattern rejects calls without arguments.
	if _, ok := pattern.Match(m.risky, site); !ok {
		return lint.Finding{}, false
	}
	command, ok := code.ResolveString(site.Args[0], r).Text()
	if !ok {
		return lint.Finding{}, false
	}
	if !hasShellTrue(site) {
		return lint.Finding{}, false
	}

	// A command that can't be tokenized still gets a finding, just
	// without a precomputed replacement.
	repl, _ := m.rw.Replacement(command)
	f := lint.Finding{
		Check:    checkName,
		Site:     site,
		Message:  message,
		Severity: lint.SeverityWeakWarning,
		Fix: &lint.FixAction{
			Title:       fixTitle,
			Command:     command,
			Replacement: repl,
		},
	}
	return f, true
}

func hasShellTrue(site *pyast.Call) bool {
	for _, arg := range site.Args {
		if !slices.Contains(shellTrueQ.EntryKinds, arg.Kind()) {
			continue
		}
		if _, ok := pattern.Match(shellTrueQ, arg); ok {
			return true
		}
	}
	return false
}

func run(pass *lint.Pass) error {
	cfg, err := FromSettings(pass.Config)
	if err != nil {
		return err
	}
	m, err := NewMatcher(cfg)
	if err != nil {
		return err
	}
	pass.EachCall(func(site *pyast.Call) {
		f, ok := m.Inspect(site, pass.Resolver)
		if !ok {
			return
		}
		report.Report(pass, site, f.Message, report.Fix(f.Fix.Title, f.Fix.Command, f.Fix.Replacement))
	})
	return nil
}

func newFixer(cfg config.Config) (lint.Fixer, error) {
	c, err := FromSettings(cfg)
	if err != nil {
		return nil, err
	}
	return NewRewriter(c), nil
}
