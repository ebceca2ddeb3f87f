package sec1001

import (
	"fmt"

	"github.com/pyguard/subprocheck/analysis/code"
	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/pattern"
	"github.com/pyguard/subprocheck/pyast"
)

var replacementQ = pattern.MustParse(`(Call (Attribute qualifier name) [(ListLit tokens)])`)

// Rewriter replaces unsafe calls with a call of the safe callee that
// passes the tokenized command as a list.
type Rewriter struct {
	safe      Callee
	tokenizer Tokenizer
}

func NewRewriter(cfg Config) *Rewriter {
	return &Rewriter{
		safe:      cfg.SafeCall,
		tokenizer: cfg.Tokenizer,
	}
}

// Replacement returns the call that replaces an unsafe call running
// command.
func (rw *Rewriter) Replacement(command string) (pyast.Expr, error) {
	toks, err := Tokenize(command, rw.tokenizer)
	if err != nil {
		return nil, err
	}
	elts := make([]pyast.Expr, len(toks))
	for i, tok := range toks {
		elts[i] = &pyast.Str{Value: tok}
	}
	return code.Build(replacementQ, pattern.State{
		"qualifier": rw.safe.qualifierExpr(),
		"name":      rw.safe.Name,
		"tokens":    elts,
	})
}

// Apply rewrites the call described by d. The call is located anew
// and its command resolved again, so that changes made since d was
// created are taken into account. If the call is gone or its command
// is no longer known, Apply returns OutcomePreconditionLost and
// doesn't modify the tree.
func (rw *Rewriter) Apply(host lint.FixHost, d lint.Descriptor) (lint.Outcome, error) {
	site, ok := host.Locate(d.Site)
	if !ok || len(site.Args) == 0 {
		return lint.OutcomePreconditionLost, nil
	}
	command, ok := code.ResolveString(site.Args[0], host).Text()
	if !ok {
		return lint.OutcomePreconditionLost, nil
	}
	repl, err := rw.Replacement(command)
	if err != nil {
		return lint.OutcomeNotApplied, err
	}
	if err := host.ReplaceNode(site, repl); err != nil {
		return lint.OutcomeNotApplied, fmt.Errorf("replacing call at %s: %w", d.Site, err)
	}
	return lint.OutcomeApplied, nil
}
