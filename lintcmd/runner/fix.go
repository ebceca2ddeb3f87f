package runner

import (
	"errors"
	"fmt"
	"io"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/pysrc"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/exp/slices"
)

// FixResult is the outcome of applying one descriptor.
type FixResult struct {
	Descriptor lint.Descriptor
	Outcome    lint.Outcome
	Err        error
}

// Fix applies descriptors to f. Descriptors are applied in descending
// order of their end offsets, so that applying one doesn't move the
// calls described by the ones that follow. A call nested in the
// arguments of another flagged call ends first, so the enclosing call
// is rewritten first; the rewrite drops the nested call, whose
// descriptor then reports OutcomePreconditionLost. Fix continues after
// failed descriptors; their errors are recorded in the results.
func Fix(f *pysrc.File, cfg config.Config, analyzers []*lint.Analyzer, ds []lint.Descriptor) []FixResult {
	byName := map[string]*lint.Analyzer{}
	for _, a := range analyzers {
		byName[a.Name] = a
	}
	fixers := map[string]lint.Fixer{}
	fixer := func(check string) (lint.Fixer, error) {
		if fx, ok := fixers[check]; ok {
			return fx, nil
		}
		a, ok := byName[check]
		if !ok {
			return nil, fmt.Errorf("unknown check %s", check)
		}
		if a.NewFixer == nil {
			return nil, fmt.Errorf("check %s has no fix", check)
		}
		fx, err := a.NewFixer(cfg)
		if err != nil {
			return nil, fmt.Errorf("configuring fix for %s: %w", check, err)
		}
		fixers[check] = fx
		return fx, nil
	}

	sorted := append([]lint.Descriptor(nil), ds...)
	slices.SortFunc(sorted, func(a, b lint.Descriptor) bool {
		if a.Site.End != b.Site.End {
			return a.Site.End > b.Site.End
		}
		return a.Site.Offset < b.Site.Offset
	})

	results := make([]FixResult, 0, len(sorted))
	for _, d := range sorted {
		res := FixResult{Descriptor: d}
		fx, err := fixer(d.Check)
		if err != nil {
			res.Outcome = lint.OutcomeNotApplied
			res.Err = err
		} else {
			res.Outcome, res.Err = fx.Apply(f, d)
		}
		results = append(results, res)
	}
	return results
}

// PlanVersion is the version of the plan format written by WritePlan.
const PlanVersion = 1

var ErrPlanVersion = errors.New("unsupported plan version")

// A Plan is a list of fixes to be applied later.
type Plan struct {
	Version int               `msgpack:"version"`
	Fixes   []lint.Descriptor `msgpack:"fixes"`
}

// NewPlan returns a plan with the descriptors of all diagnostics that
// offer a fix.
func NewPlan(diags []Diagnostic) Plan {
	p := Plan{Version: PlanVersion}
	for _, d := range diags {
		if d.Descriptor.Title == "" {
			continue
		}
		p.Fixes = append(p.Fixes, d.Descriptor)
	}
	return p
}

// Files returns the names of the files the plan touches, in the order
// they first appear.
func (p Plan) Files() []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range p.Fixes {
		if !seen[d.Site.File] {
			seen[d.Site.File] = true
			out = append(out, d.Site.File)
		}
	}
	return out
}

// ForFile returns the fixes of the plan that apply to file.
func (p Plan) ForFile(file string) []lint.Descriptor {
	var out []lint.Descriptor
	for _, d := range p.Fixes {
		if d.Site.File == file {
			out = append(out, d)
		}
	}
	return out
}

func WritePlan(w io.Writer, p Plan) error {
	return msgpack.NewEncoder(w).Encode(p)
}

func ReadPlan(r io.Reader) (Plan, error) {
	var p Plan
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return Plan{}, fmt.Errorf("decoding plan: %w", err)
	}
	if p.Version != PlanVersion {
		return Plan{}, fmt.Errorf("%w %d", ErrPlanVersion, p.Version)
	}
	return p, nil
}
