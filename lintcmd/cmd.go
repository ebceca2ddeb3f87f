// Package lintcmd implements the frontend of the checker.
// It serves as the entry-point for the subprocheck command.
package lintcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/lintcmd/runner"
	"github.com/pyguard/subprocheck/pysrc"
	"github.com/pyguard/subprocheck/version"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// exitError makes Execute return a specific exit status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// errProblems is returned by the check command when it found problems
// in checks that should fail the run.
var errProblems = &exitError{code: 1}

// Command represents the checker command line tool.
type Command struct {
	name      string
	analyzers map[string]*lint.Analyzer

	stdout io.Writer
	stderr io.Writer

	flags struct {
		formatter string
		fail      []string
		plan      string
		jobs      int
		dryRun    bool
		verbose   bool
	}
}

// NewCommand returns a new Command.
func NewCommand(name string) *Command {
	cmd := &Command{
		name:      name,
		analyzers: map[string]*lint.Analyzer{},
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	return cmd
}

// AddAnalyzers adds analyzers to the command.
func (cmd *Command) AddAnalyzers(as ...*lint.Analyzer) {
	for _, a := range as {
		cmd.analyzers[a.Name] = a
	}
}

// SetOutput redirects the command's standard output and error.
func (cmd *Command) SetOutput(stdout, stderr io.Writer) {
	cmd.stdout = stdout
	cmd.stderr = stderr
}

func (cmd *Command) sortedAnalyzers() []*lint.Analyzer {
	names := maps.Keys(cmd.analyzers)
	slices.Sort(names)
	out := make([]*lint.Analyzer, len(names))
	for i, name := range names {
		out[i] = cmd.analyzers[name]
	}
	return out
}

func (cmd *Command) root() *cobra.Command {
	root := &cobra.Command{
		Use:           cmd.name,
		Short:         "Find and fix subprocess calls that run constant commands through the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cmd.stdout)
	root.SetErr(cmd.stderr)
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	check := &cobra.Command{
		Use:   "check [paths]",
		Short: "Report problems",
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.runCheck(c.Context(), args)
		},
	}
	check.Flags().StringVarP(&cmd.flags.formatter, "format", "f", "text", "Output `format` (valid choices are 'text', 'stylish', 'json' and 'yaml')")
	check.Flags().StringSliceVar(&cmd.flags.fail, "fail", []string{"all"}, "`checks` that can cause a non-zero exit status")
	check.Flags().StringVar(&cmd.flags.plan, "plan", "", "Write a plan of all fixes to `file`")

	fix := &cobra.Command{
		Use:   "fix [paths]",
		Short: "Rewrite files, applying all fixes",
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.runFix(c.Context(), args)
		},
	}
	fix.Flags().BoolVar(&cmd.flags.dryRun, "dry-run", false, "Print the fixed files instead of writing them")

	apply := &cobra.Command{
		Use:   "apply PLAN",
		Short: "Apply the fixes of a plan written by 'check --plan'",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.runApply(c.Context(), args[0])
		},
	}
	apply.Flags().BoolVar(&cmd.flags.dryRun, "dry-run", false, "Print the fixed files instead of writing them")

	for _, c := range []*cobra.Command{check, fix} {
		c.Flags().IntVarP(&cmd.flags.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Number of files to check in parallel")
	}

	explain := &cobra.Command{
		Use:   "explain CHECK",
		Short: "Print the description of a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.runExplain(args[0])
		},
	}

	listChecks := &cobra.Command{
		Use:   "list-checks",
		Short: "List all available checks",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			for _, a := range cmd.sortedAnalyzers() {
				fmt.Fprintf(cmd.stdout, "%s %s\n", a.Name, a.Documentation().Title)
			}
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			if cmd.flags.verbose {
				version.Verbose(cmd.stdout, cmd.name)
			} else {
				version.Print(cmd.stdout, cmd.name)
			}
		},
	}
	versionCmd.Flags().BoolVar(&cmd.flags.verbose, "verbose", false, "Print detailed version information")

	root.AddCommand(check, fix, apply, explain, listChecks, versionCmd)
	return root
}

// Execute runs the command with args and returns its exit status.
func (cmd *Command) Execute(ctx context.Context, args []string) int {
	root := cmd.root()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	glog.Flush()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(cmd.stderr, ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(cmd.stderr, err)
	return 1
}

func (cmd *Command) runExplain(name string) error {
	a, ok := cmd.analyzers[name]
	if !ok {
		return &exitError{code: 2, err: fmt.Errorf("couldn't find check %s", name)}
	}
	fmt.Fprint(cmd.stdout, a.Documentation())
	return nil
}

func (cmd *Command) runCheck(ctx context.Context, paths []string) error {
	analyzers := cmd.sortedAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	failon, err := filterAnalyzerNames(names, cmd.flags.fail)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	f, err := newFormatter(cmd.flags.formatter, cmd.stdout, failon)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	results, err := cmd.lint(ctx, paths)
	if err != nil {
		return err
	}

	var (
		diags    []runner.Diagnostic
		failed   bool
		errs     int
		warnings int
	)
	for _, res := range results {
		if res.err != nil {
			failed = true
			continue
		}
		diags = append(diags, res.diags...)
	}
	for _, d := range diags {
		if failon[d.Category] {
			errs++
		} else {
			warnings++
		}
	}
	f.Format(analyzers, diags)
	if s, ok := f.(statter); ok {
		s.Stats(len(diags), errs, warnings)
	}

	if cmd.flags.plan != "" {
		if err := writePlan(cmd.flags.plan, runner.NewPlan(diags)); err != nil {
			return err
		}
	}

	if failed {
		return &exitError{code: 1, err: errors.New("some files couldn't be checked")}
	}
	if errs > 0 {
		return errProblems
	}
	return nil
}

func writePlan(path string, p runner.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := runner.WritePlan(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (cmd *Command) runFix(ctx context.Context, paths []string) error {
	results, err := cmd.lint(ctx, paths)
	if err != nil {
		return err
	}
	var failed bool
	for _, res := range results {
		if res.err != nil {
			failed = true
			continue
		}
		plan := runner.NewPlan(res.diags)
		if len(plan.Fixes) == 0 {
			continue
		}
		if !cmd.applyFixes(res.file, res.cfg, res.analyzers, plan.Fixes) {
			failed = true
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func (cmd *Command) runApply(ctx context.Context, planPath string) error {
	f, err := os.Open(planPath)
	if err != nil {
		return err
	}
	plan, err := runner.ReadPlan(f)
	f.Close()
	if err != nil {
		return err
	}

	failed := false
	for _, path := range plan.Files() {
		file, cfg, analyzers, err := cmd.load(ctx, path)
		if err != nil {
			glog.Errorf("%s: %v", path, err)
			failed = true
			continue
		}
		if !cmd.applyFixes(file, cfg, analyzers, plan.ForFile(path)) {
			failed = true
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// load parses the file at path with the analyzers its configuration
// enables.
func (cmd *Command) load(ctx context.Context, path string) (*pysrc.File, config.Config, []*lint.Analyzer, error) {
	configs := &configCache{}
	cfg, err := configs.load(filepath.Dir(path))
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	analyzers, err := enabledAnalyzers(cmd.analyzers, cfg)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	file, _, err := runner.CheckPath(ctx, path, cfg, nil)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return file, cfg, analyzers, nil
}

// applyFixes applies ds to file and writes the result. It reports
// whether all fixes applied or were skipped because they no longer
// apply.
func (cmd *Command) applyFixes(file *pysrc.File, cfg config.Config, analyzers []*lint.Analyzer, ds []lint.Descriptor) bool {
	ok := true
	applied := 0
	for _, res := range runner.Fix(file, cfg, analyzers, ds) {
		switch res.Outcome {
		case lint.OutcomeApplied:
			applied++
			glog.V(1).Infof("%s: applied %q", res.Descriptor.Site, res.Descriptor.Title)
		case lint.OutcomePreconditionLost:
			fmt.Fprintf(cmd.stderr, "%s: skipped %s: %s\n", file.Name(), res.Descriptor.Check, res.Outcome)
		case lint.OutcomeNotApplied:
			ok = false
			glog.Errorf("%s: %s %s: %v", res.Descriptor.Site, res.Descriptor.Check, res.Outcome, res.Err)
		}
	}
	if applied == 0 {
		return ok
	}

	if cmd.flags.dryRun {
		fmt.Fprintf(cmd.stdout, "--- %s\n", file.Name())
		cmd.stdout.Write(file.Source())
		return ok
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(file.Name()); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(file.Name(), file.Source(), mode); err != nil {
		glog.Errorf("writing %s: %v", file.Name(), err)
		return false
	}
	fmt.Fprintf(cmd.stderr, "%s: applied %d fixes\n", file.Name(), applied)
	return ok
}
