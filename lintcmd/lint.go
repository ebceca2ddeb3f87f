package lintcmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/lintcmd/runner"
	"github.com/pyguard/subprocheck/pysrc"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// configCache loads the configuration of each directory once.
type configCache struct {
	mu   sync.Mutex
	cfgs map[string]configEntry
}

type configEntry struct {
	cfg config.Config
	err error
}

func (c *configCache) load(dir string) (config.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cfgs[dir]; ok {
		return e.cfg, e.err
	}
	if c.cfgs == nil {
		c.cfgs = map[string]configEntry{}
	}
	cfg, err := config.Load(dir)
	c.cfgs[dir] = configEntry{cfg, err}
	return cfg, err
}

// A fileResult is the outcome of checking one file.
type fileResult struct {
	path      string
	file      *pysrc.File
	cfg       config.Config
	analyzers []*lint.Analyzer
	diags     []runner.Diagnostic
	err       error
}

// collectFiles returns the Python files named by paths. Directories
// are walked recursively, skipping hidden directories and excluded
// files.
func collectFiles(paths []string, configs *configCache) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := map[string]bool{}
	var out []string
	add := func(path string) error {
		path = filepath.Clean(path)
		if seen[path] {
			return nil
		}
		cfg, err := configs.load(filepath.Dir(path))
		if err != nil {
			return err
		}
		if cfg.Excluded(path) {
			glog.V(1).Infof("skipping excluded file %s", path)
			return nil
		}
		seen[path] = true
		out = append(out, path)
		return nil
	}

	for _, root := range paths {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			if err := add(root); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".py" {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(out)
	return out, nil
}

// enabledAnalyzers returns the analyzers enabled by the checks of cfg.
func enabledAnalyzers(analyzers map[string]*lint.Analyzer, cfg config.Config) ([]*lint.Analyzer, error) {
	names := maps.Keys(analyzers)
	slices.Sort(names)
	allowed, err := filterAnalyzerNames(names, cfg.Security.Checks)
	if err != nil {
		return nil, err
	}
	var out []*lint.Analyzer
	for _, name := range names {
		if allowed[name] {
			out = append(out, analyzers[name])
		}
	}
	return out, nil
}

// lint checks files in parallel, using at most jobs goroutines. Errors
// in individual files are recorded in their results and don't stop
// the other files from being checked.
func (cmd *Command) lint(ctx context.Context, paths []string) ([]fileResult, error) {
	configs := &configCache{}
	files, err := collectFiles(paths, configs)
	if err != nil {
		return nil, err
	}

	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if cmd.flags.jobs > 0 {
		g.SetLimit(cmd.flags.jobs)
	}
	for i, path := range files {
		g.Go(func() error {
			res := fileResult{path: path}
			defer func() { results[i] = res }()

			res.cfg, res.err = configs.load(filepath.Dir(path))
			if res.err != nil {
				return nil
			}
			res.analyzers, res.err = enabledAnalyzers(cmd.analyzers, res.cfg)
			if res.err != nil {
				res.err = fmt.Errorf("%s: %w", path, res.err)
				return nil
			}
			glog.V(1).Infof("checking %s with %d checks", path, len(res.analyzers))
			res.file, res.diags, res.err = runner.CheckPath(ctx, path, res.cfg, res.analyzers)
			// cancellation is the only error that affects other files
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.err != nil {
			glog.Errorf("%s: %v", res.path, res.err)
		}
	}
	return results, nil
}
