package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

type config struct {
	cfg  Config
	meta toml.MetaData
}

func mergeLists(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, el := range b {
		if el == "inherit" {
			out = append(out, a...)
		} else {
			out = append(out, el)
		}
	}
	return out
}

func normalizeList(list []string) []string {
	if len(list) > 1 {
		sort.Strings(list)
		nlist := make([]string, 0, len(list))
		nlist = append(nlist, list[0])
		for i, el := range list[1:] {
			if el != list[i] {
				nlist = append(nlist, el)
			}
		}
		list = nlist
	}
	for _, el := range list {
		if el == "inherit" {
			// This should never happen, because the default config
			// should not use "inherit"
			panic(`unresolved "inherit"`)
		}
	}
	return list
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("general", "exclude") {
		cfg.cfg.General.Exclude = mergeLists(cfg.cfg.General.Exclude, ocfg.cfg.General.Exclude)
	}

	if ocfg.meta.IsDefined("security", "checks") {
		cfg.cfg.Security.Checks = mergeLists(cfg.cfg.Security.Checks, ocfg.cfg.Security.Checks)
	}
	if ocfg.meta.IsDefined("security", "risky_calls") {
		cfg.cfg.Security.RiskyCalls = mergeLists(cfg.cfg.Security.RiskyCalls, ocfg.cfg.Security.RiskyCalls)
	}
	if ocfg.meta.IsDefined("security", "safe_call") {
		cfg.cfg.Security.SafeCall = ocfg.cfg.Security.SafeCall
	}
	if ocfg.meta.IsDefined("security", "tokenizer") {
		cfg.cfg.Security.Tokenizer = ocfg.cfg.Security.Tokenizer
	}
	return cfg
}

type Config struct {
	General  GeneralConfig  `toml:"general"`
	Security SecurityConfig `toml:"security"`
}

type GeneralConfig struct {
	// Exclude lists doublestar globs of files that aren't checked.
	Exclude []string `toml:"exclude"`
}

type Checklist struct {
	Checks []string `toml:"checks"`
}

type SecurityConfig struct {
	Checklist
	// RiskyCalls lists the calls that run commands, as
	// "qualifier.name".
	RiskyCalls []string `toml:"risky_calls"`
	// SafeCall is the call that fixes rewrite risky calls to.
	SafeCall string `toml:"safe_call"`
	// Tokenizer selects how commands are split into arguments, either
	// "fields" or "shlex".
	Tokenizer string `toml:"tokenizer"`
}

var defaultConfig = Config{
	General:  defaultGeneralConfig,
	Security: defaultSecurityConfig,
}

var defaultGeneralConfig = GeneralConfig{
	Exclude: []string{},
}

var defaultSecurityConfig = SecurityConfig{
	Checklist: Checklist{
		Checks: []string{"all"},
	},
	RiskyCalls: []string{
		"subprocess.Popen",
		"subprocess.call",
		"subprocess.run",
	},
	SafeCall:  "subprocess.call",
	Tokenizer: "fields",
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := defaultConfig
	cfg.General.Exclude = append([]string(nil), cfg.General.Exclude...)
	cfg.Security.Checks = append([]string(nil), cfg.Security.Checks...)
	cfg.Security.RiskyCalls = append([]string(nil), cfg.Security.RiskyCalls...)
	return cfg
}

const configName = "subprocheck.conf"

func parseConfigs(dir string) ([]config, error) {
	var out []config

	for dir != "" {
		f, err := os.Open(filepath.Join(dir, configName))
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		var cfg Config
		meta, err := toml.NewDecoder(f).Decode(&cfg)
		f.Close()
		if err != nil {
			return nil, &ParseError{Filename: filepath.Join(dir, configName), Err: err}
		}
		out = append(out, config{cfg, meta})
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, config{
		cfg:  Default(),
		meta: toml.MetaData{}, // meta of the base config should never be accessed
	})
	if len(out) < 2 {
		return out, nil
	}
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

func mergeConfigs(confs []config) Config {
	if len(confs) == 0 {
		// This shouldn't happen because we always have at least a
		// default config.
		panic("trying to merge zero configs")
	}
	if len(confs) == 1 {
		return confs[0].cfg
	}
	conf := confs[0]
	for _, oconf := range confs[1:] {
		conf = conf.Merge(oconf)
	}
	return conf.cfg
}

// Load returns the configuration for files in dir, merging all
// subprocheck.conf files from the root down to dir onto the defaults.
// A relative dir is resolved against the working directory first.
func Load(dir string) (Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, err
	}
	confs, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	conf := mergeConfigs(confs)

	// Checks are order-sensitive ("all", "-SEC1001") and are resolved
	// by the frontend.
	conf.General.Exclude = normalizeList(conf.General.Exclude)
	conf.Security.RiskyCalls = normalizeList(conf.Security.RiskyCalls)

	return conf, nil
}

type ParseError struct {
	Filename string
	Err      error
}

func (err *ParseError) Error() string {
	return "error parsing " + err.Filename + ": " + err.Err.Error()
}

func (err *ParseError) Unwrap() error { return err.Err }

// Excluded reports whether path matches one of the exclusion globs.
// Globs without a slash also match against the file's base name.
func (cfg Config) Excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, glob := range cfg.General.Exclude {
		if ok, _ := doublestar.Match(glob, slashed); ok {
			return true
		}
		if !strings.Contains(glob, "/") {
			if ok, _ := doublestar.Match(glob, base); ok {
				return true
			}
		}
	}
	return false
}
