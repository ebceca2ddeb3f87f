package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, configName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadMerge(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[general]
exclude = ["**/vendor/**"]

[security]
risky_calls = ["inherit", "os.system"]
tokenizer = "shlex"
`)
	sub := filepath.Join(root, "pkg", "sub")
	writeConfig(t, sub, `
[general]
exclude = ["inherit", "*_test.py"]

[security]
checks = ["all", "-SEC1001"]
safe_call = "subprocess.run"
`)

	cfg, err := Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		General: GeneralConfig{
			Exclude: []string{"**/vendor/**", "*_test.py"},
		},
		Security: SecurityConfig{
			Checklist:  Checklist{Checks: []string{"all", "-SEC1001"}},
			RiskyCalls: []string{"os.system", "subprocess.Popen", "subprocess.call", "subprocess.run"},
			SafeCall:   "subprocess.run",
			Tokenizer:  "shlex",
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}

	// The parent directory doesn't see the child's configuration.
	cfg, err = Load(filepath.Join(root, "pkg"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Security.SafeCall != "subprocess.call" {
		t.Errorf("got safe call %q, expected the default", cfg.Security.SafeCall)
	}
}

func TestLoadReplace(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[security]
risky_calls = ["subprocess.run", "subprocess.run"]
checks = ["SEC1001"]
`)
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"subprocess.run"}, cfg.Security.RiskyCalls); diff != "" {
		t.Errorf("unexpected risky calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SEC1001"}, cfg.Security.Checks); diff != "" {
		t.Errorf("unexpected checks (-want +got):\n%s", diff)
	}
}

func TestLoadRelative(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[security]
safe_call = "x.y"
`)
	sub := filepath.Join(root, "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(sub); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	for _, dir := range []string{".", filepath.Join("..", "pkg")} {
		cfg, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got := cfg.Security.SafeCall; got != "x.y" {
			t.Errorf("Load(%q): got safe_call %q, expected %q", dir, got, "x.y")
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `[security
checks = `)
	_, err := Load(root)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("got error %v, expected a *ParseError", err)
	}
	var terr toml.ParseError
	if !errors.As(err, &terr) {
		t.Errorf("expected the TOML error to be wrapped, got %v", err)
	}
}

func TestExcluded(t *testing.T) {
	cfg := Config{General: GeneralConfig{Exclude: []string{"**/vendor/**", "*_test.py", "build/*.py"}}}
	tests := []struct {
		path string
		want bool
	}{
		{"src/vendor/lib/x.py", true},
		{"src/app.py", false},
		{"src/app_test.py", true},
		{"app_test.py", true},
		{"build/gen.py", true},
		{"src/build/gen.py", false},
	}
	for _, tc := range tests {
		if got := cfg.Excluded(tc.path); got != tc.want {
			t.Errorf("Excluded(%q) == %t, expected %t", tc.path, got, tc.want)
		}
	}
}
