package sec1001

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pyguard/subprocheck/config"
	"github.com/pyguard/subprocheck/pyast"
)

// Callee is a qualified call such as subprocess.run. The qualifier may
// be dotted.
type Callee struct {
	Qualifier string
	Name      string
}

func (c Callee) String() string { return c.Qualifier + "." + c.Name }

func ParseCallee(s string) (Callee, error) {
	idx := strings.LastIndex(s, ".")
	if idx == -1 {
		return Callee{}, fmt.Errorf("callee %q has no qualifier", s)
	}
	c := Callee{Qualifier: s[:idx], Name: s[idx+1:]}
	for _, part := range strings.Split(c.Qualifier, ".") {
		if !isIdentifier(part) {
			return Callee{}, fmt.Errorf("callee %q: %q is not an identifier", s, part)
		}
	}
	if !isIdentifier(c.Name) {
		return Callee{}, fmt.Errorf("callee %q: %q is not an identifier", s, c.Name)
	}
	return c, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// qualifierPattern returns the pattern matching the qualifier as a
// whole expression.
func (c Callee) qualifierPattern() string {
	parts := strings.Split(c.Qualifier, ".")
	out := fmt.Sprintf("(Name %s)", strconv.Quote(parts[0]))
	for _, part := range parts[1:] {
		out = fmt.Sprintf("(Attribute %s %s)", out, strconv.Quote(part))
	}
	return out
}

func (c Callee) pattern() string {
	return fmt.Sprintf("(Attribute %s %s)", c.qualifierPattern(), strconv.Quote(c.Name))
}

// qualifierExpr builds the qualifier as an expression.
func (c Callee) qualifierExpr() pyast.Expr {
	parts := strings.Split(c.Qualifier, ".")
	var out pyast.Expr = &pyast.Name{ID: parts[0]}
	for _, part := range parts[1:] {
		out = &pyast.Attribute{Value: out, Attr: part}
	}
	return out
}

type Tokenizer uint8

const (
	// TokenizeFields splits on runs of Unicode whitespace. Quotes and
	// escapes have no meaning.
	TokenizeFields Tokenizer = iota
	// TokenizeShlex splits like a POSIX shell, honoring quotes and
	// backslash escapes.
	TokenizeShlex
)

func (t Tokenizer) String() string {
	switch t {
	case TokenizeFields:
		return "fields"
	case TokenizeShlex:
		return "shlex"
	default:
		return fmt.Sprintf("Tokenizer(%d)", int(t))
	}
}

func ParseTokenizer(s string) (Tokenizer, error) {
	switch s {
	case "", "fields":
		return TokenizeFields, nil
	case "shlex":
		return TokenizeShlex, nil
	default:
		return 0, fmt.Errorf("unknown tokenizer %q, expected fields or shlex", s)
	}
}

type Config struct {
	// RiskyCalls are the calls that are flagged when invoked with
	// shell=True.
	RiskyCalls []Callee
	// SafeCall is the call that fixes rewrite to.
	SafeCall  Callee
	Tokenizer Tokenizer
}

func DefaultConfig() Config {
	return Config{
		RiskyCalls: []Callee{
			{"subprocess", "call"},
			{"subprocess", "run"},
			{"subprocess", "Popen"},
		},
		SafeCall:  Callee{"subprocess", "call"},
		Tokenizer: TokenizeFields,
	}
}

// FromSettings builds the check's configuration from the [security]
// section of a configuration file.
func FromSettings(cfg config.Config) (Config, error) {
	out := DefaultConfig()
	sec := cfg.Security
	if sec.RiskyCalls != nil {
		out.RiskyCalls = nil
		for _, s := range sec.RiskyCalls {
			c, err := ParseCallee(s)
			if err != nil {
				return Config{}, fmt.Errorf("risky_calls: %w", err)
			}
			out.RiskyCalls = append(out.RiskyCalls, c)
		}
	}
	if sec.SafeCall != "" {
		c, err := ParseCallee(sec.SafeCall)
		if err != nil {
			return Config{}, fmt.Errorf("safe_call: %w", err)
		}
		out.SafeCall = c
	}
	t, err := ParseTokenizer(sec.Tokenizer)
	if err != nil {
		return Config{}, fmt.Errorf("tokenizer: %w", err)
	}
	out.Tokenizer = t
	return out, nil
}
