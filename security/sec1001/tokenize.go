package sec1001

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Tokenize splits a command into arguments. The result is never nil;
// a command consisting only of whitespace has zero arguments.
func Tokenize(command string, mode Tokenizer) ([]string, error) {
	switch mode {
	case TokenizeFields:
		toks := strings.Fields(command)
		if toks == nil {
			toks = []string{}
		}
		return toks, nil
	case TokenizeShlex:
		toks, err := shlex.Split(command)
		if err != nil {
			return nil, fmt.Errorf("couldn't split %q: %w", command, err)
		}
		if toks == nil {
			toks = []string{}
		}
		return toks, nil
	default:
		panic(fmt.Sprintf("unhandled tokenizer %s", mode))
	}
}
