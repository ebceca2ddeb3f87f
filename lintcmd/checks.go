package lintcmd

import (
	"fmt"
	"strings"
	"unicode"
)

// filterAnalyzerNames resolves a list of check selectors against the
// names of the available analyzers. Selectors are applied in order:
// "all" or "*" selects every check, "X*" selects the checks of a
// group, a plain name selects one check, and a leading "-" deselects
// instead. Matching is case-insensitive.
func filterAnalyzerNames(analyzers []string, checks []string) (map[string]bool, error) {
	allowedChecks := map[string]bool{}

	for _, check := range checks {
		b := true
		if len(check) > 1 && check[0] == '-' {
			b = false
			check = check[1:]
		}
		check = strings.ToUpper(check)

		switch {
		case check == "INHERIT":
			// resolved by the configuration
		case check == "*" || check == "ALL":
			for _, c := range analyzers {
				allowedChecks[c] = b
			}
		case strings.HasSuffix(check, "*"):
			prefix := check[:len(check)-1]
			matched := false
			for _, c := range analyzers {
				if isInGroup(c, prefix) {
					allowedChecks[c] = b
					matched = true
				}
			}
			if !matched {
				return nil, fmt.Errorf("%s matched no checks", check)
			}
		default:
			found := false
			for _, c := range analyzers {
				if strings.ToUpper(c) == check {
					allowedChecks[c] = b
					found = true
				}
			}
			if !found {
				return nil, fmt.Errorf("unknown check %q", check)
			}
		}
	}
	return allowedChecks, nil
}

// isInGroup reports whether check belongs to the group named by
// prefix. "SEC1*" contains SEC1001 but "S*" doesn't.
func isInGroup(check, prefix string) bool {
	check = strings.ToUpper(check)
	if !strings.HasPrefix(check, prefix) || len(check) == len(prefix) {
		return false
	}
	return unicode.IsDigit(rune(check[len(prefix)]))
}
