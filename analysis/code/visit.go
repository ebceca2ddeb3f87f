package code

import (
	"fmt"

	"github.com/pyguard/subprocheck/pattern"
	"github.com/pyguard/subprocheck/pyast"
)

// Build converts the pattern after into an expression, substituting
// bindings from state.
func Build(after pattern.Pattern, state pattern.State) (pyast.Expr, error) {
	var out pyast.Expr
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("building %s: %v", after, r)
			}
		}()
		v := pattern.NodeToPy(after.Root, state)
		expr, ok := v.(pyast.Expr)
		if !ok {
			err = fmt.Errorf("building %s: got %T, not an expression", after, v)
			return
		}
		out = expr
	}()
	return out, err
}
