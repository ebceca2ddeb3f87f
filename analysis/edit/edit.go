// Package edit contains helpers for creating suggested fixes.
package edit

import (
	"fmt"
	"go/token"

	"github.com/pyguard/subprocheck/pyast"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/analysis"
)

// Ranger describes values that have a start and end position.
// In most cases these are either pyast.Node or manually constructed ranges.
type Ranger interface {
	Pos() token.Pos
	End() token.Pos
}

// Range implements the Ranger interface.
type Range [2]token.Pos

func (r Range) Pos() token.Pos { return r[0] }
func (r Range) End() token.Pos { return r[1] }

// ReplaceWithNode replaces a range with the Python source of a node.
func ReplaceWithNode(old Ranger, new pyast.Node) analysis.TextEdit {
	return analysis.TextEdit{
		Pos:     old.Pos(),
		End:     old.End(),
		NewText: []byte(pyast.Format(new)),
	}
}

func Fix(msg string, edits ...analysis.TextEdit) analysis.SuggestedFix {
	return analysis.SuggestedFix{
		Message:   msg,
		TextEdits: edits,
	}
}

// Apply applies text edits to src, which must be the content of the
// file at base. Edits must not overlap.
func Apply(src []byte, base int, edits []analysis.TextEdit) ([]byte, error) {
	sorted := make([]analysis.TextEdit, len(edits))
	copy(sorted, edits)
	slices.SortFunc(sorted, func(a, b analysis.TextEdit) bool {
		return a.Pos < b.Pos
	})

	var out []byte
	last := 0
	for _, e := range sorted {
		start := int(e.Pos) - base
		end := int(e.End) - base
		if start < last || end < start || end > len(src) {
			return nil, fmt.Errorf("invalid or overlapping edit at offset %d", start)
		}
		out = append(out, src[last:start]...)
		out = append(out, e.NewText...)
		last = end
	}
	out = append(out, src[last:]...)
	return out, nil
}
