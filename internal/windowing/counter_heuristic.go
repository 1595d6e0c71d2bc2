package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/ellie/memory"
)

// TokenCounter estimates prompt cost for entries or groups.
type TokenCounter interface {
	CountEntry(e memory.Entry) int
	CountGroup(g Group, all []memory.Entry) int
}

// HeuristicCounter is the default deterministic estimator: rune count of the
// entry text plus a small per-entry overhead for the speaker label and newline.
type HeuristicCounter struct{}

// Fixed per-entry overhead; changing this requires updating the guard test.
const entryOverhead = 4

func (HeuristicCounter) CountEntry(e memory.Entry) int {
	return utf8.RuneCountInString(e.Text) + entryOverhead
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Entry) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountEntry(all[i])
	}
	return total
}
