package windowing

import (
	"go.uber.org/zap"

	"github.com/petasbytes/ellie/memory"
)

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated cost of included groups only.
// - Budget: the budget used (0 means unbounded).
// - IncludedGroups: number of groups included.
// - SkippedGroups: total groups minus IncludedGroups.
// - OverBudgetNewest: true when the newest single group alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareWindow returns a suffix of entries (oldest→newest) that fits within
// budget using the TokenCounter, without splitting exchanges.
//
// Rules:
// - budget <= 0 disables trimming: every entry is kept.
// - Include whole groups scanning newest→oldest while total ≤ budget.
// - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
//
// Grouping details are logged at debug level; logger may be nil.
func PrepareWindow(entries []memory.Entry, budget int, c TokenCounter, logger *zap.Logger) ([]memory.Entry, Stats) {
	if len(entries) == 0 {
		return nil, Stats{Budget: budget}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	groups := GroupEntries(entries)
	for _, g := range groups {
		if g.Kind == GroupSingleton {
			logger.Debug("window singleton",
				zap.Int("idx", g.Start),
				zap.String("speaker", string(entries[g.Start].Speaker)))
		}
	}

	if budget <= 0 {
		total := 0
		for _, g := range groups {
			total += c.CountGroup(g, entries)
		}
		return entries, Stats{Total: total, Budget: budget, IncludedGroups: len(groups)}
	}

	total := 0
	included := 0
	startIdx := len(groups) // exclusive sentinel; lowered when a group is included

	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], entries)
		if included == 0 && cost > budget {
			logger.Debug("newest group over budget", zap.Int("budget", budget), zap.Int("cost", cost))
			return nil, Stats{
				Budget:           budget,
				SkippedGroups:    len(groups),
				OverBudgetNewest: true,
			}
		}
		if total+cost > budget {
			// Older groups are dropped once one does not fit; the window stays contiguous.
			break
		}
		total += cost
		included++
		startIdx = gi
	}

	window := entries[groups[startIdx].Start:]
	return window, Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
