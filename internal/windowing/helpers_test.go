package windowing_test

import (
	"time"

	"github.com/petasbytes/ellie/internal/windowing"
	"github.com/petasbytes/ellie/memory"
)

var ts = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// User entry constructor
func U(text string) memory.Entry { return memory.UserEntry(text, ts) }

// Agent entry constructor
func A(text string) memory.Entry { return memory.AgentEntry(text, ts) }

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].Kind != want[i].Kind || got[i].Start != want[i].Start || got[i].End != want[i].End {
			return false
		}
	}
	return true
}
