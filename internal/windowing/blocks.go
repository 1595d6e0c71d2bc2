package windowing

import "github.com/petasbytes/ellie/memory"

// GroupKind denotes the atomic unit type when preparing a memory window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of entries [Start, End) in the original slice.
// Kind indicates whether it is a singleton or an exchange pair.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into entries
	End   int // exclusive index into entries
}

// GroupEntries groups entries into atomic units that keep exchanges whole.
// Invariants:
// - A pair is exactly two adjacent entries: user then agent.
// - Any other entry (a leading agent entry left behind by eviction, or a user
// entry with no answer) is a singleton.
func GroupEntries(entries []memory.Entry) []Group {
	groups := make([]Group, 0, len(entries))
	for i := 0; i < len(entries); {
		if entries[i].Speaker == memory.SpeakerUser {
			if i+1 < len(entries) && entries[i+1].Speaker == memory.SpeakerAgent {
				groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
				i += 2
				continue
			}
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}
