package windowing

import "github.com/petasbytes/review-agent/internal/provider"

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupMessages groups messages into atomic units that preserve tool call pairs.
// Invariants:
// - A pair is exactly two adjacent messages: assistant(tool calls) then user(tool results).
// - Every call id of the assistant must be answered by a result in the user message.
// - The user message may not carry results for ids the assistant never requested.
// - Failed results group the same as successful ones.
func GroupMessages(msgs []provider.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		if PairAt(msgs, i) {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
			i += 2
			continue
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// PairAt reports whether msgs[i] and msgs[i+1] form a complete tool call pair.
func PairAt(msgs []provider.Message, i int) bool {
	if i < 0 || i+1 >= len(msgs) {
		return false
	}
	asst, user := msgs[i], msgs[i+1]
	if asst.Role != provider.RoleAssistant || user.Role != provider.RoleUser {
		return false
	}
	callIDs := callIDs(asst)
	if len(callIDs) == 0 {
		return false
	}
	resultIDs := resultIDs(user)
	return coversAll(resultIDs, callIDs) && noExtraResults(resultIDs, callIDs)
}

func callIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolCalls))
	for _, c := range m.ToolCalls {
		if c.ID != "" {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

func resultIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolResults))
	for _, r := range m.ToolResults {
		if r.CallID != "" {
			ids[r.CallID] = struct{}{}
		}
	}
	return ids
}

// coversAll checks that every id in required is present in have.
func coversAll(have, required map[string]struct{}) bool {
	for id := range required {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

func noExtraResults(have, allowed map[string]struct{}) bool {
	for id := range have {
		if _, ok := allowed[id]; !ok {
			return false
		}
	}
	return true
}
