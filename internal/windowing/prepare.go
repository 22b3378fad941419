package windowing

import "github.com/petasbytes/review-agent/internal/provider"

// Stats describes a prepared window. Total includes the pinned head.
type Stats struct {
	Budget           int
	Pinned           int
	Total            int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow fits msgs into budget. The first pinned messages are always
// sent and charged first; the rest are kept in whole groups, newest first, until
// the next older group no longer fits. Order is preserved.
//
// When the newest group does not fit in what the head leaves over, the window is
// nil and OverBudgetNewest is set. A transcript holding only the head is returned
// as is.
func PrepareSendWindow(msgs []provider.Message, pinned, budget int, c TokenCounter) ([]provider.Message, Stats) {
	st := Stats{Budget: budget}
	if len(msgs) == 0 {
		return nil, st
	}
	pinned = min(max(pinned, 0), len(msgs))
	head, tail := msgs[:pinned], msgs[pinned:]
	for _, m := range head {
		st.Pinned += c.CountMessage(m)
	}
	st.Total = st.Pinned

	groups := GroupMessages(tail)
	if len(groups) == 0 {
		return append([]provider.Message(nil), head...), st
	}

	left := budget - st.Pinned
	start := len(groups)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], tail)
		if cost > left {
			break
		}
		left -= cost
		st.Total += cost
		start = gi
	}
	st.IncludedGroups = len(groups) - start
	st.SkippedGroups = start

	if st.IncludedGroups == 0 {
		st.OverBudgetNewest = true
		return nil, st
	}

	kept := tail[groups[start].Start:]
	window := make([]provider.Message, 0, len(head)+len(kept))
	window = append(window, head...)
	return append(window, kept...), st
}
