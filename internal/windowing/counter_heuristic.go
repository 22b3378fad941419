package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/review-agent/internal/provider"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m provider.Message) int
	CountGroup(g Group, all []provider.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
// - text: rune count of Message.Text
// - tool calls: rune count of the raw JSON input
// - tool results: rune count of the result content
// Every block adds a fixed overhead; a message with no blocks costs one overhead.
type HeuristicCounter struct{}

// Changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m provider.Message) int {
	total, blocks := 0, 0
	if m.Text != "" {
		total += utf8.RuneCountInString(m.Text) + blockOverhead
		blocks++
	}
	for _, c := range m.ToolCalls {
		total += utf8.RuneCount(c.Input) + blockOverhead
		blocks++
	}
	for _, r := range m.ToolResults {
		total += utf8.RuneCountInString(r.Content) + blockOverhead
		blocks++
	}
	if blocks == 0 {
		return blockOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []provider.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
