package windowing_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/internal/windowing"
)

func TestPrepareSendWindow(t *testing.T) {
	// Costs with the heuristic counter: prompt 7, tool round 9, tail 8.
	round := []provider.Message{
		User("old"),
		Asst("", TU("a")),
		Results("", TRString("a", "r")),
		User("tail"),
	}
	// Costs: tool round 4+10, answer 6.
	pair := []provider.Message{
		Asst("", TU("a")),
		Results("", TRString("a", "xxxxxx")),
		User("cc"),
	}

	tests := []struct {
		name   string
		msgs   []provider.Message
		pinned int
		budget int
		want   []int // indexes into msgs; nil means no window
		stats  windowing.Stats
	}{{
		name:   "empty transcript",
		budget: 123,
		stats:  windowing.Stats{Budget: 123},
	}, {
		name:   "newest groups that fit",
		msgs:   round,
		budget: 17,
		want:   []int{1, 2, 3},
		stats:  windowing.Stats{Budget: 17, Total: 17, IncludedGroups: 2, SkippedGroups: 1},
	}, {
		name:   "everything fits",
		msgs:   round,
		budget: 24,
		want:   []int{0, 1, 2, 3},
		stats:  windowing.Stats{Budget: 24, Total: 24, IncludedGroups: 3},
	}, {
		name:   "newest group over budget",
		msgs:   round,
		budget: 7,
		stats:  windowing.Stats{Budget: 7, SkippedGroups: 3, OverBudgetNewest: true},
	}, {
		name:   "no capacity",
		msgs:   round,
		budget: 0,
		stats:  windowing.Stats{SkippedGroups: 3, OverBudgetNewest: true},
	}, {
		name:   "pair is never split",
		msgs:   pair,
		budget: 16,
		want:   []int{2},
		stats:  windowing.Stats{Budget: 16, Total: 6, IncludedGroups: 1, SkippedGroups: 1},
	}, {
		name:   "pinned prompt is charged first",
		msgs:   round,
		pinned: 1,
		budget: 17,
		want:   []int{0, 3},
		stats:  windowing.Stats{Budget: 17, Pinned: 7, Total: 15, IncludedGroups: 1, SkippedGroups: 1},
	}, {
		name:   "pinned prompt and every group",
		msgs:   round,
		pinned: 1,
		budget: 24,
		want:   []int{0, 1, 2, 3},
		stats:  windowing.Stats{Budget: 24, Pinned: 7, Total: 24, IncludedGroups: 2},
	}, {
		name:   "pinned prompt leaves too little",
		msgs:   round,
		pinned: 1,
		budget: 14,
		stats:  windowing.Stats{Budget: 14, Pinned: 7, Total: 7, SkippedGroups: 2, OverBudgetNewest: true},
	}, {
		name:   "only the pinned prompt",
		msgs:   round[:1],
		pinned: 1,
		budget: 1,
		want:   []int{0},
		stats:  windowing.Stats{Budget: 1, Pinned: 7, Total: 7},
	}, {
		name:   "pinned count is clamped",
		msgs:   round[:1],
		pinned: 5,
		budget: 100,
		want:   []int{0},
		stats:  windowing.Stats{Budget: 100, Pinned: 7, Total: 7},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, stats := windowing.PrepareSendWindow(tt.msgs, tt.pinned, tt.budget, windowing.HeuristicCounter{})

			var want []provider.Message
			for _, i := range tt.want {
				want = append(want, tt.msgs[i])
			}
			if diff := cmp.Diff(want, window); diff != "" {
				t.Errorf("window (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.stats, stats); diff != "" {
				t.Errorf("stats (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrepareSendWindow_TotalMatchesCounter(t *testing.T) {
	msgs := []provider.Message{User("a"), User("bbbb"), User("cc")}
	counter := windowing.HeuristicCounter{}

	window, stats := windowing.PrepareSendWindow(msgs, 1, 14, counter)

	got := 0
	for _, m := range window {
		got += counter.CountMessage(m)
	}
	if got != stats.Total {
		t.Fatalf("window costs %d, stats say %d", got, stats.Total)
	}
	if len(window) != 2 || window[0].Text != "a" || window[1].Text != "cc" {
		t.Fatalf("unexpected window: %+v", window)
	}
}

func TestPrepareSendWindow_DoesNotAliasTranscript(t *testing.T) {
	msgs := []provider.Message{User("prompt"), User("next")}
	window, _ := windowing.PrepareSendWindow(msgs, 1, 100, windowing.HeuristicCounter{})
	window[0].Text = "changed"
	if msgs[0].Text != "prompt" {
		t.Fatal("window shares storage with the transcript")
	}
}
