package telemetry

import (
	"context"

	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/metrics"
)

const featuresVersion = "1"

// EmitPromptFeatures records size features of the user prompt for a turn.
func (e *Emitter) EmitPromptFeatures(ctx context.Context, prompt string) {
	if e == nil || !e.Enabled {
		return
	}
	e.Emit(ctx, "prompt_features", map[string]any{
		"features_version": featuresVersion,
		"prompt":           metrics.CountFeatures(prompt),
	})
}

// EmitChangeSetFeatures records the size of a collected change set.
func (e *Emitter) EmitChangeSetFeatures(ctx context.Context, records []gitdiff.Record) {
	if e == nil || !e.Enabled {
		return
	}
	e.Emit(ctx, "change_set_features", map[string]any{
		"features_version": featuresVersion,
		"files":            len(records),
		"diff":             metrics.ChangeSetFeatures(records),
	})
}
