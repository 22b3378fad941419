package tools

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/petasbytes/review-agent/internal/fsops"
	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/telemetry"
)

type FileChangesInput struct {
	RootDir string `json:"rootDir,omitempty" jsonschema:"default=." jsonschema_description:"Directory of the git repository, relative to the workspace root."`
}

// NewFileChanges returns the get_file_changes tool. Its output is the JSON array
// of {file, diff} records.
func NewFileChanges(sb *fsops.Sandbox, c *gitdiff.Collector, em *telemetry.Emitter) ToolDefinition {
	return NewTool("get_file_changes",
		"Gets the uncommitted code changes (file and unified diff) in a git repository directory",
		func(ctx context.Context, in FileChangesInput) ([]gitdiff.Record, error) {
			dir, err := sb.ResolveDir(in.RootDir)
			if err != nil {
				return nil, err
			}
			records, err := c.Collect(ctx, dir)
			if err != nil {
				return nil, err
			}
			if stats, err := gitdiff.Summarize(records); err == nil {
				added, removed := gitdiff.Totals(stats)
				clog.FromContext(ctx).Infof("collected %d changed files (+%d -%d)", len(records), added, removed)
			}
			em.EmitChangeSetFeatures(ctx, records)
			if records == nil {
				records = []gitdiff.Record{}
			}
			return records, nil
		})
}
