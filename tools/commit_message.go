package tools

import (
	"context"

	"github.com/petasbytes/review-agent/internal/commitmsg"
	"github.com/petasbytes/review-agent/internal/gitdiff"
)

type CommitMessageInput struct {
	Diffs []gitdiff.Record `json:"diffs" jsonschema_description:"Array of file diffs to summarize for commit message."`
}

// NewCommitMessage returns the generate_commit_message tool. It never fails once
// its input is valid.
func NewCommitMessage(g *commitmsg.Generator) ToolDefinition {
	return NewTool("generate_commit_message",
		"Generates a commit message from code diffs",
		func(ctx context.Context, in CommitMessageInput) (string, error) {
			return g.Generate(ctx, in.Diffs), nil
		})
}
