package tools

import (
	"errors"

	"github.com/petasbytes/review-agent/internal/commitmsg"
	"github.com/petasbytes/review-agent/internal/fsops"
	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/telemetry"
)

// Deps are the collaborators of the standard tool set.
type Deps struct {
	Sandbox   *fsops.Sandbox
	Collector *gitdiff.Collector
	Commit    *commitmsg.Generator
	Emitter   *telemetry.Emitter
}

// ErrNoSandbox is returned by Default when Deps carries no sandbox.
var ErrNoSandbox = errors.New("tools: a sandbox is required for file tools")

// Default builds the registry of the review agent: get_file_changes,
// generate_commit_message, write_markdown and read_file. Sandbox is required;
// Collector and Commit fall back to defaults.
func Default(deps Deps) (*Registry, error) {
	if deps.Sandbox == nil {
		return nil, ErrNoSandbox
	}
	if deps.Collector == nil {
		deps.Collector = gitdiff.New(gitdiff.DefaultExclude)
	}
	if deps.Commit == nil {
		deps.Commit = commitmsg.New(nil)
	}
	return NewRegistry(
		NewFileChanges(deps.Sandbox, deps.Collector, deps.Emitter),
		NewCommitMessage(deps.Commit),
		NewWriteMarkdown(deps.Sandbox),
		NewReadFile(deps.Sandbox),
	)
}
