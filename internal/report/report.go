// Package report runs the non-interactive review: collect the change set, generate
// a commit message, ask the model for a review and persist it as markdown.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/petasbytes/review-agent/internal/commitmsg"
	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/metrics"
	"github.com/petasbytes/review-agent/internal/prompts"
	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/tools"
)

// DefaultMaxLength is the review length hint given to the model.
const DefaultMaxLength = 5000

var (
	// ErrNoChanges is returned when the working tree has nothing to review.
	ErrNoChanges = errors.New("no changes detected")
	// ErrEmptyReview is returned when the model replies without review text.
	ErrEmptyReview = errors.New("model returned an empty review")
)

// Build renders the report preamble followed by body.
func Build(commitMessage, body string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Code Review Report\n")
	fmt.Fprintf(&b, "Generated on: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Commit Message: %s\n", strings.TrimSpace(commitMessage))
	b.WriteString("\n---\n\n")
	b.WriteString(body)
	return b.String()
}

// Pipeline wires the collaborators of a review run.
type Pipeline struct {
	Collector *gitdiff.Collector
	Commit    *commitmsg.Generator
	Client    provider.Client
	// Writer is the write_markdown tool the report is persisted through.
	Writer    tools.ToolDefinition
	Model     string
	MaxLength int
	MaxTokens int64
	Recorder  *metrics.Recorder
	Now       func() time.Time
}

// Result describes a finished run.
type Result struct {
	Files         []string
	CommitMessage string
	Report        string
	Path          string
}

// Run reviews the repository containing rootDir and writes the report to outPath.
// The commit message never fails; a failed review call is returned.
func (p Pipeline) Run(ctx context.Context, rootDir, outPath string) (Result, error) {
	log := clog.FromContext(ctx)

	diffs, err := p.Collector.Collect(ctx, rootDir)
	if err != nil {
		return Result{}, fmt.Errorf("collect changes: %w", err)
	}
	if len(diffs) == 0 {
		return Result{}, ErrNoChanges
	}
	res := Result{Files: make([]string, 0, len(diffs))}
	for _, d := range diffs {
		res.Files = append(res.Files, d.File)
	}
	log.Infof("found %d changed files", len(diffs))

	res.CommitMessage = p.Commit.Generate(ctx, diffs)

	body, err := p.review(ctx, diffs)
	if err != nil {
		return res, err
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	res.Report = Build(res.CommitMessage, body, now())

	input, err := json.Marshal(tools.WriteMarkdownInput{Content: res.Report, FilePath: outPath})
	if err != nil {
		return res, err
	}
	out, err := p.Writer.Call(ctx, input)
	if err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	var written tools.WriteMarkdownOutput
	if err := json.Unmarshal([]byte(out), &written); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	res.Path = written.FilePath
	log.Infof("code review saved to %s", res.Path)
	return res, nil
}

func (p Pipeline) review(ctx context.Context, diffs []gitdiff.Record) (string, error) {
	if p.Client == nil {
		return "", errors.New("review: no model client configured")
	}
	maxLength := p.MaxLength
	if maxLength == 0 {
		maxLength = DefaultMaxLength
	}
	resp, err := p.Client.Complete(ctx, provider.Request{
		Model:     p.Model,
		Messages:  []provider.Message{provider.UserText(prompts.Review(diffs, maxLength))},
		MaxTokens: p.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("review: %w", err)
	}
	p.Recorder.Tokens(p.Client.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("review: %w", ErrEmptyReview)
	}
	return resp.Text, nil
}
