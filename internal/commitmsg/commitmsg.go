// Package commitmsg turns a change set into a conventional commit message,
// asking the model first and falling back to a deterministic summary.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/metrics"
	"github.com/petasbytes/review-agent/internal/prompts"
	"github.com/petasbytes/review-agent/internal/provider"
)

// NoChangesMessage is returned for an empty change set.
const NoChangesMessage = "chore: no changes detected"

// DefaultMaxLength is the length hint given to the model.
const DefaultMaxLength = 100

var (
	// ErrEmptyMessage is returned by Complete when the model replied with blank text.
	ErrEmptyMessage = errors.New("model returned an empty commit message")
	// ErrNoClient is returned by Complete when the generator has no model client.
	ErrNoClient = errors.New("no model client configured")
)

// Generator produces commit messages.
type Generator struct {
	client    provider.Client
	model     string
	maxLength int
	maxTokens int64
	recorder  *metrics.Recorder
}

type Option func(*Generator)

func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithMaxLength sets the length hint; zero or less omits it from the prompt.
func WithMaxLength(n int) Option {
	return func(g *Generator) { g.maxLength = n }
}

func WithMaxTokens(n int64) Option {
	return func(g *Generator) { g.maxTokens = n }
}

func WithRecorder(r *metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// New returns a Generator backed by client. A nil client always falls back.
func New(client provider.Client, opts ...Option) *Generator {
	g := &Generator{client: client, maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate never fails: empty input yields NoChangesMessage without a model call,
// a model failure yields Fallback(diffs).
func (g *Generator) Generate(ctx context.Context, diffs []gitdiff.Record) string {
	if len(diffs) == 0 {
		g.recorder.CommitMessage(metrics.SourceNoChanges)
		return NoChangesMessage
	}

	msg, err := g.Complete(ctx, diffs)
	if err != nil {
		clog.FromContext(ctx).Warnf("commit message generation failed, using fallback: %v", err)
		g.recorder.CommitMessage(metrics.SourceFallback)
		return Fallback(diffs)
	}
	g.recorder.CommitMessage(metrics.SourceModel)
	return msg
}

// Complete asks the model for a message. The result is either a non-empty,
// trimmed message or an error.
func (g *Generator) Complete(ctx context.Context, diffs []gitdiff.Record) (string, error) {
	if g.client == nil {
		return "", ErrNoClient
	}
	resp, err := g.client.Complete(ctx, provider.Request{
		Model:     g.model,
		Messages:  []provider.Message{provider.UserText(prompts.Commit(diffs, g.maxLength))},
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate commit message: %w", err)
	}
	g.recorder.Tokens(g.client.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens)

	msg := strings.TrimSpace(resp.Text)
	if msg == "" {
		return "", ErrEmptyMessage
	}
	return msg, nil
}

// Fallback is the deterministic message: every changed file, in record order.
func Fallback(diffs []gitdiff.Record) string {
	if len(diffs) == 0 {
		return NoChangesMessage
	}
	files := make([]string, 0, len(diffs))
	for _, d := range diffs {
		files = append(files, d.File)
	}
	return "chore: update " + strings.Join(files, ", ")
}
