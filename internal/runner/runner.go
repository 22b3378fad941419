package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petasbytes/review-agent/internal/metrics"
	"github.com/petasbytes/review-agent/internal/prompts"
	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/internal/telemetry"
	"github.com/petasbytes/review-agent/internal/windowing"
	"github.com/petasbytes/review-agent/tools"
)

// DefaultMaxSteps bounds the tool rounds of a session unless configured otherwise.
const DefaultMaxSteps = 10

var (
	// ErrSessionConsumed is yielded when a session is streamed a second time.
	ErrSessionConsumed = errors.New("session already streamed")
	// ErrOverBudget is returned when the newest tool round alone exceeds the token budget.
	ErrOverBudget = errors.New("windowing: newest message group exceeds the token budget")
)

// errStopped aborts the model stream when the consumer stops iterating.
var errStopped = errors.New("consumer stopped")

const tracerName = "github.com/petasbytes/review-agent/internal/runner"

// Runner drives sessions against one model client and tool registry.
type Runner struct {
	client    provider.Client
	registry  *tools.Registry
	specs     []provider.Tool
	model     string
	system    string
	maxSteps  int
	maxTokens int64
	budget    int
	counter   windowing.TokenCounter
	emitter   *telemetry.Emitter
	recorder  *metrics.Recorder
}

// Option configures a Runner.
type Option func(*Runner)

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(r *Runner) { r.model = model }
}

// WithSystemPrompt replaces the default review system prompt.
func WithSystemPrompt(system string) Option {
	return func(r *Runner) { r.system = system }
}

// WithMaxSteps sets the tool round limit. Values below one are ignored.
func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.maxSteps = n
		}
	}
}

// WithMaxTokens caps the output tokens of each model turn.
func WithMaxTokens(n int64) Option {
	return func(r *Runner) { r.maxTokens = n }
}

// WithTokenBudget enables windowing of the transcript; zero disables it.
func WithTokenBudget(budget int) Option {
	return func(r *Runner) { r.budget = budget }
}

// WithCounter replaces the heuristic token counter used for windowing.
func WithCounter(c windowing.TokenCounter) Option {
	return func(r *Runner) { r.counter = c }
}

// WithEmitter enables JSONL events.
func WithEmitter(e *telemetry.Emitter) Option {
	return func(r *Runner) { r.emitter = e }
}

// WithRecorder enables Prometheus metrics.
func WithRecorder(m *metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = m }
}

// New returns a Runner exposing every tool of registry to client.
func New(client provider.Client, registry *tools.Registry, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		registry: registry,
		system:   prompts.System,
		maxSteps: DefaultMaxSteps,
		counter:  windowing.HeuristicCounter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, d := range registry.Definitions() {
		r.specs = append(r.specs, provider.Tool{Name: d.Name, Description: d.Description, Schema: d.InputSchema})
	}
	return r
}

// NewSession starts a session for prompt with no steps taken.
func (r *Runner) NewSession(prompt string) *Session {
	return newSession(prompt, r.system, r.maxSteps)
}

// Stream runs the session and yields model text as it arrives. The loop ends when
// the model answers without tool calls, after MaxSteps tool rounds, on a model
// failure (yielded as the error), or when the consumer stops iterating.
func (r *Runner) Stream(ctx context.Context, s *Session) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s.consumed {
			yield("", ErrSessionConsumed)
			return
		}
		s.consumed = true

		ctx := clog.WithLogger(ctx, clog.FromContext(ctx).With("session", s.ID))
		r.emitter.EmitPromptFeatures(ctx, s.Prompt)
		defer r.finish(ctx, s)

		for {
			done, err := r.RunOneStep(ctx, s, func(chunk string) bool {
				return yield(chunk, nil)
			})
			if err != nil {
				s.stop, s.err = StopError, err
				yield("", err)
				return
			}
			if done {
				return
			}
		}
	}
}

// Run streams a new session for prompt into w and returns it once finished.
func (r *Runner) Run(ctx context.Context, prompt string, w io.Writer) (*Session, error) {
	s := r.NewSession(prompt)
	for chunk, err := range r.Stream(ctx, s) {
		if err != nil {
			return s, err
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return s, fmt.Errorf("write output: %w", err)
		}
	}
	return s, nil
}

func (r *Runner) finish(ctx context.Context, s *Session) {
	r.recorder.SessionEnded(string(s.stop))
	r.emitter.Emit(ctx, "session_ended", map[string]any{
		"session_id":  s.ID,
		"stop_reason": string(s.stop),
		"steps":       s.stepCount,
		"tool_calls":  len(s.invocations),
	})
	clog.FromContext(ctx).Infof("session finished: reason=%s steps=%d tool_calls=%d", s.stop, s.stepCount, len(s.invocations))
}

// RunOneStep performs one model turn: it sends the (windowed) transcript, passes
// text deltas to emit, and dispatches the requested tool calls sequentially.
// done reports that the session reached a stop reason. emit returning false
// abandons the turn before any tool runs.
func (r *Runner) RunOneStep(ctx context.Context, s *Session, emit func(string) bool) (done bool, err error) {
	step := s.stepCount + 1
	ctx = telemetry.WithTurnID(ctx, fmt.Sprintf("%s-%d", s.ID, step))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.step", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("agent.step", step),
	))
	defer span.End()
	log := clog.FromContext(ctx)

	msgs, err := r.window(ctx, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return true, err
	}

	stopped := false
	resp, err := r.client.Stream(ctx, provider.Request{
		Model:     r.model,
		System:    s.SystemPrompt,
		Messages:  msgs,
		Tools:     r.specs,
		MaxTokens: r.maxTokens,
	}, func(delta string) error {
		s.output.WriteString(delta)
		if !emit(delta) {
			stopped = true
			return errStopped
		}
		return nil
	})
	if stopped {
		s.stop = StopAbandoned
		span.SetAttributes(attribute.String("agent.stop_reason", string(s.stop)))
		return true, nil
	}
	if err != nil {
		log.Errorf("model call failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return true, err
	}

	r.recorder.Tokens(r.client.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	span.SetAttributes(
		attribute.Int64("tokens.input", resp.Usage.InputTokens),
		attribute.Int64("tokens.output", resp.Usage.OutputTokens),
		attribute.Int("tool.calls", len(resp.ToolCalls)),
	)
	s.messages = append(s.messages, provider.Message{
		Role:      provider.RoleAssistant,
		Text:      resp.Text,
		ToolCalls: resp.ToolCalls,
	})

	if len(resp.ToolCalls) == 0 {
		s.stop = StopFinal
		r.stepCompleted(ctx, s, step, resp, 0)
		return true, nil
	}

	results := make([]provider.ToolResult, 0, len(resp.ToolCalls))
	failed := 0
	for _, call := range resp.ToolCalls {
		inv := r.execTool(ctx, call)
		s.invocations = append(s.invocations, inv)
		if inv.Failed() {
			failed++
		}
		results = append(results, provider.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: inv.Content(),
			IsError: inv.Failed(),
		})
	}
	s.messages = append(s.messages, provider.Message{Role: provider.RoleUser, ToolResults: results})
	s.stepCount++
	r.recorder.Step()
	r.stepCompleted(ctx, s, step, resp, failed)

	if s.stepCount >= s.MaxSteps {
		log.Infof("step limit reached after %d steps", s.stepCount)
		s.stop = StopStepLimit
		return true, nil
	}
	return false, nil
}

func (r *Runner) stepCompleted(ctx context.Context, s *Session, step int, resp provider.Response, failed int) {
	r.emitter.Emit(ctx, "step_completed", map[string]any{
		"session_id":    s.ID,
		"step":          step,
		"step_count":    s.stepCount,
		"tool_calls":    len(resp.ToolCalls),
		"failed_calls":  failed,
		"stop_reason":   resp.StopReason,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	})
}

// window fits the transcript into the token budget, always keeping the prompt.
func (r *Runner) window(ctx context.Context, s *Session) ([]provider.Message, error) {
	if r.budget <= 0 {
		return s.Transcript(), nil
	}
	window, stats := windowing.PrepareSendWindow(s.messages, 1, r.budget, r.counter)

	r.emitter.Emit(ctx, "window_prepared", map[string]any{
		"model":              r.model,
		"budget":             r.budget,
		"pinned_estimated":   stats.Pinned,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	clog.FromContext(ctx).Debugf("window: budget=%d pinned=%d est_total=%d groups_in=%d groups_skip=%d",
		r.budget, stats.Pinned, stats.Total, stats.IncludedGroups, stats.SkippedGroups)

	if stats.OverBudgetNewest {
		return nil, fmt.Errorf("%w (budget %d)", ErrOverBudget, r.budget)
	}
	return window, nil
}

func (r *Runner) execTool(ctx context.Context, call provider.ToolCall) tools.Invocation {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.tool", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.id", call.ID),
	))
	defer span.End()

	start := time.Now()
	inv := r.registry.Dispatch(ctx, call.Name, call.Input)
	inv.CallID = call.ID
	elapsed := time.Since(start)

	outcome := outcomeOf(inv.Err)
	r.recorder.ToolCall(call.Name, outcome, elapsed)

	fields := map[string]any{
		"tool_name":   call.Name,
		"call_id":     call.ID,
		"duration_ms": elapsed.Milliseconds(),
		"input_size":  len(call.Input),
		"output_size": len(inv.Output),
		"error":       nil,
	}
	if inv.Failed() {
		// Outcome only; raw error text may echo payloads.
		fields["error"] = outcome
		span.RecordError(inv.Err)
		span.SetStatus(codes.Error, outcome)
		clog.FromContext(ctx).Warnf("tool %s failed after %s: %v", call.Name, elapsed, inv.Err)
	} else {
		span.SetStatus(codes.Ok, "")
		clog.FromContext(ctx).Infof("tool %s finished in %s", call.Name, elapsed)
	}
	r.emitter.Emit(ctx, "tool_exec", fields)
	return inv
}

func outcomeOf(err error) string {
	var verr *tools.ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, tools.ErrUnknownTool):
		return metrics.OutcomeUnknownTool
	case errors.As(err, &verr):
		return metrics.OutcomeInvalidInput
	default:
		return metrics.OutcomeError
	}
}
