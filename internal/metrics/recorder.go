package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Tool call outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeUnknownTool  = "unknown_tool"
	OutcomeError        = "error"
)

// Commit message sources.
const (
	SourceModel     = "model"
	SourceFallback  = "fallback"
	SourceNoChanges = "no_changes"
)

// Recorder bundles the Prometheus collectors of the agent. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry       *prometheus.Registry
	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	steps          prometheus.Counter
	sessions       *prometheus.CounterVec
	commitMessages *prometheus.CounterVec
	tokens         *prometheus.CounterVec
}

// NewRecorder constructs a Recorder on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_agent_tool_calls_total",
		Help: "Tool invocations by tool and outcome",
	}, []string{"tool", "outcome"})

	toolDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "review_agent_tool_duration_seconds",
		Help:    "Tool execution time in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	steps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_agent_steps_total",
		Help: "Model turns that dispatched at least one tool call",
	})

	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_agent_sessions_total",
		Help: "Finished agent sessions by stop reason",
	}, []string{"stop_reason"})

	commitMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_agent_commit_messages_total",
		Help: "Generated commit messages by source",
	}, []string{"source"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_agent_tokens_total",
		Help: "Model tokens by provider and direction",
	}, []string{"provider", "direction"})

	reg.MustRegister(toolCalls, toolDuration, steps, sessions, commitMessages, tokens)

	return &Recorder{
		registry:       reg,
		toolCalls:      toolCalls,
		toolDuration:   toolDuration,
		steps:          steps,
		sessions:       sessions,
		commitMessages: commitMessages,
		tokens:         tokens,
	}
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ToolCall(tool, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (r *Recorder) Step() {
	if r == nil {
		return
	}
	r.steps.Inc()
}

func (r *Recorder) SessionEnded(reason string) {
	if r == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	r.sessions.WithLabelValues(reason).Inc()
}

func (r *Recorder) CommitMessage(source string) {
	if r == nil {
		return
	}
	r.commitMessages.WithLabelValues(source).Inc()
}

func (r *Recorder) Tokens(provider string, input, output int64) {
	if r == nil {
		return
	}
	r.tokens.WithLabelValues(provider, "input").Add(float64(input))
	r.tokens.WithLabelValues(provider, "output").Add(float64(output))
}

// WriteTextfile writes all metrics in the Prometheus text format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// ToolCalls returns the number of calls of tool that ended with outcome.
func (r *Recorder) ToolCalls(tool, outcome string) float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.toolCalls.WithLabelValues(tool, outcome))
}

func (r *Recorder) Steps() float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.steps)
}

func (r *Recorder) CommitMessages(source string) float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.commitMessages.WithLabelValues(source))
}

func (r *Recorder) Sessions(reason string) float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.sessions.WithLabelValues(reason))
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
