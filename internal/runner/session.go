package runner

import (
	"strings"

	"github.com/google/uuid"

	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/tools"
)

// StopReason says why a session ended.
type StopReason string

const (
	StopNone      StopReason = ""
	StopFinal     StopReason = "final"      // model answered without tool calls
	StopStepLimit StopReason = "step_limit" // MaxSteps tool rounds ran
	StopError     StopReason = "error"      // model call or window preparation failed
	StopAbandoned StopReason = "abandoned"  // consumer stopped reading the stream
)

// Session is one top-level request: the prompt, the transcript exchanged with the
// model, and the tool invocations made on its behalf. It is owned by the runner
// while streaming and read-only afterwards.
type Session struct {
	ID           string
	Prompt       string
	SystemPrompt string
	MaxSteps     int

	stepCount   int
	messages    []provider.Message
	invocations []tools.Invocation
	output      strings.Builder
	stop        StopReason
	err         error
	consumed    bool
}

func newSession(prompt, system string, maxSteps int) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Prompt:       prompt,
		SystemPrompt: system,
		MaxSteps:     maxSteps,
		messages:     []provider.Message{provider.UserText(prompt)},
	}
}

// StepCount is the number of model turns that requested at least one tool call.
func (s *Session) StepCount() int { return s.stepCount }

// Transcript returns a copy of the messages exchanged so far, prompt first.
func (s *Session) Transcript() []provider.Message {
	out := make([]provider.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Invocations returns every tool invocation in dispatch order.
func (s *Session) Invocations() []tools.Invocation {
	out := make([]tools.Invocation, len(s.invocations))
	copy(out, s.invocations)
	return out
}

func (s *Session) StopReason() StopReason { return s.stop }

// Err is the error that ended the session, if any.
func (s *Session) Err() error { return s.err }

// Output is all text streamed by the model, in order.
func (s *Session) Output() string { return s.output.String() }
