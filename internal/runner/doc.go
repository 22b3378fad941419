// Package runner drives the agent loop: it streams model text to the caller and
// dispatches the tool calls the model requests until the model answers without
// tools or the step limit is reached.
//
// Invariant:
//   - a tool call and its result are kept adjacent in the transcript.
//
// Flow:
//
//	user(prompt) -> assistant(tool calls) -> user(tool results) -> ... -> assistant(text)
package runner
