package windowing_test

import (
	"encoding/json"

	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/internal/windowing"
)

func User(text string) provider.Message {
	return provider.UserText(text)
}

func Asst(text string, calls ...provider.ToolCall) provider.Message {
	return provider.Message{Role: provider.RoleAssistant, Text: text, ToolCalls: calls}
}

// Results builds the user message answering a tool round.
func Results(text string, results ...provider.ToolResult) provider.Message {
	return provider.Message{Role: provider.RoleUser, Text: text, ToolResults: results}
}

// TU is a tool call without input.
func TU(id string) provider.ToolCall {
	return provider.ToolCall{ID: id, Name: "tool"}
}

func TUInput(id, input string) provider.ToolCall {
	return provider.ToolCall{ID: id, Name: "tool", Input: json.RawMessage(input)}
}

// TR is a tool result without payload, used where payload length is irrelevant.
func TR(id string, isErr bool) provider.ToolResult {
	return provider.ToolResult{CallID: id, Name: "tool", IsError: isErr}
}

func TRString(id, s string) provider.ToolResult {
	return provider.ToolResult{CallID: id, Name: "tool", Content: s}
}

func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
