package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// APIVersion is the Messages API version the SDK speaks.
const APIVersion = "2023-06-01"

// Anthropic talks to the Claude Messages API.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic builds a client. An empty APIKey falls back to ANTHROPIC_API_KEY.
func NewAnthropic(opts Options, extra ...option.RequestOption) *Anthropic {
	var ro []option.RequestOption
	if opts.APIKey != "" {
		ro = append(ro, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		ro = append(ro, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		ro = append(ro, option.WithHTTPClient(opts.HTTPClient))
	}
	return &Anthropic{client: anthropic.NewClient(append(ro, extra...)...)}
}

func (a *Anthropic) Name() string { return NameAnthropic }

func (a *Anthropic) Complete(ctx context.Context, req Request) (Response, error) {
	msg, err := a.client.Messages.New(ctx, a.params(req))
	if err != nil {
		return Response{}, &TransportError{Provider: NameAnthropic, Err: err}
	}
	return fromAnthropic(msg), nil
}

// Stream accumulates the streamed message while forwarding text deltas to onText.
func (a *Anthropic) Stream(ctx context.Context, req Request, onText TextFunc) (Response, error) {
	stream := a.client.Messages.NewStreaming(ctx, a.params(req))
	defer stream.Close()

	var msg anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return Response{}, &TransportError{Provider: NameAnthropic, Err: fmt.Errorf("accumulate event: %w", err)}
		}
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" && onText != nil {
			if err := onText(text.Text); err != nil {
				return Response{}, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Response{}, &TransportError{Provider: NameAnthropic, Err: err}
	}
	return fromAnthropic(&msg), nil
}

func (a *Anthropic) params(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens(req),
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropicSchema(t),
			}})
		}
	}
	return params
}

func anthropicSchema(t Tool) anthropic.ToolInputSchemaParam {
	obj := schemaObject(t.Schema)
	p := anthropic.ToolInputSchemaParam{Properties: obj["properties"]}
	if req, ok := obj["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				p.Required = append(p.Required, s)
			}
		}
	}
	return p
}

// toAnthropicMessages maps transcript entries to content blocks. Tool results lead
// their user message so each tool_use stays paired with its tool_result.
func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		switch m.Role {
		case RoleAssistant:
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    c.ID,
					Name:  c.Name,
					Input: rawInput(c.Input),
				}})
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			for _, r := range m.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
			}
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		}
	}
	return out
}

func fromAnthropic(msg *anthropic.Message) Response {
	resp := Response{
		Usage:      Usage{InputTokens: msg.Usage.InputTokens, OutputTokens: msg.Usage.OutputTokens},
		StopReason: string(msg.StopReason),
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{ID: block.ID, Name: block.Name, Input: rawInput(block.Input)})
		}
	}
	return resp
}
