package provider

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI talks to the Chat Completions API or any endpoint compatible with it.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI builds a client. An empty APIKey falls back to OPENAI_API_KEY.
func NewOpenAI(opts Options) *OpenAI {
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
	return &OpenAI{client: openai.NewClient(ro...)}
}

func (o *OpenAI) Name() string { return NameOpenAI }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openAIParams(req))
	if err != nil {
		return Response{}, &TransportError{Provider: NameOpenAI, Err: err}
	}
	return fromOpenAI(completion), nil
}

func (o *OpenAI) Stream(ctx context.Context, req Request, onText TextFunc) (Response, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openAIParams(req))
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 || onText == nil {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onText(delta); err != nil {
				return Response{}, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Response{}, &TransportError{Provider: NameOpenAI, Err: err}
	}
	return fromOpenAI(&acc.ChatCompletion), nil
}

func openAIParams(req Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Text != "" {
				asst.Content.OfString = openai.String(m.Text)
			}
			for _, c := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: c.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      c.Name,
						Arguments: string(rawInput(c.Input)),
					},
				})
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
			continue
		}
		for _, r := range m.ToolResults {
			msgs = append(msgs, openai.ToolMessage(r.Content, r.CallID))
		}
		if m.Text != "" {
			msgs = append(msgs, openai.UserMessage(m.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(maxTokens(req)),
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(schemaObject(t.Schema)),
			},
		})
	}
	return params
}

func fromOpenAI(c *openai.ChatCompletion) Response {
	resp := Response{Usage: Usage{InputTokens: c.Usage.PromptTokens, OutputTokens: c.Usage.CompletionTokens}}
	if len(c.Choices) == 0 {
		return resp
	}
	choice := c.Choices[0]
	resp.Text = choice.Message.Content
	resp.StopReason = choice.FinishReason
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp
}
