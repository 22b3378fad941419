package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Google talks to the Gemini API.
type Google struct {
	client *genai.Client
}

// NewGoogle builds a Gemini API client. An empty APIKey falls back to GEMINI_API_KEY / GOOGLE_API_KEY.
func NewGoogle(ctx context.Context, opts Options) (*Google, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Google{client: client}, nil
}

func (g *Google) Name() string { return NameGoogle }

func (g *Google) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, toGoogleContents(req.Messages), googleConfig(req))
	if err != nil {
		return Response{}, &TransportError{Provider: NameGoogle, Err: err}
	}
	var out Response
	if err := appendGoogle(&out, resp, nil); err != nil {
		return Response{}, err
	}
	return out, nil
}

func (g *Google) Stream(ctx context.Context, req Request, onText TextFunc) (Response, error) {
	var out Response
	for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, toGoogleContents(req.Messages), googleConfig(req)) {
		if err != nil {
			return Response{}, &TransportError{Provider: NameGoogle, Err: err}
		}
		if err := appendGoogle(&out, resp, onText); err != nil {
			return Response{}, err
		}
	}
	return out, nil
}

// appendGoogle folds one (possibly partial) response into out.
func appendGoogle(out *Response, resp *genai.GenerateContentResponse, onText TextFunc) error {
	if resp == nil {
		return nil
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{InputTokens: int64(u.PromptTokenCount), OutputTokens: int64(u.CandidatesTokenCount)}
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" {
		out.StopReason = string(cand.FinishReason)
	}
	if cand.Content == nil {
		return nil
	}
	for _, part := range cand.Content.Parts {
		switch {
		case part == nil || part.Thought:
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return &TransportError{Provider: NameGoogle, Err: fmt.Errorf("encode function args: %w", err)}
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: part.FunctionCall.Name, Input: args})
		case part.Text != "":
			out.Text += part.Text
			if onText != nil {
				if err := onText(part.Text); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func googleConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens(req))}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: schemaObject(t.Schema),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func toGoogleContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		var parts []*genai.Part
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
			if m.Text != "" {
				parts = append(parts, &genai.Part{Text: m.Text})
			}
			for _, c := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   c.ID,
					Name: c.Name,
					Args: inputObject(c.Input),
				}})
			}
		} else {
			for _, r := range m.ToolResults {
				key := "output"
				if r.IsError {
					key = "error"
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       r.CallID,
					Name:     r.Name,
					Response: map[string]any{key: r.Content},
				}})
			}
			if m.Text != "" {
				parts = append(parts, &genai.Part{Text: m.Text})
			}
		}
		if len(parts) > 0 {
			out = append(out, &genai.Content{Role: role, Parts: parts})
		}
	}
	return out
}
