// Package providertest provides a scripted provider.Client for tests.
package providertest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/petasbytes/review-agent/internal/provider"
)

// Turn is one scripted model reply. When Err is set the call fails with it.
type Turn struct {
	Chunks    []string
	ToolCalls []provider.ToolCall
	Err       error
}

// Text returns a turn that streams text in the given chunks.
func Text(chunks ...string) Turn {
	return Turn{Chunks: chunks}
}

// Call returns a tool call with JSON-encoded input.
func Call(id, name string, input any) provider.ToolCall {
	b, err := json.Marshal(input)
	if err != nil {
		panic(err)
	}
	return provider.ToolCall{ID: id, Name: name, Input: b}
}

// ErrScriptExhausted is returned when more calls are made than turns were scripted.
var ErrScriptExhausted = errors.New("providertest: no scripted turns left")

// Client replays Turns in order and records every request it receives.
type Client struct {
	mu       sync.Mutex
	turns    []Turn
	requests []provider.Request
}

func New(turns ...Turn) *Client {
	return &Client{turns: turns}
}

func (c *Client) Name() string { return "fake" }

func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	return c.Stream(ctx, req, nil)
}

func (c *Client) Stream(ctx context.Context, req provider.Request, onText provider.TextFunc) (provider.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, cloneRequest(req))
	if len(c.turns) == 0 {
		c.mu.Unlock()
		return provider.Response{}, &provider.TransportError{Provider: "fake", Err: ErrScriptExhausted}
	}
	turn := c.turns[0]
	c.turns = c.turns[1:]
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return provider.Response{}, &provider.TransportError{Provider: "fake", Err: err}
	}
	if turn.Err != nil {
		return provider.Response{}, turn.Err
	}
	var resp provider.Response
	for _, chunk := range turn.Chunks {
		resp.Text += chunk
		if onText != nil {
			if err := onText(chunk); err != nil {
				return provider.Response{}, err
			}
		}
	}
	resp.ToolCalls = turn.ToolCalls
	resp.Usage = provider.Usage{InputTokens: int64(len(req.Messages)), OutputTokens: int64(len(resp.Text))}
	if len(resp.ToolCalls) > 0 {
		resp.StopReason = "tool_use"
	} else {
		resp.StopReason = "end_turn"
	}
	return resp, nil
}

// Requests returns the requests received so far.
func (c *Client) Requests() []provider.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]provider.Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls is the number of model calls made.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Remaining is the number of scripted turns not yet consumed.
func (c *Client) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func cloneRequest(req provider.Request) provider.Request {
	req.Messages = append([]provider.Message(nil), req.Messages...)
	req.Tools = append([]provider.Tool(nil), req.Tools...)
	return req
}
