// Package mcpserver exposes the tool registry over the Model Context Protocol so
// other agents can call the review tools directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/petasbytes/review-agent/tools"
)

// Name is the server name announced during initialization.
const Name = "review-agent"

type Server struct {
	registry  *tools.Registry
	mcpServer *server.MCPServer
}

// New registers every tool of registry with its generated JSON schema.
func New(registry *tools.Registry, version string) (*Server, error) {
	s := &Server{
		registry:  registry,
		mcpServer: server.NewMCPServer(Name, version, server.WithToolCapabilities(true)),
	}
	for _, def := range registry.Definitions() {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encode schema for %s: %w", def.Name, err)
		}
		s.mcpServer.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, schema), s.handle(def.Name))
	}
	return s, nil
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcpServer }

// ServeStdio serves requests on stdin/stdout until ctx is done or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	clog.FromContext(ctx).Infof("serving %d tools over MCP stdio", s.registry.Len())
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// handle dispatches a call through the registry. Failed invocations are tool
// errors, not protocol errors, so the caller sees the reason.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		input, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode arguments: %v", err)), nil
		}
		inv := s.registry.Dispatch(ctx, name, input)
		if inv.Failed() {
			clog.FromContext(ctx).Warnf("mcp tool %s failed: %v", name, inv.Err)
			return mcp.NewToolResultError(inv.Content()), nil
		}
		return mcp.NewToolResultText(inv.Output), nil
	}
}
