// Package mcpserver implements the `--mcp` CLI mode (spec §6): a stdio
// JSON-RPC server exposing the Agent Tool Surface (C12) over the MCP
// protocol. stdout carries only JSON-RPC frames; every log line goes to
// stderr (spec §6's CLI surface contract).
//
// Grounded on the teacher's internal/mcp/client.go, which consumes
// github.com/mark3labs/mcp-go's client half of this protocol — this
// package mirrors that dependency onto the library's server package, the
// serving half the teacher never needed.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/windrift/uiflow/internal/agenttools"
)

// Name and Version identify this server during the MCP initialize handshake.
const (
	Name    = "uiflow"
	Version = "0.1.0"
)

// Build constructs an MCP server exposing every tool in reg, each wired to
// Registry.Call through a uniform adapter.
func Build(reg *agenttools.Registry) *server.MCPServer {
	s := server.NewMCPServer(Name, Version)
	for _, t := range reg.List() {
		s.AddTool(toMCPTool(t), makeHandler(reg, t.Name()))
	}
	return s
}

// toMCPTool converts one agenttools.Tool's self-description into the
// library's Tool type, reusing our own JSON-schema bytes directly rather
// than re-deriving them through the library's option builders.
func toMCPTool(t agenttools.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.InputSchema())
}

// makeHandler adapts one named tool call into the library's
// request/response shape. Domain-level failures (ToolResult.Error) are
// reported as tool errors, not protocol errors — the agent sees them the
// same way it would see a validation or execution failure from any other
// caller of the tool surface.
func makeHandler(reg *agenttools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsJSON, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("could not marshal arguments: %v", err)), nil
		}

		result, callErr := reg.Call(ctx, name, argsJSON)
		if callErr != nil {
			return mcp.NewToolResultError(callErr.Error()), nil
		}
		if result.Error != "" {
			return mcp.NewToolResultError(result.Error), nil
		}
		return mcp.NewToolResultText(result.Output), nil
	}
}

// Serve runs the MCP server over stdio until the client disconnects; ctx is
// not passed to the stdio server, so cancelling it does not stop Serve.
// All server-side logging is routed to stderr by the library
// default; this function never writes to stdout itself.
func Serve(ctx context.Context, reg *agenttools.Registry) error {
	s := Build(reg)
	log.Printf("[MCP] serving %d tools over stdio", len(reg.List()))
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("mcpserver: serve stdio: %w", err)
	}
	return nil
}
