package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/windrift/uiflow/internal/agenttools"
)

// stubTool is a minimal agenttools.Tool double for exercising the handler
// adapter without pulling in a real backend.
type stubTool struct {
	name string
	out  agenttools.ToolResult
	err  error
}

func (s *stubTool) Name() string                 { return s.name }
func (s *stubTool) Description() string          { return "stub" }
func (s *stubTool) Category() agenttools.Category { return agenttools.CategoryDiscovery }
func (s *stubTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }
func (s *stubTool) InputSchema() json.RawMessage  { return agenttools.BuildSchema() }
func (s *stubTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	return s.out, s.err
}

func TestBuild_RegistersEveryTool(t *testing.T) {
	reg := agenttools.NewRegistry()
	reg.Register(&stubTool{name: "alpha", out: agenttools.ToolResult{Output: "ok"}})
	reg.Register(&stubTool{name: "beta", out: agenttools.ToolResult{Output: "ok"}})

	s := Build(reg)
	if s == nil {
		t.Fatalf("expected a non-nil server")
	}
}

func TestMakeHandler_ReturnsOutputOnSuccess(t *testing.T) {
	reg := agenttools.NewRegistry()
	reg.Register(&stubTool{name: "alpha", out: agenttools.ToolResult{Output: `{"ok":true}`}})

	handler := makeHandler(reg, "alpha")
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected a non-error result, got %+v", res)
	}
}

func TestMakeHandler_ReturnsToolErrorOnDomainFailure(t *testing.T) {
	reg := agenttools.NewRegistry()
	reg.Register(&stubTool{name: "alpha", out: agenttools.ToolResult{Error: "window not found"}})

	handler := makeHandler(reg, "alpha")
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected an error result for a domain failure")
	}
}

func TestMakeHandler_UnknownToolReturnsError(t *testing.T) {
	reg := agenttools.NewRegistry()
	handler := makeHandler(reg, "does-not-exist")
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected an error result for an unknown tool")
	}
}
