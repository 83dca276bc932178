// Package agenttools implements the Agent Tool Surface (C12): a fixed,
// self-describing set of named operations the LLM invokes, each a pure
// pass-through to C2/C6/C8/C9-C11 (spec §4.12).
//
// Grounded on the teacher's internal/tool/types.go Tool interface and
// BuildSchema helper, reused in shape (Name/Description/InputSchema/
// Execute), widened with Category/Risk fields so a tool's Descriptor
// records the way spec §4.12 groups operations
// (discovery/execution/pack) and flags which are read-only versus
// mutating.
package agenttools

import (
	"context"
	"encoding/json"
)

// Category groups a tool under one of spec §4.12's three operation
// families.
type Category string

const (
	CategoryDiscovery Category = "discovery"
	CategoryExecution Category = "execution"
	CategoryPack      Category = "pack"
)

// RiskLevel flags whether a tool only reads state or can trigger UI
// automation / LLM calls with side effects (spec §1's safety envelope
// cares about this distinction at the tool boundary, same as the step
// level).
type RiskLevel string

const (
	RiskReadOnly RiskLevel = "read_only"
	RiskMutating RiskLevel = "mutating"
)

// Tool is the unified interface every agent-tool-surface operation
// implements, whether it wraps the validator, the executor, or the pack
// pipeline.
type Tool interface {
	Name() string
	Description() string
	Category() Category
	Risk() RiskLevel
	InputSchema() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

// ToolResult is a tool's output: a JSON string payload (spec §4.12 "tool
// outputs are JSON strings with the same serialization conventions as
// §3"), or an error message when the tool could not complete.
type ToolResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// SchemaParam describes one parameter for the BuildSchema helper.
type SchemaParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string", "integer", "boolean", "number", "object"
	Description string   `json:"description"`
	Required    bool     `json:"-"`
	Enum        []string `json:"enum,omitempty"`
}

// BuildSchema generates a standard JSON Schema object from a list of
// SchemaParams, compatible with the MCP protocol's tool input schema.
func BuildSchema(params ...SchemaParam) json.RawMessage {
	properties := make(map[string]any)
	var required []string

	for _, p := range params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	data, _ := json.Marshal(schema)
	return data
}

// Descriptor is the self-describing summary of one registered tool, as
// returned by Registry.Describe.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Risk        RiskLevel       `json:"risk"`
	InputSchema json.RawMessage `json:"inputSchema"`
}
