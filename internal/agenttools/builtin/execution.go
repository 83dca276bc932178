// execution.go implements the spec §4.12 "Execution" category tools:
// validate_flow, run_flow, list_reports — thin pass-throughs to C2 (the
// validator), C8 (the step executor), and the report store, respectively.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/windrift/uiflow/internal/agenttools"
	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/executor"
	"github.com/windrift/uiflow/internal/reportstore"
	"github.com/windrift/uiflow/internal/validator"
)

// ValidateFlowTool wraps validator.Validate (C2). It never touches the
// backend or the filesystem — same purity guarantee the validator itself
// gives (spec §8's "validator purity" property holds through this tool).
type ValidateFlowTool struct{}

func NewValidateFlowTool() *ValidateFlowTool { return &ValidateFlowTool{} }

func (t *ValidateFlowTool) Name() string                 { return "validate_flow" }
func (t *ValidateFlowTool) Description() string          { return "Validates a TestFlow JSON document against the flow schema, returning errors and warnings without executing anything." }
func (t *ValidateFlowTool) Category() agenttools.Category { return agenttools.CategoryExecution }
func (t *ValidateFlowTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }

func (t *ValidateFlowTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "flow_json", Type: "object", Description: "The TestFlow document to validate", Required: true},
	)
}

type validateFlowArgs struct {
	FlowJSON json.RawMessage `json:"flow_json"`
}

func (t *ValidateFlowTool) Execute(_ context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a validateFlowArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	var flow domain.TestFlow
	if err := json.Unmarshal(a.FlowJSON, &flow); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("could not parse flow_json as a TestFlow: %v", err)}, nil
	}
	result := validator.Validate(&flow)
	out, err := json.Marshal(result)
	if err != nil {
		return agenttools.ToolResult{}, err
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// RunFlowTool wraps executor.ExecuteFlow (C8), persisting the resulting
// ExecutionReport via reportstore conventions (spec §6's
// reports/<testname>_<timestamp>/report.json layout) before returning it.
type RunFlowTool struct {
	backend backend.AutomationBackend
	opts    executor.Options
	saveDir string
}

// NewRunFlowTool builds a run_flow tool bound to a single backend and a
// fixed set of safety options — mirroring how run_flow has no per-call
// backend selection in spec §4.12 (a single "desktop" backend is assumed
// for one-off agent-driven runs; run_pipeline is the multi-backend path).
func NewRunFlowTool(b backend.AutomationBackend, opts executor.Options, reportsDir string) *RunFlowTool {
	return &RunFlowTool{backend: b, opts: opts, saveDir: reportsDir}
}

func (t *RunFlowTool) Name() string                 { return "run_flow" }
func (t *RunFlowTool) Description() string           { return "Validates then executes a single TestFlow against the desktop backend, returning the ExecutionReport." }
func (t *RunFlowTool) Category() agenttools.Category { return agenttools.CategoryExecution }
func (t *RunFlowTool) Risk() agenttools.RiskLevel    { return agenttools.RiskMutating }

func (t *RunFlowTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "flow_json", Type: "object", Description: "The TestFlow document to execute", Required: true},
	)
}

type runFlowArgs struct {
	FlowJSON json.RawMessage `json:"flow_json"`
}

func (t *RunFlowTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a runFlowArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	var flow domain.TestFlow
	if err := json.Unmarshal(a.FlowJSON, &flow); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("could not parse flow_json as a TestFlow: %v", err)}, nil
	}

	report := executor.ExecuteFlow(ctx, flow, t.backend, t.opts)

	if t.saveDir != "" {
		if err := reportstore.SaveFlowReport(t.saveDir, report, time.Now()); err != nil {
			// Persistence failure does not invalidate the in-hand report;
			// the agent still gets the result, just without a saved copy.
			out, marshalErr := json.Marshal(report)
			if marshalErr != nil {
				return agenttools.ToolResult{}, marshalErr
			}
			return agenttools.ToolResult{Output: string(out), Error: fmt.Sprintf("report executed but not saved: %v", err)}, nil
		}
	}

	out, err := json.Marshal(report)
	if err != nil {
		return agenttools.ToolResult{}, err
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// ListReportsTool wraps reportstore.List (spec §4.12's list_reports(max=10)).
type ListReportsTool struct {
	dir string
}

func NewListReportsTool(reportsDir string) *ListReportsTool { return &ListReportsTool{dir: reportsDir} }

func (t *ListReportsTool) Name() string                 { return "list_reports" }
func (t *ListReportsTool) Description() string           { return "Lists the most recent execution/pack reports written under the reports directory, newest first." }
func (t *ListReportsTool) Category() agenttools.Category { return agenttools.CategoryExecution }
func (t *ListReportsTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }

func (t *ListReportsTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "max", Type: "integer", Description: "Maximum number of reports to return (default 10)"},
	)
}

type listReportsArgs struct {
	Max int `json:"max"`
}

func (t *ListReportsTool) Execute(_ context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a listReportsArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}
	entries, err := reportstore.List(t.dir, a.Max)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	out, marshalErr := json.Marshal(entries)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}
