// pack.go implements the spec §4.12 "Pack" category tools: run_pipeline,
// plan_pack, get_fix_queue, get_confidence, analyze_report. The latter
// three read back the most recent PackReport rather than taking one as an
// argument (spec §4.12 lists them with no parameters) — a Session holds
// that last result the way a single agent conversation holds one pack run
// at a time.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/windrift/uiflow/internal/agenttools"
	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/chatclient"
	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/packplan"
	"github.com/windrift/uiflow/internal/packreport"
	"github.com/windrift/uiflow/internal/packrun"
	"github.com/windrift/uiflow/internal/reportstore"
)

// Session holds the most recent pack plan/report so the no-argument tools
// (get_fix_queue, get_confidence, analyze_report) have something to read.
// Grounded on the teacher's internal/session.Store — a single mutex-guarded
// holder, narrowed here to exactly one slot instead of a keyed map since
// spec §5 runs one pack at a time.
type Session struct {
	mu     sync.RWMutex
	plan   *domain.PackPlan
	report *domain.PackReport
}

// NewSession returns an empty pack session.
func NewSession() *Session { return &Session{} }

func (s *Session) setPlan(p domain.PackPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.plan = &cp
}

func (s *Session) setReport(r domain.PackReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.report = &cp
}

// LastReport returns the most recently completed pack report, if any.
func (s *Session) LastReport() (domain.PackReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return domain.PackReport{}, false
	}
	return *s.report, true
}

// LastPlan returns the most recently computed pack plan, if any.
func (s *Session) LastPlan() (domain.PackPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plan == nil {
		return domain.PackPlan{}, false
	}
	return *s.plan, true
}

// PlanPackTool wraps packplan.Plan (C9 Phase A).
type PlanPackTool struct {
	chat    chatclient.ChatClient
	session *Session
}

func NewPlanPackTool(chat chatclient.ChatClient, session *Session) *PlanPackTool {
	return &PlanPackTool{chat: chat, session: session}
}

func (t *PlanPackTool) Name() string                 { return "plan_pack" }
func (t *PlanPackTool) Description() string           { return "Runs the LLM-mediated planning phase over a TestPack's targets/journeys, returning a PackPlan." }
func (t *PlanPackTool) Category() agenttools.Category { return agenttools.CategoryPack }
func (t *PlanPackTool) Risk() agenttools.RiskLevel    { return agenttools.RiskMutating }

func (t *PlanPackTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "pack_json", Type: "object", Description: "The TestPack document to plan", Required: true},
	)
}

type planPackArgs struct {
	PackJSON json.RawMessage `json:"pack_json"`
}

func (t *PlanPackTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a planPackArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	var pack domain.TestPack
	if err := json.Unmarshal(a.PackJSON, &pack); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("could not parse pack_json as a TestPack: %v", err)}, nil
	}

	plan, err := packplan.Plan(ctx, pack, t.chat)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	t.session.setPlan(plan)

	out, marshalErr := json.Marshal(plan)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// RunPipelineTool wraps the full Plan->Compile->Validate->Execute->Report
// pipeline (C9-C11), spec §1's "five-phase orchestration".
type RunPipelineTool struct {
	chat     chatclient.ChatClient
	backends map[domain.Backend]backend.AutomationBackend
	runOpts  packrun.Options
	session  *Session
	saveDir  string
}

func NewRunPipelineTool(chat chatclient.ChatClient, backends map[domain.Backend]backend.AutomationBackend, runOpts packrun.Options, session *Session, reportsDir string) *RunPipelineTool {
	return &RunPipelineTool{chat: chat, backends: backends, runOpts: runOpts, session: session, saveDir: reportsDir}
}

func (t *RunPipelineTool) Name() string                 { return "run_pipeline" }
func (t *RunPipelineTool) Description() string           { return "Runs the full pack pipeline (plan, compile/validate, execute, report) over a TestPack, returning the confidence-scored PackReport." }
func (t *RunPipelineTool) Category() agenttools.Category { return agenttools.CategoryPack }
func (t *RunPipelineTool) Risk() agenttools.RiskLevel    { return agenttools.RiskMutating }

func (t *RunPipelineTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "pack_json", Type: "object", Description: "The TestPack template to run (journeys/targets/guardrails; flows are compiled by the LLM)", Required: true},
	)
}

type runPipelineArgs struct {
	PackJSON json.RawMessage `json:"pack_json"`
}

func (t *RunPipelineTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a runPipelineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	var template domain.TestPack
	if err := json.Unmarshal(a.PackJSON, &template); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("could not parse pack_json as a TestPack: %v", err)}, nil
	}

	plan, err := packplan.Plan(ctx, template, t.chat)
	if err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("plan phase failed: %v", err)}, nil
	}
	t.session.setPlan(plan)

	compiled := packplan.Compile(ctx, template, plan, t.chat)
	if !compiled.Success || compiled.Pack == nil {
		out, marshalErr := json.Marshal(compiled)
		if marshalErr != nil {
			return agenttools.ToolResult{}, marshalErr
		}
		return agenttools.ToolResult{Output: string(out), Error: "compile/validate phase did not converge"}, nil
	}

	raw := packrun.Run(ctx, *compiled.Pack, t.runOpts)
	final := packreport.Build(raw, *compiled.Pack, &plan)
	t.session.setReport(final)

	if t.saveDir != "" {
		if err := reportstore.SavePackReport(t.saveDir, final.PackName, final, time.Now()); err != nil {
			out, marshalErr := json.Marshal(final)
			if marshalErr != nil {
				return agenttools.ToolResult{}, marshalErr
			}
			return agenttools.ToolResult{Output: string(out), Error: fmt.Sprintf("report executed but not saved: %v", err)}, nil
		}
	}

	out, marshalErr := json.Marshal(final)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// GetFixQueueTool returns the fix queue from the session's last PackReport.
type GetFixQueueTool struct{ session *Session }

func NewGetFixQueueTool(session *Session) *GetFixQueueTool { return &GetFixQueueTool{session: session} }

func (t *GetFixQueueTool) Name() string                 { return "get_fix_queue" }
func (t *GetFixQueueTool) Description() string           { return "Returns the ranked fix queue from the most recent pack run." }
func (t *GetFixQueueTool) Category() agenttools.Category { return agenttools.CategoryPack }
func (t *GetFixQueueTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }
func (t *GetFixQueueTool) InputSchema() json.RawMessage  { return agenttools.BuildSchema() }

func (t *GetFixQueueTool) Execute(_ context.Context, _ json.RawMessage) (agenttools.ToolResult, error) {
	report, ok := t.session.LastReport()
	if !ok {
		return agenttools.ToolResult{Error: "no pack has been run yet in this session"}, nil
	}
	out, err := json.Marshal(report.FixQueue)
	if err != nil {
		return agenttools.ToolResult{}, err
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// GetConfidenceTool returns the confidence score from the session's last
// PackReport (spec §4.11/§8's confidence_score formula).
type GetConfidenceTool struct{ session *Session }

func NewGetConfidenceTool(session *Session) *GetConfidenceTool { return &GetConfidenceTool{session: session} }

func (t *GetConfidenceTool) Name() string                 { return "get_confidence" }
func (t *GetConfidenceTool) Description() string           { return "Returns the confidence score (0..1) of the most recent pack run." }
func (t *GetConfidenceTool) Category() agenttools.Category { return agenttools.CategoryPack }
func (t *GetConfidenceTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }
func (t *GetConfidenceTool) InputSchema() json.RawMessage  { return agenttools.BuildSchema() }

func (t *GetConfidenceTool) Execute(_ context.Context, _ json.RawMessage) (agenttools.ToolResult, error) {
	report, ok := t.session.LastReport()
	if !ok {
		return agenttools.ToolResult{Error: "no pack has been run yet in this session"}, nil
	}
	out, err := json.Marshal(map[string]float64{"confidenceScore": report.ConfidenceScore})
	if err != nil {
		return agenttools.ToolResult{}, err
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// AnalyzeReportTool returns the session's last PackReport in full, for an
// agent that wants to reason over failures/warnings/coverage itself rather
// than calling the narrower get_fix_queue/get_confidence tools.
type AnalyzeReportTool struct{ session *Session }

func NewAnalyzeReportTool(session *Session) *AnalyzeReportTool { return &AnalyzeReportTool{session: session} }

func (t *AnalyzeReportTool) Name() string                 { return "analyze_report" }
func (t *AnalyzeReportTool) Description() string           { return "Returns the full PackReport (failures, warnings, coverage map, perception stats) from the most recent pack run." }
func (t *AnalyzeReportTool) Category() agenttools.Category { return agenttools.CategoryPack }
func (t *AnalyzeReportTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }
func (t *AnalyzeReportTool) InputSchema() json.RawMessage  { return agenttools.BuildSchema() }

func (t *AnalyzeReportTool) Execute(_ context.Context, _ json.RawMessage) (agenttools.ToolResult, error) {
	report, ok := t.session.LastReport()
	if !ok {
		return agenttools.ToolResult{Error: "no pack has been run yet in this session"}, nil
	}
	out, err := json.Marshal(report)
	if err != nil {
		return agenttools.ToolResult{}, err
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}
