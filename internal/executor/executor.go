// Package executor implements the Step Executor (C8): the single-flow state
// machine that validates a flow, then runs its steps strictly sequentially
// against a pluggable AutomationBackend, honoring stop-on-failure and
// cancellation, and assembling the resulting ExecutionReport (spec §4.8).
//
// Grounded on the teacher's internal/core/flow.go Flow.Run — same shape
// (loop, check ctx.Err() every iteration, abort past a safety cap) adapted
// from a graph-successor walk to a fixed step-index walk, since spec §5
// states flow execution is strictly sequential with no branching routing.
package executor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/validator"
)

// VisionPolicy configures whether/which actions may use the vision
// fallback path, and at what confidence threshold (spec §4.7, §9).
type VisionPolicy struct {
	Enabled           bool
	ConfidenceThreshold float64
	Eligible          func(domain.StepAction) bool
}

// Options configures one ExecuteFlow call.
type Options struct {
	Vision VisionPolicy
	// KillSwitch, when non-nil, is checked at the top of every step; when
	// tripped remaining steps are marked Skipped and an audit line written.
	KillSwitch interface{ Tripped() bool }
	Audit      auditSink
	// Allowlist, when non-nil, gates the launch action's process_path
	// (spec §1 "process allowlist"); a rejected target fails the step
	// without ever reaching the backend/Surface.
	Allowlist allowlist
}

// auditSink is the narrow slice of auditlog.Log the executor needs,
// defined locally so this package does not import auditlog for one method.
type auditSink interface {
	KillSwitch(scope string)
	TargetLockViolation(flowName string, stepOrder int, detail string)
	VisionFallbackUsed(flowName string, stepOrder int, confidence float64)
	AllowlistViolation(processPath string)
}

// nopAudit discards everything; used when Options.Audit is nil.
type nopAudit struct{}

func (nopAudit) KillSwitch(string)                      {}
func (nopAudit) TargetLockViolation(string, int, string) {}
func (nopAudit) VisionFallbackUsed(string, int, float64) {}
func (nopAudit) AllowlistViolation(string)               {}

// allowlist is the narrow seam pkg/safety.Allowlist satisfies; defined
// locally so this package stays free of a pkg/safety import for one method.
type allowlist interface {
	Allowed(target string) bool
}

// ExecuteFlow runs the full single-flow FSM described in spec §4.8.
func ExecuteFlow(ctx context.Context, flow domain.TestFlow, b backend.AutomationBackend, opts Options) domain.ExecutionReport {
	started := time.Now()
	audit := opts.Audit
	if audit == nil {
		audit = nopAudit{}
	}

	res := validator.Validate(&flow)
	if !res.Valid() {
		return domain.ExecutionReport{
			FlowName:   flow.Name,
			Result:     domain.ResultFailed,
			StartedAt:  started,
			DurationMs: time.Since(started).Milliseconds(),
			Summary:    fmt.Sprintf("flow failed validation: %v", res.Errors),
		}
	}

	execCtx := &backend.ExecutionContext{
		TargetLock:      flow.TargetLock,
		VisionEnabled:   opts.Vision.Enabled,
		VisionThreshold: opts.Vision.ConfidenceThreshold,
		VisionEligible:  opts.Vision.Eligible,
	}
	if flow.TargetApp != "" {
		execCtx.LastWindowApp = flow.TargetApp
	}

	steps := make([]domain.StepResult, len(flow.Steps))
	stoppedEarly := false
	abortReason := ""

	for i, step := range flow.Steps {
		if opts.KillSwitch != nil && opts.KillSwitch.Tripped() {
			audit.KillSwitch(fmt.Sprintf("flow=%q step=%d", flow.Name, step.Order))
			stoppedEarly = true
			abortReason = "kill switch tripped"
			markSkipped(steps, i, flow.Steps)
			break
		}
		if ctx.Err() != nil {
			stoppedEarly = true
			abortReason = "cancelled"
			markSkippedWithReason(steps, i, flow.Steps, "Step cancelled")
			break
		}

		if step.Action == domain.ActionLaunch && opts.Allowlist != nil && !opts.Allowlist.Allowed(step.ProcessPath) {
			audit.AllowlistViolation(step.ProcessPath)
			result := domain.StepResult{
				Order:  step.Order,
				Action: step.Action,
				Status: domain.StatusFailed,
				Error:  fmt.Sprintf("process %q is not on the allowlist", step.ProcessPath),
			}
			steps[i] = result
			if flow.StopOnFailure {
				stoppedEarly = true
				abortReason = fmt.Sprintf("stop_on_failure: step %d %s", step.Order, result.Status)
				markSkipped(steps, i+1, flow.Steps)
				break
			}
			continue
		}

		result := b.ExecuteStep(ctx, step, execCtx)
		steps[i] = result

		if result.Status == domain.StatusFailed {
			log.Printf("[Executor] flow=%q step=%d failed: %s", flow.Name, step.Order, result.Error)
		}
		if result.UsedVision {
			audit.VisionFallbackUsed(flow.Name, step.Order, result.VisionConfidence)
		}
		if containsTargetLockViolation(result) {
			audit.TargetLockViolation(flow.Name, step.Order, result.Error)
		}

		if (result.Status == domain.StatusFailed || result.Status == domain.StatusError) && flow.StopOnFailure {
			stoppedEarly = true
			abortReason = fmt.Sprintf("stop_on_failure: step %d %s", step.Order, result.Status)
			markSkipped(steps, i+1, flow.Steps)
			break
		}
	}

	report := domain.ExecutionReport{
		FlowName:     flow.Name,
		StartedAt:    started,
		Steps:        steps,
		StoppedEarly: stoppedEarly,
		AbortReason:  abortReason,
	}
	report.Result = aggregateResult(steps)
	report.DurationMs = time.Since(started).Milliseconds()
	report.Summary = summarize(report)
	return report
}

func markSkipped(steps []domain.StepResult, from int, flowSteps []domain.TestStep) {
	markSkippedWithReason(steps, from, flowSteps, "")
}

func markSkippedWithReason(steps []domain.StepResult, from int, flowSteps []domain.TestStep, reason string) {
	for i := from; i < len(flowSteps); i++ {
		steps[i] = domain.StepResult{
			Order:  flowSteps[i].Order,
			Action: flowSteps[i].Action,
			Status: domain.StatusSkipped,
			Error:  reason,
		}
	}
}

func containsTargetLockViolation(r domain.StepResult) bool {
	return r.Status == domain.StatusFailed && strings.Contains(strings.ToLower(r.Error), "target lock")
}

// aggregateResult computes the flow's overall result per spec §4.8 step 4:
// passed iff no Failed/Error exists and all are Passed; mixed if any
// Warning is present alongside Passed; failed if any Failed/Error.
func aggregateResult(steps []domain.StepResult) domain.ExecutionResult {
	hasFailed, hasWarning, hasPassed := false, false, false
	for _, s := range steps {
		switch s.Status {
		case domain.StatusFailed, domain.StatusError:
			hasFailed = true
		case domain.StatusWarning:
			hasWarning = true
		case domain.StatusPassed:
			hasPassed = true
		}
	}
	if hasFailed {
		return domain.ResultFailed
	}
	if hasWarning && hasPassed {
		return domain.ResultMixed
	}
	if hasWarning {
		return domain.ResultMixed
	}
	return domain.ResultPassed
}

func summarize(r domain.ExecutionReport) string {
	passed, failed, warned, skipped := 0, 0, 0, 0
	for _, s := range r.Steps {
		switch s.Status {
		case domain.StatusPassed:
			passed++
		case domain.StatusFailed, domain.StatusError:
			failed++
		case domain.StatusWarning:
			warned++
		case domain.StatusSkipped:
			skipped++
		}
	}
	return fmt.Sprintf("%s: %d passed, %d failed, %d warning, %d skipped (of %d steps)",
		r.Result, passed, failed, warned, skipped, len(r.Steps))
}
