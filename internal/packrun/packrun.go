// Package packrun implements the Pack Runner (C10): priority-ordered
// multi-journey execution, guardrail enforcement, and perception-usage
// tracking over a compiled TestPack (spec §4.10).
//
// Grounded on the teacher's internal/core/flow.go Flow.Run loop (the same
// "check cancel/budget at the top of every iteration" shape the Step
// Executor already borrows), widened from a single flow's steps to a pack's
// journeys.
package packrun

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/executor"
)

// Options configures one Run call.
type Options struct {
	// Backends maps each supported backend identity to its implementation;
	// a journey whose flow names a backend missing from this map fails
	// immediately without dispatching any action.
	Backends map[domain.Backend]backend.AutomationBackend

	Vision     executor.VisionPolicy
	KillSwitch interface{ Tripped() bool }
	Audit      auditSink
	// Allowlist, when non-nil, is threaded into every journey's executor
	// call to gate the launch action's process_path (spec §1).
	Allowlist interface{ Allowed(target string) bool }
}

type auditSink interface {
	KillSwitch(scope string)
	TargetLockViolation(flowName string, stepOrder int, detail string)
	VisionFallbackUsed(flowName string, stepOrder int, confidence float64)
	AllowlistViolation(processPath string)
}

// Run executes every journey in pack in priority order, enforcing the
// pack's guardrails, and returns the raw PackReport spec §4.10 step 4
// describes — C11 (internal/packreport) enriches it with failures,
// coverage, fix queue, and confidence score.
func Run(ctx context.Context, pack domain.TestPack, opts Options) domain.PackReport {
	started := time.Now()

	journeys := append([]domain.Journey(nil), pack.Journeys...)
	sort.SliceStable(journeys, func(i, j int) bool {
		return journeys[i].Priority.Rank() < journeys[j].Priority.Rank()
	})

	report := domain.PackReport{
		PackName:  pack.Name,
		StartedAt: started,
		Coverage:  map[string]domain.CoverageStatus{},
	}

	failedJourneys := 0
	totalSteps, structuralResolved, visionFallbacks := 0, 0, 0

	for i, journey := range journeys {
		if aborted, reason := checkAbort(ctx, opts, pack, started, failedJourneys); aborted {
			report.BudgetAborted = true
			report.AbortReason = reason
			log.Printf("[PackRunner] pack=%q aborting at journey %d/%d: %s", pack.Name, i+1, len(journeys), reason)
			for _, remaining := range journeys[i:] {
				report.Journeys = append(report.Journeys, domain.JourneyResult{
					JourneyName: remaining.Name,
					Priority:    remaining.Priority,
					Coverage:    domain.CoverageSkipped,
				})
			}
			break
		}

		jr := runJourney(ctx, pack, journey, opts)
		report.Journeys = append(report.Journeys, jr)

		totalSteps += jr.TotalSteps()
		visionFallbacks += jr.UsedVisionCount()
		structuralResolved += jr.TotalSteps() - jr.UsedVisionCount()

		if jr.Result == domain.ResultFailed {
			failedJourneys++
		}
	}

	report.Perception = domain.PerceptionStats{
		TotalSteps:         totalSteps,
		StructuralResolved: structuralResolved,
		VisionFallbacks:    visionFallbacks,
	}
	report.Result = aggregatePackResult(report.Journeys)
	report.DurationMs = time.Since(started).Milliseconds()
	return report
}

func checkAbort(ctx context.Context, opts Options, pack domain.TestPack, started time.Time, failedJourneys int) (bool, string) {
	if opts.KillSwitch != nil && opts.KillSwitch.Tripped() {
		return true, "kill switch tripped"
	}
	if ctx.Err() != nil {
		return true, "cancelled"
	}
	if pack.Guardrails.MaxRuntimeMinutes > 0 {
		if time.Since(started) > time.Duration(pack.Guardrails.MaxRuntimeMinutes)*time.Minute {
			return true, "runtime budget exhausted"
		}
	}
	if pack.Guardrails.MaxFailuresBeforeStop > 0 && failedJourneys >= pack.Guardrails.MaxFailuresBeforeStop {
		return true, "failure budget exhausted"
	}
	return false, ""
}

// runJourney runs every FlowRef in journey.Flows in order against pack and
// opts, aggregating their ExecutionReports into a single JourneyResult (spec
// §4.10's "for each FlowRef in order").
func runJourney(ctx context.Context, pack domain.TestPack, journey domain.Journey, opts Options) domain.JourneyResult {
	if len(journey.Flows) == 0 {
		exec := domain.ExecutionReport{
			Result:  domain.ResultFailed,
			Summary: fmt.Sprintf("journey %q has no flows", journey.Name),
		}
		return domain.JourneyResult{
			JourneyName: journey.Name,
			Priority:    journey.Priority,
			Coverage:    domain.CoverageNotCovered,
			Result:      domain.ResultFailed,
			Executions:  []domain.ExecutionReport{exec},
		}
	}

	executions := make([]domain.ExecutionReport, 0, len(journey.Flows))
	for _, ref := range journey.Flows {
		flow, ok := resolveFlowRef(pack, ref)
		if !ok {
			executions = append(executions, domain.ExecutionReport{
				FlowName: ref.FlowName,
				Result:   domain.ResultFailed,
				Summary:  fmt.Sprintf("flow_ref %q not found in pack", ref.FlowName),
			})
			continue
		}

		if violation, ok := firstForbiddenAction(pack, flow); ok {
			executions = append(executions, domain.ExecutionReport{
				FlowName: flow.Name,
				Result:   domain.ResultFailed,
				Summary:  fmt.Sprintf("flow %q uses forbidden action %q", flow.Name, violation),
			})
			continue
		}

		if pack.Guardrails.RequireTargetLockForDesktop && flow.Backend == domain.BackendDesktop {
			flow.TargetLock = true
		}

		chosen, ok := selectBackend(opts.Backends, journey, flow)
		if !ok {
			executions = append(executions, domain.ExecutionReport{
				FlowName: flow.Name,
				Result:   domain.ResultFailed,
				Summary:  fmt.Sprintf("flow %q requires a backend not available in this run", flow.Name),
			})
			continue
		}

		execReport := executor.ExecuteFlow(ctx, flow, chosen, executor.Options{
			Vision:     opts.Vision,
			KillSwitch: opts.KillSwitch,
			Audit:      opts.Audit,
			Allowlist:  opts.Allowlist,
		})
		executions = append(executions, execReport)
	}

	result := aggregateExecutions(executions)
	return domain.JourneyResult{
		JourneyName: journey.Name,
		Priority:    journey.Priority,
		Coverage:    coverageFor(result),
		Result:      result,
		Executions:  executions,
	}
}

func resolveFlowRef(pack domain.TestPack, ref domain.FlowRef) (domain.TestFlow, bool) {
	if ref.Inline != nil {
		return *ref.Inline, true
	}
	f, ok := pack.FlowByName(ref.FlowName)
	if !ok {
		return domain.TestFlow{}, false
	}
	return *f, true
}

// aggregateExecutions rolls up a journey's per-flow results the same way
// aggregatePackResult rolls up a pack's per-journey results: any failure
// fails the journey, otherwise mixed beats
// passed, otherwise passed.
func aggregateExecutions(executions []domain.ExecutionReport) domain.ExecutionResult {
	hasFailed, hasMixed, hasPassed := false, false, false
	for _, e := range executions {
		switch e.Result {
		case domain.ResultFailed:
			hasFailed = true
		case domain.ResultMixed:
			hasMixed = true
		case domain.ResultPassed:
			hasPassed = true
		}
	}
	if hasFailed {
		return domain.ResultFailed
	}
	if hasMixed || (hasPassed && len(executions) > 0 && !allExecutionsPassed(executions)) {
		return domain.ResultMixed
	}
	if hasPassed {
		return domain.ResultPassed
	}
	return domain.ResultFailed
}

func allExecutionsPassed(executions []domain.ExecutionReport) bool {
	for _, e := range executions {
		if e.Result != domain.ResultPassed {
			return false
		}
	}
	return true
}

func firstForbiddenAction(pack domain.TestPack, flow domain.TestFlow) (domain.StepAction, bool) {
	for _, step := range flow.Steps {
		if pack.Guardrails.ForbidsAction(step.Action) {
			return step.Action, true
		}
	}
	return "", false
}

func selectBackend(backends map[domain.Backend]backend.AutomationBackend, journey domain.Journey, flow domain.TestFlow) (backend.AutomationBackend, bool) {
	required := journey.RequiredBackends
	if len(required) == 0 {
		required = []domain.Backend{flow.Backend}
	}
	for _, r := range required {
		if _, ok := backends[r]; !ok {
			return nil, false
		}
	}
	b, ok := backends[flow.Backend]
	return b, ok
}

func coverageFor(r domain.ExecutionResult) domain.CoverageStatus {
	switch r {
	case domain.ResultPassed:
		return domain.CoverageCovered
	case domain.ResultMixed:
		return domain.CoveragePartiallyCovered
	case domain.ResultFailed:
		return domain.CoverageNotCovered
	default:
		return domain.CoverageNotCovered
	}
}

func aggregatePackResult(journeys []domain.JourneyResult) domain.ExecutionResult {
	hasFailed, hasMixed, hasPassed := false, false, false
	for _, j := range journeys {
		switch j.Result {
		case domain.ResultFailed:
			hasFailed = true
		case domain.ResultMixed:
			hasMixed = true
		case domain.ResultPassed:
			hasPassed = true
		}
	}
	if hasFailed {
		return domain.ResultFailed
	}
	if hasMixed || (hasPassed && len(journeys) > 0 && !allPassed(journeys)) {
		return domain.ResultMixed
	}
	if hasPassed {
		return domain.ResultPassed
	}
	return domain.ResultFailed
}

func allPassed(journeys []domain.JourneyResult) bool {
	for _, j := range journeys {
		if j.Result != domain.ResultPassed {
			return false
		}
	}
	return true
}
