package packplan

import (
	"fmt"
	"strings"

	"github.com/windrift/uiflow/internal/domain"
)

const planSystemPrompt = `You are the planning stage of a UI test-pack compiler. Given a target
application, its guardrails, and named data profiles, produce a JSON plan
describing which journeys to run and in what priority order. Reply with a
single JSON object only, no prose, no markdown fences beyond the fenced
block itself if you choose to use one. Shape:

{
  "journeys": [{"name": "...", "flows": [{"flowName": "..."}], "dataProfile": "...", "priority": "p0|p1|p2|p3", "successCriteria": ["..."], "coverageArea": "..."}],
  "warnings": ["..."],
  "coverageMap": {"area": ["journeyName", "..."]}
}`

// buildPlanSystemPrompt assembles the planning system prompt: the fixed
// instructions above plus the pack's guardrails, target, and data profiles,
// mirroring the teacher's buildSystemPrompt layering (fixed rules + run
// context appended below).
func buildPlanSystemPrompt(pack domain.TestPack) string {
	var b strings.Builder
	b.WriteString(planSystemPrompt)
	b.WriteString("\n\nTarget: ")
	b.WriteString(pack.Target.Name)
	if pack.Target.ProcessName != "" {
		b.WriteString(fmt.Sprintf(" (process %s)", pack.Target.ProcessName))
	}
	b.WriteString("\n\nGuardrails:\n")
	fmt.Fprintf(&b, "- max_journeys: %d\n", pack.Guardrails.MaxJourneys)
	fmt.Fprintf(&b, "- max_total_steps: %d\n", pack.Guardrails.MaxTotalSteps)
	fmt.Fprintf(&b, "- max_steps_per_flow: %d\n", pack.Guardrails.MaxStepsPerFlow)
	if len(pack.Guardrails.ForbiddenActions) > 0 {
		fmt.Fprintf(&b, "- forbidden_actions: %v\n", pack.Guardrails.ForbiddenActions)
	}

	b.WriteString("\nAvailable flows:\n")
	for _, f := range pack.Flows {
		fmt.Fprintf(&b, "- %s (%d steps)\n", f.Name, len(f.Steps))
	}

	b.WriteString("\nData profiles:\n")
	for _, dp := range pack.DataProfiles {
		fmt.Fprintf(&b, "- %s\n", dp.Name)
	}
	return b.String()
}

// buildPlanUserPrompt carries the pack's free-text inputs — here, simply the
// pack name and an instruction, since the domain model has no separate
// free-text brief field. Packs that want richer planning context can fold it
// into a journey's Name/CoverageArea, which the model already sees above.
func buildPlanUserPrompt(pack domain.TestPack) string {
	return fmt.Sprintf("Produce a journey plan for pack %q.", pack.Name)
}

const compileSystemPrompt = `You are the compile stage of a UI test-pack compiler. Given a plan and a
pack template, produce a complete TestPack JSON object with concrete flows
for every planned journey. Reply with a single JSON object only. Do not
invent fields outside the TestPack schema.`

// buildInitialCompilePrompt is the first attempt's prompt (spec §4.9 "prompt
// := initial(pack_template, plan)").
func buildInitialCompilePrompt(template domain.TestPack, plan domain.PackPlan) string {
	var b strings.Builder
	b.WriteString("Pack template:\n")
	fmt.Fprintf(&b, "- name: %s\n", template.Name)
	fmt.Fprintf(&b, "- target: %s\n", template.Target.Name)

	b.WriteString("\nPlan:\n")
	for _, pj := range plan.Journeys {
		fmt.Fprintf(&b, "- journey %q priority=%s flow_refs=%v data_profile=%q\n",
			pj.Journey.Name, pj.Journey.Priority, flowRefNames(pj.Journey.Flows), pj.Journey.DataProfile)
	}
	if len(plan.Warnings) > 0 {
		fmt.Fprintf(&b, "\nPlan warnings: %v\n", plan.Warnings)
	}
	return b.String()
}

// buildCorrectionCompilePrompt re-injects the plan context alongside the
// validation errors from the previous attempt (spec §4.9 "correction(plan,
// errors)").
func buildCorrectionCompilePrompt(plan domain.PackPlan, errs []string) string {
	var b strings.Builder
	b.WriteString("Your previous reply failed validation with these errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	b.WriteString("\nPlan (unchanged):\n")
	for _, pj := range plan.Journeys {
		fmt.Fprintf(&b, "- journey %q priority=%s flow_refs=%v\n", pj.Journey.Name, pj.Journey.Priority, flowRefNames(pj.Journey.Flows))
	}
	b.WriteString("\nReturn a corrected TestPack JSON object.")
	return b.String()
}

// flowRefNames renders a journey's FlowRefs as the names/inline markers a
// compile prompt can read at a glance.
func flowRefNames(refs []domain.FlowRef) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Inline != nil {
			names = append(names, fmt.Sprintf("inline:%s", r.Inline.Name))
			continue
		}
		names = append(names, r.FlowName)
	}
	return names
}
