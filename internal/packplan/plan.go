// Package packplan implements the Pack Planner / Compiler (C9): the two
// LLM-mediated transforms inputs->plan and plan->flows, gated by a
// deterministic validate-retry loop (spec §4.9).
//
// Grounded on the teacher's internal/agent/decide_helpers.go parseDecision:
// request a JSON-only reply, strip fences tolerantly, fall back to YAML on a
// JSON parse failure the way the teacher falls back from strict YAML to a
// backslash-fixed retry.
package packplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/windrift/uiflow/internal/chatclient"
	"github.com/windrift/uiflow/internal/corerun"
	"github.com/windrift/uiflow/internal/domain"
)

// MaxCompileRetries bounds the compile/validate loop (spec §4.9).
const MaxCompileRetries = 3

// planReply is the shape the model is asked to produce for Plan; its
// journeys are unresolved (flow references only), which Plan resolves
// against the pack's flow library before returning a domain.PackPlan.
type planReply struct {
	Journeys    []domain.Journey    `json:"journeys"`
	Warnings    []string            `json:"warnings,omitempty"`
	CoverageMap map[string][]string `json:"coverageMap,omitempty"`
}

// Plan builds the planning prompts, asks chat for a JSON plan, and resolves
// each proposed journey's flow reference against the pack's flow library
// (spec §4.9 Phase A).
func Plan(ctx context.Context, pack domain.TestPack, chat chatclient.ChatClient) (domain.PackPlan, error) {
	sys := buildPlanSystemPrompt(pack)
	user := buildPlanUserPrompt(pack)

	reply, err := chat.Complete(ctx, sys, user, chatclient.Options{ResponseFormat: chatclient.ResponseJSON})
	if err != nil {
		return domain.PackPlan{}, fmt.Errorf("packplan: plan chat call failed: %w", err)
	}

	pr, err := parseTolerant(reply)
	if err != nil {
		return domain.PackPlan{}, fmt.Errorf("packplan: failed to parse plan reply: %w", err)
	}

	plan := domain.PackPlan{
		PackName:    pack.Name,
		Warnings:    pr.Warnings,
		CoverageMap: pr.CoverageMap,
	}
	for _, j := range pr.Journeys {
		flows, warns := resolveJourneyFlows(pack, j)
		plan.Warnings = append(plan.Warnings, warns...)
		plan.Journeys = append(plan.Journeys, domain.PlannedJourney{Journey: j, Flows: flows})
	}
	return plan, nil
}

// resolveJourneyFlows resolves every FlowRef in j.Flows, in order, against
// pack's flow library (spec §4.9 Phase A, §4.10's "each FlowRef in order").
// An unresolved reference produces a warning and is skipped rather than
// aborting the whole journey.
func resolveJourneyFlows(pack domain.TestPack, j domain.Journey) ([]domain.TestFlow, []string) {
	var flows []domain.TestFlow
	var warnings []string
	for _, ref := range j.Flows {
		if ref.Inline != nil {
			flows = append(flows, *ref.Inline)
			continue
		}
		if f, ok := pack.FlowByName(ref.FlowName); ok {
			flows = append(flows, *f)
			continue
		}
		warnings = append(warnings, fmt.Sprintf("journey %q references unknown flow %q", j.Name, ref.FlowName))
	}
	return flows, warnings
}

// parseTolerant mirrors the teacher's extractYAML/fixBackslashes recovery
// idiom: strip code fences, try strict JSON first (the compiler's primary
// wire format), then fall back to YAML for free-text planner replies that
// didn't come back as clean JSON.
func parseTolerant(reply string) (planReply, error) {
	body := chatclient.ExtractJSON(reply)

	var pr planReply
	if err := json.Unmarshal([]byte(body), &pr); err == nil {
		return pr, nil
	}
	if err := yaml.Unmarshal([]byte(body), &pr); err != nil {
		return planReply{}, fmt.Errorf("neither JSON nor YAML parse of planner reply succeeded: %w", err)
	}
	return pr, nil
}

// compileState is the shared state a corerun.Node threads through one
// Compile call: the template/plan/chat inputs stay fixed, Result is filled
// in by the node's Post step once the attempt loop stops.
type compileState struct {
	Template domain.TestPack
	Plan     domain.PackPlan
	Chat     chatclient.ChatClient
	Result   domain.CompileResult
}

// compileAttempt is a corerun.BaseNode: each Exec call is one compile
// attempt, and corerun.Node's built-in retry loop is what drives the
// attempt/correction cycle (spec §4.9 Phase B/C) — Exec mutates its own
// attempt/errs/candidate bookkeeping across retries the way a stateful
// agent node accumulates scratch state between FC attempts.
type compileAttempt struct {
	attempt   int
	errs      []string
	candidate *domain.TestPack
}

type compileInput struct {
	Template domain.TestPack
	Plan     domain.PackPlan
	Chat     chatclient.ChatClient
}

func (c *compileAttempt) Prep(state *compileState) []compileInput {
	return []compileInput{{Template: state.Template, Plan: state.Plan, Chat: state.Chat}}
}

func (c *compileAttempt) Exec(ctx context.Context, in compileInput) (domain.CompileResult, error) {
	c.attempt++
	var prompt string
	if c.attempt == 1 {
		prompt = buildInitialCompilePrompt(in.Template, in.Plan)
	} else {
		prompt = buildCorrectionCompilePrompt(in.Plan, c.errs)
	}

	reply, err := in.Chat.Complete(ctx, compileSystemPrompt, prompt, chatclient.Options{ResponseFormat: chatclient.ResponseJSON})
	if err != nil {
		c.errs = []string{fmt.Sprintf("chat error: %v", err)}
		return domain.CompileResult{}, errors.New("compile attempt: chat call failed")
	}

	var cand domain.TestPack
	body := chatclient.ExtractJSON(reply)
	if uerr := json.Unmarshal([]byte(body), &cand); uerr != nil {
		c.errs = []string{"Failed to parse TestPack JSON from compiler response."}
		c.candidate = nil
		return domain.CompileResult{}, errors.New("compile attempt: candidate did not parse")
	}

	mergeTemplateFields(&cand, in.Template)
	if verrs := validateAllFlows(&cand, in.Plan); len(verrs) > 0 {
		c.errs = verrs
		c.candidate = &cand
		return domain.CompileResult{}, errors.New("compile attempt: candidate failed validation")
	}

	return domain.CompileResult{Success: true, Pack: &cand, Attempts: c.attempt}, nil
}

func (c *compileAttempt) Post(state *compileState, _ []compileInput, results ...domain.CompileResult) corerun.Action {
	if len(results) > 0 {
		state.Result = results[0]
	}
	if state.Result.Success {
		return corerun.ActionSuccess
	}
	return corerun.ActionFailure
}

func (c *compileAttempt) ExecFallback(error) domain.CompileResult {
	return domain.CompileResult{Success: false, Pack: c.candidate, Errors: c.errs, Attempts: c.attempt}
}

// Compile runs the compile/validate retry loop (spec §4.9 Phase B/C): each
// attempt asks chat for a complete TestPack, merges the template-owned
// fields back in, and validates every flow. It returns on the first attempt
// that validates cleanly, or a Failure after MaxCompileRetries attempts.
func Compile(ctx context.Context, template domain.TestPack, plan domain.PackPlan, chat chatclient.ChatClient) domain.CompileResult {
	impl := &compileAttempt{}
	node := corerun.NewNode[compileState, compileInput, domain.CompileResult](impl, MaxCompileRetries-1)

	state := &compileState{Template: template, Plan: plan, Chat: chat}
	node.Run(ctx, state)
	return state.Result
}

// mergeTemplateFields overwrites the template-owned fields of a compiler
// candidate with the caller's template, per spec §4.9 step "merge
// template-owned fields (pack_id, targets, guardrails, execution,
// data_profiles)".
func mergeTemplateFields(cand *domain.TestPack, template domain.TestPack) {
	cand.Name = template.Name
	cand.Target = template.Target
	cand.Guardrails = template.Guardrails
	cand.Perception = template.Perception
	cand.DataProfiles = template.DataProfiles
}
