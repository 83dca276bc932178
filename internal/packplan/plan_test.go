package packplan

import (
	"context"
	"testing"

	"github.com/windrift/uiflow/internal/chatclient"
	"github.com/windrift/uiflow/internal/domain"
)

func strptr(s string) *string { return &s }

func samplePack() domain.TestPack {
	return domain.TestPack{
		Name:   "checkout",
		Target: domain.PackTarget{Name: "Acme Desktop", ProcessName: "acme.exe"},
		Flows: []domain.TestFlow{
			{Name: "login", Backend: domain.BackendDesktop, Steps: []domain.TestStep{
				{Order: 1, Action: domain.ActionClick, Selector: strptr("Button#LoginButton")},
			}},
		},
		DataProfiles: []domain.DataProfile{{Name: "default", Values: map[string]string{"user": "alice"}}},
		Guardrails:   domain.PackGuardrails{MaxJourneys: 5, MaxTotalSteps: 50, MaxStepsPerFlow: 20},
	}
}

func TestPlan_ResolvesKnownFlow(t *testing.T) {
	pack := samplePack()
	fake := &chatclient.Fake{Replies: []string{
		`{"journeys":[{"name":"login-journey","flows":[{"flowName":"login"}],"dataProfile":"default","priority":"p0"}]}`,
	}}

	plan, err := Plan(context.Background(), pack, fake)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Journeys) != 1 {
		t.Fatalf("expected 1 journey, got %d", len(plan.Journeys))
	}
	if len(plan.Journeys[0].Flows) != 1 || plan.Journeys[0].Flows[0].Name != "login" {
		t.Fatalf("expected resolved flow 'login', got %v", plan.Journeys[0].Flows)
	}
	if len(plan.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", plan.Warnings)
	}
}

func TestPlan_WarnsOnUnknownFlow(t *testing.T) {
	pack := samplePack()
	fake := &chatclient.Fake{Replies: []string{
		`{"journeys":[{"name":"ghost-journey","flows":[{"flowName":"does-not-exist"}],"priority":"p1"}]}`,
	}}

	plan, err := Plan(context.Background(), pack, fake)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Warnings) != 1 {
		t.Fatalf("expected 1 warning about unknown flow, got %v", plan.Warnings)
	}
}

func TestPlan_TolerantToFencedReply(t *testing.T) {
	pack := samplePack()
	fake := &chatclient.Fake{Replies: []string{
		"```json\n{\"journeys\":[{\"name\":\"login-journey\",\"flows\":[{\"flowName\":\"login\"}],\"priority\":\"p0\"}]}\n```",
	}}

	plan, err := Plan(context.Background(), pack, fake)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Journeys) != 1 {
		t.Fatalf("expected 1 journey, got %d", len(plan.Journeys))
	}
}

func TestCompile_SucceedsFirstAttempt(t *testing.T) {
	pack := samplePack()
	plan := domain.PackPlan{
		PackName: pack.Name,
		Journeys: []domain.PlannedJourney{
			{Journey: domain.Journey{Name: "login-journey", Priority: domain.PriorityP0, Flows: []domain.FlowRef{{FlowName: "login"}}, SuccessCriteria: []string{"login button clicked"}}},
		},
	}
	candidateJSON := `{
		"name": "checkout",
		"target": {"name": "Acme Desktop"},
		"flows": [{"testName": "login", "backend": "desktop", "steps": [
			{"order": 1, "action": "click", "selector": "Button#LoginButton"}
		]}],
		"journeys": [{"name": "login-journey", "flows": [{"flowName": "login"}], "priority": "p0", "successCriteria": ["login button clicked"]}]
	}`
	fake := &chatclient.Fake{Replies: []string{candidateJSON}}

	result := Compile(context.Background(), pack, plan, fake)
	if !result.Success {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", result.Attempts)
	}
	if result.Pack.Name != pack.Name {
		t.Fatalf("expected template name to win merge, got %q", result.Pack.Name)
	}
}

func TestCompile_RetriesThenSucceeds(t *testing.T) {
	pack := samplePack()
	plan := domain.PackPlan{
		PackName: pack.Name,
		Journeys: []domain.PlannedJourney{
			{Journey: domain.Journey{Name: "login-journey", Priority: domain.PriorityP0, Flows: []domain.FlowRef{{FlowName: "login"}}, SuccessCriteria: []string{"ok"}}},
		},
	}
	badJSON := `not json at all`
	goodJSON := `{
		"name": "checkout",
		"target": {"name": "Acme Desktop"},
		"flows": [{"testName": "login", "backend": "desktop", "steps": [
			{"order": 1, "action": "click", "selector": "Button#LoginButton"}
		]}],
		"journeys": [{"name": "login-journey", "flows": [{"flowName": "login"}], "priority": "p0", "successCriteria": ["ok"]}]
	}`
	fake := &chatclient.Fake{Replies: []string{badJSON, goodJSON}}

	result := Compile(context.Background(), pack, plan, fake)
	if !result.Success {
		t.Fatalf("expected eventual success, got errors: %v", result.Errors)
	}
	if result.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.Attempts)
	}
}

func TestCompile_FailsAfterMaxRetries(t *testing.T) {
	pack := samplePack()
	plan := domain.PackPlan{PackName: pack.Name}
	fake := &chatclient.Fake{Replies: []string{"nope", "still nope", "nope again"}}

	result := Compile(context.Background(), pack, plan, fake)
	if result.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if result.Attempts != MaxCompileRetries {
		t.Fatalf("expected %d attempts, got %d", MaxCompileRetries, result.Attempts)
	}
}

func TestValidateAllFlows_CatchesUnknownFlowRefAndMissingCriteria(t *testing.T) {
	cand := domain.TestPack{
		Name: "x",
		Journeys: []domain.Journey{
			{Name: "j1", Flows: []domain.FlowRef{{FlowName: "missing"}}},
		},
	}
	errs := validateAllFlows(&cand, domain.PackPlan{})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors (unknown flow ref + missing success criteria), got %v", errs)
	}
}
