package validator_test

import (
	"strings"
	"testing"

	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/validator"
)

func containsSubstr(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestValidate_EmptyStepsIsError(t *testing.T) {
	flow := &domain.TestFlow{Name: "empty"}
	res := validator.Validate(flow)
	if res.Valid() {
		t.Fatal("expected invalid flow")
	}
	if !containsSubstr(res.Errors, "at least one step") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_DefaultNameWarns(t *testing.T) {
	flow := &domain.TestFlow{Name: "Untitled", Steps: []domain.TestStep{{Action: domain.ActionWait}}}
	res := validator.Validate(flow)
	if !containsSubstr(res.Warnings, "test_name") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidate_UnsupportedSchemaVersionWarns(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", SchemaVersion: 2, Steps: []domain.TestStep{{Action: domain.ActionWait}}}
	res := validator.Validate(flow)
	if !containsSubstr(res.Warnings, "schema_version") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidate_ZeroSchemaVersionDoesNotWarn(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", Steps: []domain.TestStep{{Action: domain.ActionWait}}}
	res := validator.Validate(flow)
	if containsSubstr(res.Warnings, "schema_version") {
		t.Errorf("did not expect a schema_version warning, got %v", res.Warnings)
	}
}

func TestValidate_AutoNumbersAndDetectsDuplicates(t *testing.T) {
	flow := &domain.TestFlow{
		Name: "dupe",
		Steps: []domain.TestStep{
			{Order: 1, Action: domain.ActionWait},
			{Order: 1, Action: domain.ActionScreenshot},
		},
	}
	res := validator.Validate(flow)
	if !containsSubstr(res.Warnings, "duplicate step order") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidate_ClickRequiresSelector(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", Steps: []domain.TestStep{{Action: domain.ActionClick}}}
	res := validator.Validate(flow)
	if res.Valid() {
		t.Fatal("expected invalid flow")
	}
	if !containsSubstr(res.Errors, "requires a selector") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_TypeRequiresText(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", Steps: []domain.TestStep{{Action: domain.ActionType}}}
	res := validator.Validate(flow)
	if !containsSubstr(res.Errors, "requires text") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_NavigateWarnsShellOpen(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", Steps: []domain.TestStep{{Action: domain.ActionNavigate, URL: "https://example.com"}}}
	res := validator.Validate(flow)
	if !res.Valid() {
		t.Fatalf("expected valid, got errors %v", res.Errors)
	}
	if !containsSubstr(res.Warnings, "shell-open") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidate_ScrollRequiresValidDirection(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", Steps: []domain.TestStep{{Action: domain.ActionScroll}}}
	res := validator.Validate(flow)
	if res.Valid() {
		t.Fatal("expected invalid flow")
	}
	if !containsSubstr(res.Errors, "direction") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_UnknownSelectorTypeWarns(t *testing.T) {
	flow := &domain.TestFlow{
		Name: "f",
		Steps: []domain.TestStep{
			{Action: domain.ActionClick, Selector: strptr("Widget#x")},
		},
	}
	res := validator.Validate(flow)
	if !containsSubstr(res.Warnings, "allow-list") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidate_MissingSeparatorWarns(t *testing.T) {
	flow := &domain.TestFlow{
		Name: "f",
		Steps: []domain.TestStep{
			{Action: domain.ActionClick, Selector: strptr("Sign in")},
		},
	}
	res := validator.Validate(flow)
	if !containsSubstr(res.Warnings, "separator") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidate_EmptyIdentifierIsError(t *testing.T) {
	flow := &domain.TestFlow{
		Name: "f",
		Steps: []domain.TestStep{
			{Action: domain.ActionClick, Selector: strptr("Button#")},
		},
	}
	res := validator.Validate(flow)
	if !containsSubstr(res.Errors, "empty identifier") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_BackendNormalizationWarns(t *testing.T) {
	flow := &domain.TestFlow{
		Name:    "f",
		Backend: domain.Backend("desktop-uia"),
		Steps:   []domain.TestStep{{Action: domain.ActionWait}},
	}
	res := validator.Validate(flow)
	if !containsSubstr(res.Warnings, "normalized") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if flow.Backend != domain.BackendDesktop {
		t.Errorf("expected flow.Backend normalized in place, got %q", flow.Backend)
	}
}

func TestValidate_UnknownActionIsError(t *testing.T) {
	flow := &domain.TestFlow{Name: "f", Steps: []domain.TestStep{{Action: domain.StepAction("teleport")}}}
	res := validator.Validate(flow)
	if res.Valid() {
		t.Fatal("expected invalid flow")
	}
	if !containsSubstr(res.Errors, "unknown action") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_ValidFlowHasNoErrors(t *testing.T) {
	flow := &domain.TestFlow{
		Name:    "valid",
		Backend: domain.BackendDesktop,
		Steps: []domain.TestStep{
			{Action: domain.ActionLaunch, ProcessPath: "C:\\app.exe"},
			{Action: domain.ActionClick, Description: "click ok", Selector: strptr("Button#OK")},
		},
	}
	res := validator.Validate(flow)
	if !res.Valid() {
		t.Fatalf("expected valid flow, got errors: %v", res.Errors)
	}
}

func strptr(s string) *string { return &s }
