// Package validator implements the pure Flow Validator (spec §4.2): a
// schema gate that rejects ill-formed flows before any side effect runs.
// Validate performs no I/O and is deterministic — the same flow always
// produces byte-identical errors and warnings.
package validator

import (
	"fmt"

	"github.com/windrift/uiflow/internal/domain"
)

// Result is the structured outcome of validating a single TestFlow.
type Result struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the flow may be executed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Validate checks flow against every rule in spec §4.2 and returns the
// accumulated errors and warnings. It auto-numbers steps with Order == 0
// in place before running cross-step checks, matching the validator's
// "auto-number then check duplicates" ordering.
func Validate(flow *domain.TestFlow) Result {
	var res Result

	if flow.Name == "" || flow.Name == "Untitled" {
		res.Warnings = append(res.Warnings, "test_name is empty or default (\"Untitled\")")
	}
	if flow.SchemaVersion != 0 && flow.SchemaVersion != 1 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("schema_version %d is not the currently supported version (1)", flow.SchemaVersion))
	}
	if len(flow.Steps) == 0 {
		res.Errors = append(res.Errors, "flow must have at least one step")
	}
	if flow.TimeoutSeconds < 0 {
		res.Errors = append(res.Errors, "timeout_seconds must be >= 0")
	}

	backend, changed := domain.NormalizeBackend(string(flow.Backend))
	if changed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("backend %q normalized to %q", flow.Backend, backend))
	}
	flow.Backend = backend

	flow.AutoNumber()

	seen := make(map[int]bool, len(flow.Steps))
	for _, step := range flow.Steps {
		if step.Order != 0 {
			if seen[step.Order] {
				res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate step order %d", step.Order))
			}
			seen[step.Order] = true
		}
	}

	for i := range flow.Steps {
		validateStep(&res, &flow.Steps[i], i+1, backend)
	}

	return res
}

func validateStep(res *Result, step *domain.TestStep, index int, backend domain.Backend) {
	if step.TimeoutMs < 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("step %d: timeoutMs must be >= 0", index))
	}
	if step.DelayAfterMs < 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("step %d: delayAfterMs must be >= 0", index))
	}
	if step.Description == "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("step %d: missing description", index))
	}

	sel := step.ResolvedSelector()

	switch step.Action {
	case domain.ActionClick, domain.ActionHover, domain.ActionAssertExists, domain.ActionAssertNotExists:
		if sel == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action %q requires a selector", index, step.Action))
		}
	case domain.ActionType:
		if step.Text == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"type\" requires text", index))
		}
	case domain.ActionSendKeys:
		if step.Keys == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"send_keys\" requires keys", index))
		}
	case domain.ActionNavigate:
		if step.URL == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"navigate\" requires url", index))
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("step %d: \"navigate\" will use shell-open", index))
		}
	case domain.ActionLaunch:
		if step.ProcessPath == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"launch\" requires processPath", index))
		}
	case domain.ActionAssertText:
		if sel == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"assert_text\" requires a selector", index))
		}
		if step.Contains == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"assert_text\" requires contains", index))
		}
	case domain.ActionAssertWindow:
		if step.WindowTitle == "" && step.Contains == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"assert_window\" requires a windowTitle or contains value", index))
		}
	case domain.ActionFocusWindow:
		if step.App == "" && step.WindowTitle == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"focus_window\" requires app or windowTitle", index))
		}
	case domain.ActionScroll:
		if _, ok := domain.ParseScrollDirection(string(step.Direction)); !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: action \"scroll\" requires direction in {up,down,left,right}", index))
		}
	case domain.ActionWait, domain.ActionScreenshot:
		// no required fields
	default:
		res.Errors = append(res.Errors, fmt.Sprintf("step %d: unknown action %q", index, step.Action))
	}

	if sel != nil {
		validateSelector(res, sel, index)
	}
	if backend == domain.BackendDesktop && sel != nil && sel.Kind != domain.SelectorDesktopUIA {
		res.Errors = append(res.Errors, fmt.Sprintf("step %d: backend \"desktop\" requires selector kind \"desktop_uia\", got %q", index, sel.Kind))
	}

	for i := range step.Assertions {
		validateAssertion(res, &step.Assertions[i], index)
	}
}

// validateSelector applies the selector-grammar rules spec §4.2 assigns to
// the validator, not the grammar parser: a missing "ElementType#" segment is
// a warning (the bare identifier is still usable), an empty identifier is
// always an error, and an element type outside the known allow-list is a
// warning.
func validateSelector(res *Result, sel *domain.TypedSelector, index int) {
	elementType, identifier, hasSeparator := sel.ElementType(), sel.Identifier(), sel.HasSeparator()
	if identifier == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("step %d: selector has an empty identifier", index))
	}
	if !hasSeparator {
		res.Warnings = append(res.Warnings, fmt.Sprintf("step %d: selector %q has no \"ElementType#\" separator", index, sel.Value))
	}
	if !domain.IsKnownControlType(elementType) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("step %d: selector element type %q is not in the known control-type allow-list", index, elementType))
	}
}

func validateAssertion(res *Result, a *domain.Assertion, index int) {
	switch a.Type {
	case domain.AssertExists, domain.AssertNotExists:
		if a.Selector == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: assertion %q requires a selector", index, a.Type))
		}
	case domain.AssertTextContains, domain.AssertTextEquals:
		if a.Selector == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: assertion %q requires a selector", index, a.Type))
		}
		if a.Expected == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: assertion %q requires expected", index, a.Type))
		}
	case domain.AssertWindowTitle:
		if a.Expected == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: assertion \"window_title\" requires expected", index))
		}
	case domain.AssertProcessRunning:
		if a.Expected == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: assertion \"process_running\" requires expected", index))
		}
	default:
		res.Errors = append(res.Errors, fmt.Sprintf("step %d: unknown assertion type %q", index, a.Type))
	}
}
