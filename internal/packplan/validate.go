package packplan

import (
	"fmt"

	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/validator"
)

// validateAllFlows runs every check spec §4.9 assigns to the compile loop's
// validation gate, aggregating them into a single flow-qualified error list.
// It is pure and deterministic — all non-determinism lives in the chat call
// that produced cand.
func validateAllFlows(cand *domain.TestPack, plan domain.PackPlan) []string {
	var errs []string

	if cand.Guardrails.MaxJourneys > 0 && len(cand.Journeys) > cand.Guardrails.MaxJourneys {
		errs = append(errs, fmt.Sprintf("pack: %d journeys exceeds max_journeys %d", len(cand.Journeys), cand.Guardrails.MaxJourneys))
	}

	totalSteps := 0
	for i := range cand.Flows {
		f := &cand.Flows[i]
		totalSteps += len(f.Steps)
		if cand.Guardrails.MaxStepsPerFlow > 0 && len(f.Steps) > cand.Guardrails.MaxStepsPerFlow {
			errs = append(errs, fmt.Sprintf("flow %q: %d steps exceeds max_steps_per_flow %d", f.Name, len(f.Steps), cand.Guardrails.MaxStepsPerFlow))
		}
		res := validator.Validate(f)
		for _, e := range res.Errors {
			errs = append(errs, fmt.Sprintf("flow %q: %s", f.Name, e))
		}
	}
	if cand.Guardrails.MaxTotalSteps > 0 && totalSteps > cand.Guardrails.MaxTotalSteps {
		errs = append(errs, fmt.Sprintf("pack: %d total steps exceeds max_total_steps %d", totalSteps, cand.Guardrails.MaxTotalSteps))
	}

	for _, j := range cand.Journeys {
		if len(j.Flows) == 0 {
			errs = append(errs, fmt.Sprintf("journey %q: requires at least one flow", j.Name))
		}
		for _, ref := range j.Flows {
			if ref.Inline == nil {
				if _, ok := cand.FlowByName(ref.FlowName); !ok {
					errs = append(errs, fmt.Sprintf("journey %q: flow_ref_id %q does not exist", j.Name, ref.FlowName))
				}
			}
		}
		if len(j.SuccessCriteria) == 0 {
			errs = append(errs, fmt.Sprintf("journey %q: requires at least one success criterion", j.Name))
		}
	}

	return errs
}
