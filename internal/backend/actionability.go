package backend

import (
	"context"
	"fmt"

	"github.com/windrift/uiflow/internal/domain"
)

// RequiredChecks maps each action to the actionability checks it must pass
// before dispatch (spec §4.4).
var RequiredChecks = map[domain.StepAction][]string{
	domain.ActionClick:            {"exists", "visible", "stable", "enabled", "receives_events"},
	domain.ActionType:             {"exists", "visible", "enabled", "editable"},
	domain.ActionHover:            {"exists", "visible", "stable"},
	domain.ActionScroll:           {"exists", "visible"},
	domain.ActionAssertExists:     {"exists"},
	domain.ActionAssertText:       {"exists"},
	domain.ActionAssertWindow:     {"exists"},
	domain.ActionFocusWindow:      {"exists"},
}

// CheckActionability runs every check RequiredChecks lists for action
// against el, appending one log line per check outcome. It returns a
// human-readable failure reason (empty when every check passes).
func CheckActionability(ctx context.Context, surface Surface, el Element, action domain.StepAction, timing TimingSettings, log func(string)) string {
	for _, check := range RequiredChecks[action] {
		switch check {
		case "exists":
			// presence is implied by having resolved el at all.
			log("check exists: ok")
		case "visible":
			if el.Bounds.Empty() {
				log("check visible: fail (empty bounds)")
				return "element is not visible"
			}
			log("check visible: ok")
		case "enabled":
			if !el.Enabled {
				log("check enabled: fail")
				return "element is not enabled"
			}
			log("check enabled: ok")
		case "stable":
			if reason, ok := checkStable(ctx, surface, el, timing, log); !ok {
				return reason
			}
		case "receives_events":
			if el.OffScreen {
				log("check receives_events: fail (off-screen)")
				return "element does not receive events (off-screen)"
			}
			log("check receives_events: ok")
		case "editable":
			if el.ValuePattern != nil {
				if el.ValuePattern.ReadOnly {
					log("check editable: fail (read-only value pattern)")
					return "element is read-only"
				}
				log("check editable: ok (value pattern)")
				continue
			}
			if !el.Enabled || el.OffScreen {
				log("check editable: fail (fallback enabled/off-screen)")
				return "element is not editable"
			}
			log("check editable: ok (fallback)")
		}
	}
	return ""
}

func checkStable(ctx context.Context, surface Surface, el Element, timing TimingSettings, log func(string)) (string, bool) {
	first := el.Bounds
	if err := sleepOrDone(ctx, timing.StabilityReadGap); err != nil {
		return "cancelled while checking stability", false
	}
	refreshed, err := surface.Refresh(ctx, el.ID)
	if err != nil {
		return fmt.Sprintf("failed to refresh element: %v", err), false
	}
	if refreshed.Bounds == first {
		log("check stable: ok")
		return "", true
	}

	if err := sleepOrDone(ctx, timing.StabilityRetryGap); err != nil {
		return "cancelled while checking stability", false
	}
	second, err := surface.Refresh(ctx, el.ID)
	if err != nil {
		return fmt.Sprintf("failed to refresh element: %v", err), false
	}
	if second.Bounds == refreshed.Bounds {
		log("check stable: ok (after retry)")
		return "", true
	}

	log("check stable: fail")
	return fmt.Sprintf("element is unstable (bounds moved from %+v to %+v)", refreshed.Bounds, second.Bounds), false
}
