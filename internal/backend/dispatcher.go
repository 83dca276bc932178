package backend

import (
	"context"
	"time"

	"github.com/windrift/uiflow/internal/domain"
)

// DispatchResult carries what the dispatcher needs to hand back to the
// caller: the point an action resolved to (for reporting) and any
// assertion-relevant found/expected strings.
type DispatchResult struct {
	Point ClickPoint
	Found string
}

// ClickPoint mirrors domain.ClickPoint at the backend boundary so this
// package does not need to import domain for such a small shape twice.
type ClickPoint struct{ X, Y int }

// Dispatch executes action against el (the resolved element, zero value for
// window-less actions) using surface, following spec §4.5's per-action
// recipe. window is needed for focus-before-type and screenshot region.
func Dispatch(ctx context.Context, surface Surface, action domain.StepAction, el Element, window WindowHandle, step domain.TestStep, timing TimingSettings, log func(string)) (DispatchResult, error) {
	switch action {
	case domain.ActionClick:
		return dispatchClick(ctx, surface, el, log)
	case domain.ActionType:
		return DispatchResult{}, dispatchType(ctx, surface, window, el, step.Text, timing, log)
	case domain.ActionSendKeys:
		return DispatchResult{}, dispatchSendKeys(ctx, surface, step.Keys, timing, log)
	case domain.ActionHover:
		x, y := el.Bounds.Center()
		log("hover: moving to element center (no click emitted)")
		return DispatchResult{Point: ClickPoint{X: x, Y: y}}, nil
	case domain.ActionScroll:
		return DispatchResult{}, dispatchScroll(ctx, surface, el, step, timing, log)
	case domain.ActionScreenshot:
		return DispatchResult{}, nil // capture handled by the executor/artifact layer
	case domain.ActionWait:
		return DispatchResult{}, dispatchWait(ctx, step)
	case domain.ActionFocusWindow:
		log("focus_window: bringing window to foreground")
		return DispatchResult{}, surface.Focus(ctx, window.ID)
	case domain.ActionLaunch:
		log("launch: spawning process")
		return DispatchResult{}, surface.LaunchProcess(ctx, step.ProcessPath, nil)
	case domain.ActionNavigate:
		log("navigate: shell-open")
		return DispatchResult{}, surface.ShellOpen(ctx, step.URL)
	case domain.ActionAssertExists, domain.ActionAssertNotExists, domain.ActionAssertText, domain.ActionAssertWindow:
		return DispatchResult{}, nil // resolved purely by the resolver/window read
	default:
		return DispatchResult{}, nil
	}
}

func dispatchClick(ctx context.Context, surface Surface, el Element, log func(string)) (DispatchResult, error) {
	if el.Invokable {
		log("click: using invoke-pattern")
		return DispatchResult{}, surface.Invoke(ctx, el.ID)
	}
	x, y := el.Bounds.Center()
	log("click: synthesizing click at bounding-box center")
	return DispatchResult{Point: ClickPoint{X: x, Y: y}}, surface.Click(ctx, x, y)
}

func dispatchType(ctx context.Context, surface Surface, window WindowHandle, el Element, value string, timing TimingSettings, log func(string)) error {
	log("type: focusing window and element")
	if err := surface.Focus(ctx, window.ID); err != nil {
		return err
	}
	if el.ID != "" {
		if err := surface.Invoke(ctx, el.ID); err != nil {
			// best-effort focus via invoke; not all editable controls support it
			_ = err
		}
	}
	for _, ch := range value {
		if err := surface.TypeChar(ctx, ch); err != nil {
			return err
		}
		if timing.TypeCharDelay > 0 {
			if err := sleepOrDone(ctx, timing.TypeCharDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func dispatchSendKeys(ctx context.Context, surface Surface, raw string, timing TimingSettings, log func(string)) error {
	chords, err := ParseSendKeys(raw)
	if err != nil {
		return err
	}
	for _, chord := range chords {
		log("send_keys: dispatching chord")
		if err := surface.SendChord(ctx, chord); err != nil {
			return err
		}
		if err := sleepOrDone(ctx, timing.SendKeysTokenDelay); err != nil {
			return err
		}
	}
	return nil
}

func dispatchScroll(ctx context.Context, surface Surface, el Element, step domain.TestStep, timing TimingSettings, log func(string)) error {
	x, y := el.Bounds.Center()
	amount := ScrollAmountOrDefault(step.ScrollAmount, timing)
	log("scroll: dispatching wheel ticks")
	return surface.Scroll(ctx, x, y, string(step.Direction), amount)
}

func dispatchWait(ctx context.Context, step domain.TestStep) error {
	if step.TimeoutMs <= 0 {
		return nil
	}
	return sleepOrDone(ctx, time.Duration(step.TimeoutMs)*time.Millisecond)
}
