package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/selector"
)

// FindWindow scans the surface's top-level windows for one matching
// targetApp and/or windowTitle (case-insensitive; if both are given both
// must match), polling at timing.WindowPollInterval until timeout elapses
// (spec §4.3).
func FindWindow(ctx context.Context, surface Surface, targetApp, windowTitle string, timeout time.Duration, timing TimingSettings) (WindowHandle, error) {
	deadline := time.Now().Add(timeout)
	for {
		windows, err := surface.ListWindows(ctx)
		if err != nil {
			return WindowHandle{}, err
		}
		if w, ok := matchWindow(windows, targetApp, windowTitle); ok {
			return w, nil
		}
		if time.Now().After(deadline) {
			return WindowHandle{}, fmt.Errorf("target window not found")
		}
		if err := sleepOrDone(ctx, timing.WindowPollInterval); err != nil {
			return WindowHandle{}, err
		}
	}
}

func matchWindow(windows []WindowHandle, targetApp, windowTitle string) (WindowHandle, bool) {
	title := strings.ToLower(windowTitle)
	for _, w := range windows {
		appMatches := targetApp == "" || strings.EqualFold(w.ProcessName, targetApp)
		titleMatches := windowTitle == "" || strings.Contains(strings.ToLower(w.Title), title)
		if targetApp != "" && !appMatches {
			continue
		}
		if windowTitle != "" && !titleMatches {
			continue
		}
		if targetApp == "" && windowTitle == "" {
			continue
		}
		return w, true
	}
	return WindowHandle{}, false
}

// ResolveElement performs breadth-first, retrying element resolution within
// a window (spec §4.3). exactMatch requires name/automation-id equality;
// otherwise fuzzy matching (equal, "<id> " prefix, "<id>(" prefix, or
// automation-id equality) is accepted. Returns the element and how many
// retries were needed before it was found.
func ResolveElement(ctx context.Context, surface Surface, windowID string, sel domain.TypedSelector, exactMatch bool, timeout time.Duration, timing TimingSettings) (Element, int, error) {
	deadline := time.Now().Add(timeout)
	retries := 0
	for {
		elements, err := surface.Descendants(ctx, windowID)
		if err != nil {
			return Element{}, retries, err
		}
		if el, ok := findElementBFS(elements, sel, exactMatch); ok {
			return el, retries, nil
		}
		if time.Now().After(deadline) {
			return Element{}, retries, fmt.Errorf("element %s not found", selector.Format(sel.ElementType(), sel.Identifier()))
		}
		retries++
		if err := sleepOrDone(ctx, timing.ElementPollInterval); err != nil {
			return Element{}, retries, err
		}
	}
}

// ResolveOnce resolves without retry — used for assert_not_exists, where a
// single found element is itself the failure signal (spec §4.3).
func ResolveOnce(ctx context.Context, surface Surface, windowID string, sel domain.TypedSelector, exactMatch bool) (Element, bool, error) {
	elements, err := surface.Descendants(ctx, windowID)
	if err != nil {
		return Element{}, false, err
	}
	el, ok := findElementBFS(elements, sel, exactMatch)
	return el, ok, nil
}

func findElementBFS(roots []Element, sel domain.TypedSelector, exactMatch bool) (Element, bool) {
	queue := make([]Element, len(roots))
	copy(queue, roots)
	for len(queue) > 0 {
		el := queue[0]
		queue = queue[1:]
		if elementMatches(el, sel, exactMatch) {
			return el, true
		}
		queue = append(queue, el.Children...)
	}
	return Element{}, false
}

func elementMatches(el Element, sel domain.TypedSelector, exactMatch bool) bool {
	if sel.ElementType() != "" && el.Type != sel.ElementType() {
		return false
	}
	id := sel.Identifier()
	if exactMatch {
		return el.Name == id || el.AutomationID == id
	}
	return el.AutomationID == id || selector.FuzzyMatch(id, el.Name)
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
