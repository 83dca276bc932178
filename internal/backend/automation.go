package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/selector"
)

// Capabilities describes what an AutomationBackend supports (spec §4.6).
type Capabilities struct {
	SupportedActions           []domain.StepAction
	SupportedAssertions        []domain.AssertionType
	SupportedSelectorKinds     []domain.SelectorKind
	SupportsTracing            bool
	SupportsScreenshots        bool
	SupportsActionabilityChecks bool
}

// InspectableTarget is one top-level window as reported by ListTargets.
type InspectableTarget struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Bounds Rect   `json:"bounds"`
}

// InspectionNode is one node in an InspectTarget tree.
type InspectionNode struct {
	Type              string           `json:"type"`
	Name              string           `json:"name"`
	ID                string           `json:"id"`
	IsInteractive     bool             `json:"isInteractive"`
	SuggestedSelector string           `json:"suggestedSelector,omitempty"`
	Bounds            Rect             `json:"bounds"`
	Children          []InspectionNode `json:"children,omitempty"`
}

// InspectionResult is the depth-bounded tree InspectTarget returns (spec §4.6).
type InspectionResult struct {
	TargetID  string           `json:"targetId"`
	Root      InspectionNode   `json:"root"`
	Truncated bool             `json:"truncated"`
}

// VisionResult is what a VisionResolver returns — already mapped to screen
// coordinates (spec §4.7 step 5).
type VisionResult struct {
	Found       bool
	X, Y        int
	Confidence  float64
	Description string
}

// VisionResolver is the seam the vision fallback (C7) plugs into. Defined
// here (not imported from internal/vision) so this package has no
// dependency on the chat-completion stack; DesktopBackend is handed a
// VisionResolver (possibly nil, meaning fallback is unavailable).
type VisionResolver interface {
	Resolve(ctx context.Context, image []byte, description string, region Rect, threshold float64) (VisionResult, error)
}

// AutomationBackend is the polymorphic capability bundling C3+C4+C5+C6
// (spec §4.6).
type AutomationBackend interface {
	Name() string
	Version() string
	Capabilities() Capabilities
	Initialize(ctx context.Context) error
	ExecuteStep(ctx context.Context, step domain.TestStep, execCtx *ExecutionContext) domain.StepResult
	ListTargets(ctx context.Context) ([]InspectableTarget, error)
	InspectTarget(ctx context.Context, targetID string, maxDepth int) (InspectionResult, error)
}

// ExecutionContext is the cross-step state bag the executor (C8) threads
// through a flow's steps: the last resolved window (for context
// inheritance), target-lock state, and vision eligibility policy.
type ExecutionContext struct {
	mu sync.Mutex

	LastWindowApp   string
	LastWindowTitle string
	lockedWindow    *WindowHandle

	TargetLock    bool
	VisionEnabled bool
	VisionThreshold float64
	VisionEligible func(domain.StepAction) bool
}

func (c *ExecutionContext) rememberWindow(app, title string, w WindowHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastWindowApp, c.LastWindowTitle = app, title
	if c.TargetLock && c.lockedWindow == nil {
		locked := w
		c.lockedWindow = &locked
	}
}

func (c *ExecutionContext) checkTargetLock(w WindowHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.TargetLock || c.lockedWindow == nil {
		return nil
	}
	if c.lockedWindow.ID != w.ID || c.lockedWindow.ProcessID != w.ProcessID {
		return fmt.Errorf("target lock violation: window changed from %q (pid %d) to %q (pid %d)",
			c.lockedWindow.Title, c.lockedWindow.ProcessID, w.Title, w.ProcessID)
	}
	return nil
}

// DesktopBackend is the reference AutomationBackend implementation, driving
// a Surface through the resolver/actionability/dispatcher pipeline (spec
// §4.6's per-step FSM). It is the only backend this module ships — "desktop"
// is the sole normalized Backend token (DESIGN.md's §9 decision).
type DesktopBackend struct {
	surface Surface
	timing  TimingSettings
	vision  VisionResolver
	version string
}

// NewDesktopBackend constructs a DesktopBackend over surface. vision may be
// nil, in which case vision fallback is never attempted regardless of
// policy (spec §9's decision keeps this configurable at the pack level,
// but a nil resolver is a hard backend-level cap).
func NewDesktopBackend(surface Surface, timing TimingSettings, vision VisionResolver) *DesktopBackend {
	return &DesktopBackend{surface: surface, timing: timing, vision: vision, version: "1.0.0"}
}

func (b *DesktopBackend) Name() string    { return string(domain.BackendDesktop) }
func (b *DesktopBackend) Version() string { return b.version }

func (b *DesktopBackend) Capabilities() Capabilities {
	return Capabilities{
		SupportedActions: []domain.StepAction{
			domain.ActionLaunch, domain.ActionFocusWindow, domain.ActionClick, domain.ActionType,
			domain.ActionSendKeys, domain.ActionWait, domain.ActionAssertExists, domain.ActionAssertNotExists,
			domain.ActionAssertText, domain.ActionAssertWindow, domain.ActionNavigate, domain.ActionScreenshot,
			domain.ActionScroll, domain.ActionHover,
		},
		SupportedAssertions: []domain.AssertionType{
			domain.AssertExists, domain.AssertNotExists, domain.AssertTextContains,
			domain.AssertTextEquals, domain.AssertWindowTitle, domain.AssertProcessRunning,
		},
		SupportedSelectorKinds:      []domain.SelectorKind{domain.SelectorDesktopUIA},
		SupportsTracing:             true,
		SupportsScreenshots:         true,
		SupportsActionabilityChecks: true,
	}
}

func (b *DesktopBackend) Initialize(ctx context.Context) error { return nil }

var visionEligibleDefault = map[domain.StepAction]bool{
	domain.ActionClick: true, domain.ActionType: true, domain.ActionHover: true,
	domain.ActionAssertExists: true, domain.ActionAssertText: true, domain.ActionScroll: true,
}

// ExecuteStep runs the full per-step FSM described in spec §4.8/§4.6 and
// returns a populated StepResult.
func (b *DesktopBackend) ExecuteStep(ctx context.Context, step domain.TestStep, execCtx *ExecutionContext) domain.StepResult {
	start := time.Now()
	correlationID := uuid.NewString()
	var callLog []domain.BackendCallLogEntry
	appendLog := func(line string) {
		callLog = append(callLog, domain.BackendCallLogEntry{
			TimestampMs:   time.Now().UnixMilli(),
			Level:         domain.LogInfo,
			Message:       line,
			CorrelationID: correlationID,
		})
	}

	result := domain.StepResult{
		Order:     step.Order,
		Action:    step.Action,
		StartedAt: start,
	}

	window, err := b.resolveWindowIfNeeded(ctx, step, execCtx, appendLog)
	if err != nil {
		return finalize(result, domain.StatusFailed, err.Error(), start, callLog)
	}

	if window != nil {
		if err := execCtx.checkTargetLock(*window); err != nil {
			return finalize(result, domain.StatusFailed, err.Error(), start, callLog)
		}
	}

	el, usedVision, visionConf, resolveErr := b.resolveElement(ctx, step, window, execCtx, appendLog)
	if resolveErr != nil {
		return finalize(result, domain.StatusFailed, resolveErr.Error(), start, callLog)
	}

	status := domain.StatusPassed
	var warningCodes []domain.WarningCode
	if usedVision {
		status = domain.StatusWarning
		warningCodes = append(warningCodes, domain.WarningVisionFallbackUsed)
		appendLog("vision fallback accepted; step downgraded to warning")
	}

	if el != nil && requiresActionability(step.Action) {
		if reason := CheckActionability(ctx, b.surface, *el, step.Action, b.timing, appendLog); reason != "" {
			return finalize(result, domain.StatusFailed, reason, start, callLog)
		}
	}

	var dispatchResult DispatchResult
	var elVal Element
	if el != nil {
		elVal = *el
	}
	var w WindowHandle
	if window != nil {
		w = *window
	}
	dr, dispatchErr := Dispatch(ctx, b.surface, step.Action, elVal, w, step, b.timing, appendLog)
	dispatchResult = dr
	if dispatchErr != nil {
		return finalize(result, domain.StatusFailed, dispatchErr.Error(), start, callLog)
	}

	assertions := append([]domain.Assertion(nil), step.Assertions...)
	if syn := actionAssertion(step); syn != nil {
		assertions = append(assertions, *syn)
	}
	fallbackSel := step.ResolvedSelector()
	for _, a := range assertions {
		if ok, msg := b.evaluateAssertion(ctx, a, fallbackSel, window, execCtx); !ok {
			return finalize(result, domain.StatusFailed, msg, start, callLog)
		}
	}

	if step.Delay() > 0 {
		_ = sleepOrDone(ctx, step.Delay())
	}

	result.Status = status
	result.WarningCodes = warningCodes
	result.UsedVision = usedVision
	result.VisionConfidence = visionConf
	if dispatchResult.Point.X != 0 || dispatchResult.Point.Y != 0 {
		result.ResolvedPoint = &domain.ClickPoint{X: dispatchResult.Point.X, Y: dispatchResult.Point.Y}
	}
	result.BackendCallLog = callLog
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

func requiresActionability(action domain.StepAction) bool {
	_, ok := RequiredChecks[action]
	return ok
}

func finalize(result domain.StepResult, status domain.StepStatus, errMsg string, start time.Time, callLog []domain.BackendCallLogEntry) domain.StepResult {
	result.Status = status
	result.Error = errMsg
	result.BackendCallLog = callLog
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

func windowNeeded(action domain.StepAction) bool {
	switch action {
	case domain.ActionLaunch, domain.ActionNavigate:
		return false
	default:
		return true
	}
}

// actionAssertion synthesizes the implicit Assertion a self-checking action
// carries on its own fields (assert_text's contains, assert_window's
// windowTitle/contains) rather than in step.Assertions.
func actionAssertion(step domain.TestStep) *domain.Assertion {
	switch step.Action {
	case domain.ActionAssertText:
		return &domain.Assertion{Type: domain.AssertTextContains, Expected: step.Contains}
	case domain.ActionAssertWindow:
		expected := step.WindowTitle
		if expected == "" {
			expected = step.Contains
		}
		return &domain.Assertion{Type: domain.AssertWindowTitle, Expected: expected}
	default:
		return nil
	}
}

func (b *DesktopBackend) resolveWindowIfNeeded(ctx context.Context, step domain.TestStep, execCtx *ExecutionContext, log func(string)) (*WindowHandle, error) {
	if !windowNeeded(step.Action) {
		return nil, nil
	}
	app, title := step.App, step.WindowTitle
	if app == "" && title == "" {
		app, title = execCtx.LastWindowApp, execCtx.LastWindowTitle
	}
	timeout := b.timing.WindowTimeout(step.TimeoutMs)
	log("resolving target window")
	w, err := FindWindow(ctx, b.surface, app, title, timeout, b.timing)
	if err != nil {
		return nil, err
	}
	execCtx.rememberWindow(app, title, w)
	return &w, nil
}

func (b *DesktopBackend) resolveElement(ctx context.Context, step domain.TestStep, window *WindowHandle, execCtx *ExecutionContext, log func(string)) (*Element, bool, float64, error) {
	sel := step.ResolvedSelector()
	if sel == nil || window == nil {
		return nil, false, 0, nil
	}
	timeout := time.Duration(step.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if step.Action == domain.ActionAssertNotExists {
		el, found, err := ResolveOnce(ctx, b.surface, window.ID, *sel, sel.ExactMatch)
		if err != nil {
			return nil, false, 0, err
		}
		if found {
			return nil, false, 0, fmt.Errorf("element %s unexpectedly exists", selector.Format(sel.ElementType(), sel.Identifier()))
		}
		return nil, false, 0, nil
	}

	el, _, err := ResolveElement(ctx, b.surface, window.ID, *sel, sel.ExactMatch, timeout, b.timing)
	if err == nil {
		return &el, false, 0, nil
	}

	if b.vision == nil || execCtx.VisionEligible == nil || !execCtx.VisionEligible(step.Action) || !execCtx.VisionEnabled {
		return nil, false, 0, err
	}

	log("structural resolution failed, attempting vision fallback")
	shot, shotErr := b.surface.Screenshot(ctx, window.Bounds)
	if shotErr != nil {
		return nil, false, 0, err
	}
	vr, visionErr := b.vision.Resolve(ctx, shot, step.Description, window.Bounds, execCtx.VisionThreshold)
	if visionErr != nil || !vr.Found {
		return nil, false, 0, err
	}

	synthesized := Element{
		ID:     "",
		WindowID: window.ID,
		Name:   step.Description,
		Bounds: Rect{X: vr.X - 1, Y: vr.Y - 1, Width: 2, Height: 2},
		Enabled: true,
	}
	return &synthesized, true, vr.Confidence, nil
}

// evaluateAssertion checks a against window. fallback is used when a itself
// carries no selector (e.g. a synthetic assert_text/assert_window assertion,
// whose selector context lives on the step rather than the Assertion).
func (b *DesktopBackend) evaluateAssertion(ctx context.Context, a domain.Assertion, fallback *domain.TypedSelector, window *WindowHandle, execCtx *ExecutionContext) (bool, string) {
	sel := a.ResolvedSelector()
	if sel == nil {
		sel = fallback
	}
	switch a.Type {
	case domain.AssertExists, domain.AssertNotExists:
		if window == nil || sel == nil {
			return false, "assertion requires a resolved window and selector"
		}
		_, found, err := ResolveOnce(ctx, b.surface, window.ID, *sel, sel.ExactMatch)
		if err != nil {
			return false, err.Error()
		}
		want := a.Type == domain.AssertExists
		if found != want {
			return false, fmt.Sprintf("expected exists=%v, found=%v", want, found)
		}
		return true, ""
	case domain.AssertTextContains, domain.AssertTextEquals:
		if window == nil || sel == nil {
			return false, "assertion requires a resolved window and selector"
		}
		el, _, err := ResolveElement(ctx, b.surface, window.ID, *sel, sel.ExactMatch, 2*time.Second, b.timing)
		if err != nil {
			return false, err.Error()
		}
		text := el.Name
		if el.ValuePattern != nil {
			text = el.ValuePattern.Value
		}
		if a.Type == domain.AssertTextEquals {
			if text != a.Expected {
				return false, fmt.Sprintf("expected text %q, found %q", a.Expected, text)
			}
			return true, ""
		}
		if !strings.Contains(text, a.Expected) {
			return false, fmt.Sprintf("expected text to contain %q, found %q", a.Expected, text)
		}
		return true, ""
	case domain.AssertWindowTitle:
		if window == nil {
			return false, "assertion requires a resolved window"
		}
		if !strings.Contains(strings.ToLower(window.Title), strings.ToLower(a.Expected)) {
			return false, fmt.Sprintf("expected window title to contain %q, found %q", a.Expected, window.Title)
		}
		return true, ""
	case domain.AssertProcessRunning:
		if window == nil {
			return false, "assertion requires a resolved window"
		}
		if !strings.EqualFold(window.ProcessName, a.Expected) {
			return false, fmt.Sprintf("expected process %q running, found %q", a.Expected, window.ProcessName)
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown assertion type %q", a.Type)
	}
}

// CaptureScreenshot takes a screenshot of targetID's window bounds, or the
// full virtual screen when targetID is empty (the capture_screenshot agent
// tool, spec §4.12).
func (b *DesktopBackend) CaptureScreenshot(ctx context.Context, targetID string) ([]byte, error) {
	var region Rect
	if targetID != "" {
		windows, err := b.surface.ListWindows(ctx)
		if err != nil {
			return nil, err
		}
		found := false
		for _, w := range windows {
			if w.ID == targetID {
				region = w.Bounds
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target %q not found", targetID)
		}
	}
	return b.surface.Screenshot(ctx, region)
}

func (b *DesktopBackend) ListTargets(ctx context.Context) ([]InspectableTarget, error) {
	windows, err := b.surface.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]InspectableTarget, 0, len(windows))
	for _, w := range windows {
		targets = append(targets, InspectableTarget{ID: w.ID, Title: w.Title, Source: w.ProcessName, Bounds: w.Bounds})
	}
	return targets, nil
}

const maxChildrenPerLevel = 50

func (b *DesktopBackend) InspectTarget(ctx context.Context, targetID string, maxDepth int) (InspectionResult, error) {
	elements, err := b.surface.Descendants(ctx, targetID)
	if err != nil {
		return InspectionResult{}, err
	}
	truncated := false
	root := InspectionNode{Type: "Window", ID: targetID, IsInteractive: false}
	root.Children, truncated = buildInspectionNodes(elements, maxDepth, 0, truncated)
	return InspectionResult{TargetID: targetID, Root: root, Truncated: truncated}, nil
}

func buildInspectionNodes(elements []Element, maxDepth, depth int, truncated bool) ([]InspectionNode, bool) {
	if depth >= maxDepth {
		return nil, len(elements) > 0
	}
	limit := len(elements)
	if limit > maxChildrenPerLevel {
		limit = maxChildrenPerLevel
		truncated = true
	}
	nodes := make([]InspectionNode, 0, limit)
	for i := 0; i < limit; i++ {
		el := elements[i]
		node := InspectionNode{
			Type:          el.Type,
			Name:          el.Name,
			ID:            el.ID,
			IsInteractive: el.Invokable || (el.ValuePattern != nil && !el.ValuePattern.ReadOnly),
			Bounds:        el.Bounds,
		}
		if el.AutomationID != "" {
			node.SuggestedSelector = el.Type + "#" + el.AutomationID
		} else if el.Name != "" {
			node.SuggestedSelector = el.Type + "#" + el.Name
		}
		children, childTruncated := buildInspectionNodes(el.Children, maxDepth, depth+1, truncated)
		node.Children = children
		truncated = truncated || childTruncated
		nodes = append(nodes, node)
	}
	return nodes, truncated
}
