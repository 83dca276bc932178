// Package domain holds the typed flow/pack/plan/report entities that make
// up the wire contract described in spec §3 ("DATA MODEL"). All JSON
// property names serialize lowerCamelCase; all enum values serialize
// lower_snake_case; parsing is case-insensitive, matching §4.1's
// "JSON surface conventions" exactly.
package domain

import (
	"encoding/json"
	"strings"
)

// canonicalize lower-cases s and turns spaces/hyphens into underscores so
// that "Assert_Exists", "assert-exists" and "ASSERT_EXISTS" all normalize
// to the same lower_snake_case token before comparison.
func canonicalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// StepAction is the closed set of actions a TestStep may perform (spec §3).
type StepAction string

const (
	ActionLaunch           StepAction = "launch"
	ActionFocusWindow      StepAction = "focus_window"
	ActionClick            StepAction = "click"
	ActionType             StepAction = "type"
	ActionSendKeys         StepAction = "send_keys"
	ActionWait             StepAction = "wait"
	ActionAssertExists     StepAction = "assert_exists"
	ActionAssertNotExists  StepAction = "assert_not_exists"
	ActionAssertText       StepAction = "assert_text"
	ActionAssertWindow     StepAction = "assert_window"
	ActionNavigate         StepAction = "navigate"
	ActionScreenshot       StepAction = "screenshot"
	ActionScroll           StepAction = "scroll"
	ActionHover            StepAction = "hover"
	ActionUnknown          StepAction = ""
)

var stepActions = map[string]StepAction{
	"launch": ActionLaunch, "focus_window": ActionFocusWindow, "click": ActionClick,
	"type": ActionType, "send_keys": ActionSendKeys, "wait": ActionWait,
	"assert_exists": ActionAssertExists, "assert_not_exists": ActionAssertNotExists,
	"assert_text": ActionAssertText, "assert_window": ActionAssertWindow,
	"navigate": ActionNavigate, "screenshot": ActionScreenshot, "scroll": ActionScroll,
	"hover": ActionHover,
}

// ParseStepAction resolves a raw wire value to a StepAction, case-insensitively.
// ok is false (and the zero value returned) when the token is not recognized.
func ParseStepAction(raw string) (StepAction, bool) {
	a, ok := stepActions[canonicalize(raw)]
	return a, ok
}

func (a StepAction) String() string { return string(a) }

func (a *StepAction) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseStepAction(raw)
	if !ok {
		// Preserve the raw token (canonicalized) so the validator can still
		// report "unknown action %q" with the value the caller sent; only
		// the known tokens above carry defined checker/dispatch behavior.
		*a = StepAction(canonicalize(raw))
		return nil
	}
	*a = parsed
	return nil
}

func (a StepAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// AssertionType is the closed set of assertion kinds (spec §3).
type AssertionType string

const (
	AssertExists         AssertionType = "exists"
	AssertNotExists      AssertionType = "not_exists"
	AssertTextContains   AssertionType = "text_contains"
	AssertTextEquals     AssertionType = "text_equals"
	AssertWindowTitle    AssertionType = "window_title"
	AssertProcessRunning AssertionType = "process_running"
)

var assertionTypes = map[string]AssertionType{
	"exists": AssertExists, "not_exists": AssertNotExists,
	"text_contains": AssertTextContains, "text_equals": AssertTextEquals,
	"window_title": AssertWindowTitle, "process_running": AssertProcessRunning,
}

func ParseAssertionType(raw string) (AssertionType, bool) {
	t, ok := assertionTypes[canonicalize(raw)]
	return t, ok
}

func (t *AssertionType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseAssertionType(raw)
	if !ok {
		*t = AssertionType(canonicalize(raw))
		return nil
	}
	*t = parsed
	return nil
}

func (t AssertionType) MarshalJSON() ([]byte, error) { return json.Marshal(string(t)) }

// StepStatus is the closed set of per-step terminal outcomes (spec §4.6, §7).
type StepStatus string

const (
	StatusPassed  StepStatus = "passed"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
	StatusError   StepStatus = "error"
	StatusWarning StepStatus = "warning"
)

func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = StepStatus(canonicalize(raw))
	return nil
}

func (s StepStatus) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// WarningCode names well-known warning_code values (spec §4.6, §4.7).
type WarningCode string

const (
	WarningVisionFallbackUsed WarningCode = "VisionFallbackUsed"
)

// ExecutionResult is the aggregate outcome of an ExecutionReport (spec §3).
type ExecutionResult string

const (
	ResultPassed ExecutionResult = "passed"
	ResultFailed ExecutionResult = "failed"
	ResultMixed  ExecutionResult = "mixed"
)

func (r *ExecutionResult) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ExecutionResult(canonicalize(raw))
	return nil
}

func (r ExecutionResult) MarshalJSON() ([]byte, error) { return json.Marshal(string(r)) }

// SelectorKind is the closed set of typed-selector kinds (spec §3).
type SelectorKind string

const (
	SelectorDesktopUIA SelectorKind = "desktop_uia"
)

func ParseSelectorKind(raw string) (SelectorKind, bool) {
	switch canonicalize(raw) {
	case "desktop_uia":
		return SelectorDesktopUIA, true
	default:
		return "", false
	}
}

func (k *SelectorKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseSelectorKind(raw)
	if !ok {
		*k = SelectorKind(canonicalize(raw))
		return nil
	}
	*k = parsed
	return nil
}

func (k SelectorKind) MarshalJSON() ([]byte, error) { return json.Marshal(string(k)) }

// Priority is the closed set of journey priorities (spec §3), ordered p0 < p1 < p2 < p3.
type Priority string

const (
	PriorityP0 Priority = "p0"
	PriorityP1 Priority = "p1"
	PriorityP2 Priority = "p2"
	PriorityP3 Priority = "p3"
)

var priorityRank = map[Priority]int{PriorityP0: 0, PriorityP1: 1, PriorityP2: 2, PriorityP3: 3}

// Rank returns the sort rank of the priority (lower sorts first); unknown
// priorities rank after p3 so malformed input does not jump the queue.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Priority(canonicalize(raw))
	return nil
}

func (p Priority) MarshalJSON() ([]byte, error) { return json.Marshal(string(p)) }

// PerceptionMode is the closed set of observation strategies (spec §3).
type PerceptionMode string

const (
	PerceptionStructural      PerceptionMode = "structural"
	PerceptionVisual          PerceptionMode = "visual"
	PerceptionStructuralFirst PerceptionMode = "structural_first"
	PerceptionDual            PerceptionMode = "dual"
	PerceptionAuto            PerceptionMode = "auto"
)

func (m *PerceptionMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = PerceptionMode(canonicalize(raw))
	return nil
}

func (m PerceptionMode) MarshalJSON() ([]byte, error) { return json.Marshal(string(m)) }

// VisionFallbackPolicy is the closed set of pack-level vision-fallback policies (spec §3).
type VisionFallbackPolicy string

const (
	VisionDisallowed       VisionFallbackPolicy = "disallowed"
	VisionAllowedWithWarn  VisionFallbackPolicy = "allowed_but_warning"
	VisionAllowedSilent    VisionFallbackPolicy = "allowed_silent"
)

func (v *VisionFallbackPolicy) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = VisionFallbackPolicy(canonicalize(raw))
	return nil
}

func (v VisionFallbackPolicy) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

// ScrollDirection is the closed set of scroll directions (spec §3).
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

func ParseScrollDirection(raw string) (ScrollDirection, bool) {
	switch canonicalize(raw) {
	case "up":
		return ScrollUp, true
	case "down":
		return ScrollDown, true
	case "left":
		return ScrollLeft, true
	case "right":
		return ScrollRight, true
	default:
		return "", false
	}
}

func (d *ScrollDirection) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = ScrollDirection(canonicalize(raw))
	return nil
}

func (d ScrollDirection) MarshalJSON() ([]byte, error) { return json.Marshal(string(d)) }

// Backend names the automation backend a flow/journey targets. Spec §9's
// open question ("desktop" vs "desktop-uia") is resolved by normalizing on
// a single token, "desktop", everywhere in this codebase.
type Backend string

const (
	BackendDesktop Backend = "desktop"
)

// NormalizeBackend maps legacy/alternate spellings onto the canonical token.
// Returns the canonical value and whether normalization changed anything
// (the validator uses the latter to emit a warning, not an error).
func NormalizeBackend(raw string) (Backend, bool) {
	c := canonicalize(raw)
	switch c {
	case "desktop":
		return BackendDesktop, false
	case "desktop_uia", "desktopuia":
		return BackendDesktop, true
	default:
		return Backend(c), false
	}
}

func (b *Backend) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, _ := NormalizeBackend(raw)
	*b = v
	return nil
}

func (b Backend) MarshalJSON() ([]byte, error) { return json.Marshal(string(b)) }

// KnownControlTypes is the selector grammar's type allow-list (spec §6).
var KnownControlTypes = map[string]bool{
	"Button": true, "TextBox": true, "TextBlock": true, "Label": true,
	"CheckBox": true, "RadioButton": true, "ComboBox": true, "ListItem": true,
	"MenuItem": true, "TabItem": true, "TreeItem": true, "Window": true,
	"Hyperlink": true, "Image": true, "Slider": true, "ProgressBar": true,
	"DataGrid": true, "Toggle": true, "Text": true, "Edit": true, "Pane": true,
	"Group": true, "ScrollBar": true, "ToolBar": true, "StatusBar": true,
}

// IsKnownControlType reports whether t (case-sensitive, as the grammar is
// written by humans/LLMs who are expected to match the documented casing)
// is in the allow-list. Empty string ("any type") is always known.
func IsKnownControlType(t string) bool {
	if t == "" {
		return true
	}
	return KnownControlTypes[t]
}
