package domain

import (
	"time"

	"github.com/windrift/uiflow/internal/selector"
)

// TypedSelector identifies a desktop UI element. Value carries the raw
// selector grammar ("ElementType#Identifier", or a bare identifier when no
// type is given); ElementType/Identifier/HasSeparator parse it lazily via
// internal/selector.Split, which applies no validity judgment of its own —
// that lives in the validator (spec §3, §4.2).
type TypedSelector struct {
	Kind        SelectorKind      `json:"kind"`
	Value       string            `json:"value"`
	WindowTitle string            `json:"windowTitle,omitempty"`
	Index       int               `json:"index,omitempty"`
	ExactMatch  bool              `json:"exactMatch,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// ElementType returns the type portion of the selector grammar ("" if the
// value carries no "#" separator).
func (s TypedSelector) ElementType() string {
	elementType, _, _ := selector.Split(s.Value)
	return elementType
}

// Identifier returns the name/automation-id portion of the selector grammar.
func (s TypedSelector) Identifier() string {
	_, identifier, _ := selector.Split(s.Value)
	return identifier
}

// HasSeparator reports whether Value contains the "#" element-type
// separator.
func (s TypedSelector) HasSeparator() bool {
	_, _, hasSeparator := selector.Split(s.Value)
	return hasSeparator
}

// Assertion is a single pass/fail check a step performs after its action
// (spec §3). Selector is the raw grammar string; ResolvedSelector wraps it
// into a TypedSelector for the resolver.
type Assertion struct {
	Type     AssertionType `json:"type"`
	Selector *string       `json:"selector,omitempty"`
	Expected string        `json:"expected,omitempty"`
}

// ResolvedSelector returns a.Selector wrapped as a desktop UIA TypedSelector,
// or nil if no selector was given.
func (a Assertion) ResolvedSelector() *TypedSelector {
	if a.Selector == nil {
		return nil
	}
	return &TypedSelector{Kind: SelectorDesktopUIA, Value: *a.Selector}
}

// TestStep is one executable instruction within a TestFlow (spec §3, §4.2).
// Selector is the raw grammar string ("Button#New"); TypedSelector carries a
// pre-resolved selector when the author needs exact_match or an explicit
// window scope. Keys is a comma-separated chord list (spec §4.5), not a
// slice.
type TestStep struct {
	Order         int             `json:"order"`
	Action        StepAction      `json:"action"`
	Selector      *string         `json:"selector,omitempty"`
	TypedSelector *TypedSelector  `json:"typedSelector,omitempty"`
	Text          string          `json:"text,omitempty"`
	Keys          string          `json:"keys,omitempty"`
	URL           string          `json:"url,omitempty"`
	App           string          `json:"app,omitempty"`
	WindowTitle   string          `json:"windowTitle,omitempty"`
	ProcessPath   string          `json:"processPath,omitempty"`
	Contains      string          `json:"contains,omitempty"`
	Direction     ScrollDirection `json:"direction,omitempty"`
	ScrollAmount  int             `json:"scrollAmount,omitempty"`
	Description   string          `json:"description,omitempty"`
	TimeoutMs     int             `json:"timeoutMs,omitempty"`
	DelayAfterMs  int             `json:"delayAfterMs,omitempty"`
	Assertions    []Assertion     `json:"assertions,omitempty"`
}

// ResolvedSelector returns the step's selector as a TypedSelector: the
// TypedSelector field wins if set, otherwise the raw Selector grammar string
// is wrapped; nil if neither is present.
func (s TestStep) ResolvedSelector() *TypedSelector {
	if s.TypedSelector != nil {
		return s.TypedSelector
	}
	if s.Selector != nil {
		return &TypedSelector{Kind: SelectorDesktopUIA, Value: *s.Selector}
	}
	return nil
}

// Delay returns DelayAfterMs as a time.Duration, for the dispatcher's
// post-action sleep (spec §4.5).
func (s TestStep) Delay() time.Duration {
	return time.Duration(s.DelayAfterMs) * time.Millisecond
}

// TestFlow is an ordered, named sequence of steps exercising one user journey
// within a single application (spec §3, §4).
type TestFlow struct {
	SchemaVersion  int        `json:"schemaVersion"`
	Name           string     `json:"testName"`
	Description    string     `json:"description,omitempty"`
	TargetApp      string     `json:"targetApp,omitempty"`
	Backend        Backend    `json:"backend"`
	TargetLock     bool       `json:"targetLock,omitempty"`
	StopOnFailure  bool       `json:"stopOnFailure,omitempty"`
	TimeoutSeconds int        `json:"timeoutSeconds,omitempty"`
	Steps          []TestStep `json:"steps"`
}

// AutoNumber assigns sequential Order values (starting at 1) to any step
// whose Order is zero, preserving slice position otherwise. It mirrors the
// author-friendly "omit order, we'll number it" convenience spec §4.2 asks
// the validator to apply before checking for duplicates.
func (f *TestFlow) AutoNumber() {
	next := 1
	for i := range f.Steps {
		if f.Steps[i].Order == 0 {
			f.Steps[i].Order = next
		}
		if f.Steps[i].Order >= next {
			next = f.Steps[i].Order + 1
		}
	}
}
