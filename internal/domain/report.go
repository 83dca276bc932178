package domain

import "time"

// ClickPoint is a screen coordinate, produced either by structural
// resolution (element bounding-box center) or by the vision fallback's
// coordinate mapping (spec §7).
type ClickPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AssertionResult records the outcome of a step's Assertion, if it had one.
type AssertionResult struct {
	Type    AssertionType `json:"type"`
	Passed  bool          `json:"passed"`
	Message string        `json:"message,omitempty"`
}

// LogLevel is the severity of one BackendCallLogEntry.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// BackendCallLogEntry is one ordered line of the FSM's trace of a step
// (spec §3's "backend_call_log: ordered list of {timestamp_ms, level,
// message}"). CorrelationID stamps every entry in a single step's log with
// the same uuid so entries from concurrent steps interleaved in a shared
// sink (e.g. the audit log) can be regrouped per step (SPEC_FULL.md §4).
type BackendCallLogEntry struct {
	TimestampMs   int64    `json:"timestampMs"`
	Level         LogLevel `json:"level"`
	Message       string   `json:"message"`
	CorrelationID string   `json:"correlationId"`
}

// StepResult is the per-step record produced by the executor (spec §4.6, §7).
type StepResult struct {
	Order           int                   `json:"order"`
	Action          StepAction            `json:"action"`
	Status          StepStatus            `json:"status"`
	StartedAt       time.Time             `json:"startedAt"`
	DurationMs      int64                 `json:"durationMs"`
	UsedVision      bool                  `json:"usedVision,omitempty"`
	VisionConfidence float64              `json:"visionConfidence,omitempty"`
	ResolvedPoint   *ClickPoint           `json:"resolvedPoint,omitempty"`
	Assertion       *AssertionResult      `json:"assertion,omitempty"`
	Error           string                `json:"error,omitempty"`
	WarningCodes    []WarningCode         `json:"warningCodes,omitempty"`
	ScreenshotPath  string                `json:"screenshotPath,omitempty"`
	BackendCallLog  []BackendCallLogEntry `json:"backendCallLog,omitempty"`
}

// ExecutionReport is the outcome of running a single TestFlow (spec §3, §4.6).
type ExecutionReport struct {
	FlowName    string          `json:"flowName"`
	Result      ExecutionResult `json:"result"`
	StartedAt   time.Time       `json:"startedAt"`
	DurationMs  int64           `json:"durationMs"`
	Steps       []StepResult    `json:"steps"`
	StoppedEarly bool           `json:"stoppedEarly,omitempty"`
	AbortReason string          `json:"abortReason,omitempty"`
	Summary     string          `json:"summary,omitempty"`
}

// FailedStepCount returns how many steps ended in failed or error status.
func (r ExecutionReport) FailedStepCount() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StatusFailed || s.Status == StatusError {
			n++
		}
	}
	return n
}

// UsedVisionCount returns how many steps fell back to the vision path.
func (r ExecutionReport) UsedVisionCount() int {
	n := 0
	for _, s := range r.Steps {
		if s.UsedVision {
			n++
		}
	}
	return n
}
