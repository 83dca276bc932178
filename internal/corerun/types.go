// Package corerun provides a small generic Prep/Exec/Post node engine with
// action-based successor routing. It is the shared orchestration primitive
// for multi-phase pipelines in uiflow — most notably the pack pipeline's
// Compile validate-retry loop (internal/packplan).
package corerun

// Action represents the result of a node execution that determines flow control.
type Action string

// Common actions used throughout the engine.
const (
	ActionContinue Action = "continue"
	ActionEnd      Action = "end"
	ActionSuccess  Action = "success"
	ActionFailure  Action = "failure"
	ActionDefault  Action = "default"

	// Pack-pipeline routing actions.
	ActionRetry   Action = "retry"
	ActionAbort   Action = "abort"
	ActionAccept  Action = "accept"
)
