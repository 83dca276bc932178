// Package chatclient defines the narrow ChatClient capability the Pack
// Pipeline (C9) and Vision Fallback (C7) consume, plus a go-openai backed
// implementation (spec §6, §9 — "Chat client as a narrow capability").
// Everything LLM-specific (endpoint flavor, auth, token shape) is this
// package's problem; callers see only Complete/CompleteWithImage.
package chatclient

import "context"

// ResponseFormat constrains how the model is asked to shape its reply.
type ResponseFormat string

const (
	ResponseFree ResponseFormat = "free"
	ResponseJSON ResponseFormat = "json"
)

// Options carries the per-call knobs spec §6 names: max_output_tokens,
// optional temperature, and the response_format hint.
type Options struct {
	MaxOutputTokens int
	Temperature     *float32
	ResponseFormat  ResponseFormat
}

// ChatClient is the two-method capability boundary: text completion and
// image-grounded completion. The core never inspects provider internals.
type ChatClient interface {
	// Complete sends a system/user turn and returns the assistant's text.
	Complete(ctx context.Context, system, user string, opts Options) (string, error)

	// CompleteWithImage sends a user prompt plus an image (PNG bytes) and
	// returns the assistant's text — the vision fallback's sole entry point.
	CompleteWithImage(ctx context.Context, user string, image []byte, opts Options) (string, error)
}
