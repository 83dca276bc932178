package chatclient

import "strings"

// ExtractJSON strips a ```json ... ``` or bare ``` ... ``` fence from a
// chat reply, returning the inner text trimmed. If no fence is found the
// whole string is returned trimmed — mirrors the teacher's
// internal/agent/decide_helpers.go extractYAML recovery idiom, adapted from
// YAML fences to JSON fences.
func ExtractJSON(reply string) string {
	if idx := strings.Index(reply, "```json"); idx >= 0 {
		rest := reply[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(reply, "```"); idx >= 0 {
		rest := reply[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(reply)
}
