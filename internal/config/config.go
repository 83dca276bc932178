// config.go implements the spec §6 config.json surface: agent endpoint,
// model id, temperature, polling interval, hotkey, vision threshold,
// allowlist, and guardrail defaults, plus a hot-reloadable Reloader for the
// allowlist entries (spec §9's "no global singletons" — the allowlist is an
// injectable pkg/safety.Allowlist the reloader mutates in place).
//
// Grounded on the teacher's internal/mcp/manager.go Reload: load the new
// file outside any lock, diff against the previous snapshot, then commit
// under a lock in one step — reused here for a single Allowlist field
// instead of a map of MCP server connections.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// RuntimeConfig is the root shape of config.json (spec §6).
type RuntimeConfig struct {
	AgentEndpoint    string   `json:"agentEndpoint"`
	ModelID          string   `json:"modelId"`
	Temperature      float32  `json:"temperature"`
	PollingIntervalMs int     `json:"pollingIntervalMs"`
	Hotkey           string   `json:"hotkey"`
	VisionThreshold  float64  `json:"visionThreshold"`
	Allowlist        []string `json:"allowlist,omitempty"`
	GuardrailDefaults GuardrailDefaults `json:"guardrailDefaults"`
}

// GuardrailDefaults seeds a PackGuardrails before a specific pack's own
// guardrails block overrides any of these (spec §3's PackGuardrails).
type GuardrailDefaults struct {
	MaxRuntimeMinutes     int `json:"maxRuntimeMinutes"`
	MaxJourneys           int `json:"maxJourneys"`
	MaxTotalSteps         int `json:"maxTotalSteps"`
	MaxStepsPerFlow       int `json:"maxStepsPerFlow"`
	MaxFailuresBeforeStop int `json:"maxFailuresBeforeStop"`
}

// DefaultConfig returns spec §9's documented defaults for the fields a
// missing config.json should not leave at zero value.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ModelID:           "gpt-4o",
		Temperature:       0.2,
		PollingIntervalMs: 300,
		VisionThreshold:   0.7,
		GuardrailDefaults: GuardrailDefaults{
			MaxRuntimeMinutes:     45,
			MaxJourneys:           20,
			MaxTotalSteps:         800,
			MaxStepsPerFlow:       80,
			MaxFailuresBeforeStop: 5,
		},
	}
}

// Load reads and parses config.json at path, filling any zero-valued field
// left unset in the file with DefaultConfig's value.
func Load(path string) (RuntimeConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// allowlistTarget is the narrow slice of pkg/safety.Allowlist the reloader
// needs — defined locally so this package does not depend on pkg/safety
// for one method.
type allowlistTarget interface {
	Set(entries []string)
	Entries() []string
}

// Reloader re-reads config.json on demand and commits any allowlist change
// to the injected Allowlist, reporting whether the entries actually
// changed. It holds no other state across reloads; entries are always
// compared against the target's live value, not a private snapshot.
type Reloader struct {
	mu        sync.Mutex
	path      string
	allowlist allowlistTarget
}

// NewReloader builds a Reloader bound to a config.json path and the
// Allowlist instance to keep in sync with it.
func NewReloader(path string, allowlist allowlistTarget) *Reloader {
	return &Reloader{path: path, allowlist: allowlist}
}

// Reload loads the config file and, if its allowlist entries differ from
// the target's current entries, commits the new set. Returns whether the
// allowlist actually changed.
func (r *Reloader) Reload() (bool, error) {
	cfg, err := Load(r.path)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sameEntries(r.allowlist.Entries(), cfg.Allowlist) {
		return false, nil
	}
	r.allowlist.Set(cfg.Allowlist)
	return true, nil
}

func sameEntries(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, e := range a {
		seen[e]++
	}
	for _, e := range b {
		seen[e]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}
