package agenttools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Registry manages all registered agent tools with thread-safe access,
// grounded on the teacher's internal/tool/registry.go Registry — the same
// sorted-by-name, mutex-guarded shape, minus the WithExtra view chain
// (C12's surface is fixed per process; there is no per-request tool
// injection the way the teacher's agent overlays update_plan).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry. If a tool with the same name
// already exists, it is overwritten and a warning is logged.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		log.Printf("[AgentTools] WARNING: overwriting existing tool %q", t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Describe returns every registered tool's Descriptor, sorted by name.
func (r *Registry) Describe() []Descriptor {
	tools := r.List()
	out := make([]Descriptor, len(tools))
	for i, t := range tools {
		out[i] = Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Category:    t.Category(),
			Risk:        t.Risk(),
			InputSchema: t.InputSchema(),
		}
	}
	return out
}

// Call looks up name and executes it with args, returning a uniform error
// when the tool is unknown instead of letting the caller special-case a
// missing entry.
func (r *Registry) Call(ctx context.Context, name string, args []byte) (ToolResult, error) {
	t, ok := r.Get(name)
	if !ok {
		return ToolResult{}, fmt.Errorf("agenttools: unknown tool %q", name)
	}
	return t.Execute(ctx, args)
}
