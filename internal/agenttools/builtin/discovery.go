// Package builtin implements the concrete Agent Tool Surface (C12)
// operations spec §4.12 names, grounded on the teacher's
// internal/tool/builtin package: one small struct per tool, a narrow
// constructor taking exactly the collaborator it needs, and domain-level
// failures reported through ToolResult.Error rather than the Go error
// return (reserved for tool-infrastructure faults like bad JSON args).
package builtin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/windrift/uiflow/internal/agenttools"
	"github.com/windrift/uiflow/internal/backend"
)

// automationBackend is the narrow slice of backend.AutomationBackend the
// discovery tools need.
type automationBackend interface {
	Capabilities() backend.Capabilities
	ListTargets(ctx context.Context) ([]backend.InspectableTarget, error)
	InspectTarget(ctx context.Context, targetID string, maxDepth int) (backend.InspectionResult, error)
}

// screenshotCapturer is the narrow interface capture_screenshot needs;
// only *backend.DesktopBackend implements it today (spec §9's "desktop is
// the sole normalized Backend token").
type screenshotCapturer interface {
	CaptureScreenshot(ctx context.Context, targetID string) ([]byte, error)
}

// visionResolver mirrors backend.VisionResolver so this package does not
// need to import internal/vision (which would pull in internal/chatclient
// transitively for a tool that only needs the narrow Resolve method).
type visionResolver interface {
	Resolve(ctx context.Context, image []byte, description string, region backend.Rect, threshold float64) (backend.VisionResult, error)
}

// ListWindowsTool wraps AutomationBackend.ListTargets (spec §4.12 discovery).
type ListWindowsTool struct {
	backend automationBackend
}

func NewListWindowsTool(b automationBackend) *ListWindowsTool { return &ListWindowsTool{backend: b} }

func (t *ListWindowsTool) Name() string                      { return "list_windows" }
func (t *ListWindowsTool) Description() string               { return "Lists all top-level automatable windows currently open." }
func (t *ListWindowsTool) Category() agenttools.Category      { return agenttools.CategoryDiscovery }
func (t *ListWindowsTool) Risk() agenttools.RiskLevel         { return agenttools.RiskReadOnly }
func (t *ListWindowsTool) InputSchema() json.RawMessage       { return agenttools.BuildSchema() }

func (t *ListWindowsTool) Execute(ctx context.Context, _ json.RawMessage) (agenttools.ToolResult, error) {
	targets, err := t.backend.ListTargets(ctx)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	out, marshalErr := json.Marshal(targets)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// InspectWindowTool wraps AutomationBackend.InspectTarget, resolving a
// process-or-title hint against the current window list first (spec
// §4.12's inspect_window(process_or_title, max_depth=3, max_elements=50)).
type InspectWindowTool struct {
	backend automationBackend
}

func NewInspectWindowTool(b automationBackend) *InspectWindowTool {
	return &InspectWindowTool{backend: b}
}

func (t *InspectWindowTool) Name() string { return "inspect_window" }
func (t *InspectWindowTool) Description() string {
	return "Returns a depth-bounded accessibility tree for the window matching process_or_title."
}
func (t *InspectWindowTool) Category() agenttools.Category { return agenttools.CategoryDiscovery }
func (t *InspectWindowTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }

func (t *InspectWindowTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "process_or_title", Type: "string", Description: "Process name or window title substring", Required: true},
		agenttools.SchemaParam{Name: "max_depth", Type: "integer", Description: "Maximum tree depth (default 3)"},
		agenttools.SchemaParam{Name: "max_elements", Type: "integer", Description: "Total element count above which the result is flagged truncated (default 50); the tree is not pruned"},
	)
}

type inspectWindowArgs struct {
	ProcessOrTitle string `json:"process_or_title"`
	MaxDepth       int    `json:"max_depth"`
	MaxElements    int    `json:"max_elements"`
}

func (t *InspectWindowTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a inspectWindowArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if a.MaxDepth <= 0 {
		a.MaxDepth = 3
	}
	if a.MaxElements <= 0 {
		a.MaxElements = 50
	}

	targets, err := t.backend.ListTargets(ctx)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	needle := strings.ToLower(a.ProcessOrTitle)
	var targetID string
	found := false
	for _, tg := range targets {
		if strings.Contains(strings.ToLower(tg.Source), needle) || strings.Contains(strings.ToLower(tg.Title), needle) {
			targetID = tg.ID
			found = true
			break
		}
	}
	if !found {
		return agenttools.ToolResult{Error: fmt.Sprintf("no window matching %q", a.ProcessOrTitle)}, nil
	}

	insp, err := t.backend.InspectTarget(ctx, targetID, a.MaxDepth)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	if countInspectionNodes(insp.Root) > a.MaxElements {
		insp.Truncated = true
	}
	out, marshalErr := json.Marshal(insp)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

func countInspectionNodes(n backend.InspectionNode) int {
	total := 1
	for _, c := range n.Children {
		total += countInspectionNodes(c)
	}
	return total
}

// ListProcessesTool derives a process list from the currently enumerated
// top-level windows — the only process-enumeration capability the Surface
// interface exposes (spec §6's ProcessEnumerator trivial capability trait
// is satisfied at the window layer; there is no arbitrary background-
// process listing in a UI automation backend).
type ListProcessesTool struct {
	backend automationBackend
}

func NewListProcessesTool(b automationBackend) *ListProcessesTool {
	return &ListProcessesTool{backend: b}
}

func (t *ListProcessesTool) Name() string                 { return "list_processes" }
func (t *ListProcessesTool) Description() string           { return "Lists the distinct processes owning a currently automatable window." }
func (t *ListProcessesTool) Category() agenttools.Category { return agenttools.CategoryDiscovery }
func (t *ListProcessesTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }
func (t *ListProcessesTool) InputSchema() json.RawMessage  { return agenttools.BuildSchema() }

func (t *ListProcessesTool) Execute(ctx context.Context, _ json.RawMessage) (agenttools.ToolResult, error) {
	targets, err := t.backend.ListTargets(ctx)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	seen := map[string]bool{}
	var names []string
	for _, tg := range targets {
		if tg.Source == "" || seen[tg.Source] {
			continue
		}
		seen[tg.Source] = true
		names = append(names, tg.Source)
	}
	out, marshalErr := json.Marshal(names)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// GetCapabilitiesTool wraps AutomationBackend.Capabilities.
type GetCapabilitiesTool struct {
	backend automationBackend
}

func NewGetCapabilitiesTool(b automationBackend) *GetCapabilitiesTool {
	return &GetCapabilitiesTool{backend: b}
}

func (t *GetCapabilitiesTool) Name() string                 { return "get_capabilities" }
func (t *GetCapabilitiesTool) Description() string           { return "Reports the backend's supported actions, assertions, and selector kinds." }
func (t *GetCapabilitiesTool) Category() agenttools.Category { return agenttools.CategoryDiscovery }
func (t *GetCapabilitiesTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }
func (t *GetCapabilitiesTool) InputSchema() json.RawMessage  { return agenttools.BuildSchema() }

func (t *GetCapabilitiesTool) Execute(_ context.Context, _ json.RawMessage) (agenttools.ToolResult, error) {
	out, err := json.Marshal(t.backend.Capabilities())
	if err != nil {
		return agenttools.ToolResult{}, err
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// CaptureScreenshotTool wraps DesktopBackend.CaptureScreenshot, base64-
// encoding the PNG bytes into the JSON output (tool outputs are JSON
// strings per spec §4.12; raw binary has no place in that envelope).
type CaptureScreenshotTool struct {
	backend screenshotCapturer
}

func NewCaptureScreenshotTool(b screenshotCapturer) *CaptureScreenshotTool {
	return &CaptureScreenshotTool{backend: b}
}

func (t *CaptureScreenshotTool) Name() string                 { return "capture_screenshot" }
func (t *CaptureScreenshotTool) Description() string           { return "Captures a PNG screenshot of a window (or the full screen if target_id is omitted)." }
func (t *CaptureScreenshotTool) Category() agenttools.Category { return agenttools.CategoryDiscovery }
func (t *CaptureScreenshotTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }

func (t *CaptureScreenshotTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "target_id", Type: "string", Description: "Window id from list_windows (optional, defaults to full screen)"},
	)
}

type captureScreenshotArgs struct {
	TargetID string `json:"target_id"`
}

func (t *CaptureScreenshotTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a captureScreenshotArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}
	shot, err := t.backend.CaptureScreenshot(ctx, a.TargetID)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	out, marshalErr := json.Marshal(map[string]string{"imageBase64": base64.StdEncoding.EncodeToString(shot)})
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}

// LocateByVisionTool wraps the vision fallback's Resolve call directly, for
// an agent that wants a one-shot coordinate lookup outside of a step FSM
// (spec §4.12's locate_by_vision(description, window_hint?)).
type LocateByVisionTool struct {
	backend  automationBackend
	capture  screenshotCapturer
	resolver visionResolver
	threshold float64
}

func NewLocateByVisionTool(b automationBackend, capture screenshotCapturer, resolver visionResolver, threshold float64) *LocateByVisionTool {
	return &LocateByVisionTool{backend: b, capture: capture, resolver: resolver, threshold: threshold}
}

func (t *LocateByVisionTool) Name() string                 { return "locate_by_vision" }
func (t *LocateByVisionTool) Description() string           { return "Locates an on-screen element by natural-language description using the vision fallback." }
func (t *LocateByVisionTool) Category() agenttools.Category { return agenttools.CategoryDiscovery }
func (t *LocateByVisionTool) Risk() agenttools.RiskLevel    { return agenttools.RiskReadOnly }

func (t *LocateByVisionTool) InputSchema() json.RawMessage {
	return agenttools.BuildSchema(
		agenttools.SchemaParam{Name: "description", Type: "string", Description: "Natural-language description of the element to find", Required: true},
		agenttools.SchemaParam{Name: "window_hint", Type: "string", Description: "Process name or window title to scope the screenshot to"},
	)
}

type locateByVisionArgs struct {
	Description string `json:"description"`
	WindowHint  string `json:"window_hint"`
}

func (t *LocateByVisionTool) Execute(ctx context.Context, args json.RawMessage) (agenttools.ToolResult, error) {
	var a locateByVisionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return agenttools.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if a.Description == "" {
		return agenttools.ToolResult{Error: "description is required"}, nil
	}

	targetID := ""
	var region backend.Rect
	if a.WindowHint != "" {
		targets, err := t.backend.ListTargets(ctx)
		if err != nil {
			return agenttools.ToolResult{Error: err.Error()}, nil
		}
		needle := strings.ToLower(a.WindowHint)
		for _, tg := range targets {
			if strings.Contains(strings.ToLower(tg.Source), needle) || strings.Contains(strings.ToLower(tg.Title), needle) {
				targetID = tg.ID
				region = tg.Bounds
				break
			}
		}
	}

	shot, err := t.capture.CaptureScreenshot(ctx, targetID)
	if err != nil {
		return agenttools.ToolResult{Error: err.Error()}, nil
	}
	result, visionErr := t.resolver.Resolve(ctx, shot, a.Description, region, t.threshold)
	if visionErr != nil {
		return agenttools.ToolResult{Error: visionErr.Error()}, nil
	}
	out, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return agenttools.ToolResult{}, marshalErr
	}
	return agenttools.ToolResult{Output: string(out)}, nil
}
