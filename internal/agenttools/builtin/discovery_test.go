package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/windrift/uiflow/internal/backend"
)

// fakeSurface is a minimal backend.Surface double local to this package —
// the builtin tools only need window/descendant/screenshot reads, so this
// stays much smaller than internal/backend's own test double.
type fakeSurface struct {
	windows  []backend.WindowHandle
	elements map[string][]backend.Element
}

func (f *fakeSurface) ListWindows(ctx context.Context) ([]backend.WindowHandle, error) {
	return f.windows, nil
}
func (f *fakeSurface) Descendants(ctx context.Context, windowID string) ([]backend.Element, error) {
	return f.elements[windowID], nil
}
func (f *fakeSurface) Refresh(ctx context.Context, elementID string) (backend.Element, error) {
	return backend.Element{}, nil
}
func (f *fakeSurface) Focus(ctx context.Context, windowID string) error { return nil }
func (f *fakeSurface) Invoke(ctx context.Context, elementID string) error { return nil }
func (f *fakeSurface) Click(ctx context.Context, x, y int) error { return nil }
func (f *fakeSurface) TypeChar(ctx context.Context, ch rune) error { return nil }
func (f *fakeSurface) SendChord(ctx context.Context, chord backend.KeyChord) error { return nil }
func (f *fakeSurface) Scroll(ctx context.Context, x, y int, direction string, amount int) error {
	return nil
}
func (f *fakeSurface) Screenshot(ctx context.Context, region backend.Rect) ([]byte, error) {
	return []byte("fake-png"), nil
}
func (f *fakeSurface) LaunchProcess(ctx context.Context, path string, args []string) error {
	return nil
}
func (f *fakeSurface) ShellOpen(ctx context.Context, url string) error { return nil }

var _ backend.Surface = (*fakeSurface)(nil)

func newTestBackend() (*fakeSurface, *backend.DesktopBackend) {
	fs := &fakeSurface{elements: map[string][]backend.Element{}}
	return fs, backend.NewDesktopBackend(fs, backend.DefaultTiming(), nil)
}

func TestListWindowsTool_ReturnsTargets(t *testing.T) {
	fs, b := newTestBackend()
	fs.windows = []backend.WindowHandle{{ID: "w1", ProcessName: "notepad.exe", Title: "Untitled"}}

	tool := NewListWindowsTool(b)
	res, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Output, "notepad.exe") {
		t.Fatalf("expected output to mention notepad.exe, got %s", res.Output)
	}
}

func TestInspectWindowTool_ResolvesHintAndInspects(t *testing.T) {
	fs, b := newTestBackend()
	fs.windows = []backend.WindowHandle{{ID: "w1", ProcessName: "notepad.exe", Title: "Untitled - Notepad"}}
	fs.elements["w1"] = []backend.Element{{ID: "e1", Type: "Button", Name: "OK"}}

	tool := NewInspectWindowTool(b)
	args, _ := json.Marshal(map[string]any{"process_or_title": "notepad"})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Output, "\"OK\"") {
		t.Fatalf("expected inspected element OK in output, got %s", res.Output)
	}
}

func TestInspectWindowTool_NoMatchErrors(t *testing.T) {
	_, b := newTestBackend()
	tool := NewInspectWindowTool(b)
	args, _ := json.Marshal(map[string]any{"process_or_title": "ghost"})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected infrastructure error: %v", err)
	}
	if res.Error == "" {
		t.Fatal("expected a tool-level error for no matching window")
	}
}

func TestListProcessesTool_DedupesBySource(t *testing.T) {
	fs, b := newTestBackend()
	fs.windows = []backend.WindowHandle{
		{ID: "w1", ProcessName: "notepad.exe"},
		{ID: "w2", ProcessName: "notepad.exe"},
		{ID: "w3", ProcessName: "calc.exe"},
	}

	tool := NewListProcessesTool(b)
	res, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(res.Output), &names); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 deduped process names, got %v", names)
	}
}

func TestGetCapabilitiesTool_ReturnsBackendCapabilities(t *testing.T) {
	_, b := newTestBackend()
	tool := NewGetCapabilitiesTool(b)
	res, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Output, "SupportedActions") {
		t.Fatalf("expected capabilities payload, got %s", res.Output)
	}
}

func TestCaptureScreenshotTool_EncodesBase64(t *testing.T) {
	fs, b := newTestBackend()
	fs.windows = []backend.WindowHandle{{ID: "w1", Bounds: backend.Rect{Width: 10, Height: 10}}}

	tool := NewCaptureScreenshotTool(b)
	args, _ := json.Marshal(map[string]any{"target_id": "w1"})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		ImageBase64 string `json:"imageBase64"`
	}
	if err := json.Unmarshal([]byte(res.Output), &payload); err != nil || payload.ImageBase64 == "" {
		t.Fatalf("expected a base64 image payload, got %s (err=%v)", res.Output, err)
	}
}

func TestCaptureScreenshotTool_UnknownTargetIsToolError(t *testing.T) {
	_, b := newTestBackend()
	tool := NewCaptureScreenshotTool(b)
	args, _ := json.Marshal(map[string]any{"target_id": "ghost"})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected infrastructure error: %v", err)
	}
	if res.Error == "" {
		t.Fatal("expected a tool-level error for an unknown target")
	}
}

type fakeVisionResolver struct {
	result backend.VisionResult
	err    error
}

func (v *fakeVisionResolver) Resolve(ctx context.Context, image []byte, description string, region backend.Rect, threshold float64) (backend.VisionResult, error) {
	return v.result, v.err
}

func TestLocateByVisionTool_ReturnsResolverResult(t *testing.T) {
	fs, b := newTestBackend()
	fs.windows = []backend.WindowHandle{{ID: "w1", ProcessName: "app.exe", Bounds: backend.Rect{Width: 100, Height: 100}}}

	resolver := &fakeVisionResolver{result: backend.VisionResult{Found: true, X: 42, Y: 24, Confidence: 0.95}}
	tool := NewLocateByVisionTool(b, b, resolver, 0.7)

	args, _ := json.Marshal(map[string]any{"description": "the save button", "window_hint": "app.exe"})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Output, "\"X\":42") {
		t.Fatalf("expected resolved coordinates in output, got %s", res.Output)
	}
}

func TestLocateByVisionTool_MissingDescriptionIsToolError(t *testing.T) {
	_, b := newTestBackend()
	resolver := &fakeVisionResolver{}
	tool := NewLocateByVisionTool(b, b, resolver, 0.7)

	args, _ := json.Marshal(map[string]any{})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected infrastructure error: %v", err)
	}
	if res.Error == "" {
		t.Fatal("expected a tool-level error for a missing description")
	}
}
