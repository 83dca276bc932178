package backend

import (
	"context"
	"fmt"
)

// fakeSurface is an in-memory Surface test double — grounded on the
// teacher's internal/core/node_test.go retryBaseNode pattern of hand-rolled
// fakes over mocks for capability boundaries (DESIGN.md's internal/backend
// entry). It lets resolver/actionability/dispatcher tests exercise the full
// FSM without any OS accessibility binding.
type fakeSurface struct {
	windows  []WindowHandle
	elements map[string][]Element // windowID -> descendants

	refreshSeq map[string][]Element // elementID -> successive Refresh results
	refreshIdx map[string]int

	clicks   []struct{ X, Y int }
	invoked  []string
	typed    []rune
	chords   []KeyChord
	scrolls  []struct {
		X, Y      int
		Direction string
		Amount    int
	}
	focused   []string
	launched  []string
	shellOpen []string
	shots     [][]byte

	listWindowsErr error
	descendantsErr error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		elements:   map[string][]Element{},
		refreshSeq: map[string][]Element{},
		refreshIdx: map[string]int{},
	}
}

func (f *fakeSurface) ListWindows(ctx context.Context) ([]WindowHandle, error) {
	if f.listWindowsErr != nil {
		return nil, f.listWindowsErr
	}
	return f.windows, nil
}

func (f *fakeSurface) Descendants(ctx context.Context, windowID string) ([]Element, error) {
	if f.descendantsErr != nil {
		return nil, f.descendantsErr
	}
	return f.elements[windowID], nil
}

func (f *fakeSurface) Refresh(ctx context.Context, elementID string) (Element, error) {
	seq := f.refreshSeq[elementID]
	if len(seq) == 0 {
		return Element{}, fmt.Errorf("fakeSurface: no refresh sequence for %q", elementID)
	}
	idx := f.refreshIdx[elementID]
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	el := seq[idx]
	f.refreshIdx[elementID] = idx + 1
	return el, nil
}

func (f *fakeSurface) Focus(ctx context.Context, windowID string) error {
	f.focused = append(f.focused, windowID)
	return nil
}

func (f *fakeSurface) Invoke(ctx context.Context, elementID string) error {
	f.invoked = append(f.invoked, elementID)
	return nil
}

func (f *fakeSurface) Click(ctx context.Context, x, y int) error {
	f.clicks = append(f.clicks, struct{ X, Y int }{x, y})
	return nil
}

func (f *fakeSurface) TypeChar(ctx context.Context, ch rune) error {
	f.typed = append(f.typed, ch)
	return nil
}

func (f *fakeSurface) SendChord(ctx context.Context, chord KeyChord) error {
	f.chords = append(f.chords, chord)
	return nil
}

func (f *fakeSurface) Scroll(ctx context.Context, x, y int, direction string, amount int) error {
	f.scrolls = append(f.scrolls, struct {
		X, Y      int
		Direction string
		Amount    int
	}{x, y, direction, amount})
	return nil
}

func (f *fakeSurface) Screenshot(ctx context.Context, region Rect) ([]byte, error) {
	shot := []byte("fake-png")
	f.shots = append(f.shots, shot)
	return shot, nil
}

func (f *fakeSurface) LaunchProcess(ctx context.Context, path string, args []string) error {
	f.launched = append(f.launched, path)
	return nil
}

func (f *fakeSurface) ShellOpen(ctx context.Context, url string) error {
	f.shellOpen = append(f.shellOpen, url)
	return nil
}

var _ Surface = (*fakeSurface)(nil)
