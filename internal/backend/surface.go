// Package backend implements the Selector Resolver (C3), Actionability
// Evaluator (C4), Action Dispatcher (C5), and Automation Backend capability
// (C6). Everything above the OS boundary — window/element enumeration,
// input synthesis, screenshotting — is expressed only through the Surface
// interface; this package never imports a Windows binding directly. A real
// accessibility driver (Win32 UIA, or similar) is the external, out-of-scope
// implementation that would satisfy Surface in production; this package
// ships only the in-memory fakesurface test double and the
// UnimplementedSurface null object alongside it.
package backend

import "context"

// WindowHandle identifies one top-level window on the Surface.
type WindowHandle struct {
	ID         string
	ProcessID  int
	ProcessName string
	Title      string
	Bounds     Rect
}

// Rect is an axis-aligned bounding box in screen coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rect has non-positive area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the rect's center point.
func (r Rect) Center() (int, int) { return r.X + r.Width/2, r.Y + r.Height/2 }

// Element is one node in a window's accessibility tree.
type Element struct {
	ID            string
	WindowID      string
	Type          string
	Name          string
	AutomationID  string
	Bounds        Rect
	Enabled       bool
	OffScreen     bool
	Invokable     bool
	ValuePattern  *ValuePattern
	Children      []Element
}

// ValuePattern mirrors a UIA "value pattern" — present on editable controls.
type ValuePattern struct {
	ReadOnly bool
	Value    string
}

// KeyChord is one parsed send_keys token: a main key plus held modifiers.
type KeyChord struct {
	Modifiers []string
	Main      string
}

// Surface is the true external collaborator: the OS accessibility and input
// layer. Every method that can fail does so through error; nothing here
// retries or polls — that responsibility belongs to the resolver/evaluator
// built on top of Surface.
type Surface interface {
	// ListWindows enumerates all top-level windows currently visible.
	ListWindows(ctx context.Context) ([]WindowHandle, error)

	// Descendants returns the full accessibility subtree rooted at window.
	Descendants(ctx context.Context, windowID string) ([]Element, error)

	// Refresh re-reads a single element's live bounds/enabled/offscreen
	// state, used by the stability check's two-read comparison.
	Refresh(ctx context.Context, elementID string) (Element, error)

	// Focus brings a window to the foreground.
	Focus(ctx context.Context, windowID string) error

	// Invoke fires an element's invoke-pattern (button press analogue).
	Invoke(ctx context.Context, elementID string) error

	// Click synthesizes a mouse click at the given screen point.
	Click(ctx context.Context, x, y int) error

	// TypeChar emits one character as if typed at the keyboard.
	TypeChar(ctx context.Context, ch rune) error

	// SendChord presses and releases a parsed key chord.
	SendChord(ctx context.Context, chord KeyChord) error

	// Scroll emits a wheel scroll of amount ticks in direction at (x, y).
	Scroll(ctx context.Context, x, y int, direction string, amount int) error

	// Screenshot captures region (or the full virtual screen if region is
	// the zero value) and returns the bytes of a PNG image.
	Screenshot(ctx context.Context, region Rect) ([]byte, error)

	// LaunchProcess spawns path as a new process.
	LaunchProcess(ctx context.Context, path string, args []string) error

	// ShellOpen opens url with the OS default handler.
	ShellOpen(ctx context.Context, url string) error
}
