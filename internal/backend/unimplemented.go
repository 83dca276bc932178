package backend

import (
	"context"
	"errors"
)

// ErrSurfaceUnimplemented is returned by every UnimplementedSurface method.
// A step that reaches the Surface while no real accessibility driver is
// wired in fails with this error in its StepResult; the CLI's exit code
// then follows the report's result like any other failed step.
var ErrSurfaceUnimplemented = errors.New("backend: no accessibility driver wired (Windows UIA implementation is an external collaborator, spec §1/§6)")

// UnimplementedSurface satisfies Surface with every method returning
// ErrSurfaceUnimplemented. It exists so the CLI and MCP server have
// something concrete to construct a DesktopBackend around before a real
// platform driver (Win32 UIA or equivalent) is plugged in; per spec §1,
// that driver is an out-of-scope external collaborator this core only
// defines the seam for.
type UnimplementedSurface struct{}

func (UnimplementedSurface) ListWindows(context.Context) ([]WindowHandle, error) {
	return nil, ErrSurfaceUnimplemented
}
func (UnimplementedSurface) Descendants(context.Context, string) ([]Element, error) {
	return nil, ErrSurfaceUnimplemented
}
func (UnimplementedSurface) Refresh(context.Context, string) (Element, error) {
	return Element{}, ErrSurfaceUnimplemented
}
func (UnimplementedSurface) Focus(context.Context, string) error   { return ErrSurfaceUnimplemented }
func (UnimplementedSurface) Invoke(context.Context, string) error  { return ErrSurfaceUnimplemented }
func (UnimplementedSurface) Click(context.Context, int, int) error { return ErrSurfaceUnimplemented }
func (UnimplementedSurface) TypeChar(context.Context, rune) error  { return ErrSurfaceUnimplemented }
func (UnimplementedSurface) SendChord(context.Context, KeyChord) error {
	return ErrSurfaceUnimplemented
}
func (UnimplementedSurface) Scroll(context.Context, int, int, string, int) error {
	return ErrSurfaceUnimplemented
}
func (UnimplementedSurface) Screenshot(context.Context, Rect) ([]byte, error) {
	return nil, ErrSurfaceUnimplemented
}
func (UnimplementedSurface) LaunchProcess(context.Context, string, []string) error {
	return ErrSurfaceUnimplemented
}
func (UnimplementedSurface) ShellOpen(context.Context, string) error {
	return ErrSurfaceUnimplemented
}

var _ Surface = UnimplementedSurface{}
