package vision

import (
	"context"
	"testing"

	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/chatclient"
)

func TestResolveAcceptsAboveThreshold(t *testing.T) {
	fake := &chatclient.Fake{Replies: []string{
		`{"found":true,"x":10,"y":20,"width":100,"height":40,"confidence":0.9,"description":"File menu"}`,
	}}
	r := NewResolver(fake, "")

	got, err := r.Resolve(context.Background(), []byte("fake-png"), "the File menu", backend.Rect{X: 100, Y: 200, Width: 800, Height: 600}, 0.7)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Found {
		t.Fatal("expected Found=true")
	}
	wantX, wantY := 100+10+50, 200+20+20
	if got.X != wantX || got.Y != wantY {
		t.Errorf("center = (%d,%d), want (%d,%d)", got.X, got.Y, wantX, wantY)
	}
}

func TestResolveRejectsBelowThreshold(t *testing.T) {
	fake := &chatclient.Fake{Replies: []string{
		`{"found":true,"x":1,"y":1,"width":10,"height":10,"confidence":0.3,"description":"maybe"}`,
	}}
	r := NewResolver(fake, "")

	got, err := r.Resolve(context.Background(), []byte("fake-png"), "something", backend.Rect{}, 0.7)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Found {
		t.Fatal("expected Found=false when confidence below threshold")
	}
}

func TestResolveNotFound(t *testing.T) {
	fake := &chatclient.Fake{Replies: []string{`{"found": false, "confidence": 0}`}}
	r := NewResolver(fake, "")

	got, err := r.Resolve(context.Background(), []byte("fake-png"), "nothing", backend.Rect{}, 0.7)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Found {
		t.Fatal("expected Found=false")
	}
}

func TestResolveToleratesFencedReply(t *testing.T) {
	fake := &chatclient.Fake{Replies: []string{
		"```json\n{\"found\":true,\"x\":0,\"y\":0,\"width\":2,\"height\":2,\"confidence\":0.95,\"description\":\"ok\"}\n```",
	}}
	r := NewResolver(fake, "")

	got, err := r.Resolve(context.Background(), []byte("fake-png"), "ok", backend.Rect{}, 0.7)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Found {
		t.Fatal("expected Found=true")
	}
}
