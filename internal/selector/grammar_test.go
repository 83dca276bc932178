package selector_test

import (
	"testing"

	"github.com/windrift/uiflow/internal/selector"
)

func TestSplit_TypedAndIdentifier(t *testing.T) {
	elementType, identifier, hasSeparator := selector.Split("Button#Sign in")
	if elementType != "Button" || identifier != "Sign in" {
		t.Errorf("got %q, %q", elementType, identifier)
	}
	if !hasSeparator {
		t.Error("expected hasSeparator = true")
	}
}

func TestSplit_NoElementType(t *testing.T) {
	elementType, identifier, hasSeparator := selector.Split("#Sign in")
	if elementType != "" {
		t.Errorf("expected empty element type, got %q", elementType)
	}
	if identifier != "Sign in" || !hasSeparator {
		t.Errorf("got %q, hasSeparator=%v", identifier, hasSeparator)
	}
}

func TestSplit_MissingSeparator(t *testing.T) {
	elementType, identifier, hasSeparator := selector.Split("Sign in")
	if hasSeparator {
		t.Error("expected hasSeparator = false when no '#' is present")
	}
	if elementType != "" || identifier != "Sign in" {
		t.Errorf("got %q, %q", elementType, identifier)
	}
}

func TestSplit_EmptyIdentifier(t *testing.T) {
	elementType, identifier, hasSeparator := selector.Split("Button#")
	if elementType != "Button" || identifier != "" || !hasSeparator {
		t.Errorf("got %q, %q, hasSeparator=%v", elementType, identifier, hasSeparator)
	}
}

func TestSplit_MultipleHashes(t *testing.T) {
	elementType, identifier, hasSeparator := selector.Split("Button#foo#bar")
	if elementType != "Button" || identifier != "foo#bar" || !hasSeparator {
		t.Errorf("got %q, %q, hasSeparator=%v", elementType, identifier, hasSeparator)
	}
}

func TestFormat_RoundTrips(t *testing.T) {
	elementType, identifier, _ := selector.Split("Button#Sign in")
	if got := selector.Format(elementType, identifier); got != "Button#Sign in" {
		t.Errorf("got %q", got)
	}
}

func TestFormat_NoElementType(t *testing.T) {
	if got := selector.Format("", "Sign in"); got != "Sign in" {
		t.Errorf("got %q", got)
	}
}

func TestFuzzyMatch(t *testing.T) {
	cases := []struct {
		identifier, candidate string
		want                  bool
	}{
		{"Sign in", "Sign in", true},
		{"sign in", "Sign In", true}, // case-insensitive exact match
		{"sign", "Sign in button", true},
		{"submit", "Sign in", false},
	}
	for _, c := range cases {
		if got := selector.FuzzyMatch(c.identifier, c.candidate); got != c.want {
			t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", c.identifier, c.candidate, got, c.want)
		}
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"Cancel", "Sign in", "Sign in as guest"}
	if idx := selector.BestMatch("Sign in", candidates); idx != 1 {
		t.Errorf("expected exact match at index 1, got %d", idx)
	}
	if idx := selector.BestMatch("guest", candidates); idx != 2 {
		t.Errorf("expected substring match at index 2, got %d", idx)
	}
	if idx := selector.BestMatch("nothing", candidates); idx != -1 {
		t.Errorf("expected no match, got %d", idx)
	}
}
