package backend

import (
	"fmt"
	"strings"

	"github.com/windrift/uiflow/internal/domain"
)

var namedKeys = map[string]bool{
	"Enter": true, "Tab": true, "Esc": true, "Space": true,
	"Up": true, "Down": true, "Left": true, "Right": true,
	"Backspace": true, "Delete": true, "Home": true, "End": true,
}

var modifierKeys = map[string]bool{"Ctrl": true, "Alt": true, "Shift": true}

// ParseSendKeys splits a comma-separated send_keys value into ordered key
// chords (spec §4.5). Each token is either a bare named key or a "+"-joined
// chord like "Ctrl+X" where every segment but the last is a modifier.
func ParseSendKeys(raw string) ([]KeyChord, error) {
	tokens := strings.Split(raw, ",")
	chords := make([]KeyChord, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		chord, err := parseChord(tok)
		if err != nil {
			return nil, err
		}
		chords = append(chords, chord)
	}
	if len(chords) == 0 {
		return nil, fmt.Errorf("send_keys: no tokens parsed from %q", raw)
	}
	return chords, nil
}

func parseChord(tok string) (KeyChord, error) {
	parts := strings.Split(tok, "+")
	main := strings.TrimSpace(parts[len(parts)-1])
	mods := make([]string, 0, len(parts)-1)
	for _, m := range parts[:len(parts)-1] {
		m = strings.TrimSpace(m)
		if !modifierKeys[m] {
			return KeyChord{}, fmt.Errorf("send_keys token %q: unknown modifier %q", tok, m)
		}
		mods = append(mods, m)
	}
	if len(main) != 1 && !namedKeys[main] {
		return KeyChord{}, fmt.Errorf("send_keys token %q: unknown key %q", tok, main)
	}
	return KeyChord{Modifiers: mods, Main: main}, nil
}

// ScrollAmountOrDefault returns step's configured amount, or the timing
// default (3) when unset (spec §4.5).
func ScrollAmountOrDefault(amount int, timing TimingSettings) int {
	if amount == 0 {
		return timing.DefaultScrollAmount
	}
	return amount
}

// ValidScrollDirection is a thin re-export so callers that only need
// validation don't have to reach into domain directly.
func ValidScrollDirection(d domain.ScrollDirection) bool {
	_, ok := domain.ParseScrollDirection(string(d))
	return ok
}
