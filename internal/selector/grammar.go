// Package selector implements the `ElementType#Identifier` shorthand grammar
// (spec §6) used to write TypedSelectors tersely in flow authoring, and the
// small string-matching helpers the backend resolver (internal/backend)
// uses to fuzzy-match element identifiers. It applies no validity judgment
// of its own (whether the type is known, whether a separator is required);
// that lives in internal/validator so this package stays import-free of
// internal/domain.
package selector

import "strings"

// Split breaks a shorthand string like "Button#Sign in" into its element
// type and identifier segments. The '#' separator is optional: "Sign in"
// (no '#') returns an empty element type and hasSeparator=false, with the
// whole trimmed string as the identifier. Only the first '#' is treated as
// the separator; anything further is part of the identifier.
func Split(raw string) (elementType, identifier string, hasSeparator bool) {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, "#")
	if idx < 0 {
		return "", raw, false
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+1:]), true
}

// Format renders an element type and identifier back into shorthand string
// form, the inverse of Split (used in log lines and report messages).
func Format(elementType, identifier string) string {
	if elementType == "" {
		return identifier
	}
	return elementType + "#" + identifier
}

// FuzzyMatch reports whether candidate plausibly matches identifier: exact
// match, case-insensitive match, or candidate contains identifier as a
// substring (case-insensitive). The backend resolver (C4) uses this to widen
// a search when an exact name/automation-id match fails.
func FuzzyMatch(identifier, candidate string) bool {
	if identifier == candidate {
		return true
	}
	li, lc := strings.ToLower(identifier), strings.ToLower(candidate)
	if li == lc {
		return true
	}
	return strings.Contains(lc, li)
}

// BestMatch returns the index of the first candidate that FuzzyMatch accepts
// for identifier, preferring an exact match over a substring match. Returns
// -1 if nothing matches.
func BestMatch(identifier string, candidates []string) int {
	li := strings.ToLower(identifier)
	substrIdx := -1
	for i, c := range candidates {
		lc := strings.ToLower(c)
		if identifier == c || li == lc {
			return i
		}
		if substrIdx < 0 && strings.Contains(lc, li) {
			substrIdx = i
		}
	}
	return substrIdx
}
