package validator

import (
	"unicode"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// casePatterns returns the case patterns observed among values, in a fixed order.
func casePatterns(values []any) []core.CasePattern {
	var upper, lower, title bool
	for _, v := range values {
		s := core.Stringify(v)
		upper = upper || isUpper(s)
		lower = lower || isLower(s)
		title = title || isTitle(s)
	}
	var out []core.CasePattern
	if upper {
		out = append(out, core.CaseUpper)
	}
	if lower {
		out = append(out, core.CaseLower)
	}
	if title {
		out = append(out, core.CaseTitle)
	}
	return out
}

// isUpper reports whether s has a cased letter and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// isLower reports whether s has a cased letter and no uppercase ones.
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

// isTitle reports whether every word of s starts with an uppercase letter
// followed only by lowercase ones, and s has at least one cased letter.
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}
