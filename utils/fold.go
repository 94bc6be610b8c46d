package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldKey returns the case-folded form of s for case-insensitive comparisons.
// A fresh Caser is used per call because cases.Caser is not safe for
// concurrent use.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold reports whether a and b match ignoring case and surrounding space.
func EqualFold(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}
