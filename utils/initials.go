package utils

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// Initials returns up to two upper-case ASCII letters for a display name, used
// by the fallback avatar. Non-Latin names are transliterated first.
func Initials(name string) string {
	words := strings.Fields(unidecode.Unidecode(name))
	var b strings.Builder
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
