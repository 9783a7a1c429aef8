package email

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LocalPartFunc turns a display name into the local part of a derived
// address. It must be pure.
type LocalPartFunc func(name string) string

// FirstInitialSurname is the default LocalPartFunc: the first letter of the
// first word, a dot, then the last word.
//
//	"Frances Bar"         -> "f.bar"
//	"José Álvarez-Núñez"  -> "j.alvarez-nunez"
//	"Cher"                -> "cher"
//
// Accents are folded to their base letter and anything outside
// [a-z0-9._-] is dropped.
func FirstInitialSurname(name string) string {
	words := addressWords(name)
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	return words[0][:1] + "." + words[len(words)-1]
}

func addressWords(name string) []string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var words []string
	for _, field := range strings.Fields(strings.ToLower(folded)) {
		if w := keepAddressChars(field); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func keepAddressChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
