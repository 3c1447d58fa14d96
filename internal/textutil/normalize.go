package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts a display name into the canonical manga key: diacritics
// are folded to their base letters, every run of characters outside
// [A-Za-z0-9] becomes a single underscore, leading and trailing underscores are
// trimmed, and the result is lower-cased.
//
// "Ñoño: The Movie!" becomes "nono_the_movie". Names without any Latin letter
// or digit normalize to "".
func Normalize(name string) string {
	folded := foldDiacritics(name)
	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if isASCIIAlnum(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

var unsafeFileChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-",
	"?", "", "\"", "", "<", "", ">", "", "|", "",
)

// SanitizeFileName makes name safe as a single path segment. Separators and
// wildcard characters become dashes; quoting and redirection characters are
// dropped.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(unsafeFileChars.Replace(strings.TrimSpace(name)))
}
