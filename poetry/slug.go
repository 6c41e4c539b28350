package poetry

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// newASCIIFold is rebuilt per call: chained transformers keep state between calls.
func newASCIIFold() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
}

// NormalizeTitle turns a poem title into a storage-safe slug.
//
// "°" (used in titles as "number") becomes the literal "no", accented letters fold to
// their ASCII base and anything else outside ASCII is dropped. The result is lowercased,
// trimmed, and spaces become underscores. Distinct titles may collide; nothing here
// detects it.
func NormalizeTitle(title string) string {
	s := strings.ReplaceAll(title, "°", "no")
	folded, _, err := transform.String(newASCIIFold(), s)
	if err != nil {
		folded = dropNonASCII(norm.NFKD.String(s))
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.ReplaceAll(folded, " ", "_")
}

func dropNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
