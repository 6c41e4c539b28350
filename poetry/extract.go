package poetry

import (
	"regexp"
	"strings"
)

var (
	categoryHeaderRe   = regexp.MustCompile(`(?s)\*\*Category \d+: (.*?)\*\*\n`)
	categoryBoundaryRe = regexp.MustCompile(`\n\*\*Category \d+:`)
	favoriteLineRe     = regexp.MustCompile(`^\d+\.\s*(.+?):\s*(.+)`)
)

// ExtractCategories recovers "**Category N: Title**" blocks from the LLM grouping text.
// A block's description runs until the next category header or the end of the text.
// Text that does not follow the shape is ignored.
func ExtractCategories(raw string) []Theme {
	var themes []Theme
	pos := 0
	for pos < len(raw) {
		m := categoryHeaderRe.FindStringSubmatchIndex(raw[pos:])
		if m == nil {
			break
		}
		title := strings.TrimSpace(raw[pos+m[2] : pos+m[3]])
		descStart := pos + m[1]
		descEnd := len(raw)
		if b := categoryBoundaryRe.FindStringIndex(raw[descStart:]); b != nil {
			descEnd = descStart + b[0]
		}
		if title != "" {
			themes = append(themes, Theme{
				Title:       title,
				Description: strings.TrimSpace(raw[descStart:descEnd]),
			})
		}
		pos = descEnd
	}
	return themes
}

// ExtractFavorites reads the first three non-empty lines of the favorites text and keeps
// those shaped "N. Title: why". Rank is the line position (1-3).
func ExtractFavorites(raw string) []Favorite {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
		if len(lines) == 3 {
			break
		}
	}

	var favs []Favorite
	for i, l := range lines {
		m := favoriteLineRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		favs = append(favs, Favorite{
			Rank:        i + 1,
			Title:       strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		})
	}
	return favs
}
