package poetry

import (
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry/fileutils"
)

const snippetRunes = 40

// InvalidPoem is the diagnostic for one record that failed validation.
type InvalidPoem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

func (p InvalidPoem) String() string {
	return fmt.Sprintf("title: '%s', snippet: '%s'", p.Title, p.Snippet)
}

// ValidationError reports every invalid record of a batch.
type ValidationError struct {
	Invalid []InvalidPoem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Invalid))
	for i, p := range e.Invalid {
		parts[i] = p.String()
	}
	return fmt.Sprintf("parse validation failed for %d poem(s): [%s]", len(e.Invalid), strings.Join(parts, "; "))
}

// ValidatePoems checks that every record has a title, body, date and slug.
// It does not stop at the first failure: the returned *ValidationError lists them all.
func ValidatePoems(poems []PoemRecord) error {
	var invalid []InvalidPoem
	for _, p := range poems {
		if p.Title != "" && p.Body != "" && p.Date != "" && p.Slug != "" {
			continue
		}
		invalid = append(invalid, diagnose(p))
	}
	if len(invalid) > 0 {
		return &ValidationError{Invalid: invalid}
	}
	return nil
}

func diagnose(p PoemRecord) InvalidPoem {
	title := p.Title
	if title == "" {
		title = "<no title>"
	}
	snippet := "<no body>"
	if p.Body != "" {
		r := []rune(fileutils.FlattenNewlines(p.Body))
		if len(r) > snippetRunes {
			r = r[:snippetRunes]
		}
		snippet = string(r) + "…"
	}
	return InvalidPoem{Title: title, Snippet: snippet}
}
