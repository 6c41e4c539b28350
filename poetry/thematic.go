package poetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ErrorMarker prefixes the text substituted for a failed LLM call.
const ErrorMarker = "[Error]:"

// ErrorText formats err the way a failed completion is reported inline.
func ErrorText(err error) string {
	return ErrorMarker + " " + err.Error()
}

// IsErrorText reports whether a completion is an inline error.
func IsErrorText(s string) bool {
	return strings.HasPrefix(s, ErrorMarker)
}

// ThematicOptions configures RunThematicAnalysis.
type ThematicOptions struct {
	Model       string
	MaxTokens   int
	// Temperature is sent as is, 0 included. Nil means 0.7.
	Temperature *float64
	Logger      *slog.Logger
}

func (o *ThematicOptions) defaults() {
	if o.Model == "" {
		o.Model = "gpt-4"
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1500
	}
	if o.Temperature == nil {
		t := 0.7
		o.Temperature = &t
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// FormatPoemCollection renders poems as one text block for the LLM prompts.
func FormatPoemCollection(poems []PoemRecord) string {
	blocks := make([]string, len(poems))
	for i, p := range poems {
		blocks[i] = fmt.Sprintf("---\n%s\n%s\n%s", p.Slug, p.Title, strings.TrimSpace(p.Body))
	}
	return strings.Join(blocks, "\n\n")
}

// RunThematicAnalysis asks the LLM for thematic categories, unspoken subtexts and its
// favorite poems. Each prompt runs independently; a failed call leaves an ErrorMarker
// string in its field and the others still run.
func RunThematicAnalysis(ctx context.Context, completer Completer, poems []PoemRecord, opts ThematicOptions) ThematicAnalysis {
	opts.defaults()
	formatted := FormatPoemCollection(poems)

	ask := func(template string) string {
		if completer == nil {
			return ErrorMarker + " no completer configured"
		}
		return completer.Complete(ctx, CompletionRequest{
			Model:       opts.Model,
			System:      criticSystemPrompt,
			Prompt:      fmt.Sprintf(template, formatted),
			MaxTokens:   opts.MaxTokens,
			Temperature: *opts.Temperature,
		})
	}

	opts.Logger.Info("grouping poems by theme")
	categories := ask(groupingPrompt)

	opts.Logger.Info("reading subtexts")
	subtexts := ask(subtextPrompt)

	opts.Logger.Info("picking favorites")
	favorites := ask(favoritesPrompt)

	out := ThematicAnalysis{
		Categories: categories,
		Subtexts:   subtexts,
		Favorites:  favorites,
	}
	for _, f := range []struct{ name, text string }{
		{"categories", categories},
		{"subtexts", subtexts},
		{"favorites", favorites},
	} {
		if IsErrorText(f.text) {
			opts.Logger.Warn("llm call degraded", "prompt", f.name, "error", f.text)
		}
	}
	return out
}
