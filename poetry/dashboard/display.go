package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DisplayConfig holds the presentation choices that are not derived from the data.
type DisplayConfig struct {
	// ThemeEmojis maps a category title to its card glyph.
	ThemeEmojis       map[string]string `yaml:"theme_emojis"`
	DefaultThemeEmoji string            `yaml:"default_theme_emoji"`
	MissingEmoji      string            `yaml:"missing_emoji"`
	// LowConfidence lists slugs whose emoji reaction is flagged as unreliable.
	LowConfidence []string `yaml:"low_confidence"`
	MaxSelections int      `yaml:"max_selections"`
}

// DefaultDisplayConfig is used when no display file is given.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		ThemeEmojis: map[string]string{
			"Existential Conundrums":                        "🌀",
			"Work-Life Balance and Professional Challenges": "💼",
			"Coping with Reality":                           "🧠",
			"Life and Death":                                "🪦",
		},
		DefaultThemeEmoji: "🧩",
		MissingEmoji:      "❓",
		LowConfidence:     []string{"document_egare_nno2"},
		MaxSelections:     3,
	}
}

// LoadDisplayConfig reads a YAML display file. Fields left out keep their defaults; an
// empty path or a missing file yields DefaultDisplayConfig.
func LoadDisplayConfig(path string) (DisplayConfig, error) {
	cfg := DefaultDisplayConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("LoadDisplayConfig: %w", err)
	}

	var file DisplayConfig
	if err := yaml.Unmarshal(b, &file); err != nil {
		return cfg, fmt.Errorf("LoadDisplayConfig: parse %s: %w", path, err)
	}
	if file.ThemeEmojis != nil {
		cfg.ThemeEmojis = file.ThemeEmojis
	}
	if file.DefaultThemeEmoji != "" {
		cfg.DefaultThemeEmoji = file.DefaultThemeEmoji
	}
	if file.MissingEmoji != "" {
		cfg.MissingEmoji = file.MissingEmoji
	}
	if file.LowConfidence != nil {
		cfg.LowConfidence = file.LowConfidence
	}
	if file.MaxSelections > 0 {
		cfg.MaxSelections = file.MaxSelections
	}
	return cfg, nil
}

func (c DisplayConfig) themeEmoji(title string) string {
	if e, ok := c.ThemeEmojis[title]; ok && e != "" {
		return e
	}
	return c.DefaultThemeEmoji
}

func (c DisplayConfig) isLowConfidence(slug string) bool {
	for _, s := range c.LowConfidence {
		if s == slug {
			return true
		}
	}
	return false
}
