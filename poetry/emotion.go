package poetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// LanguageEnglish is the only language the emotion classifier is run on.
const LanguageEnglish = "en"

// DefaultTopEmotions is how many labels are kept per poem.
const DefaultTopEmotions = 3

// EmotionLabels is the closed GoEmotions label set classifiers report over.
var EmotionLabels = []string{
	"admiration", "amusement", "anger", "annoyance", "approval", "caring",
	"confusion", "curiosity", "desire", "disappointment", "disapproval", "disgust",
	"embarrassment", "excitement", "fear", "gratitude", "grief", "joy",
	"love", "nervousness", "optimism", "pride", "realization", "relief",
	"remorse", "sadness", "surprise", "neutral",
}

// IsEmotionLabel reports whether label belongs to EmotionLabels.
func IsEmotionLabel(label string) bool {
	for _, l := range EmotionLabels {
		if l == label {
			return true
		}
	}
	return false
}

// EmojiMap maps the dominant emotion of a poem to its reaction glyph.
// Labels outside the map get no emoji.
var EmojiMap = map[string]string{
	"remorse":        "😔",
	"grief":          "💔",
	"nervousness":    "😬",
	"love":           "❤️",
	"excitement":     "🤩",
	"desire":         "🔥",
	"anger":          "😠",
	"disappointment": "😞",
	"disapproval":    "🙅",
	"annoyance":      "😒",
	"confusion":      "🤔",
	"caring":         "🤗",
	"embarrassment":  "😳",
}

// RoundScore rounds to 4 decimals.
func RoundScore(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// ScorePoems classifies every English poem and flattens the distributions into one row
// per (slug, label).
func ScorePoems(ctx context.Context, classifier EmotionClassifier, poems []PoemRecord) ([]EnrichmentScore, error) {
	var out []EnrichmentScore
	for _, p := range poems {
		if p.Language != LanguageEnglish {
			continue
		}
		if classifier == nil {
			return nil, errors.New("ScorePoems: classifier is nil")
		}
		dist, err := classifier.Classify(ctx, p.Body)
		if err != nil {
			return nil, fmt.Errorf("ScorePoems: classify %q: %w", p.Slug, err)
		}
		for _, ls := range dist {
			out = append(out, EnrichmentScore{
				Title: p.Title,
				Slug:  p.Slug,
				Text:  p.Body,
				Label: ls.Label,
				Score: RoundScore(ls.Score),
			})
		}
	}
	return out, nil
}

// GroupTopEmotions groups scores by slug, sorts each group by descending score (ties keep
// input order) and keeps the first topK entries.
func GroupTopEmotions(scores []EnrichmentScore, topK int) map[string][]TopEmotion {
	grouped := make(map[string][]TopEmotion)
	for _, s := range scores {
		grouped[s.Slug] = append(grouped[s.Slug], TopEmotion{
			Text:  s.Text,
			Label: s.Label,
			Score: RoundScore(s.Score),
		})
	}
	for slug, emotions := range grouped {
		sort.SliceStable(emotions, func(i, j int) bool {
			return emotions[i].Score > emotions[j].Score
		})
		if topK >= 0 && len(emotions) > topK {
			emotions = emotions[:topK]
		}
		grouped[slug] = emotions
	}
	return grouped
}

// EnrichWithEmoji attaches the glyph of each slug's highest scoring label.
// Slugs without any emotion are skipped.
func EnrichWithEmoji(grouped map[string][]TopEmotion, emojiMap map[string]string) EmojiOutput {
	out := make(EmojiOutput, len(grouped))
	for slug, emotions := range grouped {
		if len(emotions) == 0 {
			continue
		}
		dominant := emotions[0]
		for _, e := range emotions[1:] {
			if e.Score > dominant.Score {
				dominant = e
			}
		}
		out[slug] = EmojiResult{
			TopEmotions: emotions,
			Emoji:       emojiMap[dominant.Label],
		}
	}
	return out
}

// RunEmojiAnalysis scores the English poems and returns the top emotions and emoji per slug.
func RunEmojiAnalysis(ctx context.Context, classifier EmotionClassifier, poems []PoemRecord) (EmojiOutput, error) {
	scores, err := ScorePoems(ctx, classifier, poems)
	if err != nil {
		return nil, err
	}
	return EnrichWithEmoji(GroupTopEmotions(scores, DefaultTopEmotions), EmojiMap), nil
}
