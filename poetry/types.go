package poetry

import (
	"context"
	"time"
)

// PoemRecord is one poem segmented out of the source document.
// A record is only emitted once it has at least one body line.
type PoemRecord struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Date     string `json:"date"`
	Body     string `json:"body"`
	Language string `json:"language"`
}

// LabelScore is one entry of a classifier distribution.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EnrichmentScore is a flattened (slug, label) emotion score.
type EnrichmentScore struct {
	Title string  `json:"title,omitempty"`
	Slug  string  `json:"slug"`
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TopEmotion is a grouped score entry kept for one slug.
type TopEmotion struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EmojiResult is the emotion enrichment for one poem.
type EmojiResult struct {
	TopEmotions []TopEmotion `json:"top_emotions"`
	Emoji       string       `json:"emoji"`
}

// EmojiOutput maps slug -> emoji enrichment. It is persisted as one JSON object.
type EmojiOutput map[string]EmojiResult

// ThematicAnalysis holds the raw LLM completions. None of the fields are parsed further
// at ingestion time; see ExtractCategories and ExtractFavorites for the display side.
type ThematicAnalysis struct {
	Categories string `json:"categories"`
	Subtexts   string `json:"subtexts"`
	Favorites  string `json:"favorites"`
}

// Theme is a category recovered from ThematicAnalysis.Categories.
type Theme struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Favorite is a ranked pick recovered from ThematicAnalysis.Favorites.
type Favorite struct {
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Vote is a reader's selection of poems. Votes are appended, never updated.
type Vote struct {
	Selections []string  `json:"votes"`
	Timestamp  time.Time `json:"timestamp"`
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Name    string
	Updated time.Time
}

// DocumentSource fetches the ordered structural elements of a document.
type DocumentSource interface {
	Fetch(ctx context.Context, docID string) ([]Element, error)
}

// ObjectStore is the blob storage used for poem records and enrichment batches.
type ObjectStore interface {
	WriteJSON(ctx context.Context, key string, v any) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	ReadText(ctx context.Context, key string) (string, error)
}

// EmotionClassifier returns the full distribution over EmotionLabels for a text.
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) ([]LabelScore, error)
}

// CompletionRequest is a single LLM prompt. Temperature is always sent; MaxTokens only
// when positive.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer generates text for a prompt. Implementations never return an error:
// a failed call yields a string starting with ErrorMarker.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) string
}

// VoteStore appends votes.
type VoteStore interface {
	AppendVote(ctx context.Context, v Vote) error
}
