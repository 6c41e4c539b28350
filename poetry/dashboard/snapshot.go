package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

// Prefixes locates the stored batches. Zero fields take the poetry defaults.
type Prefixes struct {
	Poems string
	LLM   string
	Emoji string
}

func (p *Prefixes) defaults() {
	if p.Poems == "" {
		p.Poems = poetry.PoemPrefix
	}
	if p.LLM == "" {
		p.LLM = poetry.LLMPrefix
	}
	if p.Emoji == "" {
		p.Emoji = poetry.EmojiPrefix
	}
}

// Snapshot is the read-only data the dashboard renders. It is replaced as a whole on reload.
type Snapshot struct {
	LLMKey   string
	EmojiKey string
	LLM      poetry.ThematicAnalysis
	Emoji    poetry.EmojiOutput
	Poems    []poetry.PoemRecord
	LoadedAt time.Time
}

// LoadSnapshot reads the latest LLM and emoji batches and the poem collection.
// A prefix with nothing stored yet leaves that part empty.
func LoadSnapshot(ctx context.Context, store poetry.ObjectStore, prefixes Prefixes, logger *slog.Logger) (*Snapshot, error) {
	if store == nil {
		return nil, errors.New("LoadSnapshot: store is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	prefixes.defaults()
	snap := &Snapshot{Emoji: poetry.EmojiOutput{}}

	var err error
	snap.LLMKey, err = loadLatest(ctx, store, prefixes.LLM, &snap.LLM)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: llm: %w", err)
	}
	if snap.LLMKey == "" {
		logger.Warn("no llm output stored yet", "prefix", prefixes.LLM)
	}

	snap.EmojiKey, err = loadLatest(ctx, store, prefixes.Emoji, &snap.Emoji)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: emoji: %w", err)
	}
	if snap.EmojiKey == "" {
		logger.Warn("no emoji output stored yet", "prefix", prefixes.Emoji)
	}

	snap.Poems, err = poetry.DownloadCollection(ctx, store, prefixes.Poems)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: %w", err)
	}
	snap.LoadedAt = time.Now().UTC()
	logger.Info("snapshot loaded", "llm", snap.LLMKey, "emoji", snap.EmojiKey, "poems", len(snap.Poems))
	return snap, nil
}

func loadLatest(ctx context.Context, store poetry.ObjectStore, prefix string, v any) (string, error) {
	key, err := poetry.LatestKey(ctx, store, prefix)
	if errors.Is(err, poetry.ErrNoObjects) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := poetry.LoadJSON(ctx, store, key, v); err != nil {
		return "", err
	}
	return key, nil
}
