package poetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default storage prefixes.
const (
	PoemPrefix  = "data/poems/"
	LLMPrefix   = "data/llm/"
	EmojiPrefix = "data/emoji/"
)

// Enrichment batch modes.
const (
	ModeLLM   = "llm"
	ModeEmoji = "emoji"
)

// ErrNoObjects is returned by LatestKey when nothing is stored under the prefix.
var ErrNoObjects = errors.New("no objects found under prefix")

// DateStamp formats t as the YYYYMMDD key suffix.
func DateStamp(t time.Time) string {
	return t.Format("20060102")
}

// PoemKey is the storage key of one poem record. Re-runs on the same day overwrite it.
func PoemKey(prefix, slug string, now time.Time) string {
	return fmt.Sprintf("%s%s_%s.json", prefix, slug, DateStamp(now))
}

// OutputKey is the storage key of an enrichment batch.
func OutputKey(prefix, mode string, now time.Time) (string, error) {
	switch mode {
	case ModeLLM, ModeEmoji:
		return fmt.Sprintf("%s%s_output_%s.json", prefix, mode, DateStamp(now)), nil
	default:
		return "", fmt.Errorf("invalid mode %q, expected %q or %q", mode, ModeLLM, ModeEmoji)
	}
}

// UploadCollection writes each poem as its own object. The first failure aborts.
func UploadCollection(ctx context.Context, store ObjectStore, poems []PoemRecord, prefix string, now time.Time, logger *slog.Logger) ([]string, error) {
	if store == nil {
		return nil, errors.New("UploadCollection: store is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	keys := make([]string, 0, len(poems))
	for _, p := range poems {
		key := PoemKey(prefix, p.Slug, now)
		if err := store.WriteJSON(ctx, key, p); err != nil {
			return keys, fmt.Errorf("UploadCollection: write %s: %w", key, err)
		}
		logger.Info("uploaded", "key", key)
		keys = append(keys, key)
	}
	return keys, nil
}

// UploadOutput writes an enrichment batch under prefix for the given mode.
func UploadOutput(ctx context.Context, store ObjectStore, output any, mode, prefix string, now time.Time) (string, error) {
	if store == nil {
		return "", errors.New("UploadOutput: store is nil")
	}
	key, err := OutputKey(prefix, mode, now)
	if err != nil {
		return "", fmt.Errorf("UploadOutput: %w", err)
	}
	if err := store.WriteJSON(ctx, key, output); err != nil {
		return "", fmt.Errorf("UploadOutput: write %s: %w", key, err)
	}
	return key, nil
}

// DownloadCollection reads back every poem stored under prefix, in listing order.
func DownloadCollection(ctx context.Context, store ObjectStore, prefix string) ([]PoemRecord, error) {
	if store == nil {
		return nil, errors.New("DownloadCollection: store is nil")
	}
	objs, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("DownloadCollection: list %s: %w", prefix, err)
	}
	poems := make([]PoemRecord, 0, len(objs))
	for _, o := range objs {
		var p PoemRecord
		if err := LoadJSON(ctx, store, o.Name, &p); err != nil {
			return nil, fmt.Errorf("DownloadCollection: %w", err)
		}
		poems = append(poems, p)
	}
	return poems, nil
}

// LatestKey returns the most recently updated object under prefix.
func LatestKey(ctx context.Context, store ObjectStore, prefix string) (string, error) {
	if store == nil {
		return "", errors.New("LatestKey: store is nil")
	}
	objs, err := store.List(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("LatestKey: list %s: %w", prefix, err)
	}
	if len(objs) == 0 {
		return "", fmt.Errorf("LatestKey: %s: %w", prefix, ErrNoObjects)
	}
	latest := objs[0]
	for _, o := range objs[1:] {
		if o.Updated.After(latest.Updated) {
			latest = o
		}
	}
	return latest.Name, nil
}

// LoadJSON reads key and decodes it into v.
func LoadJSON(ctx context.Context, store ObjectStore, key string, v any) error {
	text, err := store.ReadText(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
