package poetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry/fileutils"
)

// Pipeline runs one ingestion: fetch, segment, validate, persist, re-fetch, enrich.
// Steps run one after another; the first error ends the run.
type Pipeline struct {
	Source     DocumentSource
	Store      ObjectStore
	Classifier EmotionClassifier
	Completer  Completer

	Segment  SegmentOptions
	Thematic ThematicOptions

	PoemPrefix  string
	EmojiPrefix string
	LLMPrefix   string

	// Now stamps storage keys. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// RunResult summarises a run.
type RunResult struct {
	Parsed     int
	Uploaded   []string
	Downloaded int
	English    int
	EmojiKey   string
	LLMKey     string
}

func (p *Pipeline) defaults() {
	if p.PoemPrefix == "" {
		p.PoemPrefix = PoemPrefix
	}
	if p.EmojiPrefix == "" {
		p.EmojiPrefix = EmojiPrefix
	}
	if p.LLMPrefix == "" {
		p.LLMPrefix = LLMPrefix
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Segment.Detector == nil {
		p.Segment.Detector = NewLanguageDetector()
	}
	if p.Thematic.Logger == nil {
		p.Thematic.Logger = p.Logger
	}
}

// Run ingests the document docID.
func (p *Pipeline) Run(ctx context.Context, docID string) (RunResult, error) {
	var res RunResult
	if p.Source == nil {
		return res, errors.New("Pipeline.Run: source is nil")
	}
	if p.Store == nil {
		return res, errors.New("Pipeline.Run: store is nil")
	}
	if docID == "" {
		return res, errors.New("Pipeline.Run: docID is empty")
	}
	p.defaults()
	log := p.Logger
	now := p.Now()

	log.Info("starting document import", "doc_id", docID)
	elements, err := p.Source.Fetch(ctx, docID)
	if err != nil {
		return res, fmt.Errorf("Pipeline.Run: fetch document: %w", err)
	}

	poems := Segment(elements, p.Segment)
	res.Parsed = len(poems)
	log.Info("parsed poems", "count", len(poems))
	if len(poems) > 0 {
		log.Debug("first poem", "title", poems[0].Title, "slug", poems[0].Slug, "body", fileutils.Truncate(poems[0].Body, 80))
	}

	if err := ValidatePoems(poems); err != nil {
		return res, fmt.Errorf("Pipeline.Run: %w", err)
	}
	log.Info("all poems passed validation")

	res.Uploaded, err = UploadCollection(ctx, p.Store, poems, p.PoemPrefix, now, log)
	if err != nil {
		return res, fmt.Errorf("Pipeline.Run: %w", err)
	}
	log.Info("poems uploaded", "count", len(res.Uploaded))

	collection, err := DownloadCollection(ctx, p.Store, p.PoemPrefix)
	if err != nil {
		return res, fmt.Errorf("Pipeline.Run: %w", err)
	}
	res.Downloaded = len(collection)
	log.Info("poems downloaded", "count", len(collection))
	if len(collection) == 0 {
		log.Warn("empty collection, skipping enrichment")
		return res, nil
	}

	for _, poem := range collection {
		if poem.Language == LanguageEnglish {
			res.English++
		}
	}
	emoji, err := RunEmojiAnalysis(ctx, p.Classifier, collection)
	if err != nil {
		return res, fmt.Errorf("Pipeline.Run: emoji analysis: %w", err)
	}
	res.EmojiKey, err = UploadOutput(ctx, p.Store, emoji, ModeEmoji, p.EmojiPrefix, now)
	if err != nil {
		return res, fmt.Errorf("Pipeline.Run: %w", err)
	}
	log.Info("emoji outputs saved", "key", res.EmojiKey, "poems", len(emoji))

	analysis := RunThematicAnalysis(ctx, p.Completer, collection, p.Thematic)
	res.LLMKey, err = UploadOutput(ctx, p.Store, analysis, ModeLLM, p.LLMPrefix, now)
	if err != nil {
		return res, fmt.Errorf("Pipeline.Run: %w", err)
	}
	log.Info("llm outputs saved", "key", res.LLMKey)
	return res, nil
}
