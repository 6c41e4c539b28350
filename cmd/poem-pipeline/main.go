package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/gdocs"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/huggingface"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/provider"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/settings"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/storage"
)

func main() {
	env, err := settings.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:], env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	logger, err := settings.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	source, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	p := &poetry.Pipeline{
		Source:     source,
		Store:      store,
		Classifier: buildClassifier(cfg, &client),
		Completer:  provider.OpenAICompleter{Client: &client},
		Segment: poetry.SegmentOptions{
			HeadingStyle: cfg.HeadingStyle,
			BodyStyle:    cfg.BodyStyle,
		},
		Thematic: poetry.ThematicOptions{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: &cfg.Temperature,
		},
		PoemPrefix:  cfg.PoemPrefix,
		EmojiPrefix: cfg.EmojiPrefix,
		LLMPrefix:   cfg.LLMPrefix,
		Logger:      logger,
	}

	docID := cfg.DocID
	if docID == "" {
		docID = strings.TrimSuffix(filepath.Base(cfg.DocFile), filepath.Ext(cfg.DocFile))
	}
	res, err := p.Run(ctx, docID)
	if err != nil {
		return err
	}
	logger.Info("done",
		"parsed", res.Parsed,
		"uploaded", len(res.Uploaded),
		"downloaded", res.Downloaded,
		"english", res.English,
		"emoji_key", res.EmojiKey,
		"llm_key", res.LLMKey,
	)
	return nil
}

func buildSource(ctx context.Context, cfg Config) (poetry.DocumentSource, error) {
	switch cfg.Source {
	case sourceFile:
		return gdocs.FileSource{Path: cfg.DocFile}, nil
	case sourceGDocs:
		src, err := gdocs.NewAPISource(ctx, cfg.DocsCredsPath, cfg.DocScopes)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("buildSource: unknown source %q", cfg.Source)
	}
}

func buildStore(ctx context.Context, cfg Config) (poetry.ObjectStore, func() error, error) {
	switch cfg.Store {
	case storeLocal:
		return storage.Local{Root: cfg.LocalDir}, func() error { return nil }, nil
	case storeGCS:
		g, err := storage.NewGCS(ctx, cfg.Bucket, cfg.CloudCredsPath)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("buildStore: unknown store %q", cfg.Store)
	}
}

func buildClassifier(cfg Config, client *openai.Client) poetry.EmotionClassifier {
	if cfg.Classifier == classifierOpenAI {
		return provider.OpenAIClassifier{Client: client, Model: cfg.EmotionModel}
	}
	return huggingface.Client{
		BaseURL: cfg.HFBaseURL,
		Model:   cfg.EmotionModel,
		Token:   cfg.HFToken,
	}
}

func parseFlags(fs *flag.FlagSet, args []string, env settings.Settings) (Config, error) {
	cfg := defaultConfig(env)
	fs.SetOutput(os.Stderr)

	var scopes string
	fs.StringVar(&cfg.DocID, "doc-id", cfg.DocID, "Google Doc ID to import (default: GOOGLE_DOC_ID)")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "Document source: gdocs or file")
	fs.StringVar(&cfg.DocFile, "doc-file", "", "Path to a saved documents.get JSON response (with -source file)")
	fs.StringVar(&cfg.DocsCredsPath, "docs-creds", cfg.DocsCredsPath, "Credentials file for the Docs API (default: GOOGLE_CREDS_PATH)")
	fs.StringVar(&scopes, "doc-scopes", strings.Join(cfg.DocScopes, ","), "Comma-separated Docs API scopes (default: GOOGLE_DOC_SCOPES or documents.readonly)")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Object store: gcs or local")
	fs.StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "GCS bucket (default: GCS_BUCKET)")
	fs.StringVar(&cfg.CloudCredsPath, "cloud-creds", cfg.CloudCredsPath, "Service account file for Cloud Storage (default: GOOGLE_CLOUD_CREDS_PATH)")
	fs.StringVar(&cfg.LocalDir, "local-dir", cfg.LocalDir, "Root directory for -store local")
	fs.StringVar(&cfg.PoemPrefix, "poem-prefix", cfg.PoemPrefix, "Key prefix for poem records")
	fs.StringVar(&cfg.EmojiPrefix, "emoji-prefix", cfg.EmojiPrefix, "Key prefix for emoji outputs")
	fs.StringVar(&cfg.LLMPrefix, "llm-prefix", cfg.LLMPrefix, "Key prefix for LLM outputs")
	fs.StringVar(&cfg.Classifier, "classifier", cfg.Classifier, "Emotion classifier: huggingface or openai")
	fs.StringVar(&cfg.EmotionModel, "emotion-model", cfg.EmotionModel, "Emotion model (default: EMOTION_MODEL, or -model with -classifier openai)")
	fs.StringVar(&cfg.HFToken, "hf-token", cfg.HFToken, "Hugging Face API token (default: HF_API_TOKEN)")
	fs.StringVar(&cfg.HFBaseURL, "hf-base-url", "", "Override the Hugging Face inference base URL")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model for the thematic analysis (default: LLM_MODEL or gpt-4)")
	fs.IntVar(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, "Max output tokens per thematic prompt")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature for the thematic prompts")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.HeadingStyle, "heading-style", cfg.HeadingStyle, "Paragraph style that starts a poem")
	fs.StringVar(&cfg.BodyStyle, "body-style", cfg.BodyStyle, "Paragraph style of poem lines")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.New("unexpected positional arguments")
	}

	cfg.DocScopes = splitComma(scopes)
	if cfg.Classifier == classifierOpenAI && cfg.EmotionModel == huggingface.DefaultModel {
		cfg.EmotionModel = cfg.Model
	}
	if cfg.DocFile != "" {
		cfg.DocFile = filepath.Clean(cfg.DocFile)
	}
	if cfg.LocalDir != "" {
		cfg.LocalDir = filepath.Clean(cfg.LocalDir)
	}
	return cfg, nil
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
