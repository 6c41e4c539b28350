package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/huggingface"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/settings"
)

const (
	sourceGDocs = "gdocs"
	sourceFile  = "file"

	storeGCS   = "gcs"
	storeLocal = "local"

	classifierHuggingFace = "huggingface"
	classifierOpenAI      = "openai"
)

type Config struct {
	DocID         string
	Source        string
	DocFile       string
	DocsCredsPath string
	DocScopes     []string

	Store          string
	Bucket         string
	CloudCredsPath string
	LocalDir       string
	PoemPrefix     string
	EmojiPrefix    string
	LLMPrefix      string

	Classifier   string
	EmotionModel string
	HFToken      string
	HFBaseURL    string

	Model       string
	MaxTokens   int
	Temperature float64
	APIKey      string

	HeadingStyle string
	BodyStyle    string

	LogLevel string
}

func (c Config) Validate() error {
	switch c.Source {
	case sourceGDocs:
		if c.DocID == "" {
			return errors.New("missing -doc-id (or GOOGLE_DOC_ID)")
		}
		if c.DocsCredsPath == "" {
			return errors.New("missing -docs-creds (or GOOGLE_CREDS_PATH)")
		}
	case sourceFile:
		if c.DocFile == "" {
			return errors.New("missing -doc-file")
		}
	default:
		return fmt.Errorf("invalid -source %q (want %s or %s)", c.Source, sourceGDocs, sourceFile)
	}
	switch c.Store {
	case storeGCS:
		if c.Bucket == "" {
			return errors.New("missing -bucket (or GCS_BUCKET)")
		}
	case storeLocal:
		if c.LocalDir == "" {
			return errors.New("missing -local-dir")
		}
	default:
		return fmt.Errorf("invalid -store %q (want %s or %s)", c.Store, storeGCS, storeLocal)
	}
	switch c.Classifier {
	case classifierHuggingFace, classifierOpenAI:
	default:
		return fmt.Errorf("invalid -classifier %q (want %s or %s)", c.Classifier, classifierHuggingFace, classifierOpenAI)
	}
	if c.EmotionModel == "" {
		return errors.New("missing -emotion-model")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.MaxTokens < 0 {
		return errors.New("max-tokens must be >= 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("temperature must be within [0, 2]")
	}
	if c.PoemPrefix == "" || c.EmojiPrefix == "" || c.LLMPrefix == "" {
		return errors.New("storage prefixes must not be empty")
	}
	return nil
}

func defaultConfig(s settings.Settings) Config {
	model := s.LLMModel
	if model == "" {
		model = "gpt-4"
	}
	emotionModel := s.EmotionModel
	if emotionModel == "" {
		emotionModel = huggingface.DefaultModel
	}
	return Config{
		DocID:          s.DocID,
		Source:         sourceGDocs,
		DocsCredsPath:  s.DocsCredsPath,
		DocScopes:      s.DocScopes,
		Store:          storeGCS,
		Bucket:         s.Bucket,
		CloudCredsPath: s.CloudCredsPath,
		LocalDir:       filepath.FromSlash("out/objects"),
		PoemPrefix:     poetry.PoemPrefix,
		EmojiPrefix:    poetry.EmojiPrefix,
		LLMPrefix:      poetry.LLMPrefix,
		Classifier:     classifierHuggingFace,
		EmotionModel:   emotionModel,
		HFToken:        s.HFToken,
		Model:          model,
		MaxTokens:      1500,
		Temperature:    0.7,
		APIKey:         s.OpenAIAPIKey,
		HeadingStyle:   poetry.StyleHeading,
		BodyStyle:      poetry.StyleBody,
		LogLevel:       "info",
	}
}
