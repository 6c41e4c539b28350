package poetry

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LanguageUnknown is recorded when a body cannot be classified.
const LanguageUnknown = "unknown"

// LanguageDetector classifies a text. Detect never fails; it returns LanguageUnknown instead.
type LanguageDetector interface {
	Detect(text string) string
}

// LanguageDetectorFunc adapts a plain function to LanguageDetector.
type LanguageDetectorFunc func(text string) string

func (f LanguageDetectorFunc) Detect(text string) string { return f(text) }

// MinLanguageConfidence is the lowest detector confidence recorded as a language.
// Short or ambiguous bodies score below it and are recorded as LanguageUnknown.
const MinLanguageConfidence = 0.5

type whatlangDetector struct{}

// NewLanguageDetector returns the trigram detector used by the segmenter.
func NewLanguageDetector() LanguageDetector {
	return whatlangDetector{}
}

func (whatlangDetector) Detect(text string) (code string) {
	defer func() {
		if recover() != nil {
			code = LanguageUnknown
		}
	}()

	if strings.TrimSpace(text) == "" {
		return LanguageUnknown
	}
	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Lang < 0 || info.Confidence < MinLanguageConfidence {
		return LanguageUnknown
	}
	code = info.Lang.Iso6391()
	if code == "" {
		return LanguageUnknown
	}
	return code
}

// detectLanguage applies d, falling back to LanguageUnknown for nil detectors and empty codes.
func detectLanguage(d LanguageDetector, text string) string {
	if d == nil {
		return LanguageUnknown
	}
	code := strings.TrimSpace(d.Detect(text))
	if code == "" {
		return LanguageUnknown
	}
	return code
}
