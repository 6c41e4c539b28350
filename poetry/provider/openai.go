package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/fileutils"
)

// OpenAICompleter answers free-text prompts through the Responses API.
// It implements poetry.Completer: failures come back as poetry.ErrorMarker strings.
type OpenAICompleter struct {
	Client *openai.Client
}

func (c OpenAICompleter) Complete(ctx context.Context, req poetry.CompletionRequest) string {
	text, err := c.complete(ctx, req)
	if err != nil {
		return poetry.ErrorText(err)
	}
	return text
}

func (c OpenAICompleter) complete(ctx context.Context, req poetry.CompletionRequest) (string, error) {
	if c.Client == nil {
		return "", errors.New("OpenAICompleter: client is nil")
	}
	if req.Model == "" {
		return "", errors.New("OpenAICompleter: model is empty")
	}

	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if req.System != "" {
		params.Instructions = openai.String(req.System)
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	params.Temperature = openai.Float(req.Temperature)

	resp, err := c.Client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", errors.New("empty model output")
	}
	return text, nil
}

// OpenAIClassifier asks a model for a GoEmotions distribution using structured output.
// It implements poetry.EmotionClassifier.
type OpenAIClassifier struct {
	Client *openai.Client
	Model  string
}

type emotionDistribution struct {
	Scores []emotionScore `json:"scores"`
}

type emotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

var emotionDistributionSchema = emotionSchema()

func (c OpenAIClassifier) Classify(ctx context.Context, text string) ([]poetry.LabelScore, error) {
	if c.Client == nil {
		return nil, errors.New("OpenAIClassifier: client is nil")
	}
	if c.Model == "" {
		return nil, errors.New("OpenAIClassifier: model is empty")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "EmotionDistribution",
			Schema:      emotionDistributionSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Emotion label scores JSON"),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:           c.Model,
		MaxOutputTokens: openai.Int(1500),
		Instructions:    openai.String(emotionClassifierPrompt()),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := c.Client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAIClassifier: %w", err)
	}

	var out emotionDistribution
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("OpenAIClassifier: unmarshal distribution: %w", err)
	}
	return normalizeDistribution(out.Scores), nil
}

// normalizeDistribution keeps known labels only, clamps scores to [0,1] and fills absent
// labels with 0 so every text gets the full label set, in EmotionLabels order.
func normalizeDistribution(scores []emotionScore) []poetry.LabelScore {
	byLabel := make(map[string]float64, len(scores))
	for _, s := range scores {
		label := strings.ToLower(strings.TrimSpace(s.Label))
		if !poetry.IsEmotionLabel(label) {
			continue
		}
		if _, seen := byLabel[label]; seen {
			continue
		}
		byLabel[label] = clamp01(s.Score)
	}
	out := make([]poetry.LabelScore, 0, len(poetry.EmotionLabels))
	for _, label := range poetry.EmotionLabels {
		out = append(out, poetry.LabelScore{Label: label, Score: byLabel[label]})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func emotionClassifierPrompt() string {
	return fmt.Sprintf(emotionClassifierPromptTemplate, strings.Join(poetry.EmotionLabels, ", "))
}

// emotionSchema is the strict structured-output schema for emotionDistribution. Each
// score entry may only name a GoEmotions label.
func emotionSchema() map[string]any {
	schema, err := reflectStrict(emotionDistribution{})
	if err != nil {
		panic(fmt.Sprintf("emotion schema: %v", err))
	}
	scores, _ := schema["properties"].(map[string]any)["scores"].(map[string]any)
	item, _ := scores["items"].(map[string]any)
	props, _ := item["properties"].(map[string]any)
	if label, ok := props["label"].(map[string]any); ok {
		label["enum"] = poetry.EmotionLabels
	}
	return schema
}

// reflectStrict reflects v into a JSON schema map and closes every object in it.
func reflectStrict(v any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	closeObjects(m)
	return m, nil
}

// closeObjects makes every object reject unknown keys and require all of its properties,
// in sorted order, as strict structured output expects.
func closeObjects(node map[string]any) {
	props, hasProps := node["properties"].(map[string]any)
	if t, _ := node["type"].(string); t == "object" {
		node["additionalProperties"] = false
		if hasProps && len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			node["required"] = required
		}
	}
	for _, p := range props {
		if child, ok := p.(map[string]any); ok {
			closeObjects(child)
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		closeObjects(items)
	}
}
