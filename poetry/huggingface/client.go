// Package huggingface classifies poem emotions with a hosted GoEmotions model on the
// Hugging Face inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "joeddav/distilbert-base-uncased-go-emotions-student"
)

// Client implements poetry.EmotionClassifier. Zero BaseURL, Model and HTTPClient take
// the defaults above and http.DefaultClient.
type Client struct {
	BaseURL    string
	Model      string
	Token      string
	HTTPClient *http.Client
}

type classifyRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters classifyParams  `json:"parameters"`
	Options    classifyOptions `json:"options"`
}

type classifyParams struct {
	TopK int `json:"top_k"`
}

type classifyOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (c Client) endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(model, "/")
}

// Classify returns every label score the model reports for text.
func (c Client) Classify(ctx context.Context, text string) ([]poetry.LabelScore, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("Client.Classify: text is empty")
	}
	body, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: classifyParams{TopK: len(poetry.EmotionLabels)},
		Options:    classifyOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("Client.Classify: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("Client.Classify: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Client.Classify: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Client.Classify: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Client.Classify: status %d: %s", resp.StatusCode, apiErrorMessage(raw))
	}
	scores, err := decodeScores(raw)
	if err != nil {
		return nil, fmt.Errorf("Client.Classify: %w", err)
	}
	return scores, nil
}

// decodeScores accepts both response shapes of the text-classification task: a list of
// label scores, or that list wrapped once more per input.
func decodeScores(raw []byte) ([]poetry.LabelScore, error) {
	var nested [][]poetry.LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, errors.New("empty classification")
		}
		return nested[0], nil
	}
	var flat []poetry.LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	if len(flat) == 0 {
		return nil, errors.New("empty classification")
	}
	return flat, nil
}

func apiErrorMessage(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}
