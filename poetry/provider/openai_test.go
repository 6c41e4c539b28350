package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

func newTestClient(baseURL string) *openai.Client {
	c := openai.NewClient(
		option.WithBaseURL(baseURL+"/"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &c
}

// responseServer answers every request with a completed response whose output text is text.
func responseServer(t *testing.T, text string) (*httptest.Server, func() map[string]any) {
	t.Helper()

	var mu sync.Mutex
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		last = body
		mu.Unlock()

		resp := map[string]any{
			"id":         "resp_1",
			"object":     "response",
			"created_at": 1700000000,
			"status":     "completed",
			"model":      "gpt-4",
			"output": []any{map[string]any{
				"type":   "message",
				"id":     "msg_1",
				"status": "completed",
				"role":   "assistant",
				"content": []any{map[string]any{
					"type":        "output_text",
					"text":        text,
					"annotations": []any{},
				}},
			}},
			"parallel_tool_calls": false,
			"tool_choice":         "auto",
			"tools":               []any{},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, func() map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestOpenAICompleter_Success(t *testing.T) {
	t.Parallel()

	srv, lastBody := responseServer(t, "  grouped poems \n")
	c := OpenAICompleter{Client: newTestClient(srv.URL)}
	got := c.Complete(context.Background(), poetry.CompletionRequest{
		Model:       "gpt-4",
		System:      "You are a thoughtful literary critic.",
		Prompt:      "group these",
		MaxTokens:   1500,
		Temperature: 0.7,
	})
	if got != "grouped poems" {
		t.Fatalf("Complete=%q", got)
	}

	body := lastBody()
	if body["model"] != "gpt-4" || body["instructions"] != "You are a thoughtful literary critic." {
		t.Fatalf("body=%v", body)
	}
	if body["max_output_tokens"] != float64(1500) || body["temperature"] != 0.7 {
		t.Fatalf("max_output_tokens=%v temperature=%v", body["max_output_tokens"], body["temperature"])
	}
}

func TestOpenAICompleter_SendsZeroTemperature(t *testing.T) {
	t.Parallel()

	srv, lastBody := responseServer(t, "ok")
	c := OpenAICompleter{Client: newTestClient(srv.URL)}
	if got := c.Complete(context.Background(), poetry.CompletionRequest{Model: "gpt-4", Prompt: "p", Temperature: 0}); got != "ok" {
		t.Fatalf("Complete=%q", got)
	}
	v, ok := lastBody()["temperature"]
	if !ok || v != float64(0) {
		t.Fatalf("temperature=%v present=%v", v, ok)
	}
}

func TestOpenAICompleter_TransportErrorBecomesMarker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := OpenAICompleter{Client: newTestClient(url)}
	got := c.Complete(context.Background(), poetry.CompletionRequest{Model: "gpt-4", Prompt: "p"})
	if !strings.HasPrefix(got, poetry.ErrorMarker) {
		t.Fatalf("Complete=%q want %q prefix", got, poetry.ErrorMarker)
	}
}

func TestOpenAICompleter_ServerErrorAndEmptyOutput(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer failing.Close()

	c := OpenAICompleter{Client: newTestClient(failing.URL)}
	if got := c.Complete(context.Background(), poetry.CompletionRequest{Model: "gpt-4", Prompt: "p"}); !poetry.IsErrorText(got) {
		t.Fatalf("Complete=%q", got)
	}

	empty, _ := responseServer(t, "   ")
	c = OpenAICompleter{Client: newTestClient(empty.URL)}
	if got := c.Complete(context.Background(), poetry.CompletionRequest{Model: "gpt-4", Prompt: "p"}); got != "[Error]: empty model output" {
		t.Fatalf("Complete=%q", got)
	}
}

func TestOpenAICompleter_Guards(t *testing.T) {
	t.Parallel()

	if got := (OpenAICompleter{}).Complete(context.Background(), poetry.CompletionRequest{Model: "m"}); !poetry.IsErrorText(got) {
		t.Fatalf("nil client: %q", got)
	}
	c := OpenAICompleter{Client: newTestClient("http://127.0.0.1:1")}
	if got := c.Complete(context.Background(), poetry.CompletionRequest{}); got != "[Error]: OpenAICompleter: model is empty" {
		t.Fatalf("no model: %q", got)
	}
}

func TestOpenAIClassifier_NormalizesDistribution(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(map[string]any{"scores": []map[string]any{
		{"label": "grief", "score": 1.4},
		{"label": " Love ", "score": 0.3},
		{"label": "bogus", "score": 0.9},
		{"label": "fear", "score": -0.2},
		{"label": "grief", "score": 0.1},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	srv, lastBody := responseServer(t, "```json\n"+string(out)+"\n```")

	c := OpenAIClassifier{Client: newTestClient(srv.URL), Model: "gpt-4o-mini"}
	scores, err := c.Classify(context.Background(), "the room is empty")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(scores) != len(poetry.EmotionLabels) {
		t.Fatalf("len=%d want %d", len(scores), len(poetry.EmotionLabels))
	}
	byLabel := map[string]float64{}
	for i, s := range scores {
		if s.Label != poetry.EmotionLabels[i] {
			t.Fatalf("scores[%d].Label=%q want %q", i, s.Label, poetry.EmotionLabels[i])
		}
		byLabel[s.Label] = s.Score
	}
	if byLabel["grief"] != 1 || byLabel["love"] != 0.3 || byLabel["fear"] != 0 || byLabel["joy"] != 0 {
		t.Fatalf("byLabel=%v", byLabel)
	}

	body := lastBody()
	text, _ := body["text"].(map[string]any)
	format, _ := text["format"].(map[string]any)
	if format["type"] != "json_schema" || format["name"] != "EmotionDistribution" {
		t.Fatalf("text.format=%v", format)
	}
	if !strings.Contains(body["instructions"].(string), "admiration, amusement") {
		t.Fatalf("instructions=%q", body["instructions"])
	}
}

func TestOpenAIClassifier_Errors(t *testing.T) {
	t.Parallel()

	if _, err := (OpenAIClassifier{}).Classify(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	srv, _ := responseServer(t, "no json here")
	c := OpenAIClassifier{Client: newTestClient(srv.URL), Model: "m"}
	if _, err := c.Classify(context.Background(), "x"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEmotionSchema_StrictObjects(t *testing.T) {
	t.Parallel()

	schema := emotionSchema()
	if schema["type"] != "object" || schema["additionalProperties"] != false {
		t.Fatalf("schema=%v", schema)
	}
	req, _ := schema["required"].([]string)
	if len(req) != 1 || req[0] != "scores" {
		t.Fatalf("required=%v", schema["required"])
	}
	props := schema["properties"].(map[string]any)
	scores := props["scores"].(map[string]any)
	items := scores["items"].(map[string]any)
	if items["additionalProperties"] != false {
		t.Fatalf("items=%v", items)
	}
	itemReq, _ := items["required"].([]string)
	if len(itemReq) != 2 || itemReq[0] != "label" || itemReq[1] != "score" {
		t.Fatalf("items.required=%v", items["required"])
	}
	label := items["properties"].(map[string]any)["label"].(map[string]any)
	enum, _ := label["enum"].([]string)
	if len(enum) != len(poetry.EmotionLabels) || enum[0] != "admiration" {
		t.Fatalf("label.enum=%v", label["enum"])
	}
}
