package poetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore is an in-memory ObjectStore. Each write bumps a logical clock so the last
// write is the most recently updated object.
type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	updated map[string]time.Time
	clock   time.Time

	failWrite string
}

func newMemStore() *memStore {
	return &memStore{
		objects: map[string]string{},
		updated: map[string]time.Time{},
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) WriteJSON(_ context.Context, key string, v any) error {
	if m.failWrite != "" && strings.HasPrefix(key, m.failWrite) {
		return errors.New("write refused")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Second)
	m.objects[key] = string(b)
	m.updated[key] = m.clock
	return nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Name: k, Updated: m.updated[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ReadText(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.objects[key]
	if !ok {
		return "", fmt.Errorf("%s: not found", key)
	}
	return s, nil
}

// mapClassifier returns a fixed distribution per text.
type mapClassifier struct {
	byText map[string][]LabelScore
	calls  []string
	err    error
}

func (c *mapClassifier) Classify(_ context.Context, text string) ([]LabelScore, error) {
	c.calls = append(c.calls, text)
	if c.err != nil {
		return nil, c.err
	}
	return c.byText[text], nil
}

// scriptedCompleter answers prompts in call order.
type scriptedCompleter struct {
	answers []string
	reqs    []CompletionRequest
}

func (c *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) string {
	c.reqs = append(c.reqs, req)
	if len(c.answers) == 0 {
		return ""
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a
}

// sliceSource serves a fixed element list.
type sliceSource struct {
	elements []Element
	err      error
}

func (s sliceSource) Fetch(context.Context, string) ([]Element, error) {
	return s.elements, s.err
}

func fixedLanguage(code string) LanguageDetector {
	return LanguageDetectorFunc(func(string) string { return code })
}

func heading(text string) Element {
	return Element{Paragraph: &Paragraph{Style: StyleHeading, Runs: []string{text}}}
}

func body(runs ...string) Element {
	return Element{Paragraph: &Paragraph{Style: StyleBody, Runs: runs}}
}
