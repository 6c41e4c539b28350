// Package gdocs reads poem documents from Google Docs, either live through the Docs API
// or from a saved API JSON export.
package gdocs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

// DefaultScopes grants read access to the document.
var DefaultScopes = []string{docs.DocumentsReadonlyScope}

// APISource fetches documents with the Docs API.
type APISource struct {
	Service *docs.Service
}

// NewAPISource authenticates with the credentials file at credsPath.
func NewAPISource(ctx context.Context, credsPath string, scopes []string) (*APISource, error) {
	if credsPath == "" {
		return nil, errors.New("NewAPISource: credsPath is empty")
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	srv, err := docs.NewService(ctx, option.WithCredentialsFile(credsPath), option.WithScopes(scopes...))
	if err != nil {
		return nil, fmt.Errorf("NewAPISource: docs service: %w", err)
	}
	return &APISource{Service: srv}, nil
}

func (s *APISource) Fetch(ctx context.Context, docID string) ([]poetry.Element, error) {
	if s == nil || s.Service == nil {
		return nil, errors.New("APISource.Fetch: service is nil")
	}
	doc, err := s.Service.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("APISource.Fetch: get %s: %w", docID, err)
	}
	return Elements(doc)
}

// FileSource reads a document previously saved from documents.get.
// The docID argument of Fetch is only checked against the export's documentId when both are set.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context, docID string) ([]poetry.Element, error) {
	if s.Path == "" {
		return nil, errors.New("FileSource.Fetch: path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("FileSource.Fetch: read %s: %w", s.Path, err)
	}
	var doc docs.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("FileSource.Fetch: decode %s: %w", s.Path, err)
	}
	if docID != "" && doc.DocumentId != "" && doc.DocumentId != docID {
		return nil, fmt.Errorf("FileSource.Fetch: %s holds document %q, want %q", s.Path, doc.DocumentId, docID)
	}
	return Elements(&doc)
}

// ErrNoContent means the document has no body content to segment.
var ErrNoContent = errors.New("document has no body content")

// Elements maps the document body to segmenter input. Elements that are not paragraphs
// (tables, section breaks) keep their position with a nil Paragraph.
func Elements(doc *docs.Document) ([]poetry.Element, error) {
	if doc == nil || doc.Body == nil || len(doc.Body.Content) == 0 {
		return nil, ErrNoContent
	}
	out := make([]poetry.Element, 0, len(doc.Body.Content))
	for _, se := range doc.Body.Content {
		if se == nil || se.Paragraph == nil {
			out = append(out, poetry.Element{})
			continue
		}
		out = append(out, poetry.Element{Paragraph: paragraph(se.Paragraph)})
	}
	return out, nil
}

func paragraph(p *docs.Paragraph) *poetry.Paragraph {
	var para poetry.Paragraph
	if p.ParagraphStyle != nil {
		para.Style = p.ParagraphStyle.NamedStyleType
	}
	for _, el := range p.Elements {
		if el == nil || el.TextRun == nil {
			continue
		}
		para.Runs = append(para.Runs, el.TextRun.Content)
	}
	return &para
}
