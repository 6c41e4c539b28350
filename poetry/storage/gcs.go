// Package storage provides the object stores that hold poem records and enrichment
// batches: Google Cloud Storage for production runs and a local directory for offline
// runs and tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/fileutils"
)

const jsonContentType = "application/json"

// GCS stores objects in one Cloud Storage bucket.
type GCS struct {
	Client *gcs.Client
	Bucket string
}

// NewGCS opens a client for bucket. An empty credsPath falls back to application
// default credentials.
func NewGCS(ctx context.Context, bucket, credsPath string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("NewGCS: bucket is empty")
	}
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCS: client: %w", err)
	}
	return &GCS{Client: client, Bucket: bucket}, nil
}

func (g *GCS) Close() error {
	if g == nil || g.Client == nil {
		return nil
	}
	return g.Client.Close()
}

func (g *GCS) WriteJSON(ctx context.Context, key string, v any) error {
	b, err := fileutils.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("GCS.WriteJSON: marshal %s: %w", key, err)
	}
	w := g.Client.Bucket(g.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = jsonContentType
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCS.WriteJSON: write gs://%s/%s: %w", g.Bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCS.WriteJSON: close gs://%s/%s: %w", g.Bucket, key, err)
	}
	return nil
}

// List returns the objects under prefix. Folder placeholder objects (names ending in
// "/") are skipped.
func (g *GCS) List(ctx context.Context, prefix string) ([]poetry.ObjectInfo, error) {
	it := g.Client.Bucket(g.Bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	var out []poetry.ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("GCS.List: gs://%s/%s: %w", g.Bucket, prefix, err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		out = append(out, poetry.ObjectInfo{Name: attrs.Name, Updated: attrs.Updated})
	}
	return out, nil
}

func (g *GCS) ReadText(ctx context.Context, key string) (string, error) {
	r, err := g.Client.Bucket(g.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("GCS.ReadText: open gs://%s/%s: %w", g.Bucket, key, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("GCS.ReadText: read gs://%s/%s: %w", g.Bucket, key, err)
	}
	return string(b), nil
}
