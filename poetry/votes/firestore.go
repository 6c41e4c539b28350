// Package votes persists reader votes, to Firestore in production and to a local SQLite
// file otherwise.
package votes

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

// DefaultCollection is the Firestore collection votes are added to.
const DefaultCollection = "votes"

// Firestore appends each vote as a new document {timestamp, votes}.
type Firestore struct {
	Client     *firestore.Client
	Collection string
}

// NewFirestore connects to projectID, or to the project detected from the environment
// when projectID is empty.
func NewFirestore(ctx context.Context, projectID, credsPath string) (*Firestore, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewFirestore: client: %w", err)
	}
	return &Firestore{Client: client, Collection: DefaultCollection}, nil
}

func (f *Firestore) AppendVote(ctx context.Context, v poetry.Vote) error {
	if f == nil || f.Client == nil {
		return errors.New("Firestore.AppendVote: client is nil")
	}
	coll := f.Collection
	if coll == "" {
		coll = DefaultCollection
	}
	_, _, err := f.Client.Collection(coll).Add(ctx, map[string]any{
		"timestamp": v.Timestamp.UTC(),
		"votes":     v.Selections,
	})
	if err != nil {
		return fmt.Errorf("Firestore.AppendVote: %w", err)
	}
	return nil
}

func (f *Firestore) Close() error {
	if f == nil || f.Client == nil {
		return nil
	}
	return f.Client.Close()
}
