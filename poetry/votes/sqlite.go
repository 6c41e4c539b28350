package votes

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

// SQLite keeps votes in a single table keyed by ULID, so ids sort in insertion order.
type SQLite struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// OpenSQLite opens (or creates) the vote database at path with WAL enabled.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("OpenSQLite: path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("OpenSQLite: %s: %w", pragma, err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLite: schema: %w", err)
	}

	return &SQLite{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS votes (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	selections TEXT NOT NULL
);`)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLite) AppendVote(ctx context.Context, v poetry.Vote) error {
	ts := v.Timestamp.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	sel, err := json.Marshal(v.Selections)
	if err != nil {
		return fmt.Errorf("SQLite.AppendVote: marshal selections: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO votes (id, created_at, selections) VALUES (?, ?, ?)`,
		s.newID(ts), ts.Format(time.RFC3339Nano), string(sel))
	if err != nil {
		return fmt.Errorf("SQLite.AppendVote: insert: %w", err)
	}
	return nil
}

// Count returns the number of stored votes.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("SQLite.Count: %w", err)
	}
	return n, nil
}

// Votes returns every vote in insertion order.
func (s *SQLite) Votes(ctx context.Context) ([]poetry.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT created_at, selections FROM votes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("SQLite.Votes: %w", err)
	}
	defer rows.Close()

	var out []poetry.Vote
	for rows.Next() {
		var createdAt, sel string
		if err := rows.Scan(&createdAt, &sel); err != nil {
			return nil, fmt.Errorf("SQLite.Votes: scan: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("SQLite.Votes: created_at %q: %w", createdAt, err)
		}
		var v poetry.Vote
		if err := json.Unmarshal([]byte(sel), &v.Selections); err != nil {
			return nil, fmt.Errorf("SQLite.Votes: selections: %w", err)
		}
		v.Timestamp = ts
		out = append(out, v)
	}
	return out, rows.Err()
}
