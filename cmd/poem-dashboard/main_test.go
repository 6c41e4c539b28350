package main

import (
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/settings"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/storage"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/votes"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("poem-dashboard", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-addr", "127.0.0.1:9000",
		"-store", "local",
		"-local-dir", "out/objects/",
		"-votes", "sqlite",
		"-sqlite-path", "data//votes.db",
		"-shutdown-timeout", "2s",
	}, settings.Settings{Bucket: "poems"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.Store != storeLocal || cfg.Votes != votesSQLite {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.SQLitePath != filepath.FromSlash("data/votes.db") {
		t.Fatalf("SQLitePath=%q", cfg.SQLitePath)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("ShutdownTimeout=%v", cfg.ShutdownTimeout)
	}
	if cfg.Bucket != "poems" {
		t.Fatalf("Bucket=%q", cfg.Bucket)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	base := defaultConfig(settings.Settings{Bucket: "poems"})
	if err := base.Validate(); err != nil {
		t.Fatalf("base Validate: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no addr", func(c *Config) { c.Addr = "" }, "-addr"},
		{"no bucket", func(c *Config) { c.Bucket = "" }, "-bucket"},
		{"bad store", func(c *Config) { c.Store = "ftp" }, "-store"},
		{"bad votes", func(c *Config) { c.Votes = "paper" }, "-votes"},
		{"sqlite without path", func(c *Config) { c.Votes = votesSQLite; c.SQLitePath = "" }, "-sqlite-path"},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%v want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestBuildVotes_SQLiteAndNone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := defaultConfig(settings.Settings{})
	cfg.Votes = votesSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "votes.db")

	vs, closeVotes, err := buildVotes(ctx, cfg)
	if err != nil {
		t.Fatalf("buildVotes: %v", err)
	}
	s, ok := vs.(*votes.SQLite)
	if !ok {
		t.Fatalf("votes=%T", vs)
	}
	if err := s.AppendVote(ctx, poetry.Vote{Selections: []string{"Rain"}, Timestamp: time.Now()}); err != nil {
		t.Fatalf("AppendVote: %v", err)
	}
	if err := closeVotes(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.Votes = votesNone
	vs, closeVotes, err = buildVotes(ctx, cfg)
	if err != nil || vs != nil {
		t.Fatalf("votes=%v err=%v", vs, err)
	}
	if err := closeVotes(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBuildStore_Local(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(settings.Settings{})
	cfg.Store = storeLocal
	cfg.LocalDir = t.TempDir()
	st, closeStore, err := buildStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildStore: %v", err)
	}
	defer closeStore()
	if l, ok := st.(storage.Local); !ok || l.Root != cfg.LocalDir {
		t.Fatalf("store=%#v", st)
	}
}
