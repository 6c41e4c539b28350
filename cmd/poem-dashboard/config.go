package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry/settings"
)

const (
	storeGCS   = "gcs"
	storeLocal = "local"

	votesFirestore = "firestore"
	votesSQLite    = "sqlite"
	votesNone      = "none"
)

type Config struct {
	Addr string

	Store          string
	Bucket         string
	CloudCredsPath string
	LocalDir       string

	Votes            string
	FirestoreProject string
	SQLitePath       string

	DisplayConfig   string
	ShutdownTimeout time.Duration
	LogLevel        string
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("missing -addr")
	}
	switch c.Store {
	case storeGCS:
		if c.Bucket == "" {
			return errors.New("missing -bucket (or GCS_BUCKET)")
		}
	case storeLocal:
		if c.LocalDir == "" {
			return errors.New("missing -local-dir")
		}
	default:
		return fmt.Errorf("invalid -store %q (want %s or %s)", c.Store, storeGCS, storeLocal)
	}
	switch c.Votes {
	case votesFirestore, votesNone:
	case votesSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing -sqlite-path")
		}
	default:
		return fmt.Errorf("invalid -votes %q (want %s, %s or %s)", c.Votes, votesFirestore, votesSQLite, votesNone)
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown-timeout must be >= 0")
	}
	return nil
}

func defaultConfig(s settings.Settings) Config {
	return Config{
		Addr:             ":8080",
		Store:            storeGCS,
		Bucket:           s.Bucket,
		CloudCredsPath:   s.CloudCredsPath,
		LocalDir:         filepath.FromSlash("out/objects"),
		Votes:            votesFirestore,
		FirestoreProject: s.FirestoreProject,
		SQLitePath:       filepath.FromSlash("data/votes.db"),
		ShutdownTimeout:  5 * time.Second,
		LogLevel:         "info",
	}
}
