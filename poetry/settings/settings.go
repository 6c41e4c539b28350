// Package settings reads the environment configuration shared by the CLIs.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Settings is the environment configuration. Flags in each command override it.
type Settings struct {
	DocID            string
	Bucket           string
	DocsCredsPath    string
	CloudCredsPath   string
	DocScopes        []string
	OpenAIAPIKey     string
	HFToken          string
	FirestoreProject string
	LLMModel         string
	EmotionModel     string
}

const (
	defaultDocsCredsPath  = "secrets/credentials.json"
	defaultCloudCredsPath = "secrets/service_account.json"
)

// Load reads the optional env files (".env" when none are given) and then the process
// environment, which takes precedence. Missing env files are not an error.
// The process environment is not modified.
func Load(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	fileVals := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Settings{}, fmt.Errorf("settings.Load: %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := fileVals[k]; !ok {
				fileVals[k] = v
			}
		}
	}
	return FromLookup(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileVals[key]
	}), nil
}

// FromLookup builds Settings from a key lookup, applying defaults for empty values.
func FromLookup(lookup func(string) string) Settings {
	get := func(key, def string) string {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
		return def
	}
	return Settings{
		DocID:            get("GOOGLE_DOC_ID", ""),
		Bucket:           get("GCS_BUCKET", ""),
		DocsCredsPath:    get("GOOGLE_CREDS_PATH", defaultDocsCredsPath),
		CloudCredsPath:   get("GOOGLE_CLOUD_CREDS_PATH", defaultCloudCredsPath),
		DocScopes:        splitList(get("GOOGLE_DOC_SCOPES", "")),
		OpenAIAPIKey:     get("OPENAI_API_KEY", ""),
		HFToken:          get("HF_API_TOKEN", ""),
		FirestoreProject: get("FIRESTORE_PROJECT", ""),
		LLMModel:         get("LLM_MODEL", ""),
		EmotionModel:     get("EMOTION_MODEL", ""),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
