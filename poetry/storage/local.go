package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/fileutils"
)

// tmpPrefix matches the temp files left by fileutils.WriteFileAtomicSameDir.
const tmpPrefix = ".tmp_object_"

// Local stores objects as files under Root. Keys use "/" separators; the file
// modification time stands in for the object update time.
type Local struct {
	Root string
}

func (l Local) path(key string) (string, error) {
	if l.Root == "" {
		return "", errors.New("root is empty")
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes root", key)
	}
	return filepath.Join(l.Root, clean), nil
}

func (l Local) WriteJSON(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := l.path(key)
	if err != nil {
		return fmt.Errorf("Local.WriteJSON: %w", err)
	}
	if err := fileutils.WriteJSONFileAtomic(p, v, true); err != nil {
		return fmt.Errorf("Local.WriteJSON: %s: %w", key, err)
	}
	return nil
}

// List walks Root and returns the files whose key starts with prefix, sorted by key.
// A missing Root lists as empty.
func (l Local) List(ctx context.Context, prefix string) ([]poetry.ObjectInfo, error) {
	if l.Root == "" {
		return nil, errors.New("Local.List: root is empty")
	}
	var out []poetry.ObjectInfo
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == l.Root {
				return filepath.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		rel, err := filepath.Rel(l.Root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, poetry.ObjectInfo{Name: key, Updated: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Local.List: %s: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l Local) ReadText(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := l.path(key)
	if err != nil {
		return "", fmt.Errorf("Local.ReadText: %w", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("Local.ReadText: %w", err)
	}
	return string(b), nil
}
