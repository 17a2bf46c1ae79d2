package postcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// DefaultFileName is the JSON file holding announced ids inside the cache directory.
const DefaultFileName = "ranked_posted.json"

// FileBackend stores the id set as a JSON array in a single file.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a backend rooted at dir/ranked_posted.json. A relative
// dir is resolved against the working directory.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Path: filepath.Join(dir, DefaultFileName)}
}

// ensure creates the cache directory and an empty array file when absent.
func (b *FileBackend) ensure() error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if _, err := os.Stat(b.Path); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(b.Path, []byte("[]"), 0o644); err != nil { //nolint:gosec // G306: cache file holds public match ids
			return fmt.Errorf("init cache file: %w", err)
		}
	}
	return nil
}

// Load reads the id array. Entries may be strings or numbers; anything else is ignored.
func (b *FileBackend) Load(ctx context.Context) ([]string, error) {
	if err := b.ensure(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var entries []any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", b.Path, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			ids = append(ids, v)
		case json.Number:
			ids = append(ids, v.String())
		}
	}
	return ids, nil
}

// Save overwrites the file with ids. The write goes through a temp file and a
// rename so a crash mid-write leaves the previous contents intact.
func (b *FileBackend) Save(ctx context.Context, ids []string) error {
	if err := b.ensure(); err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.Path), ".ranked_posted-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, b.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
