package runstore

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/cookgems/pkg/errors"
)

// FileStore keeps one JSON file per run in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a store in dir. The directory will be created if it
// doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "history directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the history directory.
func (s *FileStore) Dir() string { return s.dir }

// Save writes r to <dir>/<id>.json, replacing any previous version.
func (s *FileStore) Save(ctx context.Context, r *Run) error {
	if err := validID(r.ID); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode run %s", r.ID)
	}
	data := buf.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never see a partial file.
	tmp := s.path(r.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write run %s", r.ID)
	}
	if err := os.Rename(tmp, s.path(r.ID)); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "write run %s", r.ID)
	}
	return nil
}

// Get reads the run with id.
func (s *FileStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(id), id)
}

// List returns up to limit runs, newest first. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read history directory")
	}

	var runs []*Run
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		r, err := s.read(filepath.Join(s.dir, name), id)
		if err != nil {
			continue
		}
		runs = append(runs, r)
	}

	sortNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close does nothing for a file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(path, id string) (*Run, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read run %s", id)
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode run %s", id)
	}
	return &r, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// validID rejects IDs that would escape the store directory.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return errors.New(errors.ErrCodeInvalidInput, "invalid run id %q", id)
	}
	return nil
}

func sortNewestFirst(runs []*Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
}

var _ Store = (*FileStore)(nil)
