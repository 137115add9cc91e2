package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps one JSON file per student in a directory, newest
// maxEntries records per student.
type FileStore struct {
	dir        string
	maxEntries int
	mu         sync.Mutex
}

// NewFileStore creates dir if needed. A non-positive maxEntries uses the same
// default as the redis store.
func NewFileStore(dir string, maxEntries int) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("history dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &FileStore{dir: dir, maxEntries: maxEntries}, nil
}

// path escapes the id so distinct ids never share a file.
func (s *FileStore) path(studentID string) string {
	return filepath.Join(s.dir, url.PathEscape(studentID)+".json")
}

func (s *FileStore) read(studentID string) ([]*Record, error) {
	data, err := os.ReadFile(s.path(studentID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", s.path(studentID), err)
	}
	return records, nil
}

func (s *FileStore) Save(ctx context.Context, r *Record) error {
	if err := r.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(r.StudentID)
	if err != nil {
		return err
	}
	records = append(records, r)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AnalyzedAt.After(records[j].AnalyzedAt)
	})
	if len(records) > s.maxEntries {
		records = records[:s.maxEntries]
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	tmp := s.path(r.StudentID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return os.Rename(tmp, s.path(r.StudentID))
}

func (s *FileStore) Latest(ctx context.Context, studentID string, n int) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(studentID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

func (s *FileStore) Close() error { return nil }
