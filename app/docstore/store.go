package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/grenlandlive/sportsync/app/event"
)

// Store persists canonical schedule documents as pretty-printed JSON files.
// Writes are atomic (temp file plus rename) and serialized per path, so
// concurrent targets sharing a directory cannot interleave.
type Store struct {
	fs afero.Fs

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// CommitResult describes what a Commit actually did to the file.
type CommitResult struct {
	Written      bool
	KeptExisting bool
	Items        int
}

func New(fs afero.Fs) *Store {
	return &Store{fs: fs, locks: map[string]*sync.Mutex{}}
}

// Read loads a previously committed document. A missing file is an error;
// callers that tolerate absence check with afero.Exists first or ignore it.
func (s *Store) Read(path string) (*event.Document, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc event.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	return &doc, nil
}

// ReadJSON loads any JSON file into v, for projection files and other
// non-canonical outputs.
func (s *Store) ReadJSON(path string, v any) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Commit writes doc to path. An empty document never overwrites a non-empty
// one on disk: a source outage should not wipe a published schedule. When
// the serialized content is byte-identical to what is already there the
// write is skipped, keeping file mtimes meaningful for diff-based tooling.
func (s *Store) Commit(path string, doc *event.Document) (CommitResult, error) {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if len(doc.Items) == 0 {
		if prev, err := s.Read(path); err == nil && len(prev.Items) > 0 {
			slog.Warn("Refusing to overwrite non-empty document with empty result",
				"path", path, "existing_items", len(prev.Items))
			return CommitResult{KeptExisting: true, Items: len(prev.Items)}, nil
		}
	}

	data, err := marshalPretty(doc)
	if err != nil {
		return CommitResult{}, fmt.Errorf("failed to serialize document: %w", err)
	}

	if prev, err := afero.ReadFile(s.fs, path); err == nil && bytes.Equal(prev, data) {
		return CommitResult{Items: len(doc.Items)}, nil
	}

	if err := s.writeAtomic(path, data); err != nil {
		return CommitResult{}, err
	}
	return CommitResult{Written: true, Items: len(doc.Items)}, nil
}

// WriteFile atomically writes any value as pretty JSON, for the run report
// and legacy projections.
func (s *Store) WriteFile(path string, v any) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := marshalPretty(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	return s.writeAtomic(path, data)
}

func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}

func marshalPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
