// Package cache provides the persistent response cache and an in-memory
// memo of normalized bodies.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/usestring/pairdiff/pkg/types"
)

var (
	// ErrCorrupt means the cache file exists but does not hold cache data.
	ErrCorrupt = errors.New("cache file is corrupt")
	// ErrClosed means the store was already persisted and closed.
	ErrClosed = errors.New("cache store is closed")
)

// Store is a URL-keyed map of normalized responses backed by a JSON file.
//
// The file is read once by Load and written once, when the last owner calls
// Close. The mutex guards only map access; callers never hold it across
// network I/O.
type Store struct {
	mu      sync.Mutex
	entries map[string]types.FetchedResponse
	path    string
	owners  int
	closed  bool
}

// Load reads the cache file at path, creating its directory if needed.
// A missing file is written as an empty object and yields an empty store.
// A zero-length file also yields an empty store. Any other content that is
// not a JSON object of responses fails with ErrCorrupt.
func Load(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	s := &Store{
		entries: make(map[string]types.FetchedResponse),
		path:    path,
		owners:  1,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeFileAtomic(path, []byte("{}\n")); err != nil {
			return nil, fmt.Errorf("creating cache file: %w", err)
		}
		slog.Info("cache created", slog.String("path", path))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		slog.Info("cache loaded", slog.String("path", path), slog.Int("entries", 0))
		return s, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: %s: expected a JSON object", ErrCorrupt, path)
	}
	if err := json.Unmarshal(trimmed, &s.entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	slog.Info("cache loaded", slog.String("path", path), slog.Int("entries", len(s.entries)))
	return s, nil
}

// Remove deletes the cache file at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the cached response for url.
func (s *Store) Lookup(url string) (types.FetchedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[url]
	return r, ok
}

// Insert stores resp under url, replacing any previous entry.
// Inserts after Close are dropped.
func (s *Store) Insert(url string, resp types.FetchedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		slog.Warn("cache insert after close ignored", slog.String("url", url))
		return
	}
	s.entries[url] = resp
}

// Len returns the number of cached responses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot returns a copy of all entries.
func (s *Store) Snapshot() map[string]types.FetchedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.entries)
}

// Share registers another owner and returns the same store. Every owner
// must call Close; only the last one persists.
func (s *Store) Share() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.owners++
	}
	return s
}

// Close releases one owner. The last owner writes the full map to disk
// (temp file + rename) and closes the store. Closing a closed store
// returns ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.owners--
	if s.owners > 0 {
		slog.Debug("cache handle released", slog.String("path", s.path), slog.Int("owners", s.owners))
		return nil
	}
	s.closed = true

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := writeFileAtomic(s.path, append(data, '\n')); err != nil {
		return fmt.Errorf("persisting cache: %w", err)
	}

	slog.Info("cache persisted", slog.String("path", s.path), slog.Int("entries", len(s.entries)))
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
