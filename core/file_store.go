package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore is a Memory backed by a single JSON document on local disk.
// Every mutation rewrites the document through a temp file and rename, so a
// crash leaves either the old or the new snapshot, never a torn write.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]fileEntry
	logger  Logger
	now     func() time.Time
	closed  bool
}

type fileEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// NewFileStore opens (or creates) the session document at path.
// A document that cannot be decoded is moved aside to path+".corrupt" and
// the store starts empty.
func NewFileStore(path string, logger Logger) (*FileStore, error) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	if path == "" {
		return nil, fmt.Errorf("file store path is required: %w", ErrMissingConfiguration)
	}

	fs := &FileStore{
		path:    path,
		entries: make(map[string]fileEntry),
		logger:  logger,
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("Session file not found, starting empty", map[string]interface{}{"path": path})
	case err != nil:
		return nil, &FrameworkError{Op: "memory.Open", Kind: "memory", ID: path, Err: fmt.Errorf("%v: %w", err, ErrStoreUnavailable)}
	case len(data) > 0:
		if err := json.Unmarshal(data, &fs.entries); err != nil {
			if qerr := fs.quarantine(err); qerr != nil {
				return nil, qerr
			}
		}
	}

	return fs, nil
}

// CorruptSuffix is appended to the name of a session document that could not
// be decoded.
const CorruptSuffix = ".corrupt"

func (f *FileStore) quarantine(decodeErr error) error {
	f.entries = make(map[string]fileEntry)
	aside := f.path + CorruptSuffix
	if err := os.Rename(f.path, aside); err != nil {
		return &FrameworkError{Op: "memory.Open", Kind: "memory", ID: f.path, Err: fmt.Errorf("%v: %w", decodeErr, ErrCorruptSnapshot)}
	}
	f.logger.Warn("Session file is corrupt, moved aside and starting empty", map[string]interface{}{
		"path":  f.path,
		"moved": aside,
		"error": decodeErr.Error(),
	})
	return nil
}

// Get retrieves a value from the document
func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", &FrameworkError{Op: "memory.Get", Kind: "memory", ID: key, Err: ErrStoreClosed}
	}
	entry, ok := f.entries[key]
	if !ok || f.isExpired(entry) {
		return "", nil
	}
	return entry.Value, nil
}

// Set stores a value and flushes the document to disk
func (f *FileStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return &FrameworkError{Op: "memory.Set", Kind: "memory", ID: key, Err: ErrStoreClosed}
	}

	prev, hadPrev := f.entries[key]
	entry := fileEntry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = f.now().Add(ttl)
	}
	f.entries[key] = entry

	if err := f.flush(); err != nil {
		if hadPrev {
			f.entries[key] = prev
		} else {
			delete(f.entries, key)
		}
		return &FrameworkError{Op: "memory.Set", Kind: "memory", ID: key, Err: err}
	}
	return nil
}

// Delete removes a value and flushes the document to disk
func (f *FileStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return &FrameworkError{Op: "memory.Delete", Kind: "memory", ID: key, Err: ErrStoreClosed}
	}

	prev, ok := f.entries[key]
	if !ok {
		return nil
	}
	delete(f.entries, key)
	if err := f.flush(); err != nil {
		f.entries[key] = prev
		return &FrameworkError{Op: "memory.Delete", Kind: "memory", ID: key, Err: err}
	}
	return nil
}

// Exists checks if a live key is present
func (f *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, &FrameworkError{Op: "memory.Exists", Kind: "memory", ID: key, Err: ErrStoreClosed}
	}
	entry, ok := f.entries[key]
	return ok && !f.isExpired(entry), nil
}

// Close marks the store closed. Later calls fail with ErrStoreClosed.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileStore) isExpired(e fileEntry) bool {
	return !e.ExpiresAt.IsZero() && f.now().After(e.ExpiresAt)
}

// flush must be called with f.mu held.
func (f *FileStore) flush() error {
	live := make(map[string]fileEntry, len(f.entries))
	for k, e := range f.entries {
		if !f.isExpired(e) {
			live[k] = e
		}
	}

	data, err := json.MarshalIndent(live, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
	}

	f.logger.Debug("Session file flushed", map[string]interface{}{
		"path":    f.path,
		"entries": len(live),
	})
	return nil
}
