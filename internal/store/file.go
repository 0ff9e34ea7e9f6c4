package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileStore keeps key-value pairs in one JSON file guarded by a lock file, so a TUI
// and a server on the same machine never see a partial write.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore returns a store at path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Close is a no-op; the lock is only held during calls.
func (f *FileStore) Close() error {
	return nil
}

// Put replaces the value stored under key.
func (f *FileStore) Put(ctx context.Context, key string, value []byte) error {
	return f.update(ctx, func(entries map[string]json.RawMessage) {
		entries[key] = json.RawMessage(value)
	})
}

// Delete removes key.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	return f.update(ctx, func(entries map[string]json.RawMessage) {
		delete(entries, key)
	})
}

// Get returns the value stored under key, or ErrNoData.
func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.ensureDir(); err != nil {
		return nil, err
	}
	if err := f.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", f.path, err)
	}
	defer func() {
		if uerr := f.lock.Unlock(); uerr != nil {
			// Best-effort unlock.
			_ = uerr
		}
	}()
	entries, err := f.read()
	if err != nil {
		return nil, err
	}
	value, ok := entries[key]
	if !ok {
		return nil, ErrNoData
	}
	return value, nil
}

func (f *FileStore) update(ctx context.Context, fn func(map[string]json.RawMessage)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.ensureDir(); err != nil {
		return err
	}
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", f.path, err)
	}
	defer func() {
		if uerr := f.lock.Unlock(); uerr != nil {
			// Best-effort unlock.
			_ = uerr
		}
	}()
	entries, err := f.read()
	if err != nil && !errors.Is(err, ErrNoData) {
		return err
	}
	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	fn(entries)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	return atomicWrite(f.path, data)
}

// read loads all entries. A missing file is empty; a corrupt one reports ErrNoData and
// is overwritten by the next write.
func (f *FileStore) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("malformed store file %s: %v: %w", f.path, err, ErrNoData)
	}
	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	return entries, nil
}

func (f *FileStore) ensureDir() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// atomicWrite writes through a temp file and rename so readers never see partial data.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	removeTemp := func() {
		if rerr := os.Remove(tmpPath); rerr != nil {
			// Best-effort cleanup on error.
			_ = rerr
		}
	}
	cleanup := func() {
		if cerr := tmp.Close(); cerr != nil {
			// Best-effort close on error.
			_ = cerr
		}
		removeTemp()
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeTemp()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		removeTemp()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		removeTemp()
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
