package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quiz-drill/internal/domain"
)

// FileRecordStore persists all records in one JSON object on local disk,
// the single-user counterpart of a browser's local storage.
// Every write rewrites the file through a temp file and a rename.
type FileRecordStore struct {
	mu   sync.Mutex
	path string
	// readFile is os.ReadFile; replaced in tests.
	readFile func(name string) ([]byte, error)
}

// errCorruptFile marks a storage file that was read but could not be parsed.
var errCorruptFile = errors.New("corrupt storage file")

// NewFileRecordStore creates the parent directory of path if needed.
func NewFileRecordStore(path string) (*FileRecordStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return &FileRecordStore{path: path, readFile: os.ReadFile}, nil
}

func (f *FileRecordStore) load() (map[string]string, error) {
	data, err := f.readFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read storage file %s: %w", f.path, err)
	}
	records := map[string]string{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse storage file %s: %w: %w", f.path, errCorruptFile, err)
	}
	return records, nil
}

func (f *FileRecordStore) save(records map[string]string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".records-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp storage file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp storage file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace storage file %s: %w", f.path, err)
	}
	return nil
}

func (f *FileRecordStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.load()
	if err != nil {
		return "", err
	}
	val, ok := records[key]
	if !ok {
		return "", domain.ErrRecordNotFound
	}
	return val, nil
}

// loadForWrite is load, except that a corrupt file starts over empty rather
// than blocking every later write. Read failures are returned.
func (f *FileRecordStore) loadForWrite() (map[string]string, error) {
	records, err := f.load()
	if errors.Is(err, errCorruptFile) {
		return map[string]string{}, nil
	}
	return records, err
}

// Set overwrites one record.
func (f *FileRecordStore) Set(_ context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.loadForWrite()
	if err != nil {
		return err
	}
	records[key] = value
	return f.save(records)
}

func (f *FileRecordStore) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.loadForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(records, k)
	}
	return f.save(records)
}

// Ping verifies the storage directory is writable.
func (f *FileRecordStore) Ping(context.Context) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ping-*")
	if err != nil {
		return fmt.Errorf("storage directory is not writable: %w", err)
	}
	tmp.Close()
	return os.Remove(tmp.Name())
}
