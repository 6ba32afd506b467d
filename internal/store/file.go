package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/evertrade/vendorgate/internal/errors"
)

// FileKV is a KV backed by a single JSON file.
//
// The whole map is rewritten on every Set/Delete. Session snapshots are a
// handful of small strings, so the simplicity wins over anything clever.
type FileKV struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFile opens (or creates) a file-backed store at path.
func OpenFile(path string) (*FileKV, error) {
	kv := &FileKV{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreOpenFailed, "cannot read store file", err)
	}

	if err := json.Unmarshal(raw, &kv.data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreOpenFailed, "store file is corrupt", err)
	}

	return kv, nil
}

// Get returns the value for key and whether it was present
func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	v, ok := kv.data[key]
	return v, ok, nil
}

// Set writes key to value and flushes the file
func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.data[key] = value
	return kv.flush()
}

// Delete removes key and flushes the file
func (kv *FileKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if _, ok := kv.data[key]; !ok {
		return nil
	}
	delete(kv.data, key)
	return kv.flush()
}

// Close is a no-op for the file backend
func (kv *FileKV) Close() error {
	return nil
}

func (kv *FileKV) flush() error {
	raw, err := json.MarshalIndent(kv.data, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "cannot encode store file", err)
	}

	if err := os.MkdirAll(filepath.Dir(kv.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "cannot create store directory", err)
	}

	// Snapshots carry session markers, keep them private to the user.
	if err := os.WriteFile(kv.path, raw, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "cannot write store file", err)
	}

	return nil
}
