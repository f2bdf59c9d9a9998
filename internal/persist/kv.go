// Package persist keeps the store's AppState in a local key-value store and
// restores it on startup.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"focusboard/internal/fsutil"
)

// ErrNoValue is returned by KV.Get when nothing is stored under the key.
var ErrNoValue = errors.New("no value stored")

// KV is the minimal key-value contract the Persister needs.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

const (
	dataDirPerm  os.FileMode = 0o700
	dataFilePerm os.FileMode = 0o600
)

// FileKV stores each key as <dir>/<key>.json. Writes are atomic and keep a
// .bak copy of the previous value; reads fall back to the .bak copy when the
// primary file is empty or not valid JSON, and move the broken file aside.
type FileKV struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

// FileKVOption configures a FileKV.
type FileKVOption func(*FileKV)

// WithKVLogger sets where recovery warnings are written.
func WithKVLogger(l *log.Logger) FileKVOption {
	return func(f *FileKV) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFileKV creates dir if needed and returns a FileKV rooted there.
func NewFileKV(dir string, opts ...FileKVOption) (*FileKV, error) {
	if err := os.MkdirAll(dir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	f := &FileKV{dir: dir, logger: log.New(io.Discard, "", 0), now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Dir returns the directory holding the files.
func (f *FileKV) Dir() string {
	return f.dir
}

// Path returns the file that backs key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

func validJSON(data []byte) error {
	if !json.Valid(data) {
		return errors.New("not valid JSON")
	}
	return nil
}

// Get returns the stored bytes for key.
func (f *FileKV) Get(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	path := f.Path(key)
	data, rec, err := fsutil.ReadRecover(path, validJSON, f.now())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoValue
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if rec.Cause == nil {
		return data, nil
	}

	if rec.FromBackup {
		f.logger.Printf("warning: %v (recovered from %s)", rec.Cause, filepath.Base(fsutil.BackupPath(path)))
		if err := fsutil.WriteFileAtomic(path, data, dataFilePerm); err != nil {
			f.logger.Printf("warning: restore %s from backup: %v", key, err)
		}
		return data, nil
	}
	if rec.Quarantined != "" {
		f.logger.Printf("warning: %v (original moved to %s)", rec.Cause, rec.Quarantined)
	} else {
		f.logger.Printf("warning: %v", rec.Cause)
	}
	return nil, ErrNoValue
}

// Set atomically replaces the value of key.
func (f *FileKV) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	path := f.Path(key)
	fsutil.BestEffortBackup(path, dataFilePerm)
	if err := fsutil.WriteFileAtomic(path, value, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key and its backup. Removing an absent key is not an error.
func (f *FileKV) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	path := f.Path(key)
	for _, p := range []string{path, fsutil.BackupPath(path)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// MemoryKV is an in-process KV, mainly for tests.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoValue
	}
	return slices.Clone(v), nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	m.sets++
	return nil
}

func (m *MemoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Writes reports how many times Set has been called.
func (m *MemoryKV) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
