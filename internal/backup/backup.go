// Package backup keeps timestamped copies of the persisted state record
// next to the data directory and restores them.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"focusboard/internal/fsutil"
	"focusboard/internal/persist"
)

const (
	ManifestVersion = "2"
	ManifestFile    = "manifest.json"
	BackupsDir      = "backups"
)

// ErrNoBackups is returned by RestoreLatest when there is nothing to restore.
var ErrNoBackups = errors.New("no backups available")

// Manager handles backup and restore operations for one state record.
type Manager struct {
	dataDir    string // e.g. ~/.focusboard
	backupDir  string // e.g. ~/.focusboard/backups
	record     string // e.g. focusboard-storage.json
	appVersion string
	now        func() time.Time
}

// Manifest describes one backup.
type Manifest struct {
	Version    string         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	AppVersion string         `json:"app_version"`
	Files      []string       `json:"files"`
	Stats      map[string]int `json:"stats"`
}

// BackupInfo summarizes a backup for listing.
type BackupInfo struct {
	Name      string // 2026-10-15_143022_123
	Path      string
	CreatedAt time.Time
	Stats     map[string]int // entity counts: projects, todos, sessions, ...
}

// NewManager returns a manager for the record stored under storageName in
// dataDir (as written by persist.FileKV).
func NewManager(dataDir, storageName, appVersion string) *Manager {
	if storageName == "" {
		storageName = persist.DefaultName
	}
	return &Manager{
		dataDir:    dataDir,
		backupDir:  filepath.Join(dataDir, BackupsDir),
		record:     storageName + ".json",
		appVersion: appVersion,
		now:        time.Now,
	}
}

// Dir returns the directory holding the backups.
func (m *Manager) Dir() string {
	return m.backupDir
}

// Create copies the state record into a new backup and returns its name.
// A missing record yields a backup with no files.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := m.now()
	name := fmt.Sprintf("%s_%03d", now.Format("2006-01-02_150405"), now.Nanosecond()/1e6)
	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); err == nil {
		return "", fmt.Errorf("backup %s already exists", name)
	}
	if err := os.MkdirAll(backupPath, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	manifest := Manifest{
		Version:    ManifestVersion,
		CreatedAt:  now,
		AppVersion: m.appVersion,
		Files:      []string{},
		Stats:      map[string]int{},
	}

	data, err := os.ReadFile(filepath.Join(m.dataDir, m.record))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("failed to read %s: %w", m.record, err)
	default:
		if err := fsutil.WriteFileAtomic(filepath.Join(backupPath, m.record), data, 0o600); err != nil {
			_ = os.RemoveAll(backupPath)
			return "", fmt.Errorf("failed to copy %s: %w", m.record, err)
		}
		manifest.Files = append(manifest.Files, m.record)
		if state, err := persist.Decode(data); err == nil {
			manifest.Stats = state.Counts()
		}
	}

	if err := writeJSON(filepath.Join(backupPath, ManifestFile), manifest); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return name, nil
}

// List returns all backups, newest first.
func (m *Manager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := m.info(entry.Name())
		if err != nil {
			continue // not one of ours
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// GetBackup returns information about a specific backup.
func (m *Manager) GetBackup(name string) (*BackupInfo, error) {
	if err := validateBackupName(name); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(m.backupDir, name)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("backup not found: %s", name)
	}
	return m.info(name)
}

func (m *Manager) info(name string) (*BackupInfo, error) {
	backupPath := filepath.Join(m.backupDir, name)

	var manifest Manifest
	if err := readJSON(filepath.Join(backupPath, ManifestFile), &manifest); err != nil {
		createdAt, parseErr := parseBackupName(name)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid backup: %s", name)
		}
		manifest.CreatedAt = createdAt
	}
	if manifest.Stats == nil {
		manifest.Stats = map[string]int{}
	}
	return &BackupInfo{
		Name:      name,
		Path:      backupPath,
		CreatedAt: manifest.CreatedAt,
		Stats:     manifest.Stats,
	}, nil
}

// Restore replaces the state record with the one in backup name. It first
// takes a safety backup of the current record and returns its name. The
// restored record must decode as a state record; otherwise nothing is
// overwritten.
func (m *Manager) Restore(name string) (safety string, err error) {
	if err := validateBackupName(name); err != nil {
		return "", err
	}
	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("backup not found: %s", name)
	}

	data, err := os.ReadFile(filepath.Join(backupPath, m.record))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("backup %s does not contain %s", name, m.record)
	}
	if err != nil {
		return "", err
	}
	if _, err := persist.Decode(data); err != nil {
		return "", fmt.Errorf("backup %s is invalid: %w", name, err)
	}

	safety, err = m.Create()
	if err != nil {
		return "", fmt.Errorf("failed to create safety backup: %w", err)
	}

	dst := filepath.Join(m.dataDir, m.record)
	if err := os.MkdirAll(m.dataDir, 0o700); err != nil {
		return safety, err
	}
	if err := fsutil.WriteFileAtomic(dst, data, 0o600); err != nil {
		return safety, fmt.Errorf("failed to restore %s (safety backup: %s): %w", m.record, safety, err)
	}
	// Recovery must not fall back to pre-restore data.
	_ = os.Remove(fsutil.BackupPath(dst))
	return safety, nil
}

// RestoreLatest restores from the most recent backup.
func (m *Manager) RestoreLatest() (restored, safety string, err error) {
	backups, err := m.List()
	if err != nil {
		return "", "", err
	}
	if len(backups) == 0 {
		return "", "", ErrNoBackups
	}
	safety, err = m.Restore(backups[0].Name)
	return backups[0].Name, safety, err
}

// Delete removes a specific backup.
func (m *Manager) Delete(name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}
	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("backup not found: %s", name)
	}
	return os.RemoveAll(backupPath)
}

// Prune removes old backups, keeping only the N most recent.
func (m *Manager) Prune(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keepCount must be non-negative")
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keepCount {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keepCount:] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func validateBackupName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseBackupName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// parseBackupName accepts 2006-01-02_150405 and 2006-01-02_150405_000.
func parseBackupName(name string) (time.Time, error) {
	const layout = "2006-01-02_150405"
	if len(name) == len(layout)+4 {
		base, err := time.Parse(layout, name[:len(layout)])
		if err != nil {
			return time.Time{}, err
		}
		if name[len(layout)] != '_' {
			return time.Time{}, fmt.Errorf("invalid backup format")
		}
		ms, err := strconv.Atoi(name[len(layout)+1:])
		if err != nil || ms < 0 || ms > 999 {
			return time.Time{}, fmt.Errorf("invalid milliseconds")
		}
		return base.Add(time.Duration(ms) * time.Millisecond), nil
	}
	return time.Parse(layout, name)
}
