// Package fsutil holds the crash-safe file primitives used by the local
// persistence and backup layers.
package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// ErrEmpty reports a file that exists but holds only whitespace.
var ErrEmpty = errors.New("file is empty")

// WriteFileAtomic writes data to path through a temp file in the same
// directory, fsyncs it and renames it into place.
//
// Rename does not replace an existing file on Windows, so there the
// destination is removed first (best-effort, not atomic).
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	fail := func(step string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%s %s: %w", step, tmpPath, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail("chmod", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("fsync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if runtime.GOOS == "windows" && replaceExisting(tmpPath, path) == nil {
			syncDir(dir)
			return nil
		}
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}
	syncDir(dir)
	return nil
}

func replaceExisting(tmpPath, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// BestEffortBackup copies the current contents of path to path+".bak". Any
// failure is ignored.
func BestEffortBackup(path string, perm os.FileMode) {
	data, err := os.ReadFile(path)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return
	}
	_ = WriteFileAtomic(BackupPath(path), data, perm)
}

// BackupPath is the side-copy location for path.
func BackupPath(path string) string {
	return path + ".bak"
}

// Quarantine renames a broken file to path.corrupt.<timestamp> so that it is
// kept for inspection but no longer read. It returns the new name.
func Quarantine(path string, now time.Time) (string, error) {
	dest := fmt.Sprintf("%s.corrupt.%s", path, now.Format("20060102-150405"))
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Recovery describes how ReadRecover obtained its data.
type Recovery struct {
	// FromBackup is set when the primary file was unusable and the .bak copy
	// was returned instead.
	FromBackup bool
	// Quarantined is where the broken primary file was moved, if it was.
	Quarantined string
	// Cause is the reason the primary file was rejected.
	Cause error
}

// ReadRecover reads path and checks it with valid. When the primary file is
// empty or rejected, the .bak copy is tried; if that is usable the broken
// primary is quarantined and the backup data returned. When neither is
// usable the primary is quarantined and ReadRecover returns nil data along
// with the Recovery describing the failure. A missing primary yields
// os.ErrNotExist.
func ReadRecover(path string, valid func([]byte) error, now time.Time) ([]byte, Recovery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Recovery{}, err
	}

	cause := checkData(data, valid)
	if cause == nil {
		return data, Recovery{}, nil
	}

	rec := Recovery{Cause: fmt.Errorf("%s: %w", filepath.Base(path), cause)}
	bak, bakErr := os.ReadFile(BackupPath(path))
	if bakErr == nil && checkData(bak, valid) == nil {
		rec.FromBackup = true
		rec.Quarantined, _ = Quarantine(path, now)
		return bak, rec, nil
	}

	rec.Quarantined, _ = Quarantine(path, now)
	return nil, rec, nil
}

func checkData(data []byte, valid func([]byte) error) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmpty
	}
	if valid == nil {
		return nil
	}
	return valid(data)
}

func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
