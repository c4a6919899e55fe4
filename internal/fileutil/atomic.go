// Package fileutil writes gateway state files so readers never see a torn write.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirPerm is the mode used for directories created under the gateway home.
const DirPerm os.FileMode = 0o750

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// WriteAtomic replaces path with data. The parent directory is created when
// missing; the file is staged next to the target, synced, then renamed over it.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	staged, err := stage(dir, filepath.Base(path), data, perm)
	if err != nil {
		return err
	}

	if err := os.Rename(staged, path); err != nil { //nolint:gosec // G703: path comes from the gateway home
		_ = os.Remove(staged)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	syncDir(dir)
	return nil
}

// stage writes data to a temp file in dir and returns its name.
// The temp file is removed on any failure.
func stage(dir, base string, data []byte, perm os.FileMode) (name string, err error) {
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name = f.Name()

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(name)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return "", fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return name, nil
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // G304: dir is the parent of a gateway state file
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
