// Package fsutil holds small filesystem helpers shared by the asset tasks.
package fsutil

import (
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

// WriteFileAtomic writes data to a hidden temporary file next to path and
// renames it into place, so readers and watchers never observe a partial
// file. Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("dir", dir).
			Build()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create temporary file").
			WithContext("path", path).
			Build()
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write temporary file").
			WithContext("path", path).
			Build()
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "close temporary file").
			WithContext("path", path).
			Build()
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "chmod temporary file").
			WithContext("path", path).
			Build()
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "replace output file").
			WithContext("path", path).
			Build()
	}
	return nil
}
