package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// ErrNotFound is returned by a Stater when the bundle file does not exist.
// It is expected while a rotation agent replaces the file.
var ErrNotFound = errors.New("identity: bundle not found")

// Stater reports the bundle's last modification time.
type Stater interface {
	ModTime(path string) (time.Time, error)
}

// StatWatcher is the filesystem Stater. It never caches: every call issues a
// fresh stat.
type StatWatcher struct{}

// ModTime returns the mtime of path, or an error wrapping ErrNotFound when
// the file is absent.
func (StatWatcher) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return time.Time{}, fmt.Errorf("identity: stat bundle %s: %w", path, err)
	}
	if info.IsDir() {
		return time.Time{}, fmt.Errorf("identity: bundle %s is a directory", path)
	}
	return info.ModTime(), nil
}
