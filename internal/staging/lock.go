package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/shinji-kodama/deliver/internal/model"
)

// Lock is an advisory lock file guarding one staging area.
type Lock struct {
	path string
	fl   *flock.Flock
}

// LockPath returns the lock file used for stagingRoot: a sibling file named
// after the staging directory, so the lock never ends up in the archive.
func LockPath(stagingRoot string) string {
	return filepath.Clean(stagingRoot) + ".lock"
}

// AcquireLock takes the lock at path without blocking. It fails with an
// ExitLocked CLIError when another process holds it.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitStaging, "failed to create output directory", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitStaging, fmt.Sprintf("failed to lock %s", path), err)
	}
	if !ok {
		return nil, model.NewCLIError(model.ExitLocked,
			fmt.Sprintf("another deliver run is using this staging area (lock held: %s)", path))
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file. It is safe to call on a nil
// Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	l.fl = nil
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}
