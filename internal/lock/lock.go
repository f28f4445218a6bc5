// Package lock guards local synonym sources against concurrent writers.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("source is locked by another process")

// FileName is the lock file created next to a local source.
const FileName = ".indexsyn.lock"

// FileLock is a cross-process exclusive lock backed by gofrs/flock.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// ForDir returns the lock for a source stored in directory dir.
func ForDir(dir string) *FileLock {
	return New(filepath.Join(dir, FileName))
}

// ForFile returns the lock for a single-file source, placed next to it.
func ForFile(path string) *FileLock {
	return New(filepath.Join(filepath.Dir(path), FileName))
}

// New creates a lock on the given lock file path.
func New(path string) *FileLock {
	return &FileLock{path: path, flock: flock.New(path)}
}

// Lock blocks until the lock is acquired.
func (l *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = true
	return nil
}

// TryLock acquires the lock without blocking. It returns ErrLocked when
// another process holds it.
func (l *FileLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked returns true if this FileLock holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.locked
}
