package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is relative to the watched root.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// DefaultDebounce is the window used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Root is the directory watched recursively.
	Root string
	// Match selects relevant paths (relative to Root). Nil accepts all.
	Match    func(rel string) bool
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher reports debounced changes below a directory using fsnotify.
type Watcher struct {
	root      string
	match     func(string) bool
	logger    *slog.Logger
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	errors    chan error

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a watcher. Start begins delivering events.
func New(opts Options) (*Watcher, error) {
	if opts.Root == "" {
		return nil, errors.New("watcher needs a root directory")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:      root,
		match:     opts.Match,
		logger:    opts.Logger,
		fs:        fsw,
		debouncer: NewDebouncer(opts.Debounce, opts.Logger),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Events returns debounced batches. The channel closes after Stop.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns watch errors. Slow readers miss errors rather than
// blocking the watch loop.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watch_error_dropped", slog.String("error", err.Error()))
			}
		}
	}
}

// Stop releases the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.fs.Close()
		w.debouncer.Stop()
	})
	return err
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			_ = w.addRecursive(event.Name)
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	if isDir || (w.match != nil && !w.match(rel)) {
		return
	}
	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".git") {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}
