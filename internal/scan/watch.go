package scan

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports files under a set of roots that were created or written.
// fsnotify is not recursive, so every directory is watched on its own and
// new directories are added as they appear.
type Watcher struct {
	filter   Filter
	debounce time.Duration
	logger   *log.Logger
	watcher  *fsnotify.Watcher

	files map[string]bool // explicit file roots
	dirs  []string
}

// NewWatcher creates a watcher over roots. Explicit file roots are watched
// through their directory.
func NewWatcher(roots []string, filter Filter, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}
	w := &Watcher{
		filter:   filter,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		files:    make(map[string]bool),
	}

	for _, root := range roots {
		if root == Stdin {
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			fw.Close()
			return nil, err
		}
		root = filepath.Clean(root)
		if !info.IsDir() {
			w.files[root] = true
			if err := fw.Add(filepath.Dir(root)); err != nil {
				fw.Close()
				return nil, err
			}
			continue
		}
		w.dirs = append(w.dirs, root)
		if err := w.addTree(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and every directory below it that is not skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.skipDir(path) {
			return filepath.SkipDir
		}
		w.logger.Debug("watching", "dir", path)
		return w.watcher.Add(path)
	})
}

func (w *Watcher) skipDir(path string) bool {
	if slices.Contains(skipDirs, filepath.Base(path)) {
		return true
	}
	_, rel, ok := w.underDir(path)
	return ok && w.filter.Excluded(rel)
}

// underDir returns the directory root containing path and path relative to it.
func (w *Watcher) underDir(path string) (string, string, bool) {
	for _, dir := range w.dirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return dir, rel, true
	}
	return "", "", false
}

// wanted reports whether a change to the file at path should be reported.
func (w *Watcher) wanted(path string) bool {
	if w.files[path] {
		return true
	}
	_, rel, ok := w.underDir(path)
	if !ok || !w.filter.Included(rel) {
		return false
	}
	text, err := isText(path)
	return err == nil && text
}

// Run delivers batches of changed files to onChange until ctx is done.
// A batch is sent once no event arrived for the debounce period. Paths are
// sorted. onChange runs on the watcher goroutine, so events arriving while
// it runs are batched for the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if !w.skipDir(path) {
						if err := w.addTree(path); err != nil {
							w.logger.Warn("watch directory", "dir", path, "err", err)
						}
					}
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.wanted(path) {
				continue
			}
			pending[path] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			onChange(ctx, paths)
		}
	}
}

// Close stops watching. It is only needed when Run was never called.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
