// Package watch reruns a job whenever one of its input files changes.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"panelcam/pkg/errors"
	"panelcam/pkg/logger"
)

// Watcher watches a set of files. The containing directories are watched so
// that editors replacing a file by rename are still noticed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
}

// New starts watching paths. Rapid changes within debounce of each other
// trigger a single run.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{watcher: fw, files: map[string]bool{}, debounce: debounce}

	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "resolving %s", p)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}
	return w, nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls fn for every settled change until ctx is done. Calls are
// serial; a failing run is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	log := logger.Named("watch")
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debugw("change detected", "file", event.Name, "op", event.Op.String())
			settle = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watch error", "error", err)

		case <-settle:
			settle = nil
			if err := fn(); err != nil {
				log.Errorw("run failed", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
		return false
	}
	if isBackupFile(event.Name) {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}

func isBackupFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") || strings.HasSuffix(base, ".swp")
}
