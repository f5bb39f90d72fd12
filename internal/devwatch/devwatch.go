// Package devwatch watches a mod library directory for changes and
// triggers a redeploy, for iterating on a mod-definition document
// without restarting the install/deploy cycle by hand.
//
// Grounded on the teacher's use of fsnotify for config hot-reload
// (kluzzebass-gastrolog's config/file store watcher); this package
// applies the same pattern to mod-root trees instead of a config file.
package devwatch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"yago/internal/logging"
)

// Watcher watches one or more mod-root directories and calls onChange,
// debounced, whenever a .ini file directly inside any of them is
// created, written, removed, or renamed. Subdirectories are not watched.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// New creates a Watcher rooted at the given directories.
func New(roots []string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, r := range roots {
		if err := fw.Add(r); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return &Watcher{
		watcher:  fw,
		logger:   logging.Default(logger).With("component", "devwatch"),
		debounce: 300 * time.Millisecond,
	}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, calling onChange at most once per debounce window after
// one or more relevant fsnotify events, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			onChange()
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".ini") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
