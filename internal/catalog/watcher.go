package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"locres/internal/resource"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a directory catalogue into a Live provider whenever files
// below the directory change. A reload that fails keeps the current table.
type Watcher struct {
	dir      string
	live     *Live
	opts     Options
	logger   *zap.Logger
	debounce time.Duration

	// OnReload is called after each reload attempt, with a nil table when
	// the reload failed.
	OnReload func(table *resource.Table, report Report, err error)

	mu      sync.Mutex
	pending time.Time // zero when no change is waiting
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, live *Live, opts Options, logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		live:     live,
		opts:     opts,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	w.logger.Info("Watching catalogue", zap.String("dir", w.dir))

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Catalogue watcher error", zap.Error(err))

		case <-ticker.C:
			if w.settled() {
				w.reload()
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	// new locale directories need their own watch
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
		}
	}

	w.logger.Debug("Catalogue changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// settled reports whether a change is waiting and no other change followed
// it within the debounce window. It clears the pending change.
func (w *Watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		return false
	}
	w.pending = time.Time{}
	return true
}

func (w *Watcher) reload() {
	start := time.Now()
	table, report, err := LoadDir(os.DirFS(w.dir), w.opts)
	if err != nil {
		w.logger.Warn("Catalogue reload failed, keeping previous table",
			zap.String("dir", w.dir),
			zap.Error(err))
	} else {
		w.live.Store(table)
		w.logger.Info("Catalogue reloaded",
			zap.Int("locales", len(table.Locales())),
			zap.Int("templates", table.Len()),
			zap.Int("issues", len(report.Issues)),
			zap.Duration("took", time.Since(start)))
	}

	if w.OnReload != nil {
		w.OnReload(table, report, err)
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
