package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/codeindexer/oci/internal/debug"
	"github.com/codeindexer/oci/internal/types"
)

const defaultWatchDebounce = 300 * time.Millisecond

// Watcher drives Indexer.Index incrementally off filesystem notifications
// instead of a manual rebuild, for cfg.Index.WatchMode (spec's watch_mode /
// watch_debounce_ms config knobs). Unlike a per-path update scheme, it
// debounces raw fsnotify events into a single trigger and lets Index's own
// discovery-based diff figure out what actually changed — the same diff a
// manual rebuild would compute, so there is no second code path to keep in
// sync with the incremental algorithm.
type Watcher struct {
	idx *Indexer
	fsw *fsnotify.Watcher

	cacheDir string
	exclude  []string
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	onIndex func(*types.Report, error)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch begins watching idx's project root and returns a Watcher the
// caller must Close. It does not check cfg.Index.WatchMode itself, so it
// can be driven directly in tests; the CLI layer is responsible for
// honoring that flag before calling it.
func (idx *Indexer) Watch(ctx context.Context) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	root := idx.canonicalRoot()
	cacheDir := CacheDir(idx.cfg, root)

	w := &Watcher{
		idx:      idx,
		fsw:      fsw,
		cacheDir: cacheDir,
		exclude:  idx.cfg.Exclude,
		debounce: watchDebounce(idx.cfg.Index.WatchDebounceMs),
		done:     make(chan struct{}),
	}
	if err := w.addWatchDirs(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.run()
	return w, nil
}

func watchDebounce(ms int) time.Duration {
	if ms <= 0 {
		return defaultWatchDebounce
	}
	return time.Duration(ms) * time.Millisecond
}

// OnIndex registers a callback invoked after each debounced reindex, with
// the Report and error Index returned. Must be called before events start
// arriving to avoid a data race with run's goroutine; in practice that
// means immediately after Watch returns.
func (w *Watcher) OnIndex(fn func(*types.Report, error)) {
	w.onIndex = fn
}

// Close stops watching and waits for the background goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return w.fsw.Close()
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.Component("watcher", "fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				debug.Component("watcher", "add watch %s: %v", ev.Name, err)
			}
		}
	}
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reindex)
}

func (w *Watcher) reindex() {
	report, err := w.idx.Index(w.ctx, Options{})
	if err != nil {
		debug.Component("watcher", "reindex failed: %v", err)
	}
	if w.onIndex != nil {
		w.onIndex(report, err)
	}
}

// addWatchDirs recursively registers every directory under root, skipping
// the cache directory itself (otherwise our own manifest/docs/state writes
// would retrigger the watcher) and anything matched by a directory-style
// exclude pattern ("**/name/**").
func (w *Watcher) addWatchDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path == w.cacheDir {
			return filepath.SkipDir
		}
		if path != root {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && w.excludedDir(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			debug.Component("watcher", "add watch %s: %v", path, addErr)
		}
		return nil
	})
}

func (w *Watcher) excludedDir(rel string) bool {
	for _, pattern := range w.exclude {
		base := strings.TrimSuffix(pattern, "/**")
		if base == pattern {
			continue // file-only pattern, not a directory exclusion
		}
		if matched, _ := doublestar.Match(base, rel); matched {
			return true
		}
	}
	return false
}
