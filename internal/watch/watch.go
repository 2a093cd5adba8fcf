// Package watch rebuilds a book whenever its sources change.
//
// File system events are debounced so that an editor saving several files
// triggers one build. A build that is requested while another is running is
// queued, never run concurrently.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/cempisirgen/mccole/internal/build"
	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher drives repeated builds of one project.
type Watcher struct {
	cfg      *config.Config
	svc      build.BuildService
	opts     build.BuildOptions
	skip     []string
	debounce time.Duration
	onBuild  func(*build.BuildResult, error)
}

// New returns a watcher that builds cfg through svc.
func New(cfg *config.Config, svc build.BuildService, opts build.BuildOptions) *Watcher {
	return &Watcher{cfg: cfg, svc: svc, opts: opts, debounce: DefaultDebounce}
}

// WithDebounce changes the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithSkip leaves the named chapters unwatched.
func (w *Watcher) WithSkip(slugs ...string) *Watcher {
	w.skip = append(w.skip, slugs...)
	return w
}

// OnBuild registers a callback invoked after every build.
func (w *Watcher) OnBuild(fn func(*build.BuildResult, error)) *Watcher {
	w.onBuild = fn
	return w
}

// Dirs lists the directories whose contents trigger a rebuild: the source
// root itself, every watched chapter directory and the info directory.
func (w *Watcher) Dirs() []string {
	dirs := []string{w.cfg.SourcePath()}
	dirs = append(dirs, w.cfg.SourceDirs(w.skip...)...)
	return append(dirs, w.cfg.InfoRoot())
}

// Run builds once, then rebuilds on every change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for i, dir := range w.Dirs() {
		if _, err := os.Stat(dir); err != nil {
			slog.Warn("Not watching missing directory", logfields.Path(dir))
			continue
		}
		// The source root is watched flat; chapter dirs cover its subtrees.
		if i == 0 {
			err = fw.Add(dir)
		} else {
			err = addDirsRecursive(fw, dir)
		}
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.rebuild(ctx)

	rebuildReq, trigger := newDebouncer(w.debounce)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx, rebuildReq)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && w.underChapter(ev.Name) {
			_ = addDirsRecursive(fw, ev.Name)
		}
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		slog.Debug("Source changed", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
		trigger()
	}
}

// worker serialises rebuilds; a request that arrives mid-build is replayed
// once the build finishes.
func (w *Watcher) worker(ctx context.Context, rebuildReq chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			slog.Info("Change detected; rebuilding book")
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	res, err := w.svc.Run(ctx, build.BuildRequest{Config: w.cfg, Options: w.opts})
	if err != nil {
		slog.Warn("Rebuild failed", logfields.Error(err))
	}
	if w.onBuild != nil {
		w.onBuild(res, err)
	}
}

// ignored reports editor droppings and files the config excludes.
func (w *Watcher) ignored(path string) bool {
	if shouldIgnoreEvent(path) {
		return true
	}
	base := filepath.Base(path)
	for _, pat := range w.cfg.Exclude {
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) underChapter(path string) bool {
	for _, dir := range w.cfg.SourceDirs(w.skip...) {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// newDebouncer returns a channel that receives one value per burst of
// trigger calls, after d has passed without another call.
func newDebouncer(d time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// shouldIgnoreEvent returns true for hidden, swap and lock files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
