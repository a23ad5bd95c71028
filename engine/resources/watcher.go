package resources

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/ember/engine/containers"
	"github.com/spaghettifunk/ember/engine/core"
)

// pendingReloadCap bounds the reload queue; reloads are idempotent so the
// oldest entry can be discarded when a burst of events overflows it.
const pendingReloadCap = 256

// ResourceWatcher watches asset directories and schedules hot reloads for
// files whose extension has a registered loader. Events are coalesced into a
// queue drained by Update, so reloads happen on the caller's tick rather
// than on the watch goroutine.
type ResourceWatcher struct {
	manager *ResourceManager
	watcher *fsnotify.Watcher
	root    string

	pendingMu sync.Mutex
	pending   *containers.RingQueue[string]
	queued    map[string]struct{}

	done     chan struct{}
	isClosed bool
}

// NewResourceWatcher creates a watcher that recursively observes root and
// reloads changed assets through the manager. Paths handed to the manager
// are relative to root, which should match the manager's default source.
func NewResourceWatcher(manager *ResourceManager, root string) (*ResourceWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &ResourceWatcher{
		manager: manager,
		watcher: fsWatch,
		root:    root,
		pending: containers.NewRingQueue[string](pendingReloadCap),
		queued:  make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	if err := w.watchRecursive(root); err != nil {
		fsWatch.Close()
		return nil, err
	}

	go w.start()

	return w, nil
}

// watchRecursive adds the directory and all sub-directories to the watch set.
func (w *ResourceWatcher) watchRecursive(dir string) error {
	return filepath.Walk(dir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.watcher.Add(walkPath)
		}
		return nil
	})
}

func (w *ResourceWatcher) start() {
	for {
		select {
		case <-w.done:
			return
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(e)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("resource watcher: %v", err)
		}
	}
}

func (w *ResourceWatcher) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			if err := w.watchRecursive(e.Name); err != nil {
				core.LogWarn("resource watcher: cannot watch '%s': %v", e.Name, err)
			}
			return
		}
	}
	if e.Op&fsnotify.Remove != 0 {
		w.watcher.Remove(e.Name)
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, e.Name)
	if err != nil {
		return
	}
	assetPath := filepath.ToSlash(rel)
	if strings.HasSuffix(assetPath, metaExtension) {
		// A settings change reloads the asset it belongs to.
		assetPath = strings.TrimSuffix(assetPath, metaExtension)
	}
	path, err := TryParsePath(assetPath)
	if err != nil || w.manager.Loaders().FindLoader(path) == nil {
		return
	}

	w.pendingMu.Lock()
	if _, ok := w.queued[assetPath]; !ok {
		w.queued[assetPath] = struct{}{}
		w.pending.EnqueueOverwrite(assetPath)
	}
	w.pendingMu.Unlock()
}

// Update drains the pending reload queue, scheduling one reload per changed
// asset. Call once per update tick.
func (w *ResourceWatcher) Update() {
	for {
		w.pendingMu.Lock()
		path, err := w.pending.Dequeue()
		if err == nil {
			delete(w.queued, path)
		}
		w.pendingMu.Unlock()
		if err != nil {
			return
		}
		w.manager.Reload(path)
	}
}

// PendingReloads reports how many changed assets await the next Update.
func (w *ResourceWatcher) PendingReloads() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return w.pending.Len()
}

func (w *ResourceWatcher) Close() error {
	if w.isClosed {
		return errors.New("resource watcher already closed")
	}
	w.isClosed = true
	close(w.done)
	return w.watcher.Close()
}
