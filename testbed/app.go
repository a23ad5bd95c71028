package testbed

import (
	"context"
	"fmt"
	"time"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/resources"
	"github.com/spaghettifunk/ember/engine/resources/loaders"
	"github.com/spaghettifunk/ember/engine/tasks"
)

// TestApp drives the resource subsystem the way a game loop would: kick off
// asynchronous loads, poll every tick, and let the watcher hot-reload assets
// edited on disk while it runs.
type TestApp struct {
	pool    *tasks.Pool
	manager *resources.ResourceManager
	watcher *resources.ResourceWatcher

	assetRoot string
	pending   []*resources.UntypedResource
	notified  chan struct{}
}

type Config struct {
	AssetRoot string
	Workers   int
	LogLevel  core.LogLevel
}

func NewTestApp(config Config) (*TestApp, error) {
	core.SetLogLevel(config.LogLevel)

	pool, err := tasks.NewPool(config.Workers, 32)
	if err != nil {
		return nil, err
	}

	manager := resources.NewResourceManager(pool)
	manager.SetDefaultIO(resources.NewFsResourceIO(config.AssetRoot))
	manager.AddLoader(&loaders.BinaryLoader{})
	manager.AddLoader(&loaders.TextLoader{})
	manager.AddLoader(&loaders.ImageLoader{})
	manager.AddLoader(&loaders.BitmapFontLoader{})
	manager.AddLoader(&loaders.MaterialLoader{})

	return &TestApp{
		pool:      pool,
		manager:   manager,
		assetRoot: config.AssetRoot,
		notified:  make(chan struct{}, 1),
	}, nil
}

func (a *TestApp) Manager() *resources.ResourceManager {
	return a.manager
}

// Initialize requests the demo assets. All loads run on the pool; nothing
// here blocks.
func (a *TestApp) Initialize() error {
	watcher, err := resources.NewResourceWatcher(a.manager, a.assetRoot)
	if err != nil {
		return fmt.Errorf("cannot watch asset root '%s': %w", a.assetRoot, err)
	}
	a.watcher = watcher

	for _, path := range []string{
		"notes.txt",
		"textures/checker.png",
		"materials/checker.mat",
	} {
		res := a.manager.Load(path)
		if state, _ := res.Poll(a.notified); state == resources.StatePending {
			a.pending = append(a.pending, res)
		} else {
			a.logResolved(res)
		}
	}
	core.LogInfo("testbed initialized, %d load(s) in flight", len(a.pending))
	return nil
}

// Run ticks until the context is cancelled.
func (a *TestApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.update()
		}
	}
}

// update is one frame: drain watcher reloads, then poll outstanding loads.
func (a *TestApp) update() {
	a.watcher.Update()

	select {
	case <-a.notified:
	default:
		return
	}

	stillPending := a.pending[:0]
	for _, res := range a.pending {
		if state, _ := res.Poll(a.notified); state == resources.StatePending {
			stillPending = append(stillPending, res)
			continue
		}
		a.logResolved(res)
	}
	a.pending = stillPending
	if len(a.pending) == 0 {
		core.LogInfo("all demo assets resolved")
	}
}

func (a *TestApp) logResolved(res *resources.UntypedResource) {
	if err := res.LoadError(); err != nil {
		core.LogWarn("%s failed: %v", res.Kind(), err)
		return
	}
	core.LogInfo("%s is ready", res.Kind())
}

func (a *TestApp) Shutdown() error {
	var err error
	if a.watcher != nil {
		err = a.watcher.Close()
	}
	a.pool.Shutdown()
	return err
}
