package resources

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/tasks"
)

// DefaultAssetBasePath is the conventional root of the default asset source.
const DefaultAssetBasePath = "assets"

// ResourceManager turns a path into a live handle and drives the
// asynchronous load behind it. The registry, built-in table, metas, sources
// and handle cache each hold their own lock so unrelated loads never
// serialize against each other; only the per-resource header lock is held
// across a commit.
type ResourceManager struct {
	loaders  *ResourceLoaders
	metas    *ResourceMetas
	taskPool *tasks.Pool

	builtInMu sync.RWMutex
	builtIn   map[ResourcePath]*UntypedResource

	sourcesMu sync.RWMutex
	sources   map[string]ResourceIO
	defaultIO ResourceIO

	// cache deduplicates concurrent loads per path: Pending and Ok entries
	// are shared, LoadError entries are evicted on commit so a later request
	// retries with a fresh header.
	cacheMu sync.Mutex
	cache   map[ResourcePath]*UntypedResource
}

func NewResourceManager(taskPool *tasks.Pool) *ResourceManager {
	return &ResourceManager{
		loaders:   NewResourceLoaders(),
		metas:     NewResourceMetas(),
		taskPool:  taskPool,
		builtIn:   make(map[ResourcePath]*UntypedResource),
		sources:   make(map[string]ResourceIO),
		defaultIO: NewFsResourceIO(DefaultAssetBasePath),
		cache:     make(map[ResourcePath]*UntypedResource),
	}
}

// AddLoader registers a loader and the default settings metadata for its
// data type. Replacing a loader of the same concrete type returns the
// previous one.
func (rm *ResourceManager) AddLoader(loader ResourceLoader) ResourceLoader {
	prev := rm.loaders.Add(loader)
	rm.metas.Register(loader)
	return prev
}

func (rm *ResourceManager) Loaders() *ResourceLoaders {
	return rm.loaders
}

func (rm *ResourceManager) TaskPool() *tasks.Pool {
	return rm.taskPool
}

// SetDefaultIO replaces the I/O of the default (unnamed) source.
func (rm *ResourceManager) SetDefaultIO(io ResourceIO) {
	rm.sourcesMu.Lock()
	defer rm.sourcesMu.Unlock()
	rm.defaultIO = io
}

func (rm *ResourceManager) DefaultIO() ResourceIO {
	rm.sourcesMu.RLock()
	defer rm.sourcesMu.RUnlock()
	return rm.defaultIO
}

// AddSource maps a source name ("remote://...") to an I/O implementation.
func (rm *ResourceManager) AddSource(name string, io ResourceIO) {
	rm.sourcesMu.Lock()
	defer rm.sourcesMu.Unlock()
	rm.sources[name] = io
}

func (rm *ResourceManager) resolveIO(path ResourcePath) (ResourceIO, error) {
	rm.sourcesMu.RLock()
	defer rm.sourcesMu.RUnlock()
	if path.Source() == "" {
		return rm.defaultIO, nil
	}
	io, ok := rm.sources[path.Source()]
	if !ok {
		return nil, &MissingSourceError{Source: path.Source()}
	}
	return io, nil
}

// RegisterBuiltIn pre-populates a resource that bypasses the loader/I-O path
// entirely; every load of the path returns this handle.
func (rm *ResourceManager) RegisterBuiltIn(path string, data ResourceData) *UntypedResource {
	p := ParsePath(path)
	res := NewOkResource(EmbeddedKind(), data)
	rm.builtInMu.Lock()
	defer rm.builtInMu.Unlock()
	rm.builtIn[p] = res
	return res.Clone()
}

func (rm *ResourceManager) lookupBuiltIn(path ResourcePath) *UntypedResource {
	rm.builtInMu.RLock()
	defer rm.builtInMu.RUnlock()
	if res, ok := rm.builtIn[path]; ok {
		return res.Clone()
	}
	return nil
}

// Load returns a handle for the path without blocking. Built-in paths
// resolve to their pre-populated handle; a path with no matching loader
// yields a handle already committed to LoadError; anything else comes back
// Pending with the load running on the task pool. Poll or Wait on the handle
// to observe the outcome.
func (rm *ResourceManager) Load(path string) *UntypedResource {
	return rm.loadPath(context.Background(), path, false)
}

// LoadSync resolves exactly like Load but runs the load inline and only
// returns after the handle reached a terminal state. Loaders use it through
// the LoadContext to pull in sub-resources without an extra thread hop.
func (rm *ResourceManager) LoadSync(ctx context.Context, path string) *UntypedResource {
	return rm.loadPath(ctx, path, true)
}

func (rm *ResourceManager) loadPath(ctx context.Context, rawPath string, sync bool) *UntypedResource {
	path, err := TryParsePath(rawPath)
	if err != nil {
		err = fmt.Errorf("invalid resource path %q: %w", rawPath, err)
		core.LogError(err.Error())
		return NewErrorResource(ExternalKind(PathFromString(rawPath)), err, uuid.Nil)
	}

	if res := rm.lookupBuiltIn(path); res != nil {
		return res
	}

	kind := ExternalKind(path)
	loader := rm.loaders.FindLoader(path)
	if loader == nil {
		loadErr := &NoLoaderError{Kind: kind, Extension: path.FullExtension()}
		core.LogError(loadErr.Error())
		return NewErrorResource(kind, loadErr, uuid.Nil)
	}

	rm.cacheMu.Lock()
	if res, ok := rm.cache[path]; ok {
		rm.cacheMu.Unlock()
		if sync {
			// An async load may still be in flight; honor the blocking contract.
			if err := res.Wait(ctx); err != nil {
				// The committed error is already on the shared handle.
				core.LogDebug("joined in-flight load of '%s': %v", path, err)
			}
		}
		return res.Clone()
	}
	res := NewPendingResource(kind, loader.DataTypeUUID())
	rm.cache[path] = res
	rm.cacheMu.Unlock()

	if sync {
		rm.runLoad(ctx, path, res, loader)
	} else {
		rm.taskPool.SpawnTask(func(taskCtx context.Context) {
			rm.runLoad(taskCtx, path, res, loader)
		})
	}
	return res.Clone()
}

// runLoad performs the actual I/O and decode, then commits the outcome into
// the shared header. It owns the only commit for the handle it was given.
func (rm *ResourceManager) runLoad(ctx context.Context, path ResourcePath, res *UntypedResource, loader ResourceLoader) {
	io, err := rm.resolveIO(path)
	if err != nil {
		rm.commitLoadError(path, res, err)
		return
	}

	settings := rm.metas.Settings(loader.DataTypeUUID())
	if settings == nil {
		settings = loader.DefaultSettings()
	}
	if overlaid, err := loadMetaSettings(ctx, io, path, settings); err != nil {
		core.LogWarn("ignoring resource meta for '%s': %v", path, err)
	} else {
		settings = overlaid
	}

	data, err := loader.Load(ctx, path, &LoadContext{
		IO:       io,
		Settings: settings,
		Manager:  rm,
	})
	if err != nil {
		rm.commitLoadError(path, res, err)
		return
	}

	res.CommitOk(data)
	core.LogDebug("resource '%s' loaded", path)
}

func (rm *ResourceManager) commitLoadError(path ResourcePath, res *UntypedResource, err error) {
	res.CommitError(err)
	rm.evict(path, res)
	core.LogError("failed to load resource '%s': %v", path, err)
}

// evict removes the cache entry if it still refers to the given handle.
func (rm *ResourceManager) evict(path ResourcePath, res *UntypedResource) {
	rm.cacheMu.Lock()
	defer rm.cacheMu.Unlock()
	if cached, ok := rm.cache[path]; ok && cached.SharesHeader(res) {
		delete(rm.cache, path)
	}
}

// Unload drops the manager's cached handle for the path. Outstanding handle
// clones stay valid; the next Load starts over with a fresh header.
func (rm *ResourceManager) Unload(path string) {
	p, err := TryParsePath(path)
	if err != nil {
		return
	}
	rm.cacheMu.Lock()
	defer rm.cacheMu.Unlock()
	delete(rm.cache, p)
}

// Reload loads the path into a new header and atomically swaps which header
// later lookups resolve to. Existing handles keep observing their old
// terminal state; a committed state never re-enters Pending.
func (rm *ResourceManager) Reload(path string) *UntypedResource {
	p, err := TryParsePath(path)
	if err != nil {
		err = fmt.Errorf("invalid resource path %q: %w", path, err)
		core.LogError(err.Error())
		return NewErrorResource(ExternalKind(PathFromString(path)), err, uuid.Nil)
	}

	kind := ExternalKind(p)
	loader := rm.loaders.FindLoader(p)
	if loader == nil {
		loadErr := &NoLoaderError{Kind: kind, Extension: p.FullExtension()}
		core.LogError(loadErr.Error())
		return NewErrorResource(kind, loadErr, uuid.Nil)
	}

	res := NewPendingResource(kind, loader.DataTypeUUID())
	rm.cacheMu.Lock()
	rm.cache[p] = res
	rm.cacheMu.Unlock()

	core.LogInfo("reloading resource '%s'", p)
	rm.taskPool.SpawnTask(func(taskCtx context.Context) {
		rm.runLoad(taskCtx, p, res, loader)
	})
	return res.Clone()
}

// Request is the typed front door of Load. It panics when the path resolves
// to a loader for a different data type; a handle that failed to resolve
// (uuid.Nil stamp) passes through so callers can observe the error state.
func Request[T ResourceData](rm *ResourceManager, path string) Resource[T] {
	untyped := rm.Load(path)
	assertRequestedType[T](untyped)
	return Typed[T](untyped)
}

// RequestSync is the typed front door of LoadSync.
func RequestSync[T ResourceData](ctx context.Context, rm *ResourceManager, path string) Resource[T] {
	untyped := rm.LoadSync(ctx, path)
	assertRequestedType[T](untyped)
	return Typed[T](untyped)
}

func assertRequestedType[T ResourceData](untyped *UntypedResource) {
	actual := untyped.TypeUUID()
	if expected := TypeUUIDOf[T](); actual != uuid.Nil && actual != expected {
		panic(fmt.Sprintf("resources: requested resource %s as type with UUID %s, but it is stamped %s",
			untyped.Kind(), expected, actual))
	}
}
