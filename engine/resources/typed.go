package resources

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Resource is the typed view over an untyped handle. The type parameter is a
// compile-time tag only; payload access still checks the stored value at
// runtime.
type Resource[T ResourceData] struct {
	Untyped *UntypedResource
}

// Typed wraps an untyped handle. The wrap itself is unchecked; the manager's
// Request front door asserts the type UUID, and every accessor re-checks the
// payload.
func Typed[T ResourceData](untyped *UntypedResource) Resource[T] {
	return Resource[T]{Untyped: untyped}
}

// TypeUUIDOf returns the declared UUID of the concrete data type T.
func TypeUUIDOf[T ResourceData]() uuid.UUID {
	var zero T
	return zero.TypeUUID()
}

// DataRef locks the header and returns a guard for payload access. The guard
// must be released; until then no other handle clone can observe or commit
// state.
func (r Resource[T]) DataRef() *ResourceDataRef[T] {
	r.Untyped.header.mu.Lock()
	return &ResourceDataRef[T]{header: r.Untyped.header}
}

// AsLoadedRef returns the payload if the resource is loaded, or (nil, false)
// on any non-Ok state or type mismatch. Safe to call from code that must not
// crash on a not-yet-loaded resource, e.g. a polling render loop. The
// returned pointer stays valid after the call because Ok is a terminal state.
func (r Resource[T]) AsLoadedRef() (*T, bool) {
	guard := r.DataRef()
	defer guard.Release()
	return guard.AsLoaded()
}

// Wait blocks until the resource resolves and returns its payload, the
// committed load error, or the context error.
func (r Resource[T]) Wait(ctx context.Context) (*T, error) {
	if err := r.Untyped.Wait(ctx); err != nil {
		return nil, err
	}
	data, ok := r.AsLoadedRef()
	if !ok {
		return nil, fmt.Errorf("resource %s resolved with mismatched type", r.Untyped.Kind())
	}
	return data, nil
}

// ResourceDataRef is a scope-bound guarded reference to a resource payload;
// it holds the header lock until Release.
type ResourceDataRef[T ResourceData] struct {
	header   *ResourceHeader
	released bool
}

// Data downcasts the payload to *T. Calling it on a resource that is not
// loaded, or whose payload is not a T, is a programming error and panics;
// use AsLoaded where that state is expected.
func (g *ResourceDataRef[T]) Data() *T {
	h := g.header
	switch h.state {
	case StatePending:
		panic(fmt.Sprintf("resources: attempt to get reference to resource data while it is not loaded; path is %s", h.kind))
	case StateLoadError:
		panic(fmt.Sprintf("resources: attempt to get reference to resource data which failed to load; path is %s", h.kind))
	}
	data, ok := any(h.data).(*T)
	if !ok {
		panic(fmt.Sprintf("resources: type mismatch, %s resource holds %T", h.kind, h.data))
	}
	return data
}

// AsLoaded is the fallible variant of Data: (nil, false) instead of a panic.
func (g *ResourceDataRef[T]) AsLoaded() (*T, bool) {
	if g.header.state != StateOk {
		return nil, false
	}
	data, ok := any(g.header.data).(*T)
	return data, ok
}

// State reports the state observed under the guard's lock.
func (g *ResourceDataRef[T]) State() ResourceStateKind {
	return g.header.state
}

// Release unlocks the header. Safe to call more than once.
func (g *ResourceDataRef[T]) Release() {
	if !g.released {
		g.released = true
		g.header.mu.Unlock()
	}
}
