package resources

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ResourceData is implemented by every concrete resource payload (image,
// material, font, ...). Each concrete type declares a statically-unique UUID
// so type-erased payloads can be checked before downcasting. TypeUUID must
// use a value receiver so both the type and its pointer satisfy the
// interface; headers store pointers, typed handles name the value type.
type ResourceData interface {
	TypeUUID() uuid.UUID
}

// ResourceKind tags a resource as constructed in memory (embedded) or backed
// by a path. It never changes after creation.
type ResourceKind struct {
	path     ResourcePath
	external bool
}

func EmbeddedKind() ResourceKind {
	return ResourceKind{}
}

func ExternalKind(path ResourcePath) ResourceKind {
	return ResourceKind{path: path, external: true}
}

func (k ResourceKind) IsEmbedded() bool { return !k.external }

func (k ResourceKind) IsExternal() bool { return k.external }

// Path returns the backing path of an external resource; the zero path for
// embedded ones.
func (k ResourceKind) Path() ResourcePath { return k.path }

func (k ResourceKind) String() string {
	if k.external {
		return fmt.Sprintf("External (%s)", k.path)
	}
	return "Embedded"
}

type ResourceStateKind uint8

const (
	// StatePending - the initial state of any asynchronously created
	// resource; pollers register wakers while it lasts.
	StatePending ResourceStateKind = iota
	// StateOk - terminal success; the header holds the decoded payload.
	StateOk
	// StateLoadError - terminal failure; the header holds the load error.
	StateLoadError
)

func (s ResourceStateKind) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateOk:
		return "Ok"
	case StateLoadError:
		return "LoadError"
	default:
		return fmt.Sprintf("ResourceStateKind(%d)", uint8(s))
	}
}

// ResourceHeader is the single mutable cell behind every handle clone that
// refers to the same logical resource. All state reads and writes happen
// under mu; transitions go through commit only.
type ResourceHeader struct {
	mu       sync.Mutex
	kind     ResourceKind
	typeUUID uuid.UUID
	state    ResourceStateKind
	data     ResourceData
	loadErr  error
	wakers   []chan<- struct{}
}

// UntypedResource is a shared handle to a ResourceHeader. Clones observe the
// same underlying state; the header is reclaimed by the garbage collector
// when the last clone is dropped.
type UntypedResource struct {
	header *ResourceHeader
}

// NewPendingResource creates a handle in the Pending state, stamped with the
// UUID of the data type the eventual commit must carry.
func NewPendingResource(kind ResourceKind, typeUUID uuid.UUID) *UntypedResource {
	return &UntypedResource{header: &ResourceHeader{
		kind:     kind,
		typeUUID: typeUUID,
		state:    StatePending,
	}}
}

// NewOkResource creates a handle already in the Ok state, used for built-in
// and synchronously constructed resources.
func NewOkResource(kind ResourceKind, data ResourceData) *UntypedResource {
	return &UntypedResource{header: &ResourceHeader{
		kind:     kind,
		typeUUID: data.TypeUUID(),
		state:    StateOk,
		data:     data,
	}}
}

// NewErrorResource creates a handle already in the LoadError state.
func NewErrorResource(kind ResourceKind, err error, typeUUID uuid.UUID) *UntypedResource {
	return &UntypedResource{header: &ResourceHeader{
		kind:     kind,
		typeUUID: typeUUID,
		state:    StateLoadError,
		loadErr:  err,
	}}
}

// Clone returns a new handle sharing this handle's header.
func (r *UntypedResource) Clone() *UntypedResource {
	return &UntypedResource{header: r.header}
}

func (r *UntypedResource) TypeUUID() uuid.UUID {
	r.header.mu.Lock()
	defer r.header.mu.Unlock()
	return r.header.typeUUID
}

func (r *UntypedResource) Kind() ResourceKind {
	r.header.mu.Lock()
	defer r.header.mu.Unlock()
	return r.header.kind
}

// State returns a snapshot of the current state.
func (r *UntypedResource) State() ResourceStateKind {
	r.header.mu.Lock()
	defer r.header.mu.Unlock()
	return r.header.state
}

// LoadError returns the committed load error, or nil while the resource is
// not in the LoadError state.
func (r *UntypedResource) LoadError() error {
	r.header.mu.Lock()
	defer r.header.mu.Unlock()
	if r.header.state != StateLoadError {
		return nil
	}
	return r.header.loadErr
}

// SharesHeader reports whether both handles point at the same header.
func (r *UntypedResource) SharesHeader(other *UntypedResource) bool {
	return other != nil && r.header == other.header
}

// Poll reports the current state without blocking. While Pending, the waker
// channel (capacity >= 1, may be nil) is registered - once per channel - and
// receives exactly one notification after the state transitions. On
// LoadError the committed error is returned alongside the state.
func (r *UntypedResource) Poll(waker chan<- struct{}) (ResourceStateKind, error) {
	h := r.header
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StatePending:
		if waker != nil && !h.hasWaker(waker) {
			h.wakers = append(h.wakers, waker)
		}
		return StatePending, nil
	case StateLoadError:
		return StateLoadError, h.loadErr
	default:
		return StateOk, nil
	}
}

func (h *ResourceHeader) hasWaker(waker chan<- struct{}) bool {
	for _, w := range h.wakers {
		if w == waker {
			return true
		}
	}
	return false
}

// Wait blocks until the resource leaves Pending or the context is done. It
// returns nil on Ok, the committed error on LoadError, and the context error
// on cancellation.
func (r *UntypedResource) Wait(ctx context.Context) error {
	waker := make(chan struct{}, 1)
	for {
		state, err := r.Poll(waker)
		switch state {
		case StateOk:
			return nil
		case StateLoadError:
			return err
		}
		select {
		case <-waker:
		case <-ctx.Done():
			r.removeWaker(waker)
			return ctx.Err()
		}
	}
}

func (r *UntypedResource) removeWaker(waker chan<- struct{}) {
	h := r.header
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, w := range h.wakers {
		if w == waker {
			h.wakers = append(h.wakers[:i], h.wakers[i+1:]...)
			return
		}
	}
}

// CommitOk transitions Pending -> Ok, records the payload's type UUID and
// wakes every registered waiter. Panics unless the resource is Pending.
func (r *UntypedResource) CommitOk(data ResourceData) {
	r.commit(StateOk, data, nil)
}

// CommitError transitions Pending -> LoadError and wakes every registered
// waiter. Panics unless the resource is Pending.
func (r *UntypedResource) CommitError(err error) {
	r.commit(StateLoadError, nil, err)
}

func (r *UntypedResource) commit(state ResourceStateKind, data ResourceData, err error) {
	h := r.header
	h.mu.Lock()
	if h.state != StatePending {
		current := h.state
		kind := h.kind
		h.mu.Unlock()
		panic(fmt.Sprintf("resources: commit called on a %s resource (%s); commits are only legal while Pending", current, kind))
	}
	h.state = state
	if data != nil {
		h.data = data
		h.typeUUID = data.TypeUUID()
	}
	h.loadErr = err
	wakers := h.wakers
	h.wakers = nil
	h.mu.Unlock()

	// Notify outside the lock so a woken waiter can poll immediately. The
	// capacity-1 contract makes the send land exactly once per waker.
	for _, w := range wakers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}
