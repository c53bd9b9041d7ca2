package model

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Registry holds the single model handle. It is written once at startup and read by every request.
type Registry struct {
	handle      atomic.Pointer[Handle]
	err         error
	status      Status
	subscribers []func(ready bool)
	mu          sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{status: StatusUnloaded}
}

// Get returns the handle, or false when none is stored yet. It never blocks.
func (r *Registry) Get() (*Handle, bool) {
	h := r.handle.Load()
	return h, h != nil
}

// IsReady reports whether a handle is stored.
func (r *Registry) IsReady() bool {
	return r.handle.Load() != nil
}

// Status returns the current lifecycle state.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.status
}

// Err returns the load error recorded by MarkFailed.
func (r *Registry) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.err
}

// MarkLoading moves the registry from Unloaded to Loading.
func (r *Registry) MarkLoading() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusUnloaded {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status, StatusLoading)
	}
	r.status = StatusLoading

	return nil
}

// MarkFailed records a load failure. A Ready registry cannot fail.
func (r *Registry) MarkFailed(err error) error {
	r.mu.Lock()
	if r.status == StatusReady {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status, StatusFailed)
	}
	r.status = StatusFailed
	r.err = err
	subscribers := r.snapshotSubscribers()
	r.mu.Unlock()

	notify(subscribers, false)

	return nil
}

// Store publishes h. Only the first call succeeds.
func (r *Registry) Store(h *Handle) error {
	if h == nil {
		return ErrNilHandle
	}

	r.mu.Lock()
	if r.status == StatusFailed {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status, StatusReady)
	}
	if !r.handle.CompareAndSwap(nil, h) {
		r.mu.Unlock()
		return ErrAlreadyStored
	}
	r.status = StatusReady
	r.err = nil
	subscribers := r.snapshotSubscribers()
	r.mu.Unlock()

	notify(subscribers, true)

	return nil
}

// OnReady registers fn to be told about readiness. fn is called at once with the current state.
func (r *Registry) OnReady(fn func(ready bool)) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	ready := r.status == StatusReady
	r.mu.Unlock()

	fn(ready)
}

func (r *Registry) snapshotSubscribers() []func(bool) {
	return append([]func(bool){}, r.subscribers...)
}

func notify(subscribers []func(bool), ready bool) {
	for _, fn := range subscribers {
		fn(ready)
	}
}
