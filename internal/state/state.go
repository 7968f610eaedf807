// Package state holds the client-side application state: one Resource per
// backend read endpoint plus the user profile. Each Resource follows a
// pending/fulfilled/rejected lifecycle and keeps its last good data when a
// fetch fails.
package state

import "sync"

// Resource is one slice of fetched state with a three-state lifecycle.
// Begin marks a fetch pending and returns a request token; Resolve and
// Reject settle the fetch. Tokens are monotonic per resource: a settle
// carrying a token older than the newest issued one is a no-op, so a slow
// response can never overwrite the result of a later request.
type Resource[T any] struct {
	mu      sync.Mutex
	data    T
	loaded  bool
	loading bool
	err     string
	seq     uint64
}

// Begin transitions the resource to loading, clears the error, and returns
// the token the eventual Resolve/Reject must carry.
func (r *Resource[T]) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.loading = true
	r.err = ""
	return r.seq
}

// Resolve stores fetched data. Stale tokens are ignored.
func (r *Resource[T]) Resolve(token uint64, data T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.seq {
		return
	}
	r.loading = false
	r.data = data
	r.loaded = true
	r.err = ""
}

// Reject records a fetch failure. Previously loaded data is kept so screens
// can show the last good state alongside the error. Stale tokens are ignored.
func (r *Resource[T]) Reject(token uint64, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.seq {
		return
	}
	r.loading = false
	r.err = msg
}

// Reset clears the resource back to its initial empty state.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.seq++ // invalidate any in-flight settle
	r.data = zero
	r.loaded = false
	r.loading = false
	r.err = ""
}

// Get returns the current data, whether it has ever loaded, whether a fetch
// is in flight, and the current error message (empty if none).
func (r *Resource[T]) Get() (data T, loaded, loading bool, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data, r.loaded, r.loading, r.err
}

// Loading reports whether a fetch is in flight.
func (r *Resource[T]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err returns the current error message, empty if none.
func (r *Resource[T]) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
