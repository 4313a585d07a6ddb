package fiber

import "sync"

// Ref is a mutable cell that survives re-renders. Writing it never
// schedules a render. Effects may touch it from other goroutines.
type Ref[T any] struct {
	mu    sync.Mutex
	value T
}

// NewRef creates a Ref outside of a component. Components use UseRef.
func NewRef[T any](initial T) *Ref[T] {
	return &Ref[T]{value: initial}
}

// Current returns the stored value.
func (r *Ref[T]) Current() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Set replaces the stored value.
func (r *Ref[T]) Set(v T) {
	r.mu.Lock()
	r.value = v
	r.mu.Unlock()
}

// Update replaces the value with fn(value) under the lock and returns
// the new value.
func (r *Ref[T]) Update(fn func(T) T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = fn(r.value)
	return r.value
}
