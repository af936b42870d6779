package app

import "sync/atomic"

// AsyncResult is a handle to a task running on its own goroutine. The
// main loop polls it once per frame and takes the result between
// frames; dropping the handle detaches the task and discards its value.
type AsyncResult[T any] struct {
	ready  atomic.Bool
	result chan T

	value T
	taken bool
	have  bool
}

// Spawn runs fn on a new goroutine and returns its handle.
func Spawn[T any](fn func() T) *AsyncResult[T] {
	r := &AsyncResult[T]{result: make(chan T, 1)}
	go func() {
		v := fn()
		r.result <- v
		r.ready.Store(true)
	}()
	return r
}

// Ready reports whether the task finished.
func (r *AsyncResult[T]) Ready() bool { return r.ready.Load() }

// Poll returns the result without consuming it, once ready.
func (r *AsyncResult[T]) Poll() (T, bool) {
	if !r.fetch() {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Take consumes the result. Returns false before completion and after
// the result was already taken.
func (r *AsyncResult[T]) Take() (T, bool) {
	if r.taken || !r.fetch() {
		var zero T
		return zero, false
	}
	r.taken = true
	return r.value, true
}

func (r *AsyncResult[T]) fetch() bool {
	if r.have {
		return true
	}
	if !r.ready.Load() {
		return false
	}
	r.value = <-r.result
	r.have = true
	return true
}
