package surfaceloop

import (
	"sync"
	"sync/atomic"
)

// Window owns an opaque native surface handle, e.g. an ANativeWindow pointer
// or a terminal screen.
//
// Ownership is move-only: the host creates the Window, [Window.Take] moves it
// (exactly once) into a [Command], and from then on the runner is the sole
// owner until it calls [Window.Release]. The release function supplied to
// [NewWindow] runs at most once.
type Window struct {
	handle      any
	release     func(handle any)
	releaseOnce sync.Once
	taken       atomic.Bool
	released    atomic.Bool
}

// NewWindow wraps a native handle. The release func may be nil, and is called
// with the handle when the owner releases the window.
func NewWindow(handle any, release func(handle any)) *Window {
	return &Window{handle: handle, release: release}
}

// Handle returns the native handle, or nil once the window has been released.
func (w *Window) Handle() any {
	if w == nil || w.released.Load() {
		return nil
	}
	return w.handle
}

// Take moves ownership out of the receiver. It returns the window the first
// time it is called, and nil on every later call (or for a nil receiver), so a
// window can never be enqueued twice.
func (w *Window) Take() *Window {
	if w == nil || !w.taken.CompareAndSwap(false, true) {
		return nil
	}
	return w
}

// Release drops the native handle, calling the release func exactly once.
// It returns true if this call performed the release.
func (w *Window) Release() bool {
	if w == nil {
		return false
	}
	var did bool
	w.releaseOnce.Do(func() {
		did = true
		w.released.Store(true)
		if w.release != nil {
			w.release(w.handle)
		}
	})
	return did
}

// Released reports whether [Window.Release] has been called.
func (w *Window) Released() bool {
	return w != nil && w.released.Load()
}
