package surfaceloop

import (
	"context"
	"sync"
)

// ReleaseHandshake is the two-state rendezvous between a goroutine
// destroying a surface and the runner releasing it.
//
// The acknowledged flag is true between runs, false from the moment a release
// is requested (immediately before the destroy command is sent) until the
// runner has unbound and released the window, when [ReleaseHandshake.ConfirmRelease]
// sets it true again and wakes waiters.
//
// While no runner is active there is nothing to release: a request is skipped
// and [ReleaseHandshake.AwaitRelease] returns immediately.
type ReleaseHandshake struct {
	cond         *sync.Cond
	mu           sync.Mutex
	confirmed    uint64
	acknowledged bool
	running      bool
}

func newReleaseHandshake() *ReleaseHandshake {
	h := &ReleaseHandshake{acknowledged: true}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// RequestRelease marks a release as pending. It returns false (and leaves
// the flag untouched) if no runner is active.
func (h *ReleaseHandshake) RequestRelease() bool {
	ok, _ := h.request(nil)
	return ok
}

// request performs RequestRelease and, if a runner is active, calls send
// while still holding the lock, so the runner cannot exit between the check
// and the enqueue. A send error restores the flag.
func (h *ReleaseHandshake) request(send func() error) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return false, nil
	}
	h.acknowledged = false
	if send != nil {
		if err := send(); err != nil {
			h.acknowledged = true
			h.cond.Broadcast()
			return false, err
		}
	}
	return true, nil
}

// ifRunning calls fn under the lock if a runner is active, returning false
// without calling it otherwise.
func (h *ReleaseHandshake) ifRunning(fn func() error) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return false, nil
	}
	return true, fn()
}

// ConfirmRelease marks the pending release as complete and wakes every
// waiter. It is a no-op (apart from the wake) when nothing is pending.
func (h *ReleaseHandshake) ConfirmRelease() {
	h.mu.Lock()
	if !h.acknowledged {
		h.acknowledged = true
		h.confirmed++
	}
	h.cond.Broadcast()
	h.mu.Unlock()
}

// AwaitRelease blocks until the pending release is confirmed, the runner
// stops, or ctx is done (returning ctx.Err()). The predicate is re-checked
// under the lock on every wake.
func (h *ReleaseHandshake) AwaitRelease(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.acknowledged || !h.running {
		return nil
	}

	if done := ctx.Done(); done != nil {
		// wake the cond on cancellation
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-stop:
			}
		}()
	}

	for !h.acknowledged && h.running {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.cond.Wait()
	}

	return nil
}

// Acknowledged reports the current value of the flag.
func (h *ReleaseHandshake) Acknowledged() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acknowledged
}

// Running reports whether a runner is active.
func (h *ReleaseHandshake) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Confirmed returns the number of releases confirmed so far.
func (h *ReleaseHandshake) Confirmed() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.confirmed
}

// setRunning is called by the runner on start and exit. Clearing it resets
// the flag to true and wakes waiters, so no producer is stranded.
func (h *ReleaseHandshake) setRunning(running bool) {
	h.mu.Lock()
	h.running = running
	if !running {
		h.acknowledged = true
		h.cond.Broadcast()
	}
	h.mu.Unlock()
}
