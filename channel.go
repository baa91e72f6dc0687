package surfaceloop

import (
	"sync"
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// Channel is the unbounded multi-producer single-consumer command queue.
//
// Send is safe to call from any goroutine and never blocks. TryReceive,
// ReceiveTimeout and Drain must only be called by the single consumer (the
// active [Runner]). Commands are delivered in the order they were enqueued.
//
// A Channel is created by [NewBridge] and lives as long as the bridge; it is
// drained, never closed, between runs.
type Channel struct {
	log      eventLogger
	limiter  *catrate.Limiter
	wake     chan struct{}
	queue    commandQueue
	sent     atomic.Uint64
	dropped  atomic.Uint64
	mu       sync.Mutex
	attached atomic.Bool
}

func newChannel(log eventLogger, limiter *catrate.Limiter) *Channel {
	return &Channel{
		log:     log,
		limiter: limiter,
		wake:    make(chan struct{}, 1),
	}
}

// attach marks that a consumer has been initialized. It is sticky: once any
// runner has started, commands are queued even while no runner is active, to
// be applied by the next run.
func (c *Channel) attach() {
	c.attached.Store(true)
}

// Attached reports whether a consumer has ever attached.
func (c *Channel) Attached() bool {
	return c.attached.Load()
}

// Send enqueues cmd without blocking.
//
// If no consumer has ever attached, the command is discarded (releasing any
// window it carries), a rate-limited warning is logged, and [ErrNoConsumer]
// is returned. Blocking here would deadlock the platform callback thread.
func (c *Channel) Send(cmd Command) error {
	if !c.attached.Load() {
		c.discard(cmd)
		return ErrNoConsumer
	}

	c.mu.Lock()
	c.queue.push(cmd)
	c.mu.Unlock()
	c.sent.Add(1)

	c.wakeup()
	return nil
}

func (c *Channel) discard(cmd Command) {
	c.dropped.Add(1)
	if cmd.Window != nil {
		cmd.Window.Release()
	}
	if _, ok := c.limiter.Allow(cmd.Kind); ok {
		c.log.warning(categoryChannel).
			Stringer("command", cmd).
			Uint64("dropped", c.dropped.Load()).
			Log("no consumer attached, command discarded")
	}
}

// wakeup leaves a token for a consumer blocked in ReceiveTimeout. Tokens
// coalesce: the consumer re-checks the queue on every wake.
func (c *Channel) wakeup() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// TryReceive pops the next command, without blocking.
func (c *Channel) TryReceive() (Command, bool) {
	c.mu.Lock()
	cmd, ok := c.queue.pop()
	c.mu.Unlock()
	return cmd, ok
}

// ReceiveTimeout pops the next command, blocking for up to d. It returns
// false if d elapsed with nothing queued. A non-positive d never blocks.
func (c *Channel) ReceiveTimeout(d time.Duration) (Command, bool) {
	return c.receive(d, nil)
}

// receive implements ReceiveTimeout, additionally returning early (with
// false) once interrupt is closed.
func (c *Channel) receive(d time.Duration, interrupt <-chan struct{}) (Command, bool) {
	if cmd, ok := c.TryReceive(); ok || d <= 0 {
		return cmd, ok
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-c.wake:
			// may be stale, from a command already received
			if cmd, ok := c.TryReceive(); ok {
				return cmd, true
			}
		case <-timer.C:
			return c.TryReceive()
		case <-interrupt:
			return Command{}, false
		}
	}
}

// Drain pops every queued command, passing each to fn, and returns the
// number drained. After Drain returns, TryReceive reports empty unless a
// producer sent concurrently.
func (c *Channel) Drain(fn func(Command)) int {
	var n int
	for {
		cmd, ok := c.TryReceive()
		if !ok {
			return n
		}
		n++
		if fn != nil {
			fn(cmd)
		}
	}
}

// Len returns the number of queued commands.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}

// Sent returns the number of commands accepted by Send.
func (c *Channel) Sent() uint64 {
	return c.sent.Load()
}

// Dropped returns the number of commands discarded by Send.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}
