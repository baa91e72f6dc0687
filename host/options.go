package host

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

type activityOptions struct {
	logger  *logiface.Logger[logiface.Event]
	release func(handle any)
}

// ActivityOption configures an [Activity].
type ActivityOption interface {
	applyActivity(*activityOptions) error
}

type activityOptionImpl struct {
	applyFunc func(*activityOptions) error
}

func (o *activityOptionImpl) applyActivity(opts *activityOptions) error {
	return o.applyFunc(opts)
}

// WithLogger sets the structured logger used for host callbacks.
func WithLogger(logger *logiface.Logger[logiface.Event]) ActivityOption {
	return &activityOptionImpl{func(opts *activityOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithRelease sets the func called (on the runner's goroutine) once the runner
// has finished with a surface handle the activity forwarded.
func WithRelease(release func(handle any)) ActivityOption {
	return &activityOptionImpl{func(opts *activityOptions) error {
		opts.release = release
		return nil
	}}
}

func resolveActivityOptions(opts []ActivityOption) (*activityOptions, error) {
	cfg := &activityOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyActivity(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// PumpConfig models the batching behavior of a [Pump]. Zero values take the
// documented defaults.
type PumpConfig struct {
	// MaxBatch is the maximum number of events dispatched together.
	//
	// Defaults to 16, if 0.
	MaxBatch int

	// MinBatch is the number of events a batch waits for, unless the
	// PartialTimeout elapses first, after which a partial batch (of at least
	// one event) is dispatched.
	//
	// Defaults to 4, if 0.
	MinBatch int

	// PartialTimeout bounds the wait for MinBatch events, starting from the
	// first event of the batch. A negative value waits for MinBatch events
	// unconditionally.
	//
	// Defaults to 4ms, if 0.
	PartialTimeout time.Duration
}

func (c *PumpConfig) resolve() (PumpConfig, error) {
	out := PumpConfig{MaxBatch: 16, MinBatch: 4, PartialTimeout: 4 * time.Millisecond}
	if c != nil {
		if c.MaxBatch != 0 {
			out.MaxBatch = c.MaxBatch
		}
		if c.MinBatch != 0 {
			out.MinBatch = c.MinBatch
		}
		if c.PartialTimeout != 0 {
			out.PartialTimeout = c.PartialTimeout
		}
	}
	if out.MaxBatch < 1 || out.MinBatch < 1 {
		return PumpConfig{}, fmt.Errorf("host: invalid pump batch sizes min=%d max=%d", out.MinBatch, out.MaxBatch)
	}
	if out.MinBatch > out.MaxBatch {
		out.MinBatch = out.MaxBatch
	}
	return out, nil
}
