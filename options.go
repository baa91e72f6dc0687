package surfaceloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultFrameInterval is the target frame interval, 60 frames per second.
const DefaultFrameInterval = time.Second / 60

// options holds configuration for both Bridge and Runner creation.
type options struct {
	logger           *logiface.Logger[logiface.Event]
	warnRates        map[time.Duration]int
	runID            string
	frameInterval    time.Duration
	tickOnPause      bool
	replaceDuplicate bool
}

// --- Options ---

// Option configures a [Bridge] or a [Runner]. Options that only affect one of
// them are ignored by the other.
type Option interface {
	apply(*options) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*options) error
}

func (o *optionImpl) apply(opts *options) error {
	return o.applyFunc(opts)
}

// WithLogger sets the structured logger. A nil logger disables logging.
// A runner without this option inherits the logger of its bridge.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *options) error {
		opts.logger = logger
		return nil
	}}
}

// WithFrameInterval sets the runner's target interval between ticks.
func WithFrameInterval(interval time.Duration) Option {
	return &optionImpl{func(opts *options) error {
		if interval <= 0 {
			return fmt.Errorf("surfaceloop: invalid frame interval %v", interval)
		}
		opts.frameInterval = interval
		return nil
	}}
}

// WithTickOnPause makes the runner tick the engine once, synchronously, when
// a Paused command is applied, flushing in-flight state before the host may
// reclaim the CPU or the surface. Disabled by default.
func WithTickOnPause(enabled bool) Option {
	return &optionImpl{func(opts *options) error {
		opts.tickOnPause = enabled
		return nil
	}}
}

// WithReplaceDuplicateSurface changes how the runner handles a SurfaceCreated
// while a window is still bound. By default this is a fatal protocol
// violation. When enabled, the runner logs the violation, fully releases the
// old window, then binds the new one.
func WithReplaceDuplicateSurface(enabled bool) Option {
	return &optionImpl{func(opts *options) error {
		opts.replaceDuplicate = enabled
		return nil
	}}
}

// WithRunID fixes the identifier attached to every log record of a run.
// By default each run generates a random UUID.
func WithRunID(id string) Option {
	return &optionImpl{func(opts *options) error {
		opts.runID = id
		return nil
	}}
}

// WithWarnRates sets the rate limits (window to maximum count, per command
// kind) for the warning logged when a command is discarded because no
// consumer ever attached. See [catrate.NewLimiter] for the constraints.
func WithWarnRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *options) error {
		for window, count := range rates {
			if window <= 0 || count <= 0 {
				return fmt.Errorf("surfaceloop: invalid warn rate %v: %d", window, count)
			}
		}
		opts.warnRates = rates
		return nil
	}}
}

// resolveOptions applies Option instances over the defaults.
func resolveOptions(opts []Option) (*options, error) {
	cfg := &options{
		frameInterval: DefaultFrameInterval,
		warnRates: map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
