package host

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"
)

// Pump forwards raw platform events from a channel to an [Activity], in
// batches. Each batch is applied as one UI loop task.
type Pump struct {
	activity *Activity
	cfg      PumpConfig
	batches  atomic.Uint64
	events   atomic.Uint64
}

// NewPump creates a pump for activity. The cfg parameter is optional.
func NewPump(activity *Activity, cfg *PumpConfig) (*Pump, error) {
	if activity == nil {
		return nil, errors.New("host: nil activity")
	}
	resolved, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	return &Pump{activity: activity, cfg: resolved}, nil
}

// Run dispatches batches received from events until the channel is closed
// (returning nil, after dispatching what was received), ctx is done
// (returning ctx.Err()), or a dispatch fails.
func (p *Pump) Run(ctx context.Context, events <-chan InputEvent) error {
	if ctx == nil {
		ctx = context.Background()
	}
	batch := make([]InputEvent, 0, p.cfg.MaxBatch)
	for {
		var err error
		batch, err = receiveBatch(ctx, p.cfg, events, batch[:0])
		if err != nil && err != io.EOF {
			return err
		}
		if len(batch) != 0 {
			p.batches.Add(1)
			p.events.Add(uint64(len(batch)))
			if dispatchErr := p.activity.Dispatch(ctx, batch); dispatchErr != nil {
				return dispatchErr
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

// Batches returns the number of batches dispatched.
func (p *Pump) Batches() uint64 { return p.batches.Load() }

// Events returns the number of events dispatched.
func (p *Pump) Events() uint64 { return p.events.Load() }

// receiveBatch appends to batch until it holds cfg.MinBatch events, or the
// partial timeout (started by the first event) elapses, then takes whatever
// else is immediately available, up to cfg.MaxBatch. It returns io.EOF once
// ch is closed and ctx.Err() if ctx ends first, along with any events
// received.
func receiveBatch(ctx context.Context, cfg PumpConfig, ch <-chan InputEvent, batch []InputEvent) ([]InputEvent, error) {
	if err := ctx.Err(); err != nil {
		return batch, err
	}

	var partial <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

Fill:
	for len(batch) < cfg.MinBatch {
		select {
		case <-ctx.Done():
			return batch, ctx.Err()
		case <-partial:
			break Fill
		case ev, ok := <-ch:
			if !ok {
				return batch, io.EOF
			}
			batch = append(batch, ev)
			if timer == nil && cfg.PartialTimeout > 0 {
				timer = time.NewTimer(cfg.PartialTimeout)
				partial = timer.C
			}
		}
	}

	for len(batch) < cfg.MaxBatch {
		select {
		case ev, ok := <-ch:
			if !ok {
				return batch, io.EOF
			}
			batch = append(batch, ev)
		default:
			return batch, ctx.Err()
		}
	}
	return batch, nil
}
