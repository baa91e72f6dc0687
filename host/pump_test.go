package host

import (
	"context"
	"io"
	"testing"
	"time"

	surfaceloop "github.com/joeycumines/go-surfaceloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPumpConfig_Resolve(t *testing.T) {
	cfg, err := (*PumpConfig)(nil).resolve()
	require.NoError(t, err)
	assert.Equal(t, PumpConfig{MaxBatch: 16, MinBatch: 4, PartialTimeout: 4 * time.Millisecond}, cfg)

	cfg, err = (&PumpConfig{MaxBatch: 2, MinBatch: 8}).resolve()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MinBatch)

	_, err = (&PumpConfig{MaxBatch: -1}).resolve()
	require.Error(t, err)
}

func TestReceiveBatch_MinBatch(t *testing.T) {
	ch := make(chan InputEvent, 10)
	for i := 0; i < 6; i++ {
		ch <- InputEvent{Kind: InputTouch, PointerID: int32(i)}
	}
	cfg := PumpConfig{MaxBatch: 4, MinBatch: 2, PartialTimeout: time.Hour}

	batch, err := receiveBatch(context.Background(), cfg, ch, nil)
	require.NoError(t, err)
	require.Len(t, batch, 4, "buffered events fill up to the maximum")
	assert.Equal(t, int32(3), batch[3].PointerID)

	batch, err = receiveBatch(context.Background(), cfg, ch, batch[:0])
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int32(5), batch[1].PointerID)
}

func TestReceiveBatch_PartialTimeout(t *testing.T) {
	ch := make(chan InputEvent, 1)
	ch <- InputEvent{Kind: InputResume}
	cfg := PumpConfig{MaxBatch: 16, MinBatch: 4, PartialTimeout: 10 * time.Millisecond}

	start := time.Now()
	batch, err := receiveBatch(context.Background(), cfg, ch, nil)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestReceiveBatch_Closed(t *testing.T) {
	ch := make(chan InputEvent, 2)
	ch <- InputEvent{Kind: InputPause}
	close(ch)

	batch, err := receiveBatch(context.Background(), PumpConfig{MaxBatch: 4, MinBatch: 4, PartialTimeout: time.Hour}, ch, nil)
	require.ErrorIs(t, err, io.EOF)
	assert.Len(t, batch, 1)
}

func TestReceiveBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := receiveBatch(ctx, PumpConfig{MaxBatch: 1, MinBatch: 1}, make(chan InputEvent), nil)
	require.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = receiveBatch(ctx, PumpConfig{MaxBatch: 1, MinBatch: 1}, make(chan InputEvent), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPump_Run(t *testing.T) {
	ctx := context.Background()
	activity, runner, engine, releases := newTestActivity(t)
	pump, err := NewPump(activity, &PumpConfig{MaxBatch: 8, MinBatch: 2, PartialTimeout: time.Millisecond})
	require.NoError(t, err)

	events := make(chan InputEvent, 16)
	events <- InputEvent{Kind: InputStartGame}
	events <- InputEvent{Kind: InputSurfaceCreated, Handle: "pumped"}
	events <- InputEvent{Kind: InputSurfaceChanged, Width: 10, Height: 10}
	events <- InputEvent{Kind: InputTouch, PointerID: 1, Action: surfaceloop.ActionDown, X: 1, Y: 1}
	events <- InputEvent{Kind: InputTouch, PointerID: 1, Action: surfaceloop.ActionMove, X: 2, Y: 2}

	done := make(chan error, 1)
	go func() { done <- pump.Run(ctx, events) }()

	require.Eventually(t, func() bool { return len(engine.snapshot().touches) == 2 }, 5*time.Second, time.Millisecond)

	events <- InputEvent{Kind: InputSurfaceDestroyed}
	events <- InputEvent{Kind: InputStopGame}
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not return after the channel closed")
	}

	assert.Equal(t, []any{"pumped"}, releases.get())
	assert.Equal(t, surfaceloop.StateStopped, runner.State())
	assert.Equal(t, uint64(7), pump.Events())
	assert.GreaterOrEqual(t, pump.Batches(), uint64(2))
}

func TestPump_RunStopsOnDispatchError(t *testing.T) {
	activity, _, _, _ := newTestActivity(t)
	pump, err := NewPump(activity, &PumpConfig{MinBatch: 1})
	require.NoError(t, err)

	events := make(chan InputEvent, 1)
	events <- InputEvent{Kind: InputSurfaceDestroyed}
	require.ErrorIs(t, pump.Run(context.Background(), events), ErrNoSurface)

	_, err = NewPump(nil, nil)
	require.Error(t, err)
}
