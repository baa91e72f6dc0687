package host

import (
	"context"
	"sync"
	"testing"
	"time"

	surfaceloop "github.com/joeycumines/go-surfaceloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEngine records the surface handles bound and the ticks run.
type countingEngine struct {
	surfaceloop.UnimplementedFrameEngine
	mu       sync.Mutex
	bound    []any
	unbound  int
	ticks    int
	touches  []surfaceloop.TouchEvent
	life     []surfaceloop.LifecycleEvent
	width    uint32
	height   uint32
	finished int
}

func (e *countingEngine) BindSurface(_ surfaceloop.SurfaceID, w *surfaceloop.Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bound = append(e.bound, w.Handle())
}

func (e *countingEngine) UnbindSurface(surfaceloop.SurfaceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unbound++
}

func (e *countingEngine) Resize(_ surfaceloop.SurfaceID, w, h uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width, e.height = w, h
}

func (e *countingEngine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks++
}

func (e *countingEngine) DispatchTouch(ev surfaceloop.TouchEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touches = append(e.touches, ev)
}

func (e *countingEngine) DispatchLifecycle(ev surfaceloop.LifecycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.life = append(e.life, ev)
}

func (e *countingEngine) Finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished++
}

func (e *countingEngine) snapshot() countingEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return countingEngine{
		bound:    append([]any(nil), e.bound...),
		unbound:  e.unbound,
		ticks:    e.ticks,
		touches:  append([]surfaceloop.TouchEvent(nil), e.touches...),
		life:     append([]surfaceloop.LifecycleEvent(nil), e.life...),
		width:    e.width,
		height:   e.height,
		finished: e.finished,
	}
}

type releaseLog struct {
	mu      sync.Mutex
	handles []any
}

func (r *releaseLog) release(handle any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = append(r.handles, handle)
}

func (r *releaseLog) get() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.handles...)
}

func newTestActivity(t *testing.T) (*Activity, *surfaceloop.Runner, *countingEngine, *releaseLog) {
	t.Helper()
	bridge, err := surfaceloop.NewBridge(surfaceloop.WithFrameInterval(time.Millisecond))
	require.NoError(t, err)
	engine := &countingEngine{}
	runner, err := surfaceloop.NewRunner(bridge, engine)
	require.NoError(t, err)
	releases := &releaseLog{}
	activity, err := NewActivity(bridge, runner, WithRelease(releases.release))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = activity.Close(ctx)
	})
	return activity, runner, engine, releases
}

func TestNewActivity_Validation(t *testing.T) {
	bridge, err := surfaceloop.NewBridge()
	require.NoError(t, err)
	_, err = NewActivity(bridge, nil)
	require.ErrorIs(t, err, ErrNilRunner)
	_, err = NewActivity(nil, nil)
	require.Error(t, err)
}

func TestActivity_SurfaceLifecycle(t *testing.T) {
	ctx := context.Background()
	activity, runner, engine, releases := newTestActivity(t)

	require.NoError(t, activity.StartGame(ctx))
	require.NoError(t, activity.OnResume(ctx))
	require.NoError(t, activity.SurfaceCreated(ctx, "surface-1"))
	require.NoError(t, activity.SurfaceChanged(ctx, 800, 600))

	require.Eventually(t, func() bool { return engine.snapshot().ticks > 0 }, 5*time.Second, time.Millisecond)
	snap := engine.snapshot()
	assert.Equal(t, []any{"surface-1"}, snap.bound)
	assert.Equal(t, uint32(800), snap.width)
	assert.Equal(t, uint32(600), snap.height)
	assert.Equal(t, []surfaceloop.LifecycleEvent{surfaceloop.LifecycleStarted}, snap.life)

	require.NoError(t, activity.SurfaceDestroyed(ctx))
	// the destroy callback returns only once the window is released
	assert.Equal(t, []any{"surface-1"}, releases.get())
	assert.Equal(t, 1, engine.snapshot().unbound)

	require.NoError(t, activity.StopGame(ctx))
	assert.Equal(t, surfaceloop.StateStopped, runner.State())
	running, err := activity.GameRunning(ctx)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestActivity_StartGameReplaysExistingSurface(t *testing.T) {
	ctx := context.Background()
	activity, _, engine, releases := newTestActivity(t)

	// not forwarded, no game is running
	require.NoError(t, activity.SurfaceCreated(ctx, "surface-1"))
	require.NoError(t, activity.SurfaceChanged(ctx, 320, 240))
	assert.Empty(t, releases.get())

	require.NoError(t, activity.StartGame(ctx))
	require.Eventually(t, func() bool { return engine.snapshot().ticks > 0 }, 5*time.Second, time.Millisecond)
	snap := engine.snapshot()
	assert.Equal(t, []any{"surface-1"}, snap.bound)
	assert.Equal(t, uint32(320), snap.width)

	// restarting stops (releasing the window) then replays again
	require.NoError(t, activity.StartGame(ctx))
	assert.Equal(t, []any{"surface-1"}, releases.get())
	require.Eventually(t, func() bool { return len(engine.snapshot().bound) == 2 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, 1, engine.snapshot().finished)

	require.NoError(t, activity.StopGame(ctx))
	assert.Equal(t, []any{"surface-1", "surface-1"}, releases.get())
}

func TestActivity_DestroyWithoutGameDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	activity, _, _, releases := newTestActivity(t)

	require.NoError(t, activity.SurfaceCreated(ctx, "surface-1"))
	require.NoError(t, activity.SurfaceDestroyed(ctx))
	assert.Empty(t, releases.get())

	require.ErrorIs(t, activity.SurfaceDestroyed(ctx), ErrNoSurface)
	require.ErrorIs(t, activity.SurfaceChanged(ctx, 1, 1), ErrNoSurface)
}

func TestActivity_CallbacksIgnoredWithoutGame(t *testing.T) {
	ctx := context.Background()
	activity, runner, _, _ := newTestActivity(t)

	require.NoError(t, activity.OnResume(ctx))
	require.NoError(t, activity.Touch(ctx, 0, surfaceloop.ActionDown, 1, 2))
	require.NoError(t, activity.OnPause(ctx))
	require.NoError(t, activity.StopGame(ctx))

	assert.Equal(t, surfaceloop.StateIdle, runner.State())
}

func TestActivity_TouchForwarded(t *testing.T) {
	ctx := context.Background()
	activity, _, engine, _ := newTestActivity(t)

	require.NoError(t, activity.StartGame(ctx))
	require.NoError(t, activity.Touch(ctx, 3, surfaceloop.ActionDown, 10, 20))
	require.NoError(t, activity.Touch(ctx, 3, surfaceloop.ActionUp, 11, 21))

	require.Eventually(t, func() bool { return len(engine.snapshot().touches) == 2 }, 5*time.Second, time.Millisecond)
	touches := engine.snapshot().touches
	assert.Equal(t, surfaceloop.TouchStarted, touches[0].Phase)
	assert.Equal(t, uint64(3), touches[0].ID)
	assert.Equal(t, surfaceloop.TouchEnded, touches[1].Phase)
	assert.Equal(t, float32(21), touches[1].Y)
}

func TestActivity_Dispatch(t *testing.T) {
	ctx := context.Background()
	activity, runner, engine, releases := newTestActivity(t)

	require.NoError(t, activity.Dispatch(ctx, []InputEvent{
		{Kind: InputStartGame},
		{Kind: InputResume},
		{Kind: InputSurfaceCreated, Handle: "s"},
		{Kind: InputSurfaceChanged, Width: 64, Height: 48},
	}))
	require.Eventually(t, func() bool { return engine.snapshot().ticks > 0 }, 5*time.Second, time.Millisecond)

	require.NoError(t, activity.Dispatch(ctx, []InputEvent{
		{Kind: InputPause},
		{Kind: InputSurfaceDestroyed},
		{Kind: InputStopGame},
	}))
	assert.Equal(t, []any{"s"}, releases.get())
	assert.Equal(t, surfaceloop.StateStopped, runner.State())

	err := activity.Dispatch(ctx, []InputEvent{{Kind: InputSurfaceChanged, Width: 1, Height: 1}})
	require.ErrorIs(t, err, ErrNoSurface)

	require.Error(t, activity.Dispatch(ctx, []InputEvent{{Kind: InputKind(99)}}))
	require.NoError(t, activity.Dispatch(ctx, nil))
}

func TestActivity_PostRecoversPanic(t *testing.T) {
	activity, _, _, _ := newTestActivity(t)
	err := activity.post(context.Background(), func() error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// the ui loop survives
	require.NoError(t, activity.OnResume(context.Background()))
}

func TestActivity_Close(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	activity, runner, _, _ := newTestActivity(t)

	require.NoError(t, activity.StartGame(ctx))
	require.NoError(t, activity.Close(ctx))
	assert.Equal(t, surfaceloop.StateStopped, runner.State())

	require.Error(t, activity.StartGame(ctx))
}

func TestInputKind_String(t *testing.T) {
	assert.Equal(t, "SurfaceCreated", InputSurfaceCreated.String())
	assert.Equal(t, "StopGame", InputStopGame.String())
	assert.Equal(t, "Unknown", InputKind(0).String())
}
