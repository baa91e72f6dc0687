package surfaceloop

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// recordingEngine is a FrameEngine that records every call.
type recordingEngine struct {
	initErr       error
	bound         *Window
	onTick        func()
	onUnbind      func()
	calls         []string
	surfaceEvents []SurfaceEvent
	touches       []TouchEvent
	lifecycle     []LifecycleEvent
	mu            sync.Mutex
	prepareAfter  int
	prepares      int
	ticks         int
	initialized   int
	finalized     int
	created       int
	width         uint32
	height        uint32
	exit          bool
}

var _ Preparer = (*recordingEngine)(nil)

func (e *recordingEngine) record(call string) {
	e.calls = append(e.calls, call)
}

func (e *recordingEngine) Prepare() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prepares++
	return e.prepares > e.prepareAfter
}

func (e *recordingEngine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Initialize")
	if e.initErr != nil {
		return e.initErr
	}
	e.initialized++
	return nil
}

func (e *recordingEngine) Finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Finalize")
	e.finalized++
}

func (e *recordingEngine) Tick() {
	e.mu.Lock()
	e.record("Tick")
	e.ticks++
	fn := e.onTick
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *recordingEngine) ExitRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exit
}

func (e *recordingEngine) CreateSurface() SurfaceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("CreateSurface")
	e.created++
	return SurfaceID(7)
}

func (e *recordingEngine) BindSurface(id SurfaceID, w *Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("BindSurface")
	e.bound = w
}

func (e *recordingEngine) UnbindSurface(id SurfaceID) {
	e.mu.Lock()
	e.record("UnbindSurface")
	e.bound = nil
	fn := e.onUnbind
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *recordingEngine) Resize(id SurfaceID, width, height uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Resize")
	e.width, e.height = width, height
}

func (e *recordingEngine) DispatchSurface(event SurfaceEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surfaceEvents = append(e.surfaceEvents, event)
}

func (e *recordingEngine) DispatchTouch(event TouchEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touches = append(e.touches, event)
}

func (e *recordingEngine) DispatchLifecycle(event LifecycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lifecycle = append(e.lifecycle, event)
}

func (e *recordingEngine) setExit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exit = true
}

func (e *recordingEngine) tickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

func (e *recordingEngine) boundWindow() *Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bound
}

func (e *recordingEngine) lifecycleEvents() []LifecycleEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]LifecycleEvent(nil), e.lifecycle...)
}

func (e *recordingEngine) surfaceEventKinds() []SurfaceEventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]SurfaceEventKind, len(e.surfaceEvents))
	for i, ev := range e.surfaceEvents {
		kinds[i] = ev.Kind
	}
	return kinds
}

// testWindow creates a window that counts releases.
func testWindow(name string) (*Window, *int) {
	var released int
	var mu sync.Mutex
	w := NewWindow(name, func(any) {
		mu.Lock()
		released++
		mu.Unlock()
	})
	return w, &released
}

// newTestRunner creates a bridge and a started runner.
func newTestRunner(t *testing.T, engine FrameEngine, opts ...Option) (*Bridge, *Runner) {
	t.Helper()
	bridge, err := NewBridge()
	require.NoError(t, err)
	opts = append([]Option{WithFrameInterval(time.Millisecond)}, opts...)
	runner, err := NewRunner(bridge, engine, opts...)
	require.NoError(t, err)
	require.NoError(t, runner.Start())
	t.Cleanup(runner.Finish)
	return bridge, runner
}

// newBufferLogger returns a JSON lines logger writing to a buffer.
func newBufferLogger(level logiface.Level) (*logiface.Logger[logiface.Event], *syncBuffer) {
	var buf syncBuffer
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf)),
		stumpy.L.WithLevel(level),
	).Logger(), &buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.String()
}

var errTest = errors.New("test error")
