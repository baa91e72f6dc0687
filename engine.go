package surfaceloop

// SurfaceID identifies the engine-side target a window is bound to. The
// runner manages a single target, created on the first SurfaceCreated of a
// run and reused by every later bind.
type SurfaceID uint64

// FrameEngine is the rendering and update runtime driven by a [Runner].
//
// All methods are called from the runner's goroutine only.
type FrameEngine interface {
	// Initialize completes engine construction. It is called once per run,
	// after the engine reports ready via [Preparer] (if implemented). An
	// error ends the run.
	Initialize() error

	// Finalize is called once when a run ends, if Initialize succeeded.
	Finalize()

	// Tick runs one update and render pass.
	Tick()

	// ExitRequested reports the terminal exit signal, checked after every
	// iteration once the engine is initialized.
	ExitRequested() bool

	// CreateSurface registers the render target windows are bound to.
	CreateSurface() SurfaceID

	// BindSurface attaches a native window to the target.
	BindSurface(id SurfaceID, w *Window)

	// UnbindSurface detaches the window from the target. After it returns
	// the engine must hold no reference to the window.
	UnbindSurface(id SurfaceID)

	// Resize updates the target's pixel dimensions.
	Resize(id SurfaceID, width, height uint32)

	// DispatchSurface notifies the application of surface changes.
	DispatchSurface(event SurfaceEvent)

	// DispatchTouch forwards a touch input.
	DispatchTouch(event TouchEvent)

	// DispatchLifecycle notifies the application of lifecycle changes.
	DispatchLifecycle(event LifecycleEvent)
}

// Preparer may be implemented by a [FrameEngine] whose construction
// completes asynchronously. While Prepare returns false the runner keeps
// draining commands but never initializes or ticks the engine.
type Preparer interface {
	Prepare() bool
}

// UnimplementedFrameEngine may be embedded to provide no-op implementations
// of every [FrameEngine] method.
type UnimplementedFrameEngine struct{}

var _ FrameEngine = UnimplementedFrameEngine{}

func (UnimplementedFrameEngine) Initialize() error { return nil }

func (UnimplementedFrameEngine) Finalize() {}

func (UnimplementedFrameEngine) Tick() {}

func (UnimplementedFrameEngine) ExitRequested() bool { return false }

func (UnimplementedFrameEngine) CreateSurface() SurfaceID { return 1 }

func (UnimplementedFrameEngine) BindSurface(SurfaceID, *Window) {}

func (UnimplementedFrameEngine) UnbindSurface(SurfaceID) {}

func (UnimplementedFrameEngine) Resize(SurfaceID, uint32, uint32) {}

func (UnimplementedFrameEngine) DispatchSurface(SurfaceEvent) {}

func (UnimplementedFrameEngine) DispatchTouch(TouchEvent) {}

func (UnimplementedFrameEngine) DispatchLifecycle(LifecycleEvent) {}

// SurfaceEventKind identifies the variant of a [SurfaceEvent].
type SurfaceEventKind uint8

const (
	// SurfaceCreatedEvent follows a window being bound.
	SurfaceCreatedEvent SurfaceEventKind = iota + 1
	// SurfaceResizedEvent follows a resize.
	SurfaceResizedEvent
	// SurfaceDestroyedEvent is sent when a teardown is scheduled, before the
	// window is unbound.
	SurfaceDestroyedEvent
)

// String returns a human-readable representation of the kind.
func (k SurfaceEventKind) String() string {
	switch k {
	case SurfaceCreatedEvent:
		return "Created"
	case SurfaceResizedEvent:
		return "Resized"
	case SurfaceDestroyedEvent:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// SurfaceEvent describes a change to the managed surface.
type SurfaceEvent struct {
	Kind    SurfaceEventKind
	Surface SurfaceID
	// Width and Height are set for SurfaceResizedEvent.
	Width  uint32
	Height uint32
	// Scale is the scale factor, assigned when the target is first created.
	Scale float64
}

// LifecycleEvent is an application lifecycle notification.
type LifecycleEvent uint8

const (
	// LifecycleStarted is sent on the first resume of a run.
	LifecycleStarted LifecycleEvent = iota + 1
	// LifecycleResumed is sent on every later resume.
	LifecycleResumed
	// LifecycleSuspended is sent on every pause.
	LifecycleSuspended
)

// String returns a human-readable representation of the event.
func (e LifecycleEvent) String() string {
	switch e {
	case LifecycleStarted:
		return "Started"
	case LifecycleResumed:
		return "Resumed"
	case LifecycleSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}
