package surfaceloop

// Platform touch action codes, as delivered by the host (the values match
// Android's MotionEvent.getActionMasked).
const (
	ActionDown        int32 = 0
	ActionUp          int32 = 1
	ActionMove        int32 = 2
	ActionCancel      int32 = 3
	ActionPointerDown int32 = 5
	ActionPointerUp   int32 = 6
)

// TouchPhase is the engine-side phase of a touch input.
type TouchPhase uint8

const (
	// TouchStarted indicates a pointer made contact.
	TouchStarted TouchPhase = iota
	// TouchMoved indicates a pointer in contact moved.
	TouchMoved
	// TouchEnded indicates a pointer was lifted.
	TouchEnded
	// TouchCanceled indicates the platform aborted the gesture.
	TouchCanceled
)

// String returns a human-readable representation of the phase.
func (p TouchPhase) String() string {
	switch p {
	case TouchStarted:
		return "Started"
	case TouchMoved:
		return "Moved"
	case TouchEnded:
		return "Ended"
	case TouchCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// PhaseForAction maps a platform action code to a touch phase. The second
// return value is false for codes that have no phase (hover, scroll, etc.),
// in which case no event should be dispatched.
func PhaseForAction(action int32) (TouchPhase, bool) {
	switch action {
	case ActionDown, ActionPointerDown:
		return TouchStarted, true
	case ActionUp, ActionPointerUp:
		return TouchEnded, true
	case ActionMove:
		return TouchMoved, true
	case ActionCancel:
		return TouchCanceled, true
	default:
		return 0, false
	}
}

// TouchInput is the raw touch payload carried by a [CommandTouch] command.
type TouchInput struct {
	PointerID int32
	Action    int32
	X         float32
	Y         float32
}

// TouchEvent is the touch input dispatched to the frame engine.
type TouchEvent struct {
	Surface SurfaceID
	ID      uint64
	Phase   TouchPhase
	X       float32
	Y       float32
}
