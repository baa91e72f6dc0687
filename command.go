package surfaceloop

import (
	"fmt"
)

// CommandKind identifies the variant of a [Command].
type CommandKind uint8

const (
	// CommandSurfaceCreated carries a newly created native window.
	CommandSurfaceCreated CommandKind = iota + 1
	// CommandSurfaceChanged carries the surface's pixel dimensions.
	CommandSurfaceChanged
	// CommandSurfaceDestroyed requests teardown of the bound window.
	CommandSurfaceDestroyed
	// CommandStop requests runner termination.
	CommandStop
	// CommandTouch carries a raw touch input.
	CommandTouch
	// CommandResumed reports the host became active.
	CommandResumed
	// CommandPaused reports the host became inactive.
	CommandPaused
)

// String returns a human-readable representation of the kind.
func (k CommandKind) String() string {
	switch k {
	case CommandSurfaceCreated:
		return "SurfaceCreated"
	case CommandSurfaceChanged:
		return "SurfaceChanged"
	case CommandSurfaceDestroyed:
		return "SurfaceDestroyed"
	case CommandStop:
		return "Stop"
	case CommandTouch:
		return "Touch"
	case CommandResumed:
		return "Resumed"
	case CommandPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Command is one lifecycle or input event, sent by the host and applied by
// the runner. Only the fields relevant to Kind are set.
type Command struct {
	// Window is set for CommandSurfaceCreated, and is owned by the command.
	Window *Window
	// Touch is set for CommandTouch.
	Touch TouchInput
	// Width and Height are set for CommandSurfaceChanged.
	Width  uint32
	Height uint32
	Kind   CommandKind
}

// String implements fmt.Stringer, for diagnostics.
func (c Command) String() string {
	switch c.Kind {
	case CommandSurfaceChanged:
		return fmt.Sprintf("%s(%dx%d)", c.Kind, c.Width, c.Height)
	case CommandTouch:
		return fmt.Sprintf("%s(id=%d action=%d x=%g y=%g)", c.Kind, c.Touch.PointerID, c.Touch.Action, c.Touch.X, c.Touch.Y)
	default:
		return c.Kind.String()
	}
}

// CmdSurfaceCreated moves ownership of w into a new command. If w was already
// taken the command carries no window, which the runner treats as a protocol
// violation.
func CmdSurfaceCreated(w *Window) Command {
	return Command{Kind: CommandSurfaceCreated, Window: w.Take()}
}

// CmdSurfaceChanged reports new surface dimensions, in pixels.
func CmdSurfaceChanged(width, height uint32) Command {
	return Command{Kind: CommandSurfaceChanged, Width: width, Height: height}
}

// CmdSurfaceDestroyed requests teardown of the bound surface.
//
// Prefer [Bridge.SurfaceDestroyed], which also performs the release
// handshake.
func CmdSurfaceDestroyed() Command {
	return Command{Kind: CommandSurfaceDestroyed}
}

// CmdStop requests runner termination.
func CmdStop() Command {
	return Command{Kind: CommandStop}
}

// CmdTouch wraps a raw touch input.
func CmdTouch(input TouchInput) Command {
	return Command{Kind: CommandTouch, Touch: input}
}

// CmdResumed reports the host resumed.
func CmdResumed() Command {
	return Command{Kind: CommandResumed}
}

// CmdPaused reports the host paused.
func CmdPaused() Command {
	return Command{Kind: CommandPaused}
}
