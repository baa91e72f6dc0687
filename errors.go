package surfaceloop

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNoConsumer is returned by [Channel.Send] (and every [Bridge] call
	// that sends) when no runner has ever attached to the channel. The
	// command is discarded.
	ErrNoConsumer = errors.New("surfaceloop: no consumer attached, command discarded")

	// ErrRunnerActive is returned when a runner is started against a bridge
	// that already has an active runner.
	ErrRunnerActive = errors.New("surfaceloop: a runner is already active on this bridge")

	// ErrRunnerNotStarted is returned by [Runner.Loop] when called without a
	// successful [Runner.Start].
	ErrRunnerNotStarted = errors.New("surfaceloop: runner not started")

	// ErrEngineInitialize wraps the error returned by [FrameEngine.Initialize].
	ErrEngineInitialize = errors.New("surfaceloop: frame engine initialization failed")

	// ErrNilEngine is returned by [Runner.Start] when the runner was
	// constructed without a frame engine.
	ErrNilEngine = errors.New("surfaceloop: nil frame engine")
)

// ProtocolError is the panic value used when the host violates the callback
// contract, e.g. resizing a surface that was never created. There is no safe
// recovery once the host and the engine disagree about surface state.
type ProtocolError struct {
	// Invariant names the violated expectation.
	Invariant string
	// Command is the command being applied when the violation was detected.
	Command CommandKind
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("surfaceloop: protocol violation handling %s: %s", e.Command, e.Invariant)
}
