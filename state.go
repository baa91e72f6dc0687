package surfaceloop

import (
	"sync/atomic"
)

// EngineReadiness tracks multi-step engine construction.
//
//	ReadinessUninitialized → ReadinessFinishing  [Preparer reports ready]
//	ReadinessFinishing → ReadinessReady          [Initialize succeeds]
//
// The runner drains commands in every state, but only ticks when ready.
type EngineReadiness uint8

const (
	// ReadinessUninitialized indicates the engine is still being prepared.
	ReadinessUninitialized EngineReadiness = iota
	// ReadinessFinishing indicates preparation completed, and Initialize is
	// due.
	ReadinessFinishing
	// ReadinessReady indicates the engine may be ticked.
	ReadinessReady
)

// String returns a human-readable representation of the readiness.
func (r EngineReadiness) String() string {
	switch r {
	case ReadinessUninitialized:
		return "Uninitialized"
	case ReadinessFinishing:
		return "Finishing"
	case ReadinessReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// RunnerState is the coarse state of a [Runner].
//
//	StateIdle → StateRunning      [Start]
//	StateRunning → StateStopping  [quit requested]
//	StateStopping → StateStopped  [Finish]
//	StateRunning → StateStopped   [Finish]
//	StateStopped → StateRunning   [Start, a new run]
type RunnerState uint32

const (
	// StateIdle indicates the runner has never started.
	StateIdle RunnerState = iota
	// StateRunning indicates a run is in progress.
	StateRunning
	// StateStopping indicates the run will end at the top of the next
	// iteration.
	StateStopping
	// StateStopped indicates the last run has finished.
	StateStopped
)

// String returns a human-readable representation of the state.
func (s RunnerState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// runnerState stores a RunnerState atomically.
type runnerState struct {
	v atomic.Uint32
}

func (s *runnerState) Load() RunnerState {
	return RunnerState(s.v.Load())
}

func (s *runnerState) Store(state RunnerState) {
	s.v.Store(uint32(state))
}

func (s *runnerState) TryTransition(from, to RunnerState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
