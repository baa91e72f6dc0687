package surfaceloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseForAction(t *testing.T) {
	for _, tc := range []struct {
		action int32
		phase  TouchPhase
		ok     bool
	}{
		{ActionDown, TouchStarted, true},
		{ActionPointerDown, TouchStarted, true},
		{ActionUp, TouchEnded, true},
		{ActionPointerUp, TouchEnded, true},
		{ActionMove, TouchMoved, true},
		{ActionCancel, TouchCanceled, true},
		{4, 0, false},  // outside
		{7, 0, false},  // hover move
		{8, 0, false},  // scroll
		{-1, 0, false}, // garbage
	} {
		phase, ok := PhaseForAction(tc.action)
		assert.Equal(t, tc.ok, ok, "action %d", tc.action)
		if ok {
			assert.Equal(t, tc.phase, phase, "action %d", tc.action)
		}
	}
}

func TestTouchPhase_String(t *testing.T) {
	assert.Equal(t, "Started", TouchStarted.String())
	assert.Equal(t, "Moved", TouchMoved.String())
	assert.Equal(t, "Ended", TouchEnded.String())
	assert.Equal(t, "Canceled", TouchCanceled.String())
	assert.Equal(t, "Unknown", TouchPhase(99).String())
}
