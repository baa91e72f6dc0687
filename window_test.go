package surfaceloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_TakeOnce(t *testing.T) {
	w := NewWindow("h1", nil)
	require.Same(t, w, w.Take())
	assert.Nil(t, w.Take())
	assert.Nil(t, (*Window)(nil).Take())
}

func TestWindow_ReleaseOnce(t *testing.T) {
	var calls []any
	w := NewWindow("h1", func(h any) { calls = append(calls, h) })

	assert.Equal(t, "h1", w.Handle())
	assert.False(t, w.Released())

	assert.True(t, w.Release())
	assert.False(t, w.Release())
	assert.Equal(t, []any{"h1"}, calls)
	assert.True(t, w.Released())
	assert.Nil(t, w.Handle())
}

func TestWindow_NilSafe(t *testing.T) {
	var w *Window
	assert.Nil(t, w.Handle())
	assert.False(t, w.Release())
	assert.False(t, w.Released())
}

func TestCmdSurfaceCreated_MovesWindow(t *testing.T) {
	w := NewWindow("h1", nil)

	first := CmdSurfaceCreated(w)
	assert.Equal(t, CommandSurfaceCreated, first.Kind)
	assert.Same(t, w, first.Window)

	second := CmdSurfaceCreated(w)
	assert.Nil(t, second.Window, "a window can only be moved once")
}
