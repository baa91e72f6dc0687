package termhost

import (
	"github.com/gdamore/tcell/v2"
	surfaceloop "github.com/joeycumines/go-surfaceloop"
	"github.com/joeycumines/go-surfaceloop/host"
)

// PixelsPerRow is the number of surface pixels per terminal row: each cell
// is drawn as two vertically stacked pixels, using a half block.
const PixelsPerRow = 2

// translator maps terminal events to platform callbacks. Mouse button 1 is
// the only pointer, with id 0.
type translator struct {
	pressed bool
}

// translate returns the callbacks for ev, and whether ev asks to quit.
func (t *translator) translate(ev tcell.Event) (out []host.InputEvent, quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		if w <= 0 || h <= 0 {
			return nil, false
		}
		return []host.InputEvent{{
			Kind:   host.InputSurfaceChanged,
			Width:  uint32(w),
			Height: uint32(h * PixelsPerRow),
		}}, false

	case *tcell.EventMouse:
		x, y := ev.Position()
		in := host.InputEvent{
			Kind: host.InputTouch,
			X:    float32(x),
			Y:    float32(y*PixelsPerRow) + 0.5,
		}
		down := ev.Buttons()&tcell.Button1 != 0
		switch {
		case down && !t.pressed:
			t.pressed = true
			in.Action = surfaceloop.ActionDown
		case down:
			in.Action = surfaceloop.ActionMove
		case t.pressed:
			t.pressed = false
			in.Action = surfaceloop.ActionUp
		default:
			return nil, false
		}
		return []host.InputEvent{in}, false

	case *tcell.EventFocus:
		if ev.Focused {
			return []host.InputEvent{{Kind: host.InputResume}}, false
		}
		return []host.InputEvent{{Kind: host.InputPause}}, false

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyCtrlC, tcell.KeyEsc:
			return []host.InputEvent{{Kind: host.InputStopGame}}, true
		case tcell.KeyRune:
			if r := ev.Rune(); r == 'q' || (r == 'c' && ev.Modifiers()&tcell.ModCtrl != 0) {
				return []host.InputEvent{{Kind: host.InputStopGame}}, true
			}
		}
	}
	return nil, false
}
