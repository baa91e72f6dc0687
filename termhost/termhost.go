// Package termhost runs a [host.Activity] in a terminal: the tcell screen is
// the native surface, terminal events become platform callbacks, and frames
// are painted into cells using half blocks.
//
// Mouse button 1 acts as a single touch pointer, focus changes pause and
// resume, and Ctrl-C, Esc or q stop the game.
package termhost

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joeycumines/go-surfaceloop/host"
	"github.com/joeycumines/logiface"
)

// Screen is the subset of [tcell.Screen] the host drives.
type Screen interface {
	Init() error
	Fini()
	Size() (width, height int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
	HideCursor()
	EnableMouse(flags ...tcell.MouseFlags)
	EnableFocus()
	PollEvent() tcell.Event
}

var _ Screen = (tcell.Screen)(nil)

// ErrWrongSurface is returned by [Host.Present] for a handle that is not the
// host.
var ErrWrongSurface = errors.New("termhost: frame presented to a foreign surface")

// ErrScreenClosed is returned by [Host.Present] once the screen is finalized.
var ErrScreenClosed = errors.New("termhost: screen closed")

// NewTerminalScreen creates a tcell screen for the controlling terminal.
func NewTerminalScreen() (Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("termhost: %w", err)
	}
	return s, nil
}

// Host owns the screen for the duration of [Host.Run]. The host itself is
// the native handle of the surface, so [Host.Present] may be used as the
// frame presenter.
type Host struct {
	screen   Screen
	activity *host.Activity
	log      *logiface.Logger[logiface.Event]
	pump     *host.Pump
	mu       sync.Mutex
	presents int
	timeout  time.Duration
	// closed is set once the screen is finalized, guarded by mu
	closed bool
}

// Option configures a [Host].
type Option interface {
	apply(*Host) error
}

type optionImpl struct {
	applyFunc func(*Host) error
}

func (o *optionImpl) apply(h *Host) error {
	return o.applyFunc(h)
}

// WithLogger sets the structured logger.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(h *Host) error {
		h.log = logger
		return nil
	}}
}

// WithPumpConfig configures the batching of terminal events.
func WithPumpConfig(cfg *host.PumpConfig) Option {
	return &optionImpl{func(h *Host) error {
		pump, err := host.NewPump(h.activity, cfg)
		if err != nil {
			return err
		}
		h.pump = pump
		return nil
	}}
}

// WithShutdownTimeout bounds the final surface release and game stop, once
// the event stream ends. Defaults to 5s.
func WithShutdownTimeout(d time.Duration) Option {
	return &optionImpl{func(h *Host) error {
		if d <= 0 {
			return fmt.Errorf("termhost: invalid shutdown timeout %v", d)
		}
		h.timeout = d
		return nil
	}}
}

// New creates a host driving activity on screen.
func New(screen Screen, activity *host.Activity, opts ...Option) (*Host, error) {
	if screen == nil {
		return nil, errors.New("termhost: nil screen")
	}
	if activity == nil {
		return nil, errors.New("termhost: nil activity")
	}
	h := &Host{
		screen:   screen,
		activity: activity,
		timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(h); err != nil {
			return nil, err
		}
	}
	if h.pump == nil {
		pump, err := host.NewPump(activity, &host.PumpConfig{MinBatch: 1})
		if err != nil {
			return nil, err
		}
		h.pump = pump
	}
	return h, nil
}

// Run initializes the screen, creates the surface, starts the game, and
// forwards terminal events until a quit key, the end of the event stream, or
// ctx being done. It then destroys the surface (waiting for its release),
// stops the game, and restores the terminal.
func (h *Host) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := h.screen.Init(); err != nil {
		return fmt.Errorf("termhost: init screen: %w", err)
	}
	h.mu.Lock()
	h.closed = false
	h.mu.Unlock()
	fini := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if !h.closed {
			h.closed = true
			h.screen.Fini()
		}
	}
	defer fini()

	h.screen.HideCursor()
	h.screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	h.screen.EnableFocus()

	startup := []host.InputEvent{{Kind: host.InputSurfaceCreated, Handle: h}}
	if w, ht := h.screen.Size(); w > 0 && ht > 0 {
		startup = append(startup, host.InputEvent{
			Kind:   host.InputSurfaceChanged,
			Width:  uint32(w),
			Height: uint32(ht * PixelsPerRow),
		})
	}
	startup = append(startup, host.InputEvent{Kind: host.InputStartGame}, host.InputEvent{Kind: host.InputResume})
	if err := h.activity.Dispatch(ctx, startup); err != nil {
		return err
	}

	h.log.Info().
		Str("category", "termhost").
		Log("terminal surface running")

	events := make(chan host.InputEvent, 64)
	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		h.poll(events, stop)
	}()

	err := h.pump.Run(ctx, events)
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()
	if e := h.activity.Dispatch(shutdownCtx, []host.InputEvent{
		{Kind: host.InputSurfaceDestroyed},
		{Kind: host.InputStopGame},
	}); e != nil && err == nil {
		err = e
	}

	// unblocks the poller
	fini()
	<-polled

	h.log.Info().
		Str("category", "termhost").
		Int("presents", h.Presents()).
		Log("terminal surface closed")
	return err
}

// poll reads screen events until the screen is finalized, a quit key, or
// stop is closed. It closes events on a quit key or the end of the stream.
func (h *Host) poll(events chan<- host.InputEvent, stop <-chan struct{}) {
	var t translator
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			close(events)
			return
		}
		inputs, quit := t.translate(ev)
		for _, in := range inputs {
			select {
			case events <- in:
			case <-stop:
				return
			}
		}
		if quit {
			close(events)
			return
		}
	}
}

// Present paints frame into the terminal, two pixels per cell. It implements
// the frame presenter signature, and is called on the runner's goroutine.
func (h *Host) Present(handle any, frame image.Image) error {
	if handle != h {
		return ErrWrongSurface
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrScreenClosed
	}

	cols, rows := h.screen.Size()
	b := frame.Bounds()
	for y := 0; y < rows; y++ {
		top := b.Min.Y + y*PixelsPerRow
		if top >= b.Max.Y {
			break
		}
		for x := 0; x < cols; x++ {
			px := b.Min.X + x
			if px >= b.Max.X {
				break
			}
			style := tcell.StyleDefault.Foreground(cellColor(frame, px, top))
			if top+1 < b.Max.Y {
				style = style.Background(cellColor(frame, px, top+1))
			}
			h.screen.SetContent(x, y, '▀', nil, style)
		}
	}
	h.screen.Show()
	h.presents++
	return nil
}

// Presents returns the number of frames painted.
func (h *Host) Presents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presents
}

func cellColor(img image.Image, x, y int) tcell.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}
