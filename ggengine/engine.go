// Package ggengine implements [surfaceloop.FrameEngine] as a software
// renderer, drawing each frame with github.com/gogpu/gg and handing it to a
// [Presenter] for the bound surface's native handle.
//
// Every active touch is drawn as a filled circle, and a progress bar along
// the bottom edge advances once per frame.
package ggengine

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
	surfaceloop "github.com/joeycumines/go-surfaceloop"
)

// ErrNoSurface is returned by [Engine.Snapshot] before a frame has a target.
var ErrNoSurface = errors.New("ggengine: no rendered surface")

// Engine is a software frame engine. Apart from [Engine.RequestExit],
// [Engine.Snapshot] and the counters, its methods are called by the runner.
type Engine struct {
	opts      *engineOptions
	surfaces  map[surfaceloop.SurfaceID]*surface
	touches   map[uint64]touch
	mu        sync.Mutex
	nextID    surfaceloop.SurfaceID
	bound     surfaceloop.SurfaceID
	frames    atomic.Uint64
	presented atomic.Uint64
	exit      atomic.Bool
	prepares  int
	ready     bool
	suspended bool
}

type surface struct {
	dc     *gg.Context
	window *surfaceloop.Window
	width  uint32
	height uint32
	scale  float64
}

type touch struct {
	x, y float64
}

var (
	_ surfaceloop.FrameEngine = (*Engine)(nil)
	_ surfaceloop.Preparer    = (*Engine)(nil)
)

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Engine{
		opts:     cfg,
		surfaces: make(map[surfaceloop.SurfaceID]*surface),
		touches:  make(map[uint64]touch),
	}, nil
}

// Prepare reports readiness for initialization, after the configured number
// of polls.
func (e *Engine) Prepare() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prepares++
	return e.prepares > e.opts.prepareSteps
}

// Initialize implements [surfaceloop.FrameEngine].
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = true
	e.exit.Store(false)
	e.frames.Store(0)
	e.opts.logger.Info().
		Str("category", "engine").
		Int("prepare_polls", e.prepares).
		Log("engine initialized")
	return nil
}

// Finalize closes every drawing context.
func (e *Engine) Finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, s := range e.surfaces {
		if s.dc != nil {
			if err := s.dc.Close(); err != nil {
				e.opts.logger.Warning().
					Str("category", "engine").
					Uint64("surface", uint64(id)).
					Err(err).
					Log("failed to close drawing context")
			}
		}
		delete(e.surfaces, id)
	}
	clear(e.touches)
	e.bound = 0
	e.ready = false
	e.prepares = 0
	e.opts.logger.Info().
		Str("category", "engine").
		Uint64("frames", e.frames.Load()).
		Log("engine finalized")
}

// ExitRequested reports whether [Engine.RequestExit] was called, or the
// frame limit was reached.
func (e *Engine) ExitRequested() bool {
	return e.exit.Load()
}

// RequestExit asks the runner to end the run. Safe for concurrent use.
func (e *Engine) RequestExit() {
	e.exit.Store(true)
}

// CreateSurface allocates a render target, sized on the first Resize.
func (e *Engine) CreateSurface() surfaceloop.SurfaceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.surfaces[e.nextID] = &surface{scale: 1}
	return e.nextID
}

// BindSurface implements [surfaceloop.FrameEngine].
func (e *Engine) BindSurface(id surfaceloop.SurfaceID, w *surfaceloop.Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.surfaces[id]
	if s == nil {
		e.opts.logger.Err().
			Str("category", "engine").
			Uint64("surface", uint64(id)).
			Log("bind to unknown surface")
		return
	}
	s.window = w
	e.bound = id
}

// UnbindSurface implements [surfaceloop.FrameEngine]. The render target is
// kept, for a later bind.
func (e *Engine) UnbindSurface(id surfaceloop.SurfaceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.surfaces[id]; s != nil {
		s.window = nil
	}
	if e.bound == id {
		e.bound = 0
	}
}

// Resize implements [surfaceloop.FrameEngine].
func (e *Engine) Resize(id surfaceloop.SurfaceID, width, height uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.surfaces[id]
	if s == nil {
		return
	}
	if width == 0 || height == 0 {
		e.opts.logger.Warning().
			Str("category", "engine").
			Uint64("surface", uint64(id)).
			Log("ignoring resize to an empty surface")
		return
	}
	if s.dc == nil {
		s.dc = gg.NewContext(int(width), int(height))
	} else if err := s.dc.Resize(int(width), int(height)); err != nil {
		e.opts.logger.Err().
			Str("category", "engine").
			Err(err).
			Log("resize failed")
		return
	}
	s.width, s.height = width, height
}

// DispatchSurface implements [surfaceloop.FrameEngine].
func (e *Engine) DispatchSurface(ev surfaceloop.SurfaceEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.surfaces[ev.Surface]; s != nil && ev.Scale > 0 {
		s.scale = ev.Scale
	}
	if ev.Kind == surfaceloop.SurfaceDestroyedEvent {
		clear(e.touches)
	}
	e.opts.logger.Debug().
		Str("category", "engine").
		Stringer("kind", ev.Kind).
		Uint64("surface", uint64(ev.Surface)).
		Log("surface event")
}

// DispatchTouch tracks the touch for drawing.
func (e *Engine) DispatchTouch(ev surfaceloop.TouchEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch ev.Phase {
	case surfaceloop.TouchStarted, surfaceloop.TouchMoved:
		e.touches[ev.ID] = touch{x: float64(ev.X), y: float64(ev.Y)}
	case surfaceloop.TouchEnded, surfaceloop.TouchCanceled:
		delete(e.touches, ev.ID)
	}
}

// DispatchLifecycle dims frames rendered while suspended.
func (e *Engine) DispatchLifecycle(ev surfaceloop.LifecycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suspended = ev == surfaceloop.LifecycleSuspended
}

// Tick renders one frame to the bound surface, and presents it.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.surfaces[e.bound]
	if !e.ready || s == nil || s.dc == nil || s.window == nil {
		return
	}

	frame := e.frames.Add(1)
	e.draw(s, frame)

	if presenter := e.opts.presenter; presenter != nil {
		if err := presenter(s.window.Handle(), s.dc.Image()); err != nil {
			e.opts.logger.Warning().
				Str("category", "engine").
				Uint64("frame", frame).
				Err(err).
				Log("present failed")
		} else {
			e.presented.Add(1)
		}
	}

	if limit := e.opts.maxFrames; limit != 0 && frame >= limit {
		e.exit.Store(true)
	}
}

func (e *Engine) draw(s *surface, frame uint64) {
	dc := s.dc
	bg := e.opts.background
	if e.suspended {
		bg = gg.RGB(bg.R/2, bg.G/2, bg.B/2)
	}
	dc.ClearWithColor(bg)

	w, h := float64(s.width), float64(s.height)
	bar := h / 40
	if bar < 1 {
		bar = 1
	}
	dc.SetColor(e.opts.palette[0].Color())
	dc.DrawRectangle(0, h-bar, w*float64(frame%60+1)/60, bar)
	e.fill(dc)

	radius := e.opts.touchRadius * s.scale
	for id, t := range e.touches {
		dc.SetColor(e.opts.palette[id%uint64(len(e.opts.palette))].Color())
		dc.DrawCircle(t.x, t.y, radius)
		e.fill(dc)
	}
}

func (e *Engine) fill(dc *gg.Context) {
	if err := dc.Fill(); err != nil {
		e.opts.logger.Debug().
			Str("category", "engine").
			Err(err).
			Log("fill failed")
	}
}

// Snapshot writes the most recent frame of the bound (or, failing that, last
// sized) surface to a PNG file.
func (e *Engine) Snapshot(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.surfaces[e.bound]
	if s == nil || s.dc == nil {
		s = nil
		for id := e.nextID; id > 0; id-- {
			if c := e.surfaces[id]; c != nil && c.dc != nil {
				s = c
				break
			}
		}
	}
	if s == nil {
		return ErrNoSurface
	}
	if err := s.dc.SavePNG(path); err != nil {
		return fmt.Errorf("ggengine: snapshot: %w", err)
	}
	return nil
}

// Frame returns a copy of the bound surface's most recent frame, or nil.
func (e *Engine) Frame() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.surfaces[e.bound]; s != nil && s.dc != nil {
		return s.dc.Image()
	}
	return nil
}

// Frames returns the number of frames rendered in the current (or last) run.
func (e *Engine) Frames() uint64 { return e.frames.Load() }

// Presented returns the number of frames successfully presented.
func (e *Engine) Presented() uint64 { return e.presented.Load() }

// ActiveTouches returns the number of pointers currently down.
func (e *Engine) ActiveTouches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.touches)
}
