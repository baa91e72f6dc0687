package ggengine

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/joeycumines/logiface"
)

// Presenter delivers a rendered frame to the native surface handle it was
// drawn for. It runs on the runner's goroutine, within Tick.
type Presenter func(handle any, frame image.Image) error

type engineOptions struct {
	logger       *logiface.Logger[logiface.Event]
	presenter    Presenter
	palette      []gg.RGBA
	background   gg.RGBA
	prepareSteps int
	maxFrames    uint64
	touchRadius  float64
}

// Option configures an [Engine].
type Option interface {
	apply(*engineOptions) error
}

type optionImpl struct {
	applyFunc func(*engineOptions) error
}

func (o *optionImpl) apply(opts *engineOptions) error {
	return o.applyFunc(opts)
}

// WithLogger sets the structured logger.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithPresenter sets the func each rendered frame is handed to.
func WithPresenter(presenter Presenter) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.presenter = presenter
		return nil
	}}
}

// WithPrepareSteps sets how many Prepare polls report not ready, before the
// engine may be initialized. Defaults to 0.
func WithPrepareSteps(n int) Option {
	return &optionImpl{func(opts *engineOptions) error {
		if n < 0 {
			return fmt.Errorf("ggengine: invalid prepare steps %d", n)
		}
		opts.prepareSteps = n
		return nil
	}}
}

// WithMaxFrames makes the engine request exit once it has rendered n frames
// in a run.
// Zero (the default) renders until stopped.
func WithMaxFrames(n uint64) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.maxFrames = n
		return nil
	}}
}

// WithBackground sets the clear color, e.g. gg.Hex("#202030").
func WithBackground(c gg.RGBA) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.background = c
		return nil
	}}
}

// WithPalette sets the colors active touches are drawn with, chosen by
// pointer id.
func WithPalette(colors ...gg.RGBA) Option {
	return &optionImpl{func(opts *engineOptions) error {
		if len(colors) == 0 {
			return fmt.Errorf("ggengine: empty palette")
		}
		opts.palette = append([]gg.RGBA(nil), colors...)
		return nil
	}}
}

// WithTouchRadius sets the radius, in unscaled pixels, of a drawn touch.
func WithTouchRadius(r float64) Option {
	return &optionImpl{func(opts *engineOptions) error {
		if r <= 0 {
			return fmt.Errorf("ggengine: invalid touch radius %v", r)
		}
		opts.touchRadius = r
		return nil
	}}
}

func resolveOptions(opts []Option) (*engineOptions, error) {
	cfg := &engineOptions{
		background: gg.Hex("#1d1f2b"),
		palette: []gg.RGBA{
			gg.Hex("#f28f3b"),
			gg.Hex("#4ecdc4"),
			gg.Hex("#c8553d"),
			gg.Hex("#ffd23f"),
		},
		touchRadius: 12,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
