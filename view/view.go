// Package view holds the pan/zoom state of the fractal view and the mapping
// between screen pixels and world coordinates.
package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/programs"
)

const (
	// ScrollMultiplier is the fraction the zoom changes by per wheel step.
	ScrollMultiplier = 0.2

	MinIterations     = 50
	MaxIterations     = 1500
	DefaultIterations = 100

	DefaultZoom = 2.0
)

// DefaultCenter frames the whole Mandelbrot set at DefaultZoom.
var DefaultCenter = mgl64.Vec2{-0.5, 0}

// Config is the initial view.
type Config struct {
	Center     mgl64.Vec2
	Zoom       float64
	Iterations int
}

func DefaultConfig() Config {
	return Config{
		Center:     DefaultCenter,
		Zoom:       DefaultZoom,
		Iterations: DefaultIterations,
	}
}

// Viewport is the pixel size of the surface being drawn to.
// Both dimensions are expected to be positive.
type Viewport struct {
	Width, Height float64
}

func NewViewport(width, height int) Viewport {
	return Viewport{Width: float64(width), Height: float64(height)}
}

// NDC maps a screen position, relative to the viewport's top-left corner,
// to normalised device coordinates with +y pointing up.
func (vp Viewport) NDC(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{
		2 * (x/vp.Width - 0.5),
		2 * (0.5 - y/vp.Height),
	}
}

// State is the single source of truth for what the renderer draws.
// It is not safe for concurrent use; front-ends only touch it from their UI thread.
type State struct {
	initial   Config
	center    mgl64.Vec2
	zoom      float64
	iterLimit int32
}

// New returns a State initialised from cfg. A non-positive or non-finite zoom
// falls back to DefaultZoom and the iteration count is clamped to
// [MinIterations, MaxIterations].
func New(cfg Config) *State {
	if !validZoom(cfg.Zoom) {
		cfg.Zoom = DefaultZoom
	}
	cfg.Iterations = int(clampIterations(cfg.Iterations))

	s := &State{initial: cfg}
	s.Reset()
	return s
}

// Reset restores the initial view.
func (s *State) Reset() {
	s.center = s.initial.Center
	s.zoom = s.initial.Zoom
	s.iterLimit = int32(s.initial.Iterations)
}

func (s *State) Center() mgl64.Vec2 { return s.center }

func (s *State) SetCenter(x, y float64) {
	s.center = mgl64.Vec2{x, y}
}

func (s *State) Zoom() float64 { return s.zoom }

// SetZoom replaces the zoom. Keeping it positive is up to the caller.
func (s *State) SetZoom(z float64) {
	s.zoom = z
}

func (s *State) IterLimit() int32 { return s.iterLimit }

// SetIterLimit sets the iteration limit, clamped to [MinIterations, MaxIterations].
func (s *State) SetIterLimit(n int) {
	s.iterLimit = clampIterations(n)
}

// ScreenToWorld returns the world coordinate under the screen position (x, y).
func (s *State) ScreenToWorld(vp Viewport, x, y float64) mgl64.Vec2 {
	return s.center.Add(vp.NDC(x, y).Mul(s.zoom))
}

// Pan moves the view by a screen-space drag of (dx, dy) pixels.
// Screen y grows downward while world y grows upward.
func (s *State) Pan(vp Viewport, dx, dy float64) {
	s.center = s.center.Add(mgl64.Vec2{
		-(dx / vp.Width) * s.zoom * 2,
		(dy / vp.Height) * s.zoom * 2,
	})
}

// ZoomAt zooms one wheel step keeping the world point under (x, y) fixed on
// screen. A positive deltaY zooms out, a negative one zooms in and zero does
// nothing. It reports whether the view changed.
func (s *State) ZoomAt(vp Viewport, x, y, deltaY float64) bool {
	step := sign(deltaY)
	if step == 0 {
		return false
	}

	zoom := s.zoom * (1 + step*ScrollMultiplier)
	if !validZoom(zoom) {
		return false
	}

	anchor := s.ScreenToWorld(vp, x, y)
	s.zoom = zoom
	s.center = anchor.Sub(vp.NDC(x, y).Mul(zoom))
	return true
}

// Uniforms is the snapshot pushed to the renderer before a draw.
func (s *State) Uniforms() programs.Uniforms {
	return programs.Uniforms{
		Pos:       s.center,
		Zoom:      s.zoom,
		IterLimit: s.iterLimit,
	}
}

// SetUniforms applies values received from elsewhere, such as the config
// window. An invalid zoom is ignored.
func (s *State) SetUniforms(u programs.Uniforms) {
	s.center = u.Pos
	if validZoom(u.Zoom) {
		s.zoom = u.Zoom
	}
	s.iterLimit = clampIterations(int(u.IterLimit))
}

func validZoom(z float64) bool {
	return z > 0 && !math.IsInf(z, 0)
}

func clampIterations(n int) int32 {
	if n < MinIterations {
		return MinIterations
	}
	if n > MaxIterations {
		return MaxIterations
	}
	return int32(n)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
