// Package scene ties a view, its input controller and a renderer together.
package scene

import (
	"github.com/stewi1014/mandelview/input"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/view"
)

// Renderer is the drawing capability a Scene needs. Implementations own the
// GPU context; the Scene only tells them what to draw.
type Renderer interface {
	LoadProgram(programs.Program) error
	SetUniforms(programs.Uniforms)
	Resize(width, height int)
	Draw()
}

// Scene is driven from a single UI thread.
type Scene struct {
	view       *view.State
	controller *input.Controller
	renderer   Renderer
	program    programs.Program

	redraw   func()
	onChange []func(programs.Uniforms)
}

// New creates a scene for a width by height viewport. redraw is called
// whenever the view changed and the front-end should schedule a Draw; it may
// be nil.
func New(cfg view.Config, renderer Renderer, width, height int, redraw func()) *Scene {
	v := view.New(cfg)
	if redraw == nil {
		redraw = func() {}
	}

	return &Scene{
		view:       v,
		controller: input.NewController(v, view.NewViewport(width, height)),
		renderer:   renderer,
		redraw:     redraw,
	}
}

func (s *Scene) View() *view.State { return s.view }

func (s *Scene) Controller() *input.Controller { return s.controller }

func (s *Scene) Program() programs.Program { return s.program }

// OnChange registers f to be told about view changes once they settle: at the
// end of a drag, after a wheel step and after Reset.
func (s *Scene) OnChange(f func(programs.Uniforms)) {
	s.onChange = append(s.onChange, f)
}

// SetProgram loads p into the renderer. On error the previous program stays.
func (s *Scene) SetProgram(p programs.Program) error {
	if err := s.renderer.LoadProgram(p); err != nil {
		return err
	}

	s.program = p
	logging.Logger().Info("program loaded", "name", p.Name)
	s.redraw()
	return nil
}

// HandleEvent applies ev and requests at most one redraw.
func (s *Scene) HandleEvent(ev input.Event) {
	wasDragging := s.controller.State() == input.Dragging

	changed := s.controller.Handle(ev)
	if changed {
		s.redraw()
	}

	switch {
	case ev.Kind == input.Wheel && changed:
		s.notify()
	case wasDragging && s.controller.State() == input.Idle:
		s.notify()
	}
}

func (s *Scene) Resize(width, height int) {
	s.controller.Resize(width, height)
	s.renderer.Resize(width, height)
	s.redraw()
}

// SetUniforms replaces the view, for example with values edited elsewhere.
// Listeners are not notified since they are usually the source.
func (s *Scene) SetUniforms(u programs.Uniforms) {
	s.view.SetUniforms(u)
	s.redraw()
}

func (s *Scene) Reset() {
	s.view.Reset()
	s.redraw()
	s.notify()
}

// Draw pushes the current uniforms to the renderer and draws once.
func (s *Scene) Draw() {
	s.renderer.SetUniforms(s.view.Uniforms())
	s.renderer.Draw()
}

func (s *Scene) notify() {
	u := s.view.Uniforms()
	for _, f := range s.onChange {
		f(u)
	}
}
