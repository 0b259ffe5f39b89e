package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/input"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/view"
)

type fakeRenderer struct {
	loadErr  error
	loaded   []string
	uniforms []programs.Uniforms
	draws    int
	width    int
	height   int
}

func (r *fakeRenderer) LoadProgram(p programs.Program) error {
	if r.loadErr != nil {
		return r.loadErr
	}
	r.loaded = append(r.loaded, p.Name)
	return nil
}

func (r *fakeRenderer) SetUniforms(u programs.Uniforms) { r.uniforms = append(r.uniforms, u) }
func (r *fakeRenderer) Resize(width, height int)        { r.width, r.height = width, height }
func (r *fakeRenderer) Draw()                           { r.draws++ }

func newScene(t *testing.T) (*Scene, *fakeRenderer, *int) {
	t.Helper()
	r := &fakeRenderer{}
	redraws := 0
	s := New(view.Config{Center: mgl64.Vec2{0, 0}, Zoom: 1, Iterations: 100}, r, 800, 600, func() { redraws++ })
	return s, r, &redraws
}

func TestDrawPushesUniformsOnce(t *testing.T) {
	s, r, _ := newScene(t)

	s.Draw()

	if len(r.uniforms) != 1 || r.draws != 1 {
		t.Fatalf("uniform pushes = %d, draws = %d, want 1 and 1", len(r.uniforms), r.draws)
	}
	want := programs.Uniforms{Pos: mgl64.Vec2{0, 0}, Zoom: 1, IterLimit: 100}
	if r.uniforms[0] != want {
		t.Errorf("pushed %+v, want %+v", r.uniforms[0], want)
	}
}

func TestOneRedrawPerChangingEvent(t *testing.T) {
	s, r, redraws := newScene(t)

	events := []struct {
		ev     input.Event
		redraw bool
	}{
		{input.Event{Kind: input.Move, X: 10, Y: 10}, false},
		{input.Event{Kind: input.Press, X: 400, Y: 300}, false},
		{input.Event{Kind: input.Move, X: 450, Y: 300}, true},
		{input.Event{Kind: input.Move, X: 450, Y: 300}, false},
		{input.Event{Kind: input.Release}, false},
		{input.Event{Kind: input.Wheel, X: 400, Y: 300, DeltaY: -1}, true},
		{input.Event{Kind: input.Wheel, X: 400, Y: 300}, false},
	}

	for i, tt := range events {
		before := *redraws
		s.HandleEvent(tt.ev)
		got := *redraws - before
		want := 0
		if tt.redraw {
			want = 1
		}
		if got != want {
			t.Errorf("event %d (%v): %d redraws, want %d", i, tt.ev.Kind, got, want)
		}
	}

	if r.draws != 0 {
		t.Errorf("events drew %d times directly, want 0", r.draws)
	}
	if want := (mgl64.Vec2{-0.125, 0}); s.View().Center() != want {
		t.Errorf("Center() = %v, want %v", s.View().Center(), want)
	}
}

func TestOnChangeFiresWhenViewSettles(t *testing.T) {
	s, _, _ := newScene(t)

	var got []programs.Uniforms
	s.OnChange(func(u programs.Uniforms) { got = append(got, u) })

	s.HandleEvent(input.Event{Kind: input.Press, X: 0, Y: 0})
	s.HandleEvent(input.Event{Kind: input.Move, X: 80, Y: 0})
	s.HandleEvent(input.Event{Kind: input.Move, X: 160, Y: 0})
	if len(got) != 0 {
		t.Fatalf("notified %d times mid-drag", len(got))
	}

	s.HandleEvent(input.Event{Kind: input.Leave})
	if len(got) != 1 {
		t.Fatalf("notified %d times after drag, want 1", len(got))
	}
	if want := (mgl64.Vec2{-0.4, 0}); got[0].Pos != want {
		t.Errorf("notified Pos = %v, want %v", got[0].Pos, want)
	}

	s.HandleEvent(input.Event{Kind: input.Release})
	s.HandleEvent(input.Event{Kind: input.Wheel, X: 1, Y: 1, DeltaY: 1})
	s.HandleEvent(input.Event{Kind: input.Wheel, X: 1, Y: 1})
	if len(got) != 2 {
		t.Errorf("notified %d times in total, want 2", len(got))
	}

	s.Reset()
	if len(got) != 3 || got[2].Pos != (mgl64.Vec2{0, 0}) || got[2].Zoom != 1 {
		t.Errorf("Reset notification = %+v", got[len(got)-1])
	}
}

func TestSetProgram(t *testing.T) {
	s, r, redraws := newScene(t)
	p, _ := programs.Lookup("mandelbrot")

	if err := s.SetProgram(p); err != nil {
		t.Fatal(err)
	}
	if s.Program().Name != "mandelbrot" || len(r.loaded) != 1 || *redraws != 1 {
		t.Errorf("program = %q, loaded = %v, redraws = %d", s.Program().Name, r.loaded, *redraws)
	}

	r.loadErr = errors.New("link failed")
	plain, _ := programs.Lookup("plain")
	if err := s.SetProgram(plain); !errors.Is(err, r.loadErr) {
		t.Errorf("SetProgram() error = %v, want %v", err, r.loadErr)
	}
	if s.Program().Name != "mandelbrot" {
		t.Errorf("failed load replaced program with %q", s.Program().Name)
	}
}

func TestResize(t *testing.T) {
	s, r, redraws := newScene(t)

	s.Resize(400, 200)

	if r.width != 400 || r.height != 200 {
		t.Errorf("renderer size = %dx%d", r.width, r.height)
	}
	if vp := s.Controller().Viewport(); vp.Width != 400 || vp.Height != 200 {
		t.Errorf("controller viewport = %+v", vp)
	}
	if *redraws != 1 {
		t.Errorf("redraws = %d, want 1", *redraws)
	}
}

func TestSetUniforms(t *testing.T) {
	s, _, redraws := newScene(t)

	notified := false
	s.OnChange(func(programs.Uniforms) { notified = true })

	s.SetUniforms(programs.Uniforms{Pos: mgl64.Vec2{1, 1}, Zoom: 0.5, IterLimit: 600})
	s.Draw()

	if got := s.View().Uniforms(); got.Pos != (mgl64.Vec2{1, 1}) || got.Zoom != 0.5 || got.IterLimit != 600 {
		t.Errorf("Uniforms() = %+v", got)
	}
	if notified {
		t.Error("SetUniforms notified listeners")
	}
	if *redraws != 1 {
		t.Errorf("redraws = %d, want 1", *redraws)
	}
}
