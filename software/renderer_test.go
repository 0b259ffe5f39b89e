package software

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/scene"
	"github.com/stewi1014/mandelview/view"
)

func mustProgram(t *testing.T, name string) programs.Program {
	t.Helper()
	p, ok := programs.Lookup(name)
	if !ok {
		t.Fatalf("program %q not registered", name)
	}
	return p
}

func nextFrame(t *testing.T, r *Renderer) Frame {
	t.Helper()
	select {
	case f := <-r.Frames():
		return f
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return Frame{}
}

func TestRendererDrawsFrame(t *testing.T) {
	r := New(context.Background())
	t.Cleanup(r.Stop)

	if err := r.LoadProgram(mustProgram(t, "mandelbrot")); err != nil {
		t.Fatal(err)
	}
	u := view.New(view.DefaultConfig()).Uniforms()
	r.SetUniforms(u)
	r.Resize(21, 11)
	r.Draw()

	f := nextFrame(t, r)
	if f.Uniforms != u {
		t.Errorf("frame uniforms = %+v, want %+v", f.Uniforms, u)
	}
	if got := f.Image.Bounds().Size(); got.X != 21 || got.Y != 11 {
		t.Fatalf("frame size = %v, want 21x11", got)
	}

	// The centre pixel is (-0.5, 0), inside the set.
	if got := f.Image.NRGBAAt(10, 5); got != (color.NRGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("centre pixel = %v, want white", got)
	}
}

func TestRendererKeepsNewestFrame(t *testing.T) {
	r := New(context.Background())
	t.Cleanup(r.Stop)

	if err := r.LoadProgram(mustProgram(t, "mandelbrot")); err != nil {
		t.Fatal(err)
	}
	r.Resize(8, 8)

	var last programs.Uniforms
	for i := range 5 {
		last = view.New(view.Config{Zoom: float64(i + 1), Iterations: view.DefaultIterations}).Uniforms()
		r.SetUniforms(last)
		r.Draw()
	}
	r.Wait()

	f := nextFrame(t, r)
	if f.Uniforms != last {
		t.Errorf("frame uniforms = %+v, want newest %+v", f.Uniforms, last)
	}

	select {
	case f := <-r.Frames():
		t.Errorf("unexpected second frame %+v", f.Uniforms)
	default:
	}
}

func TestRendererSkipsEmptyViewport(t *testing.T) {
	r := New(context.Background())
	t.Cleanup(r.Stop)

	if err := r.LoadProgram(mustProgram(t, "plain")); err != nil {
		t.Fatal(err)
	}
	r.Resize(0, 10)
	r.Draw()
	r.Wait()

	select {
	case <-r.Frames():
		t.Error("frame rendered for empty viewport")
	default:
	}
}

func TestRendererRejectsGPUOnlyProgram(t *testing.T) {
	r := New(context.Background())

	err := r.LoadProgram(programs.Program{Name: "gpu-only"})

	var setupErr *scene.SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("LoadProgram() error = %v, want *scene.SetupError", err)
	}
	if setupErr.Program != "gpu-only" || !errors.Is(err, programs.ErrNoCPUImplementation) {
		t.Errorf("LoadProgram() error = %v", err)
	}
}

func TestRendererStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx)

	if err := r.LoadProgram(mustProgram(t, "mandelbrot")); err != nil {
		t.Fatal(err)
	}
	r.Resize(64, 64)
	cancel()
	r.Draw()
	r.Wait()

	select {
	case <-r.Frames():
		t.Error("frame rendered after cancel")
	default:
	}
}
