// Package software renders programs on the CPU for front-ends without OpenGL.
package software

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/scene"
)

var _ scene.Renderer = (*Renderer)(nil)

// Frame is a finished render and the uniforms it was drawn with.
type Frame struct {
	Image    *image.NRGBA
	Uniforms programs.Uniforms
}

// Renderer renders in the background. Each Draw supersedes any render still
// running, and only the newest finished frame is kept for Frames.
type Renderer struct {
	ctx    context.Context
	frames chan Frame

	mu            sync.Mutex
	program       programs.Program
	uniforms      programs.Uniforms
	width, height int
	generation    uint64
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// New returns a Renderer whose renders stop when ctx ends.
func New(ctx context.Context) *Renderer {
	return &Renderer{
		ctx:    ctx,
		frames: make(chan Frame, 1),
	}
}

// LoadProgram accepts only programs with a CPU implementation.
func (r *Renderer) LoadProgram(p programs.Program) error {
	if p.GetPixel == nil {
		return &scene.SetupError{Stage: scene.StageCompile, Program: p.Name, Err: programs.ErrNoCPUImplementation}
	}

	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
	return nil
}

func (r *Renderer) SetUniforms(u programs.Uniforms) {
	r.mu.Lock()
	r.uniforms = u
	r.mu.Unlock()
}

// Resize sets the size in pixels of frames rendered from now on.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
}

// Draw starts rendering the current program and uniforms.
func (r *Renderer) Draw() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.program.GetPixel == nil || r.width <= 0 || r.height <= 0 {
		return
	}

	r.generation++
	generation := r.generation
	program, uniforms, width, height := r.program, r.uniforms, r.width, r.height

	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		img, err := programs.Render(ctx, program, uniforms, width, height)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logging.Logger().Warn("software render failed", "program", program.Name, "err", err)
			}
			return
		}
		r.deliver(generation, Frame{Image: img, Uniforms: uniforms})
	}()
}

func (r *Renderer) deliver(generation uint64, f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation {
		return
	}

	select {
	case <-r.frames:
	default:
	}
	r.frames <- f
}

// Frames delivers finished frames. A frame nobody received yet is replaced by
// a newer one.
func (r *Renderer) Frames() <-chan Frame {
	return r.frames
}

// Wait blocks until no render is running.
func (r *Renderer) Wait() {
	r.wg.Wait()
}

// Stop cancels any running render and waits for it to finish.
func (r *Renderer) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}
