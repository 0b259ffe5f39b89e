package main

import (
	"context"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/input"
	"github.com/stewi1014/mandelview/render"
	"github.com/stewi1014/mandelview/scene"
)

// waitTimeout bounds how long the event loop sleeps so context cancellation
// is noticed even without input.
const waitTimeout = 0.1

func NewGLFWWindow(cfg config.Config) (*GLFWWindow, error) {
	width, height := cfg.Size()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if cfg.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}
	window, err := glfw.CreateWindow(width, height, "mandelview", nil, nil)
	if err != nil {
		return nil, &scene.SetupError{Stage: scene.StageContext, Err: fmt.Errorf("glfw.CreateWindow: %w", err)}
	}

	w := &GLFWWindow{
		Window:   window,
		renderer: render.NewGL(cfg.Debug),
	}

	w.MakeContextCurrent()
	err = w.renderer.Init()
	if err != nil {
		w.Destroy()
		return nil, err
	}

	width, height = w.GetSize()
	w.scene = scene.New(cfg.View, w.renderer, width, height, func() { w.dirty = true })
	w.renderer.Resize(w.GetFramebufferSize())

	program, err := cfg.LoadProgram()
	if err == nil {
		err = w.scene.SetProgram(program)
	}
	if err != nil {
		w.renderer.Delete()
		w.Destroy()
		return nil, err
	}

	w.SetMouseButtonCallback(w.mouseButton)
	w.SetCursorPosCallback(w.cursorPos)
	w.SetCursorEnterCallback(w.cursorEnter)
	w.SetScrollCallback(w.scroll)
	w.SetSizeCallback(w.size)
	w.SetFramebufferSizeCallback(w.framebufferSize)
	w.SetKeyCallback(w.key)

	return w, nil
}

// GLFWWindow draws the scene in a plain GLFW window. It must only be used
// from the thread that created it.
type GLFWWindow struct {
	*glfw.Window

	renderer *render.GL
	scene    *scene.Scene

	// dirty is set by the scene when the next loop iteration should draw.
	dirty bool
}

func (w *GLFWWindow) mouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	x, y := w.GetCursorPos()
	switch action {
	case glfw.Press:
		w.scene.HandleEvent(input.Event{Kind: input.Press, X: x, Y: y})
	case glfw.Release:
		w.scene.HandleEvent(input.Event{Kind: input.Release, X: x, Y: y})
	}
}

func (w *GLFWWindow) cursorPos(_ *glfw.Window, x, y float64) {
	w.scene.HandleEvent(input.Event{Kind: input.Move, X: x, Y: y})
}

func (w *GLFWWindow) cursorEnter(_ *glfw.Window, entered bool) {
	if !entered {
		w.scene.HandleEvent(input.Event{Kind: input.Leave})
	}
}

// scroll flips GLFW's y offset, which is positive when scrolling up, so that
// scrolling up zooms in.
func (w *GLFWWindow) scroll(_ *glfw.Window, _, yoff float64) {
	x, y := w.GetCursorPos()
	w.scene.HandleEvent(input.Event{Kind: input.Wheel, X: x, Y: y, DeltaY: -yoff})
}

func (w *GLFWWindow) size(_ *glfw.Window, width, height int) {
	w.scene.Resize(width, height)
	w.renderer.Resize(w.GetFramebufferSize())
}

func (w *GLFWWindow) framebufferSize(_ *glfw.Window, width, height int) {
	w.renderer.Resize(width, height)
	w.dirty = true
}

func (w *GLFWWindow) key(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}

	switch key {
	case glfw.KeyEscape, glfw.KeyQ:
		w.SetShouldClose(true)
	case glfw.KeyR:
		w.scene.Reset()
	}
}

// Run draws on demand until the window is closed or ctx ends.
func (w *GLFWWindow) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, glfw.PostEmptyEvent)
	defer stop()

	w.dirty = true
	for !w.ShouldClose() && ctx.Err() == nil {
		if w.dirty {
			w.dirty = false
			w.scene.Draw()
			w.SwapBuffers()
		}
		glfw.WaitEventsTimeout(waitTimeout)
	}
	return nil
}

func glfwMain(ctx context.Context, cfg config.Config) error {
	err := glfw.Init()
	if err != nil {
		return &scene.SetupError{Stage: scene.StageContext, Err: fmt.Errorf("glfw.Init: %w", err)}
	}
	defer glfw.Terminate()

	w, err := NewGLFWWindow(cfg)
	if err != nil {
		return err
	}
	defer w.Destroy()
	defer w.renderer.Delete()

	return w.Run(ctx)
}
