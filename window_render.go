package main

import (
	"context"
	"fmt"
	"net"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/input"
	"github.com/stewi1014/mandelview/ipc"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/render"
	"github.com/stewi1014/mandelview/scene"
)

func NewRenderWindow(
	app *gtk.Application,
	conn net.Conn,
	cfg config.Config,
	ctx context.Context,
	quit func(error),
) *RenderWindow {
	var err error
	w := &RenderWindow{
		cfg:      cfg,
		ctx:      ctx,
		quit:     quit,
		renderer: render.NewGL(cfg.Debug),
	}

	w.link = ipc.NewLink(ctx, conn, quit)

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		width, height = getWindowSize()
	}
	w.SetDefaultSize(width, height)

	w.gla, err = gtk.GLAreaNew()
	if err != nil {
		quit(fmt.Errorf("gtk.GLAreaNew: %w", err))
		return nil
	}

	w.scene = scene.New(cfg.View, w.renderer, width, height, w.gla.QueueRender)
	w.scene.OnChange(func(u programs.Uniforms) {
		w.link.Send(&u)
	})

	w.gla.SetRequiredVersion(4, 6)
	w.gla.Connect("realize", w.glaRealize)
	w.gla.Connect("render", w.glaRender)
	w.gla.Connect("unrealize", w.glaUnrealize)

	w.gla.SetEvents(
		int(gdk.BUTTON_PRESS_MASK) |
			int(gdk.BUTTON_RELEASE_MASK) |
			int(gdk.POINTER_MOTION_MASK) |
			int(gdk.LEAVE_NOTIFY_MASK) |
			int(gdk.SCROLL_MASK),
	)
	w.gla.Connect("resize", w.resize)
	w.gla.Connect("scroll-event", w.scroll)
	w.gla.Connect("button-press-event", w.button)
	w.gla.Connect("button-release-event", w.button)
	w.gla.Connect("motion-notify-event", w.motion)
	w.gla.Connect("leave-notify-event", w.leave)

	w.Add(w.gla)
	w.ShowAll()

	go w.link.Receive(w.handleMessage)

	return w
}

func getWindowSize() (width, height int) {
	width = config.DefaultWidth
	height = config.DefaultHeight

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return
	}

	monitor, err := display.GetPrimaryMonitor()
	if err != nil {
		return
	}

	width = int(float32(monitor.GetGeometry().GetWidth()) * .6)
	height = int(float32(monitor.GetGeometry().GetHeight()) * .6)
	return
}

// RenderWindow draws the scene in a GLArea. Everything except the link
// goroutines runs on the GTK main thread.
type RenderWindow struct {
	*gtk.ApplicationWindow
	gla *gtk.GLArea

	cfg  config.Config
	ctx  context.Context
	quit func(error)

	renderer *render.GL
	scene    *scene.Scene
	link     *ipc.Link
}

func (w *RenderWindow) glaRealize(gla *gtk.GLArea) {
	gla.MakeCurrent()

	err := w.renderer.Init()
	if err != nil {
		w.quit(fmt.Errorf("realize: %w", err))
		return
	}

	program, err := w.cfg.LoadProgram()
	if err != nil {
		w.quit(err)
		return
	}

	err = w.scene.SetProgram(program)
	if err != nil {
		w.quit(fmt.Errorf("realize: %w", err))
		return
	}

	w.link.Send(&ipc.ProgramSelection{Name: program.Name})
	u := w.scene.View().Uniforms()
	w.link.Send(&u)
}

func (w *RenderWindow) glaRender(gla *gtk.GLArea) {
	w.gla.AttachBuffers()
	w.scene.Draw()
}

func (w *RenderWindow) glaUnrealize(gla *gtk.GLArea) {
	gla.MakeCurrent()
	w.renderer.Delete()
}

// resize receives the framebuffer size, which differs from the widget size
// events are reported in when the display is scaled.
func (w *RenderWindow) resize(gla *gtk.GLArea, width, height int) {
	w.scene.Resize(gla.GetAllocatedWidth(), gla.GetAllocatedHeight())
	w.renderer.Resize(width, height)
}

func (w *RenderWindow) button(gla *gtk.GLArea, event *gdk.Event) {
	button := gdk.EventButtonNewFromEvent(event)

	switch button.Type() {
	case gdk.EVENT_BUTTON_PRESS:
		w.scene.HandleEvent(input.Event{Kind: input.Press, X: button.X(), Y: button.Y()})
	case gdk.EVENT_BUTTON_RELEASE:
		w.scene.HandleEvent(input.Event{Kind: input.Release, X: button.X(), Y: button.Y()})
	}
}

func (w *RenderWindow) motion(gla *gtk.GLArea, event *gdk.Event) {
	x, y := gdk.EventMotionNewFromEvent(event).MotionVal()
	w.scene.HandleEvent(input.Event{Kind: input.Move, X: x, Y: y})
}

func (w *RenderWindow) leave(gla *gtk.GLArea, event *gdk.Event) {
	w.scene.HandleEvent(input.Event{Kind: input.Leave})
}

func (w *RenderWindow) scroll(gla *gtk.GLArea, event *gdk.Event) {
	scroll := gdk.EventScrollNewFromEvent(event)

	var delta float64
	switch scroll.Direction() {
	case gdk.SCROLL_DOWN:
		delta = 1
	case gdk.SCROLL_UP:
		delta = -1
	case gdk.SCROLL_SMOOTH:
		delta = scroll.DeltaY()
	default:
		return
	}

	w.scene.HandleEvent(input.Event{Kind: input.Wheel, X: scroll.X(), Y: scroll.Y(), DeltaY: delta})
}

// handleMessage runs on the link goroutine and hands work to the main thread.
func (w *RenderWindow) handleMessage(v any) {
	switch msg := v.(type) {
	case *ipc.ProgramSelection:
		glib.IdleAdd(func() {
			program, ok := programs.Lookup(msg.Name)
			if !ok {
				logging.Logger().Warn("unknown program selected", "name", msg.Name)
				return
			}

			w.gla.MakeCurrent()
			err := w.scene.SetProgram(program)
			if err != nil {
				logging.Logger().Error("loading program", "err", err)
				NewErrorDialog(w.ApplicationWindow, err)
			}
		})

	case *programs.Uniforms:
		glib.IdleAdd(func() {
			w.scene.SetUniforms(*msg)
		})

	case ipc.Command:
		switch msg {
		case ipc.ResetView:
			glib.IdleAdd(w.scene.Reset)
		default:
			logging.Logger().Warn("unknown command received", "command", int(msg))
		}

	default:
		logging.Logger().Warn("unknown message received", "type", fmt.Sprintf("%T", v))
	}
}
