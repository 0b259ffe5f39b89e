// Command termview draws the Mandelbrot set in a terminal, two pixels per
// character cell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/input"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/scene"
	"github.com/stewi1014/mandelview/software"
)

// halfBlock fills the top half of a cell with the foreground colour and
// leaves the bottom half to the background.
const halfBlock = '▀'

type Viewer struct {
	screen   tcell.Screen
	scene    *scene.Scene
	renderer *software.Renderer
	poller   input.Poller

	cols, rows int

	// dirty is set by the scene when the view needs rendering again.
	dirty bool
}

// NewViewer draws on an initialised screen. Frames are not shown until Run
// forwards them.
func NewViewer(ctx context.Context, screen tcell.Screen, cfg config.Config) (*Viewer, error) {
	v := &Viewer{
		screen:   screen,
		renderer: software.New(ctx),
	}
	v.cols, v.rows = screen.Size()
	v.scene = scene.New(cfg.View, v.renderer, v.cols, v.rows*2, func() { v.dirty = true })
	v.renderer.Resize(v.cols, v.rows*2)

	program, err := cfg.LoadProgram()
	if err != nil {
		return nil, err
	}
	if err := v.scene.SetProgram(program); err != nil {
		return nil, err
	}
	return v, nil
}

// Run handles terminal events until the user quits or ctx ends.
func (v *Viewer) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()
	defer v.renderer.Stop()

	go v.forwardFrames(ctx)

	v.drawIfDirty()
	for ctx.Err() == nil {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.HandleEvent(ev) {
			return nil
		}
	}
	return nil
}

// forwardFrames hands finished frames to the event loop, which owns the screen.
func (v *Viewer) forwardFrames(ctx context.Context) {
	for {
		select {
		case frame := <-v.renderer.Frames():
			_ = v.screen.PostEvent(tcell.NewEventInterrupt(frame))
		case <-ctx.Done():
			return
		}
	}
}

// HandleEvent applies ev and reports whether the viewer should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case 'r':
				v.scene.Reset()
			}
		}

	case *tcell.EventMouse:
		for _, e := range v.poller.Events(mouseSample(ev, v.cols, v.rows)) {
			v.scene.HandleEvent(e)
		}

	case *tcell.EventResize:
		v.cols, v.rows = ev.Size()
		v.scene.Resize(v.cols, v.rows*2)
		v.screen.Sync()

	case *tcell.EventInterrupt:
		if frame, ok := ev.Data().(software.Frame); ok {
			v.paint(frame)
		}
	}

	v.drawIfDirty()
	return false
}

func (v *Viewer) drawIfDirty() {
	if v.dirty {
		v.dirty = false
		v.scene.Draw()
	}
}

// mouseSample converts a mouse report in cells to pixel coordinates, taking
// the centre of the pointed-at cell.
func mouseSample(ev *tcell.EventMouse, cols, rows int) input.Sample {
	x, y := ev.Position()
	buttons := ev.Buttons()

	var delta float64
	switch {
	case buttons&tcell.WheelUp != 0:
		delta = -1
	case buttons&tcell.WheelDown != 0:
		delta = 1
	}

	return input.Sample{
		X:      float64(x) + 0.5,
		Y:      float64(2*y) + 1,
		Down:   buttons&tcell.Button1 != 0,
		Inside: x >= 0 && y >= 0 && x < cols && y < rows,
		DeltaY: delta,
	}
}

func (v *Viewer) paint(frame software.Frame) {
	img := frame.Image
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	for y := 0; y < v.rows && 2*y+1 < height; y++ {
		for x := 0; x < v.cols && x < width; x++ {
			top := img.NRGBAAt(x, 2*y)
			bottom := img.NRGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			v.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
	v.screen.Show()
}

func main() {
	cfg, err := config.ParseView(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// The terminal is taken over, so logs only go out in debug mode.
	if cfg.Debug {
		logging.SetLogger(logging.New(os.Stderr, true))
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising terminal: %w", err)
	}
	defer screen.Fini()

	screen.EnableMouse()
	screen.HideCursor()

	viewer, err := NewViewer(ctx, screen, cfg)
	if err != nil {
		return err
	}
	return viewer.Run(ctx)
}
