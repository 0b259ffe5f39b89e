package main

import (
	"context"
	"fmt"
	"net"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/ipc"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/view"
)

func NewConfigWindow(
	app *gtk.Application,
	listener net.Listener,
	cfg config.Config,
	ctx context.Context,
	quit func(error),
) *ConfigWindow {
	var err error
	w := &ConfigWindow{
		ctx:      ctx,
		quit:     quit,
		cfg:      cfg,
		uniforms: view.New(cfg.View).Uniforms(),
		program:  cfg.Program,
	}

	conn, err := listener.Accept()
	if err != nil {
		quit(fmt.Errorf("accepting render window: %w", err))
		return nil
	}
	w.link = ipc.NewLink(ctx, conn, quit)

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	w.SetDefaultSize(280, 320)

	if err := w.build(); err != nil {
		quit(err)
		return nil
	}

	w.ShowAll()

	go w.link.Receive(w.handleMessage)

	return w
}

// ConfigWindow edits the render window's view over the link. Its fields are
// only touched on the GTK main thread.
type ConfigWindow struct {
	*gtk.ApplicationWindow

	ctx  context.Context
	quit func(error)
	cfg  config.Config
	link *ipc.Link

	uniforms programs.Uniforms
	program  string

	// updating is set while remote values are copied into the widgets, so
	// their change handlers do not echo them back.
	updating bool

	programSelect *gtk.ComboBoxText
	iterations    *gtk.SpinButton
	centerLabel   *gtk.Label
	zoomLabel     *gtk.Label
}

func (w *ConfigWindow) build() error {
	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 6)
	if err != nil {
		return fmt.Errorf("gtk.BoxNew: %w", err)
	}
	box.SetBorderWidth(12)

	programLabel, _ := gtk.LabelNew("Program")
	programLabel.SetXAlign(0)
	box.PackStart(programLabel, false, false, 0)

	w.programSelect, err = gtk.ComboBoxTextNew()
	if err != nil {
		return fmt.Errorf("gtk.ComboBoxTextNew: %w", err)
	}
	for i, name := range programs.Names() {
		w.programSelect.AppendText(name)
		if name == w.program {
			w.programSelect.SetActive(i)
		}
	}
	w.programSelect.Connect("changed", w.programChanged)
	box.PackStart(w.programSelect, false, false, 0)

	iterationsLabel, _ := gtk.LabelNew("Iterations")
	iterationsLabel.SetXAlign(0)
	box.PackStart(iterationsLabel, false, false, 0)

	w.iterations, err = gtk.SpinButtonNewWithRange(view.MinIterations, view.MaxIterations, 10)
	if err != nil {
		return fmt.Errorf("gtk.SpinButtonNewWithRange: %w", err)
	}
	w.iterations.SetValue(float64(w.uniforms.IterLimit))
	w.iterations.Connect("value-changed", w.iterationsChanged)
	box.PackStart(w.iterations, false, false, 0)

	w.centerLabel, _ = gtk.LabelNew("")
	w.centerLabel.SetXAlign(0)
	w.centerLabel.SetSelectable(true)
	box.PackStart(w.centerLabel, false, false, 0)

	w.zoomLabel, _ = gtk.LabelNew("")
	w.zoomLabel.SetXAlign(0)
	w.zoomLabel.SetSelectable(true)
	box.PackStart(w.zoomLabel, false, false, 0)

	resetButton, _ := gtk.ButtonNewWithLabel("Reset View")
	resetButton.Connect("clicked", func() {
		w.link.Send(ipc.ResetView)
	})
	box.PackStart(resetButton, false, false, 0)

	saveButton, _ := gtk.ButtonNewWithLabel("Save Image")
	saveButton.Connect("clicked", WrapErrorDialog(w.ApplicationWindow, w.saveImage))
	box.PackEnd(saveButton, false, false, 0)

	w.Add(box)
	w.showView()
	return nil
}

func (w *ConfigWindow) programChanged() {
	if w.updating {
		return
	}

	w.program = w.programSelect.GetActiveText()
	w.link.Send(&ipc.ProgramSelection{Name: w.program})
}

func (w *ConfigWindow) iterationsChanged() {
	if w.updating {
		return
	}

	w.uniforms.IterLimit = int32(w.iterations.GetValueAsInt())
	u := w.uniforms
	w.link.Send(&u)
}

func (w *ConfigWindow) showView() {
	w.centerLabel.SetText(fmt.Sprintf("Center: %.17g, %.17g", w.uniforms.Pos[0], w.uniforms.Pos[1]))
	w.zoomLabel.SetText(fmt.Sprintf("Zoom: %.6g", w.uniforms.Zoom))

	w.updating = true
	w.iterations.SetValue(float64(w.uniforms.IterLimit))
	w.updating = false
}

func (w *ConfigWindow) saveImage() error {
	program, ok := programs.Lookup(w.program)
	if !ok {
		return fmt.Errorf("unknown program %q", w.program)
	}

	name, ok, err := chooseSaveFile(w.ApplicationWindow, program.Name)
	if err != nil || !ok {
		return err
	}

	width, height := w.cfg.Size()
	save(w.ctx, w.ApplicationWindow, name, programs.SaveOptions{
		Width:       width * 2,
		Height:      height * 2,
		Antialias:   0.5,
		Multithread: true,
	}, program, w.uniforms)
	return nil
}

// handleMessage runs on the link goroutine and hands work to the main thread.
func (w *ConfigWindow) handleMessage(v any) {
	switch msg := v.(type) {
	case *programs.Uniforms:
		glib.IdleAdd(func() {
			w.uniforms = *msg
			w.showView()
		})

	case *ipc.ProgramSelection:
		glib.IdleAdd(func() {
			w.program = msg.Name
			w.updating = true
			for i, name := range programs.Names() {
				if name == msg.Name {
					w.programSelect.SetActive(i)
				}
			}
			w.updating = false
		})

	default:
		logging.Logger().Warn("unknown message received", "type", fmt.Sprintf("%T", v))
	}
}
