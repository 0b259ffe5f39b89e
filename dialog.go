package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/mandelview/logging"
)

func CatchPanicToContext(ctxCancel context.CancelCauseFunc) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		err = fmt.Errorf("%w\n%v", err, string(debug.Stack()))
		if ctxCancel != nil {
			ctxCancel(err)
		}
	}
}

func WrapErrorDialog(parent *gtk.ApplicationWindow, failable func() error) func() {
	return func() {
		err := failable()
		if err != nil {
			logging.Logger().Error("action failed", "err", err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, err)
			})
		}
	}
}

// AttachErrorDialog shows an error dialog if ctx ends with a cause other
// than cancellation.
func AttachErrorDialog(parent *gtk.ApplicationWindow, ctx context.Context) {
	go func() {
		<-ctx.Done()
		err := context.Cause(ctx)
		if !errors.Is(err, context.Canceled) {
			logging.Logger().Error("operation failed", "err", err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, err)
			})
		}
	}()
}

func NewErrorDialog(
	parent *gtk.ApplicationWindow,
	err error,
) {
	_, file, line, ok := runtime.Caller(1)

	fileLocation := "unknown file"
	if ok {
		fileLocation = fmt.Sprintf("%s:%v", file, line)
	}

	dialog := gtk.MessageDialogNew(
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		gtk.MESSAGE_ERROR,
		gtk.BUTTONS_CLOSE,
		"Error in %s: %s",
		fileLocation,
		err.Error(),
	)

	dialog.Connect("response", dialog.Destroy)

	messageArea, err := dialog.GetMessageArea()
	if err != nil {
		logging.Logger().Warn("no message area in error dialog", "err", err)

	} else {
		messageArea.GetChildren().Foreach(func(item interface{}) {
			if widget, ok := item.(*gtk.Widget); ok {
				l, err := gtk.WidgetToLabel(widget)
				if err != nil {
					return
				}

				l.SetSelectable(true)
			}
		})
	}

	dialog.SetKeepAbove(true)
	dialog.Run()
}

func NewProgressDialog(
	ctx context.Context,
	parentWindow gtk.IWindow,
	title string,
	description string,
	onCancel func(),
) (*ProgressDialog, error) {
	dialog := &ProgressDialog{}
	var err error
	dialog.Dialog, err = gtk.DialogNewWithButtons(
		title,
		parentWindow,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		[]interface{}{"CANCEL", gtk.RESPONSE_CANCEL},
	)
	if err != nil {
		return nil, fmt.Errorf("gtk.DialogNewWithButtons: %w", err)
	}
	dialog.SetKeepAbove(true)
	dialog.Connect("response", func(dialog *gtk.Dialog, response gtk.ResponseType) {
		if response == gtk.RESPONSE_CANCEL {
			onCancel()
		}
	})

	ca, err := dialog.GetContentArea()
	if err != nil {
		return nil, fmt.Errorf("GetContentArea: %w", err)
	}
	dialog.label, _ = gtk.LabelNew(description)
	ca.Add(dialog.label)

	dialog.progressBar, _ = gtk.ProgressBarNew()
	dialog.progressBar.SetProperty("show-text", true)
	dialog.progressBar.SetSizeRequest(500, 80)
	ca.Add(dialog.progressBar)

	dialog.ShowAll()

	go dialog.periodicUpdate(ctx)
	return dialog, nil
}

// ProgressDialog closes itself when the context it was created with ends.
type ProgressDialog struct {
	*gtk.Dialog
	progressBar *gtk.ProgressBar
	label       *gtk.Label

	progressFuncs []func() float64
}

// AddProgressSupplier adds a supplier for progress information to the ProgressDialog.
// If more than one supplier is added, their values are averaged.
func (dialog *ProgressDialog) AddProgressSupplier(supplier func() float64) {
	glib.IdleAdd(func() {
		dialog.progressFuncs = append(dialog.progressFuncs, supplier)
	})
}

func (dialog *ProgressDialog) periodicUpdate(ctx context.Context) {
	ticker := time.NewTicker(time.Second / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			glib.IdleAdd(func() {
				if len(dialog.progressFuncs) == 0 {
					dialog.progressBar.Pulse()
					return
				}
				progress := float64(0)
				for _, progressFunc := range dialog.progressFuncs {
					progress += progressFunc()
				}
				progress = progress / float64(len(dialog.progressFuncs))
				dialog.progressBar.SetFraction(progress)
			})
		case <-ctx.Done():
			glib.IdleAdd(func() {
				dialog.Destroy()
			})
			return
		}
	}
}

// NewImageDialog previews a saved image. Exactly one of responseSave and
// responseDelete is called; closing the window counts as save.
func NewImageDialog(
	app *gtk.Application,
	pixbuf *gdk.Pixbuf,
	responseSave func(),
	responseDelete func(),
) (*ImagePreview, error) {
	w := &ImagePreview{}
	var err error

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		return nil, err
	}

	previewImage, err := gtk.ImageNewFromPixbuf(pixbuf)
	if err != nil {
		return nil, err
	}

	previewImage.SetHExpand(true)
	previewImage.SetVExpand(true)

	answered := false
	respond := func(f func()) {
		if answered {
			return
		}
		answered = true
		if f != nil {
			f()
		}
	}

	deleteButton, _ := gtk.ButtonNewWithLabel("Delete")
	deleteButton.Connect("clicked", func(button *gtk.Button) {
		respond(responseDelete)
		w.Destroy()
	})

	saveButton, _ := gtk.ButtonNewWithLabel("Keep")
	saveButton.Connect("clicked", func(button *gtk.Button) {
		respond(responseSave)
		w.Destroy()
	})

	w.Connect("destroy", func() {
		respond(responseSave)
	})

	grid, _ := gtk.GridNew()
	grid.Attach(previewImage, 0, 0, 5, 1)
	grid.Attach(saveButton, 0, 1, 1, 1)
	grid.Attach(deleteButton, 4, 1, 1, 1)

	w.Add(grid)
	w.ShowAll()

	return w, nil
}

type ImagePreview struct {
	*gtk.ApplicationWindow
}
