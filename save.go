package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/view"
)

const (
	previewWidth  = 640
	previewHeight = 480
)

// save renders program to name in the background, showing progress and
// then a preview that lets the user keep or delete the file.
func save(
	ctx context.Context,
	window *gtk.ApplicationWindow,
	name string,
	opts programs.SaveOptions,
	program programs.Program,
	uniforms programs.Uniforms,
) {
	ctx, cancel := context.WithCancelCause(ctx)
	AttachErrorDialog(window, ctx)
	defer CatchPanicToContext(cancel)

	file, err := os.Create(name)
	if err != nil {
		cancel(err)
		return
	}
	context.AfterFunc(ctx, func() {
		file.Close()
	})
	keepFile := context.AfterFunc(ctx, func() {
		os.Remove(file.Name())
	})

	progressCtx, progressDone := context.WithCancel(ctx)
	progressDialog, err := NewProgressDialog(
		progressCtx, window, "Save Image",
		fmt.Sprintf("Saving %v", filepath.Base(file.Name())),
		func() { cancel(context.Canceled) },
	)
	if err != nil {
		progressDone()
		cancel(err)
		return
	}
	opts.Progress = progressDialog.AddProgressSupplier

	go func() {
		defer CatchPanicToContext(cancel)
		defer progressDone()

		start := time.Now()
		err := programs.EncodePNG(ctx, file, program, uniforms, opts)
		if err == nil {
			err = file.Close()
		}
		if err != nil {
			cancel(err)
			return
		}
		logging.Logger().Info("image saved", "file", file.Name(), "took", time.Since(start))

		glib.IdleAdd(func() {
			app, err := window.GetApplication()
			if err != nil {
				keepFile()
				cancel(err)
				return
			}

			pixbuf, err := gdk.PixbufNewFromFileAtScale(file.Name(), previewWidth, previewHeight, true)
			if err != nil {
				keepFile()
				cancel(err)
				return
			}

			_, err = NewImageDialog(app, pixbuf,
				func() {
					keepFile()
					cancel(nil)
				},
				func() { cancel(nil) },
			)
			if err != nil {
				keepFile()
				cancel(err)
			}
		})
	}()
}

// chooseSaveFile asks for a PNG path. ok is false when the user cancelled.
func chooseSaveFile(parent *gtk.ApplicationWindow, programName string) (name string, ok bool, err error) {
	dialog, err := gtk.FileChooserDialogNewWith2Buttons(
		"Save Image",
		parent,
		gtk.FILE_CHOOSER_ACTION_SAVE,
		"Cancel", gtk.RESPONSE_CANCEL,
		"Save", gtk.RESPONSE_ACCEPT,
	)
	if err != nil {
		return "", false, fmt.Errorf("gtk.FileChooserDialogNewWith2Buttons: %w", err)
	}
	defer dialog.Destroy()

	dialog.SetDoOverwriteConfirmation(true)
	dialog.SetCurrentName(fmt.Sprintf("%s-%s.png", programName, time.Now().Format("20060102-150405")))

	if dialog.Run() != gtk.RESPONSE_ACCEPT {
		return "", false, nil
	}
	return dialog.GetFilename(), true, nil
}

// saveHeadless renders the configured view to cfg.Save without opening a window.
func saveHeadless(ctx context.Context, cfg config.Config) (err error) {
	program, err := cfg.LoadProgram()
	if err != nil {
		return err
	}

	file, err := os.Create(cfg.Save)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(file.Name())
		}
	}()

	width, height := cfg.Size()
	uniforms := view.New(cfg.View).Uniforms()

	start := time.Now()
	err = programs.EncodePNG(ctx, file, program, uniforms, programs.SaveOptions{
		Width:       width,
		Height:      height,
		Antialias:   cfg.Antialias,
		Multithread: true,
	})
	if err != nil {
		return fmt.Errorf("rendering %s: %w", cfg.Save, err)
	}

	logging.Logger().Info("image saved", "file", cfg.Save, "width", width, "height", height, "took", time.Since(start))
	return nil
}
