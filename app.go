package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/ipc"
)

const applicationID = "com.github.stewi1014.mandelview"

func NewApplication(cfg config.Config) (*Application, error) {
	app, err := gtk.ApplicationNew(applicationID, glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return nil, fmt.Errorf("gtk.ApplicationNew failed: %w", err)
	}

	a := &Application{
		Application: app,
		cfg:         cfg,
	}

	return a, nil
}

type Application struct {
	*gtk.Application
	cfg config.Config
}

// Run shows the render and config windows and blocks until the application
// quits. It returns the cause of an abnormal exit.
func (a *Application) Run(ctx context.Context) error {
	appContext, appQuit := context.WithCancelCause(ctx)
	defer appQuit(nil)

	a.Connect("activate", func() {
		client, listener := ipc.NewPipeListener()

		renderWindow := NewRenderWindow(a.Application, client, a.cfg, appContext, appQuit)
		if renderWindow == nil {
			return
		}
		renderWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		renderWindow.SetTitle("mandelview")

		configWindow := NewConfigWindow(a.Application, listener, a.cfg, appContext, appQuit)
		if configWindow == nil {
			return
		}
		configWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		configWindow.SetTitle("mandelview config")
	})

	go func() {
		<-appContext.Done()
		glib.IdleAdd(a.Quit)
	}()
	a.Application.Run(nil)

	err := context.Cause(appContext)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func gtkMain(ctx context.Context, cfg config.Config) error {
	gtk.Init(nil)

	app, err := NewApplication(cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
