package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/stewi1014/mandelview/config"
	"github.com/stewi1014/mandelview/logging"
)

func init() {
	// GTK and GLFW both require the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.SetLogger(logging.New(os.Stderr, cfg.Debug))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case cfg.Save != "":
		err = saveHeadless(ctx, cfg)
	case cfg.Backend == config.BackendGLFW:
		err = glfwMain(ctx, cfg)
	default:
		err = gtkMain(ctx, cfg)
	}

	if err != nil {
		logging.Logger().Error("mandelview failed", "err", err)
		stop()
		os.Exit(1)
	}
}
