// Package config parses the command line of the mandelview binaries.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/view"
)

type Backend string

const (
	BackendGTK  Backend = "gtk"
	BackendGLFW Backend = "glfw"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

type Config struct {
	Backend Backend

	// Width and Height are the initial window size. Zero lets the front-end
	// pick one.
	Width, Height int

	View    view.Config
	Program string
	Debug   bool

	// Save, when set, renders one image to this path instead of opening a window.
	Save      string
	Antialias float64
}

func Default() Config {
	return Config{
		Backend: BackendGTK,
		View:    view.DefaultConfig(),
		Program: "mandelbrot",
	}
}

// Size returns the configured window size, falling back to the defaults.
func (c Config) Size() (width, height int) {
	width, height = c.Width, c.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// LoadProgram returns the configured program from the registry.
func (c Config) LoadProgram() (programs.Program, error) {
	p, ok := programs.Lookup(c.Program)
	if !ok {
		return programs.Program{}, fmt.Errorf("unknown program %q, want one of %s", c.Program, strings.Join(programs.Names(), ", "))
	}
	return p, nil
}

func (c *Config) registerView(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "initial window width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "initial window height in pixels")
	fs.IntVar(&c.View.Iterations, "iterations", c.View.Iterations,
		fmt.Sprintf("escape-time iteration limit (%d-%d)", view.MinIterations, view.MaxIterations))
	fs.Float64Var(&c.View.Center[0], "center-x", c.View.Center[0], "initial view center, real part")
	fs.Float64Var(&c.View.Center[1], "center-y", c.View.Center[1], "initial view center, imaginary part")
	fs.Float64Var(&c.View.Zoom, "zoom", c.View.Zoom, "initial half-height of the view in world units")
	fs.StringVar(&c.Program, "program", c.Program, "program to draw ("+strings.Join(programs.Names(), ", ")+")")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging and GL debug output")
}

// Parse parses the flags of the windowed GL viewer.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	c := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	c.registerView(fs)
	fs.Func("backend", "window backend (gtk, glfw)", func(s string) error {
		switch Backend(s) {
		case BackendGTK, BackendGLFW:
			c.Backend = Backend(s)
			return nil
		}
		return fmt.Errorf("unknown backend %q", s)
	})
	fs.StringVar(&c.Save, "save", c.Save, "render a PNG to this path and exit")
	fs.Float64Var(&c.Antialias, "antialias", c.Antialias, "antialiasing sample distance in pixels for -save, 0 disables")

	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return c, c.validate(fs)
}

// ParseView parses the flags shared by the software viewers.
func ParseView(name string, args []string, output io.Writer) (Config, error) {
	c := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	c.registerView(fs)

	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return c, c.validate(fs)
}

func (c Config) validate(fs *flag.FlagSet) error {
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.New("width and height must not be negative")
	}
	if !(c.View.Zoom > 0) {
		return fmt.Errorf("zoom must be positive, got %v", c.View.Zoom)
	}
	if c.View.Iterations < view.MinIterations || c.View.Iterations > view.MaxIterations {
		return fmt.Errorf("iterations must be between %d and %d, got %d", view.MinIterations, view.MaxIterations, c.View.Iterations)
	}
	if c.Antialias < 0 {
		return fmt.Errorf("antialias must not be negative, got %v", c.Antialias)
	}
	if _, err := c.LoadProgram(); err != nil {
		return err
	}
	return nil
}
