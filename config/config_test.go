package config

import (
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/view"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse("mandelview", nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	if c.Backend != BackendGTK || c.Program != "mandelbrot" || c.Save != "" {
		t.Errorf("Parse() = %+v", c)
	}
	if c.View != view.DefaultConfig() {
		t.Errorf("View = %+v, want %+v", c.View, view.DefaultConfig())
	}
	if w, h := c.Size(); w != DefaultWidth || h != DefaultHeight {
		t.Errorf("Size() = %dx%d", w, h)
	}
}

func TestParseFlags(t *testing.T) {
	c, err := Parse("mandelview", []string{
		"-backend", "glfw",
		"-width", "640", "-height", "480",
		"-iterations", "500",
		"-center-x", "0.25", "-center-y", "-0.5",
		"-zoom", "0.01",
		"-program", "plain",
		"-save", "out.png",
		"-antialias", "0.5",
		"-debug",
	}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	want := Config{
		Backend: BackendGLFW,
		Width:   640,
		Height:  480,
		View: view.Config{
			Center:     mgl64.Vec2{0.25, -0.5},
			Zoom:       0.01,
			Iterations: 500,
		},
		Program:   "plain",
		Debug:     true,
		Save:      "out.png",
		Antialias: 0.5,
	}
	if c != want {
		t.Errorf("Parse() = %+v\nwant %+v", c, want)
	}

	p, err := c.LoadProgram()
	if err != nil || p.Name != "plain" {
		t.Errorf("LoadProgram() = %q, %v", p.Name, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"backend", []string{"-backend", "sdl"}, "unknown backend"},
		{"zoom", []string{"-zoom", "0"}, "zoom must be positive"},
		{"iterations low", []string{"-iterations", "10"}, "iterations must be between"},
		{"iterations high", []string{"-iterations", "5000"}, "iterations must be between"},
		{"program", []string{"-program", "julia"}, "unknown program"},
		{"size", []string{"-width", "-1"}, "must not be negative"},
		{"antialias", []string{"-antialias", "-2"}, "antialias must not be negative"},
		{"positional", []string{"extra"}, "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("mandelview", tt.args, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse(%v) error = %v, want it to contain %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	if _, err := Parse("mandelview", []string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("Parse(-h) error = %v, want flag.ErrHelp", err)
	}
}

func TestParseViewRejectsAppFlags(t *testing.T) {
	if _, err := ParseView("termview", []string{"-backend", "glfw"}, io.Discard); err == nil {
		t.Error("ParseView accepted -backend")
	}

	c, err := ParseView("termview", []string{"-program", "mandelbrot-colour", "-iterations", "60"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if c.Program != "mandelbrot-colour" || c.View.Iterations != 60 {
		t.Errorf("ParseView() = %+v", c)
	}
}
