package programs

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func defaultUniforms() Uniforms {
	return Uniforms{Pos: mgl64.Vec2{-0.5, 0}, Zoom: 2, IterLimit: 100}
}

func TestRegistry(t *testing.T) {
	want := []string{"mandelbrot", "mandelbrot-colour", "plain"}
	names := Names()
	if len(names) != len(want) || NumPrograms() != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], name)
		}
		if GetProgram(i).Name != name {
			t.Errorf("GetProgram(%d).Name = %q, want %q", i, GetProgram(i).Name, name)
		}
	}

	if _, ok := Lookup("julia"); ok {
		t.Error("Lookup(julia) found a program")
	}
	if err := NewProgram(Program{Name: "mandelbrot"}); err == nil {
		t.Error("registering a duplicate name did not fail")
	}
	if err := NewProgram(Program{}); err == nil {
		t.Error("registering an unnamed program did not fail")
	}
}

func TestShadersEmbedded(t *testing.T) {
	for i := 0; i < NumPrograms(); i++ {
		p := GetProgram(i)
		if !strings.HasPrefix(p.VertexShader, "#version") {
			t.Errorf("%s: vertex shader not embedded", p.Name)
		}
		if !strings.HasPrefix(p.FragmentShader, "#version") {
			t.Errorf("%s: fragment shader not embedded", p.Name)
		}
		for _, u := range p.Uniforms {
			if !strings.Contains(p.FragmentShader, "uniform") || !strings.Contains(p.FragmentShader, " "+u+";") {
				t.Errorf("%s: fragment shader does not declare uniform %q", p.Name, u)
			}
		}
	}
}

func TestEscapeTime(t *testing.T) {
	tests := []struct {
		name string
		c    complex128
		want int
	}{
		{"origin", 0, 100},
		{"main cardioid", complex(-0.5, 0), 100},
		{"period two bulb", complex(-1, 0), 100},
		{"far outside", complex(2, 2), 1},
		{"just outside", complex(0.5, 0), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeTime(tt.c, 100); got != tt.want {
				t.Errorf("EscapeTime(%v) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestMandelbrotPixels(t *testing.T) {
	p, _ := Lookup("mandelbrot")
	u := defaultUniforms()

	// (0.25, 0) in NDC is the world origin, inside the set
	if got := p.GetPixel(u, mgl64.Vec2{0.25, 0}); got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("inside pixel = %v, want white", got)
	}
	// the top-left corner is (-2.5, 2), which escapes at once
	if got := p.GetPixel(u, mgl64.Vec2{-1, 1}); got[0] >= 0.05 {
		t.Errorf("corner pixel = %v, want near black", got)
	}

	c, _ := Lookup("mandelbrot-colour")
	if got := c.GetPixel(u, mgl64.Vec2{0.25, 0}); got != (mgl32.Vec3{}) {
		t.Errorf("colour inside pixel = %v, want black", got)
	}
	if got := c.GetPixel(u, mgl64.Vec2{-1, 1}); got == (mgl32.Vec3{}) {
		t.Error("colour outside pixel is black")
	}
}

func TestGetImageWithoutCPU(t *testing.T) {
	p := Program{Name: "gpu-only"}
	if _, err := p.GetImage(defaultUniforms(), 10, 10); !errors.Is(err, ErrNoCPUImplementation) {
		t.Errorf("GetImage() error = %v, want ErrNoCPUImplementation", err)
	}
}

func TestPixelNDC(t *testing.T) {
	tests := []struct {
		x, y int
		want mgl64.Vec2
	}{
		{0, 0, mgl64.Vec2{-0.75, 0.75}},
		{3, 3, mgl64.Vec2{0.75, -0.75}},
		{1, 2, mgl64.Vec2{-0.25, -0.25}},
	}
	for _, tt := range tests {
		if got := PixelNDC(tt.x, tt.y, 4, 4); got != tt.want {
			t.Errorf("PixelNDC(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderMatchesShaderMapping(t *testing.T) {
	p, _ := Lookup("mandelbrot")
	// centred on the origin, so the middle of the image is inside the set
	u := Uniforms{Pos: mgl64.Vec2{0, 0}, Zoom: 2, IterLimit: 100}

	img, err := Render(context.Background(), p, u, 101, 61)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 101, 61) {
		t.Fatalf("Bounds() = %v", img.Bounds())
	}
	if got := img.NRGBAAt(50, 30); got != (color.NRGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("centre pixel = %v, want white", got)
	}
	if got := img.NRGBAAt(0, 0); got.R > 20 {
		t.Errorf("corner pixel = %v, want near black", got)
	}
}

func TestBufferCancelled(t *testing.T) {
	p, _ := Lookup("plain")
	img, _ := p.GetImage(defaultUniforms(), 200, 200)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := BufferImage(ToImage(img)).Buffer(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Buffer() error = %v, want context.Canceled", err)
	}
}

func TestAntiAliasAveragesNeighbours(t *testing.T) {
	// a program that is white on the right half of the screen only
	half := Program{
		Name: "half",
		GetPixel: func(_ Uniforms, pos mgl64.Vec2) mgl32.Vec3 {
			if pos[0] > 0 {
				return mgl32.Vec3{1, 1, 1}
			}
			return mgl32.Vec3{}
		},
	}

	img, _ := half.GetImage(defaultUniforms(), 100, 100)
	aa := AntiAlias9x(img, 1)

	got := aa.GetPixel(mgl64.Vec2{0, 0.5})
	want := float32(3) / 9
	if d := got[0] - want; d > 1e-6 || d < -1e-6 {
		t.Errorf("edge pixel = %v, want %v", got[0], want)
	}
	if got := aa.GetPixel(mgl64.Vec2{0.5, 0.5}); got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("interior pixel = %v, want white", got)
	}
}

func TestEncodePNG(t *testing.T) {
	p, _ := Lookup("mandelbrot-colour")

	for _, multithread := range []bool{false, true} {
		var buf bytes.Buffer
		var progress func() float64

		err := EncodePNG(context.Background(), &buf, p, defaultUniforms(), SaveOptions{
			Width:       64,
			Height:      48,
			Antialias:   0.5,
			Multithread: multithread,
			Progress:    func(f func() float64) { progress = f },
		})
		if err != nil {
			t.Fatalf("multithread=%v: %v", multithread, err)
		}

		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("multithread=%v: decode: %v", multithread, err)
		}
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
			t.Errorf("multithread=%v: bounds = %v", multithread, img.Bounds())
		}
		if progress == nil || progress() < 1 {
			t.Errorf("multithread=%v: progress not reported as complete", multithread)
		}
	}
}

func TestEncodePNGCancelled(t *testing.T) {
	p, _ := Lookup("mandelbrot")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := EncodePNG(ctx, &buf, p, defaultUniforms(), SaveOptions{Width: 10, Height: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("EncodePNG() error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Error("cancelled EncodePNG wrote output")
	}
}
