package programs

import (
	_ "embed"
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrNoCPUImplementation = errors.New("fractal does not have a CPU implementation")

var (
	NullColour = mgl32.Vec3{0.1, 0.1, 0.1}
)

// QuadVertices covers the whole viewport with two triangles, QuadDimensions
// floats per vertex.
var QuadVertices = []float32{
	1, 1, 1, -1, -1, 1,
	-1, -1, 1, -1, -1, 1,
}

const QuadDimensions = 2

//go:embed shaders/default.vert
var defaultVertexShader string

func NumPrograms() int {
	return len(programs)
}

func GetProgram(i int) Program {
	return programs[i]
}

// Lookup returns the registered program called name.
func Lookup(name string) (Program, bool) {
	for _, p := range programs {
		if p.Name == name {
			return p, true
		}
	}
	return Program{}, false
}

func Names() []string {
	names := make([]string, len(programs))
	for i, p := range programs {
		names[i] = p.Name
	}
	return names
}

func NewProgram(p Program) error {
	if p.Name == "" {
		return errors.New("program has no name")
	}
	if _, ok := Lookup(p.Name); ok {
		return errors.New("program " + p.Name + " already registered")
	}
	programs = append(programs, p)
	return nil
}

var programs []Program

// PixelFunc returns the colour of the point at pos, given in normalised device
// coordinates, exactly as the program's fragment shader would.
type PixelFunc func(uniforms Uniforms, pos mgl64.Vec2) mgl32.Vec3

type Program struct {
	Name           string
	VertexShader   string
	FragmentShader string

	// Uniforms lists the uniforms the fragment shader must expose.
	Uniforms []string

	GetPixel PixelFunc
}

func (p *Program) GetImage(uniforms Uniforms, width, height int) (Image, error) {
	if p.GetPixel == nil {
		return nil, ErrNoCPUImplementation
	}

	return &programImage{
		uniforms:  uniforms,
		bounds:    image.Rect(0, 0, width, height),
		pixelFunc: p.GetPixel,
	}, nil
}

// Image is a program evaluated over a pixel grid, sampled in normalised
// device coordinates.
type Image interface {
	GetPixel(mgl64.Vec2) mgl32.Vec3
	Bounds() image.Rectangle
}

type programImage struct {
	uniforms  Uniforms
	bounds    image.Rectangle
	pixelFunc PixelFunc
}

func (i *programImage) GetPixel(pos mgl64.Vec2) mgl32.Vec3 {
	return i.pixelFunc(i.uniforms, pos)
}

func (i *programImage) Bounds() image.Rectangle {
	return i.bounds
}
