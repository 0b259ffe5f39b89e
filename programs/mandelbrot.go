package programs

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
)

//go:embed shaders/mandelbrot.frag
var mandelbrotFragment string

//go:embed shaders/mandelbrot_colour.frag
var mandelbrotColourFragment string

var mandelbrotUniforms = []string{"pos", "zoom", "iterLimit"}

func init() {
	NewProgram(Program{
		Name:           "mandelbrot",
		VertexShader:   defaultVertexShader,
		FragmentShader: mandelbrotFragment,
		Uniforms:       mandelbrotUniforms,
		GetPixel: func(uniforms Uniforms, pos mgl64.Vec2) mgl32.Vec3 {
			iterations := EscapeTime(toWorld(uniforms, pos), int(uniforms.IterLimit))
			c := float32(iterations) / float32(uniforms.IterLimit)
			return mgl32.Vec3{c, c, c}
		},
	})

	NewProgram(Program{
		Name:           "mandelbrot-colour",
		VertexShader:   defaultVertexShader,
		FragmentShader: mandelbrotColourFragment,
		Uniforms:       mandelbrotUniforms,
		GetPixel: func(uniforms Uniforms, pos mgl64.Vec2) mgl32.Vec3 {
			iterations := EscapeTime(toWorld(uniforms, pos), int(uniforms.IterLimit))
			if iterations >= int(uniforms.IterLimit) {
				return mgl32.Vec3{}
			}

			t := float64(iterations) / float64(uniforms.IterLimit)
			c := colorful.Hsv(360*t, 0.8, 1)
			return mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}
		},
	})
}

func toWorld(uniforms Uniforms, pos mgl64.Vec2) complex128 {
	return complex(
		pos[0]*uniforms.Zoom+uniforms.Pos[0],
		pos[1]*uniforms.Zoom+uniforms.Pos[1],
	)
}

// EscapeTime iterates z = z² + c from zero and returns how many iterations
// ran before |z| exceeded 2, or limit if it never did.
func EscapeTime(c complex128, limit int) int {
	var x, y, x2, y2 float64
	for i := 0; i < limit; i++ {
		if x2+y2 > 4 {
			return i
		}
		y = 2*x*y + imag(c)
		x = x2 - y2 + real(c)
		x2 = x * x
		y2 = y * y
	}
	return limit
}
