package programs

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

//go:embed shaders/plain.frag
var plainFragment string

func init() {
	NewProgram(Program{
		Name:           "plain",
		VertexShader:   defaultVertexShader,
		FragmentShader: plainFragment,
		GetPixel: func(Uniforms, mgl64.Vec2) mgl32.Vec3 {
			return NullColour
		},
	})
}
