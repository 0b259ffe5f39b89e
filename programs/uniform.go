package programs

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Uniforms are pushed to the shader by struct tag before every draw.
type Uniforms struct {
	Pos       mgl64.Vec2 `uniform:"pos"`
	Zoom      float64    `uniform:"zoom"`
	IterLimit int32      `uniform:"iterLimit"`
}
