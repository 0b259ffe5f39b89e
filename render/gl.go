// Package render draws programs with OpenGL 4.6 core.
//
// Every method must be called on the thread that owns the current GL context.
package render

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
	"github.com/stewi1014/mandelview/scene"
)

var _ scene.Renderer = (*GL)(nil)

type GL struct {
	debug bool

	vao          uint32
	vbo          uint32
	vertexCount  int32
	program      uint32
	vertexAttrib uint32

	uniformLocations map[string]int32
}

func NewGL(debug bool) *GL {
	return &GL{debug: debug}
}

// Init loads the GL function pointers for the current context and uploads the
// full-viewport quad.
func (r *GL) Init() error {
	err := gl.Init()
	if err != nil {
		return &scene.SetupError{Stage: scene.StageContext, Err: err}
	}
	version := gl.GoStr(gl.GetString(gl.VERSION))
	logging.Logger().Info("OpenGL context ready", "version", version)

	gl.DebugMessageCallback(glDebugMessage, nil)
	if r.debug {
		gl.Enable(gl.DEBUG_OUTPUT)
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	r.UploadStaticGeometry(programs.QuadVertices, programs.QuadDimensions)
	return nil
}

// UploadStaticGeometry replaces the vertex buffer with verticies, dims floats
// per vertex.
func (r *GL) UploadStaticGeometry(verticies []float32, dims int) {
	if r.vbo == 0 {
		gl.GenBuffers(1, &r.vbo)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verticies)*4, gl.Ptr(verticies), gl.STATIC_DRAW)
	r.vertexCount = int32(len(verticies) / dims)
}

func (r *GL) LoadProgram(program programs.Program) error {
	vertexShader, err := compileShader(program.VertexShader+"\x00", gl.VERTEX_SHADER)
	if err != nil {
		return &scene.SetupError{Stage: scene.StageCompile, Program: program.Name, Err: err}
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(program.FragmentShader+"\x00", gl.FRAGMENT_SHADER)
	if err != nil {
		return &scene.SetupError{Stage: scene.StageCompile, Program: program.Name, Err: err}
	}
	defer gl.DeleteShader(fragmentShader)

	handle := gl.CreateProgram()
	gl.AttachShader(handle, vertexShader)
	gl.AttachShader(handle, fragmentShader)
	gl.LinkProgram(handle)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetProgramInfoLog(handle, l, nil, gl.Str(log))
		gl.DeleteProgram(handle)
		return &scene.SetupError{Stage: scene.StageLink, Program: program.Name, Err: fmt.Errorf("failed to link program: %v", log)}
	}

	attrib := gl.GetAttribLocation(handle, gl.Str("vert\x00"))
	if attrib < 0 {
		gl.DeleteProgram(handle)
		return &scene.SetupError{Stage: scene.StageAttribute, Program: program.Name, Err: fmt.Errorf("no location for attribute %q", "vert")}
	}

	locations := make(map[string]int32)
	t := reflect.TypeOf(programs.Uniforms{})
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("uniform")
		locations[name] = gl.GetUniformLocation(handle, gl.Str(name+"\x00"))
		logging.Logger().Debug("uniform location", "program", program.Name, "uniform", name, "location", locations[name])
	}
	for _, name := range program.Uniforms {
		if loc, ok := locations[name]; !ok || loc < 0 {
			gl.DeleteProgram(handle)
			return &scene.SetupError{Stage: scene.StageUniform, Program: program.Name, Err: fmt.Errorf("no location for uniform %q", name)}
		}
	}

	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	r.program = handle
	r.uniformLocations = locations
	r.vertexAttrib = uint32(attrib)

	gl.UseProgram(r.program)
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.EnableVertexAttribArray(r.vertexAttrib)
	gl.VertexAttribPointerWithOffset(r.vertexAttrib, programs.QuadDimensions, gl.FLOAT, false, programs.QuadDimensions*4, 0)

	return nil
}

// SetUniforms uploads every field of uniforms to the location named by its
// uniform tag. Fields the program does not use have location -1 and are
// ignored by GL.
func (r *GL) SetUniforms(uniforms programs.Uniforms) {
	if r.program == 0 {
		return
	}
	gl.UseProgram(r.program)

	v := reflect.ValueOf(&uniforms).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)

		ptr := f.Addr().UnsafePointer()
		loc := r.uniformLocations[v.Type().Field(i).Tag.Get("uniform")]

		count := int32(1)

	SwitchElem:
		switch f.Type() {
		// Natural Array types
		case reflect.TypeOf(mgl32.Vec2{}):
			gl.Uniform2fv(loc, count, (*float32)(ptr))
			continue
		case reflect.TypeOf(mgl32.Vec3{}):
			gl.Uniform3fv(loc, count, (*float32)(ptr))
			continue
		case reflect.TypeOf(mgl32.Vec4{}):
			gl.Uniform4fv(loc, count, (*float32)(ptr))
			continue
		case reflect.TypeOf(mgl64.Vec2{}):
			gl.Uniform2dv(loc, count, (*float64)(ptr))
			continue
		case reflect.TypeOf(mgl64.Vec3{}):
			gl.Uniform3dv(loc, count, (*float64)(ptr))
			continue
		case reflect.TypeOf(mgl64.Vec4{}):
			gl.Uniform4dv(loc, count, (*float64)(ptr))
			continue
		case reflect.TypeOf(mgl32.Mat2{}):
			gl.UniformMatrix2fv(loc, count, false, (*float32)(ptr))
			continue
		case reflect.TypeOf(mgl32.Mat3{}):
			gl.UniformMatrix3fv(loc, count, false, (*float32)(ptr))
			continue
		case reflect.TypeOf(mgl32.Mat4{}):
			gl.UniformMatrix4fv(loc, count, false, (*float32)(ptr))
			continue
		case reflect.TypeOf(int32(0)):
			gl.Uniform1iv(loc, count, (*int32)(ptr))
			continue
		case reflect.TypeOf(uint32(0)):
			gl.Uniform1uiv(loc, count, (*uint32)(ptr))
			continue
		case reflect.TypeOf(float32(0)):
			gl.Uniform1fv(loc, count, (*float32)(ptr))
			continue
		case reflect.TypeOf(float64(0)):
			gl.Uniform1dv(loc, count, (*float64)(ptr))
			continue
		}

		if f.Kind() == reflect.Array {
			count = int32(f.Len())
			f = f.Index(0)
			goto SwitchElem
		}

		logging.Logger().Warn("unsupported uniform type", "type", f.Type())
	}
	runtime.KeepAlive(&uniforms)
}

func (r *GL) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (r *GL) Draw() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if r.program == 0 {
		return
	}
	gl.UseProgram(r.program)
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, r.vertexCount)
}

// Delete frees the GL objects. The GL must not be used afterwards.
func (r *GL) Delete() {
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	defer runtime.KeepAlive(source)
	cstring, free := gl.Strs(source)
	defer free()

	shader := gl.CreateShader(shaderType)
	gl.ShaderSource(shader, 1, cstring, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(shader, l, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader\n\"\n%v\n\"\nfailed to compile: %v", source, log)
	}

	return shader, nil
}
