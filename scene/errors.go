package scene

import "fmt"

type Stage string

const (
	StageContext   Stage = "context"
	StageCompile   Stage = "compile"
	StageLink      Stage = "link"
	StageAttribute Stage = "attribute"
	StageUniform   Stage = "uniform"
)

// SetupError is a failure to get a renderer ready to draw. None of them are
// retried; the front-end reports the error and stops.
type SetupError struct {
	Stage   Stage
	Program string
	Err     error
}

func (e *SetupError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("%s setup failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s setup of program %s failed: %v", e.Stage, e.Program, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
