package executor

import (
	"fmt"

	"github.com/specialistvlad/contentgrid/internal/model"
)

// CompileError wraps a failure reported by a compiler.
type CompileError struct {
	Target   string
	Compiler string
	Loc      model.Location
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("target %q: compiler %q failed: %s", e.Target, e.Compiler, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Location implements model.Located.
func (e *CompileError) Location() model.Location { return e.Loc }

// OutputNotProducedError reports a compiler that returned successfully
// without writing one of the declared outputs.
type OutputNotProducedError struct {
	Target string
	Path   string
	Loc    model.Location
}

func (e *OutputNotProducedError) Error() string {
	return fmt.Sprintf("target %q: output %s was not produced", e.Target, e.Path)
}

// Location implements model.Located.
func (e *OutputNotProducedError) Location() model.Location { return e.Loc }
