package target

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/contentgrid/internal/model"
)

var (
	// ErrNoCompiler means no configured compiler handles the target's
	// extensions.
	ErrNoCompiler = errors.New("no compiler matches")

	// ErrUnresolvedPath means a declared path could not be turned into a
	// concrete file path.
	ErrUnresolvedPath = errors.New("unresolvable path")
)

// ResolutionError is returned for any failure to resolve a raw target.
type ResolutionError struct {
	Target string
	Loc    model.Location
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("target %q: %s", e.Target, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Location implements model.Located.
func (e *ResolutionError) Location() model.Location { return e.Loc }

// AmbiguousCompilerError is returned when more than one compiler matches a
// target that does not name its compiler.
type AmbiguousCompilerError struct {
	Extensions string
	Candidates []string
}

func (e *AmbiguousCompilerError) Error() string {
	return fmt.Sprintf("extensions %s match several compilers (%s); set the target's \"compiler\" attribute",
		e.Extensions, strings.Join(e.Candidates, ", "))
}
