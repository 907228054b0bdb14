package dag

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/contentgrid/internal/model"
)

// CyclicDependencyError reports that targets depend on each other in a
// loop. Target is on the loop; Cycle lists the loop in dependency order and
// ends where it starts.
type CyclicDependencyError struct {
	Target string
	Cycle  []string
	Loc    model.Location
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency involving target %q: %s", e.Target, strings.Join(e.Cycle, " -> "))
}

// Location implements model.Located.
func (e *CyclicDependencyError) Location() model.Location { return e.Loc }

// DuplicateOutputError reports two targets writing the same file.
type DuplicateOutputError struct {
	Path   string
	First  string
	Second string
	Loc    model.Location
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("targets %q and %q both produce %s", e.First, e.Second, e.Path)
}

// Location implements model.Located.
func (e *DuplicateOutputError) Location() model.Location { return e.Loc }
