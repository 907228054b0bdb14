// Package target turns raw manifest targets into resolved BuildTargets:
// absolute paths, a selected compiler, bound parameters and a content hash.
package target

import (
	"github.com/specialistvlad/contentgrid/internal/digest"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/specialistvlad/contentgrid/internal/registry"
)

// BuildTarget is a fully resolved target. It is not modified after
// resolution.
type BuildTarget struct {
	Name     string
	Index    int
	Location model.Location

	// Inputs and Outputs are absolute, cleaned paths in manifest order.
	Inputs  []string
	Outputs []string

	// Params are the bound target-level parameters, defaults included.
	Params registry.Values

	Compiler *registry.Configured

	// Hash identifies the target's definition. It changes when the
	// compiler, a path or a parameter value changes.
	Hash string
}

// CompilerName returns the name of the selected compiler.
func (t *BuildTarget) CompilerName() string {
	return t.Compiler.Name()
}

// ComputeHash computes the content hash of a target definition. Paths are treated
// as sets; parameters are rendered canonically.
func ComputeHash(compiler string, inputs, outputs []string, params registry.Values) string {
	return digest.New().
		String(compiler).
		SortedStrings(inputs).
		SortedStrings(outputs).
		String(params.Canonical()).
		Sum()
}
