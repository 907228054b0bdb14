package registry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Extension is one pair of input and output extension sets a compiler can
// handle, e.g. {.svg .pinboard} -> {.png}.
type Extension struct {
	Inputs  []string
	Outputs []string
}

// String renders the pair as "{.a,.b} -> {.c}".
func (e Extension) String() string {
	return fmt.Sprintf("{%s} -> {%s}", strings.Join(e.Inputs, ","), strings.Join(e.Outputs, ","))
}

// Matches reports whether the extension sets of inputs and outputs equal
// the pair's sets.
func (e Extension) Matches(inputs, outputs []string) bool {
	return sameSet(e.Inputs, ExtensionSet(inputs)) && sameSet(e.Outputs, ExtensionSet(outputs))
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExtensionSet returns the sorted, de-duplicated extensions of paths.
func ExtensionSet(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		ext := strings.ToLower(filepath.Ext(p))
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func normalizeSet(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	var out []string
	for _, e := range exts {
		e = NormalizeExtension(e)
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Required declares a parameter that must be supplied.
type Required struct {
	Type        cty.Type
	Description string
}

// Optional declares a parameter with a default value.
type Optional struct {
	Type        cty.Type
	Default     cty.Value
	Description string
}

// Schema is the parameter schema of one level.
type Schema struct {
	Required map[string]Required
	Optional map[string]Optional
}

// Keys returns every declared parameter name in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s.Required)+len(s.Optional))
	for k := range s.Required {
		keys = append(keys, k)
	}
	for k := range s.Optional {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SchemaKind selects one of a compiler's two parameter schemas.
type SchemaKind int

const (
	// CompilerLevel parameters are set once in a manifest compiler block.
	CompilerLevel SchemaKind = iota
	// TargetLevel parameters are set per target.
	TargetLevel
)

func (k SchemaKind) String() string {
	switch k {
	case CompilerLevel:
		return "compiler-level"
	case TargetLevel:
		return "target-level"
	default:
		return fmt.Sprintf("SchemaKind(%d)", int(k))
	}
}

// Descriptor is what a compiler declares about itself. It is treated as
// immutable once registered.
type Descriptor struct {
	Name        string
	Description string

	// Extensions are the built-in extension pairs, in preference order.
	Extensions []Extension

	// ConfigurableExtensions marks compilers whose extension pairs come
	// only from manifest settings. Such a compiler declares no Extensions.
	ConfigurableExtensions bool

	CompilerParams Schema
	TargetParams   Schema
}

// Schema returns the parameter schema of the given level.
func (d Descriptor) Schema(kind SchemaKind) Schema {
	if kind == CompilerLevel {
		return d.CompilerParams
	}
	return d.TargetParams
}

// Job is everything a compiler receives for one target.
type Job struct {
	Target  string
	Inputs  []string
	Outputs []string

	// Params are the bound target-level parameters, defaults included.
	Params Values
	// Settings are the bound compiler-level parameters, defaults included.
	Settings Values
	// Properties are the global build properties.
	Properties Values

	Logger *slog.Logger
}

// Compiler transforms a target's inputs into its outputs. Compile must
// produce every output in job.Outputs or return an error. Implementations
// must not keep state between calls.
type Compiler interface {
	Descriptor() Descriptor
	Compile(ctx context.Context, job *Job) error
}
