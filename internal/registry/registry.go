package registry

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCompilerNotFound is returned when no compiler has the requested name.
var ErrCompilerNotFound = errors.New("compiler not found")

// Module is implemented by packages that contribute compilers.
type Module interface {
	Register(r *Registry)
}

// Registry holds every compiler known to one application instance.
type Registry struct {
	compilers map[string]Compiler
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{compilers: make(map[string]Compiler)}
}

// Register adds a compiler after validating its descriptor.
func (r *Registry) Register(c Compiler) error {
	desc := c.Descriptor()
	if err := validateDescriptor(desc); err != nil {
		return err
	}
	if _, exists := r.compilers[desc.Name]; exists {
		return fmt.Errorf("compiler %q is already registered", desc.Name)
	}
	r.compilers[desc.Name] = c
	return nil
}

// MustRegister is Register for module initialization, where a bad
// descriptor is a programming error.
func (r *Registry) MustRegister(c Compiler) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the compiler registered under name.
func (r *Registry) Lookup(name string) (Compiler, error) {
	c, ok := r.compilers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCompilerNotFound, name)
	}
	return c, nil
}

// Names returns the registered compiler names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.compilers))
	for name := range r.compilers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered compilers.
func (r *Registry) Len() int {
	return len(r.compilers)
}
