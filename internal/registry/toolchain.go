package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/model"
)

// Configured is a compiler with the manifest's settings applied.
type Configured struct {
	Compiler   Compiler
	Descriptor Descriptor

	// Extensions are the effective, normalized extension pairs.
	Extensions []Extension

	// Settings are the bound compiler-level parameters.
	Settings Values

	// Location is where the manifest configures the compiler, if it does.
	Location model.Location

	// unusable holds a binding failure for a compiler the manifest did not
	// configure. It only matters if a target selects the compiler.
	unusable error
}

// Name returns the compiler name.
func (c *Configured) Name() string { return c.Descriptor.Name }

// Usable returns the reason the compiler cannot be used, or nil.
func (c *Configured) Usable() error { return c.unusable }

// Handles reports whether one of the compiler's pairs matches the
// extensions of inputs and outputs.
func (c *Configured) Handles(inputs, outputs []string) bool {
	for _, ext := range c.Extensions {
		if ext.Matches(inputs, outputs) {
			return true
		}
	}
	return false
}

// Toolchain is the set of configured compilers used for one build.
type Toolchain struct {
	ordered []*Configured
	byName  map[string]*Configured
}

// Configure applies manifest compiler settings to every registered compiler.
// Settings for unknown compilers, extension overrides on compilers that do
// not accept them and compiler-level binding failures are errors. Unknown
// compiler-level parameters are logged as warnings and dropped.
func (r *Registry) Configure(ctx context.Context, settings []*model.CompilerSettings, evalCtx *hcl.EvalContext) (*Toolchain, error) {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	byName := make(map[string]*model.CompilerSettings, len(settings))
	for _, s := range settings {
		if _, ok := r.compilers[s.Name]; !ok {
			errs = append(errs, &SettingsError{
				Compiler: s.Name,
				Loc:      s.Location(),
				Err:      fmt.Errorf("%w: %q", ErrCompilerNotFound, s.Name),
			})
			continue
		}
		byName[s.Name] = s
	}

	tc := &Toolchain{byName: make(map[string]*Configured, len(r.compilers))}
	for _, name := range r.Names() {
		desc := r.compilers[name].Descriptor()
		cfg := &Configured{Compiler: r.compilers[name], Descriptor: desc}
		s := byName[name]

		switch {
		case s != nil && len(s.Extensions) > 0:
			if !desc.ConfigurableExtensions {
				errs = append(errs, &SettingsError{
					Compiler: name,
					Loc:      model.LocationOf(s.Extensions[0].Range),
					Err:      errors.New("this compiler does not accept extension overrides"),
				})
				continue
			}
			for _, decl := range s.Extensions {
				cfg.Extensions = append(cfg.Extensions, Extension{
					Inputs:  normalizeSet(decl.Inputs),
					Outputs: normalizeSet(decl.Outputs),
				})
			}
		case desc.ConfigurableExtensions:
			logger.Debug("Compiler has no extensions configured; no target can select it.", "compiler", name)
		default:
			for _, ext := range desc.Extensions {
				cfg.Extensions = append(cfg.Extensions, Extension{
					Inputs:  normalizeSet(ext.Inputs),
					Outputs: normalizeSet(ext.Outputs),
				})
			}
		}

		var attrs []*hcl.Attribute
		if s != nil {
			attrs = s.Parameters
			cfg.Location = s.Location()
		}
		args, diags := ArgsFromAttributes(attrs, evalCtx)
		if diags.HasErrors() {
			errs = append(errs, diags)
			continue
		}

		binding, err := Bind(desc, CompilerLevel, args)
		if err != nil {
			if s == nil {
				cfg.unusable = err
				tc.add(cfg)
				continue
			}
			errs = append(errs, &SettingsError{Compiler: name, Loc: cfg.Location, Err: err})
			continue
		}
		for _, key := range binding.Unknown {
			logger.Warn("Unknown compiler parameter ignored.",
				"compiler", name, "parameter", key, "location", args[key].Location.String())
		}
		cfg.Settings = binding.Values
		tc.add(cfg)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tc, nil
}

func (tc *Toolchain) add(c *Configured) {
	tc.ordered = append(tc.ordered, c)
	tc.byName[c.Name()] = c
}

// Lookup returns the configured compiler with the given name.
func (tc *Toolchain) Lookup(name string) (*Configured, error) {
	c, ok := tc.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCompilerNotFound, name)
	}
	return c, nil
}

// Compilers returns every configured compiler in name order.
func (tc *Toolchain) Compilers() []*Configured {
	return tc.ordered
}

// Match returns, in name order, every compiler with an extension pair
// matching inputs and outputs.
func (tc *Toolchain) Match(inputs, outputs []string) []*Configured {
	var out []*Configured
	for _, c := range tc.ordered {
		if c.Handles(inputs, outputs) {
			out = append(out, c)
		}
	}
	return out
}

// Fingerprint renders the effective configuration of every compiler. It
// changes whenever an extension override or compiler-level parameter does.
func (tc *Toolchain) Fingerprint() string {
	var sb strings.Builder
	for _, c := range tc.ordered {
		sb.WriteString("compiler ")
		sb.WriteString(c.Name())
		sb.WriteByte('\n')
		for _, ext := range c.Extensions {
			sb.WriteString(ext.String())
			sb.WriteByte('\n')
		}
		sb.WriteString(c.Settings.Canonical())
	}
	return sb.String()
}
