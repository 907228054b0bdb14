package target

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contentgrid/internal/buildctx"
	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/hclutil"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/specialistvlad/contentgrid/internal/registry"
)

// Resolver resolves raw targets against one build context.
type Resolver struct {
	bctx *buildctx.Context
}

// NewResolver creates a Resolver.
func NewResolver(bctx *buildctx.Context) *Resolver {
	return &Resolver{bctx: bctx}
}

// ResolveAll resolves every raw target. All failures are reported together.
func (r *Resolver) ResolveAll(ctx context.Context, raws []*model.RawTarget) ([]*BuildTarget, error) {
	targets := make([]*BuildTarget, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		t, err := r.Resolve(ctx, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		targets = append(targets, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return targets, nil
}

// Resolve turns one raw target into a BuildTarget. Every failure is a
// *ResolutionError carrying the target's name and location.
//
// Input patterns containing glob characters are expanded against the file
// system and must match at least one file; literal paths are kept as they
// are so they may name files produced by other targets.
func (r *Resolver) Resolve(ctx context.Context, raw *model.RawTarget) (*BuildTarget, error) {
	fail := func(err error) (*BuildTarget, error) {
		return nil, &ResolutionError{Target: raw.Name, Loc: raw.Location(), Err: err}
	}

	evalCtx := r.bctx.EvalContext()

	inputs, err := r.paths(raw.Inputs, evalCtx, true)
	if err != nil {
		return fail(fmt.Errorf("inputs: %w", err))
	}
	outputs, err := r.paths(raw.Outputs, evalCtx, false)
	if err != nil {
		return fail(fmt.Errorf("outputs: %w", err))
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fail(fmt.Errorf("%w: a target needs at least one input and one output", ErrUnresolvedPath))
	}

	compiler, err := r.selectCompiler(raw, inputs, outputs)
	if err != nil {
		return fail(err)
	}

	args, diags := registry.ArgsFromAttributes(raw.Parameters, evalCtx)
	if diags.HasErrors() {
		return fail(diags)
	}
	binding, err := registry.Bind(compiler.Descriptor, registry.TargetLevel, args)
	if err != nil {
		return fail(err)
	}
	for _, key := range binding.Unknown {
		ctxlog.FromContext(ctx).Warn("Unknown target parameter ignored.",
			"target", raw.Name,
			"compiler", compiler.Name(),
			"parameter", key,
			"location", args[key].Location.String(),
		)
	}

	return &BuildTarget{
		Name:     raw.Name,
		Index:    raw.Index,
		Location: raw.Location(),
		Inputs:   inputs,
		Outputs:  outputs,
		Params:   binding.Values,
		Compiler: compiler,
		Hash:     ComputeHash(compiler.Name(), inputs, outputs, binding.Values),
	}, nil
}

func (r *Resolver) selectCompiler(raw *model.RawTarget, inputs, outputs []string) (*registry.Configured, error) {
	tc := r.bctx.Toolchain
	exts := registry.Extension{Inputs: registry.ExtensionSet(inputs), Outputs: registry.ExtensionSet(outputs)}

	var selected *registry.Configured
	if raw.Compiler != "" {
		c, err := tc.Lookup(raw.Compiler)
		if err != nil {
			return nil, err
		}
		if !c.Handles(inputs, outputs) {
			return nil, fmt.Errorf("%w: compiler %q does not handle %s", ErrNoCompiler, c.Name(), exts)
		}
		selected = c
	} else {
		candidates := tc.Match(inputs, outputs)
		switch len(candidates) {
		case 0:
			return nil, fmt.Errorf("%w %s", ErrNoCompiler, exts)
		case 1:
			selected = candidates[0]
		default:
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = c.Name()
			}
			return nil, &AmbiguousCompilerError{Extensions: exts.String(), Candidates: names}
		}
	}

	if err := selected.Usable(); err != nil {
		return nil, err
	}
	return selected, nil
}

func (r *Resolver) paths(expr hcl.Expression, evalCtx *hcl.EvalContext, allowGlob bool) ([]string, error) {
	patterns, diags := hclutil.DecodeStringList(expr, evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}

	seen := make(map[string]struct{}, len(patterns))
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("%w: empty path", ErrUnresolvedPath)
		}
		abs := r.bctx.ResolvePath(pattern)
		if !hasGlobMeta(pattern) {
			add(abs)
			continue
		}
		if !allowGlob {
			return nil, fmt.Errorf("%w: %q: patterns are only allowed for inputs", ErrUnresolvedPath, pattern)
		}
		matches, err := doublestar.FilepathGlob(abs, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %s", ErrUnresolvedPath, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %q matches no files", ErrUnresolvedPath, pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(filepath.Clean(m))
		}
	}
	return out, nil
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
