// Package buildctx builds the global, read-only context of one build
// invocation: resolved properties, the configured toolchain, manifest and
// engine timestamps, and the global hash of everything that affects every
// target at once.
package buildctx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/digest"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Built-in property names.
const (
	PropManifestDir  = "ManifestDir"
	PropManifestFile = "ManifestFile"
)

// Options tune context construction.
type Options struct {
	// Overrides replace or add properties. Values are converted to the type
	// of the manifest property they replace; new ones are strings.
	Overrides map[string]string

	// EngineModTime is the staleness floor. Zero means "use the running
	// executable's modification time".
	EngineModTime time.Time
}

// Context is shared by every stage of a build. It must not be modified
// after New returns.
type Context struct {
	ManifestPath    string
	ManifestDir     string
	ManifestModTime time.Time
	EngineModTime   time.Time

	Properties registry.Values
	Toolchain  *registry.Toolchain

	// GlobalHash covers the properties and the toolchain configuration.
	GlobalHash string

	evalCtx *hcl.EvalContext
}

// New evaluates the manifest's properties, applies its compiler settings to
// reg and computes the global hash.
func New(ctx context.Context, m *model.Manifest, reg *registry.Registry, opts Options) (*Context, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(m.Path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest timestamp: %w", err)
	}

	engineTime := opts.EngineModTime
	if engineTime.IsZero() {
		engineTime, err = ExecutableModTime()
		if err != nil {
			logger.Debug("Engine modification time unavailable; no staleness floor applied.", "error", err)
		}
	}

	props, err := resolveProperties(m, opts.Overrides)
	if err != nil {
		return nil, err
	}

	c := &Context{
		ManifestPath:    m.Path,
		ManifestDir:     filepath.Dir(m.Path),
		ManifestModTime: info.ModTime(),
		EngineModTime:   engineTime,
		Properties:      props,
	}
	c.evalCtx = newEvalContext(props)

	tc, err := reg.Configure(ctx, m.Compilers, c.evalCtx)
	if err != nil {
		return nil, err
	}
	c.Toolchain = tc

	c.GlobalHash = digest.New().
		String(props.Canonical()).
		String(tc.Fingerprint()).
		Sum()

	logger.Debug("Build context ready.",
		"manifest", c.ManifestPath,
		"properties", len(props),
		"global_hash", c.GlobalHash,
	)
	return c, nil
}

// EvalContext returns the evaluation context for target expressions. It
// exposes the properties as `prop.<name>` and a fixed set of string
// functions.
func (c *Context) EvalContext() *hcl.EvalContext {
	return c.evalCtx
}

// ResolvePath makes p absolute against the manifest directory and cleans it.
func (c *Context) ResolvePath(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ManifestDir, p)
	}
	return filepath.Clean(p)
}

// PropertyLines renders the properties as sorted "name = value" lines.
func (c *Context) PropertyLines() []string {
	lines := make([]string, 0, len(c.Properties))
	for _, k := range c.Properties.Keys() {
		lines = append(lines, fmt.Sprintf("%s = %s", k, registry.Display(c.Properties[k])))
	}
	return lines
}

// ExecutableModTime returns the modification time of the running binary.
func ExecutableModTime() (time.Time, error) {
	exe, err := os.Executable()
	if err != nil {
		return time.Time{}, err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	info, err := os.Stat(exe)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func resolveProperties(m *model.Manifest, overrides map[string]string) (registry.Values, error) {
	props := registry.Values{
		PropManifestDir:  cty.StringVal(filepath.Dir(m.Path)),
		PropManifestFile: cty.StringVal(filepath.Base(m.Path)),
	}

	for _, p := range m.Properties {
		if _, builtin := props[p.Name]; builtin {
			return nil, &PropertyError{Name: p.Name, Loc: model.LocationOf(p.Range), Reason: "is a built-in property and cannot be redefined"}
		}
		props[p.Name] = p.Value
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := cty.StringVal(overrides[name])
		existing, ok := props[name]
		if !ok || existing.Type().Equals(cty.String) {
			props[name] = raw
			continue
		}
		converted, err := convert.Convert(raw, existing.Type())
		if err != nil {
			return nil, &PropertyError{
				Name:   name,
				Reason: fmt.Sprintf("override %q cannot be converted to %s", overrides[name], existing.Type().FriendlyName()),
			}
		}
		props[name] = converted
	}

	return props, nil
}

func newEvalContext(props registry.Values) *hcl.EvalContext {
	obj := make(map[string]cty.Value, len(props))
	for k, v := range props {
		obj[k] = v
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"prop": cty.ObjectVal(obj),
		},
		Functions: map[string]function.Function{
			"concat":    stdlib.ConcatFunc,
			"format":    stdlib.FormatFunc,
			"join":      stdlib.JoinFunc,
			"lower":     stdlib.LowerFunc,
			"replace":   stdlib.ReplaceFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"upper":     stdlib.UpperFunc,
		},
	}
}

// PropertyError reports an invalid property definition or override.
type PropertyError struct {
	Name   string
	Loc    model.Location
	Reason string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %q %s", e.Name, e.Reason)
}

// Location implements model.Located.
func (e *PropertyError) Location() model.Location { return e.Loc }

// ParseOverrides parses "a=b;c=d" property overrides. Empty segments are
// ignored; a segment without "=" is an error.
func ParseOverrides(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property override %q: expected name=value", part)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}
