// Package yamljson provides the "yamljson" compiler, which converts YAML
// data files into JSON, optionally keeping only one subtree.
package yamljson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Name is the compiler name used in manifests.
const Name = "yamljson"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the compiler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister(Compiler{})
}

// Compiler converts each YAML input into the JSON output at the same
// position.
type Compiler struct{}

// Descriptor implements registry.Compiler.
func (Compiler) Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        Name,
		Description: "Converts YAML documents to JSON.",
		Extensions: []registry.Extension{
			{Inputs: []string{".yaml"}, Outputs: []string{".json"}},
			{Inputs: []string{".yml"}, Outputs: []string{".json"}},
		},
		CompilerParams: registry.Schema{
			Optional: map[string]registry.Optional{
				"Indent": {
					Type:        cty.Number,
					Default:     cty.NumberIntVal(2),
					Description: "Spaces of JSON indentation. Zero writes compact JSON.",
				},
			},
		},
		TargetParams: registry.Schema{
			Optional: map[string]registry.Optional{
				"Select": {
					Type:        cty.String,
					Default:     cty.StringVal("."),
					Description: `Dot-separated path of the subtree to write, e.g. "levels.0.enemies". "." writes the whole document.`,
				},
			},
		},
	}
}

// Compile implements registry.Compiler.
func (Compiler) Compile(ctx context.Context, job *registry.Job) error {
	if len(job.Inputs) != len(job.Outputs) {
		return fmt.Errorf("expected as many outputs as inputs, got %d inputs and %d outputs", len(job.Inputs), len(job.Outputs))
	}

	var indent int
	if err := job.Settings.Decode("Indent", &indent); err != nil {
		return err
	}
	if indent < 0 {
		return fmt.Errorf("parameter Indent must not be negative, got %d", indent)
	}
	var selector string
	if err := job.Params.Decode("Select", &selector); err != nil {
		return err
	}

	for i, in := range job.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		data, err := Convert(src, selector, indent)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		if err := os.WriteFile(job.Outputs[i], data, 0o644); err != nil {
			return err
		}
		job.Logger.Debug("YAML converted.", "from", in, "to", job.Outputs[i])
	}
	return nil
}

// Convert decodes the first YAML document in src, selects a subtree and
// encodes it as JSON.
func Convert(src []byte, selector string, indent int) ([]byte, error) {
	var doc any
	if err := yaml.NewDecoder(bytes.NewReader(src)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("document is empty")
		}
		return nil, err
	}

	value, err := Select(normalize(doc), selector)
	if err != nil {
		return nil, err
	}

	if indent == 0 {
		return json.Marshal(value)
	}
	out, err := json.MarshalIndent(value, "", strings.Repeat(" ", indent))
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Select walks a dot-separated path through maps and sequences.
func Select(value any, selector string) (any, error) {
	selector = strings.Trim(strings.TrimSpace(selector), ".")
	if selector == "" {
		return value, nil
	}

	walked := make([]string, 0, strings.Count(selector, ".")+1)
	for _, key := range strings.Split(selector, ".") {
		walked = append(walked, key)
		switch v := value.(type) {
		case map[string]any:
			next, ok := v[key]
			if !ok {
				return nil, fmt.Errorf("select %q: no key %q", strings.Join(walked, "."), key)
			}
			value = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("select %q: %q is not an index of a %d-item list", strings.Join(walked, "."), key, len(v))
			}
			value = v[idx]
		default:
			return nil, fmt.Errorf("select %q: cannot descend into a scalar", strings.Join(walked, "."))
		}
	}
	return value, nil
}

// normalize turns maps with non-string keys into string-keyed maps so the
// result can be encoded as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}
