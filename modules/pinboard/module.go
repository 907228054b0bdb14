// Package pinboard provides the "pinboard" compiler. A pinboard is an HCL
// file describing a screen and named rectangles placed on it; the compiler
// writes them out as JSON for the game runtime.
//
//	screen {
//	  width  = 1024
//	  height = 768
//	}
//
//	rectangle "title" {
//	  x      = 112
//	  y      = 40
//	  width  = 800
//	  height = 120
//	}
package pinboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Name is the compiler name used in manifests.
const Name = "pinboard"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the compiler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister(Compiler{})
}

// Compiler converts one pinboard file into one JSON file.
type Compiler struct{}

// Descriptor implements registry.Compiler.
func (Compiler) Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        Name,
		Description: "Converts a pinboard layout into JSON rectangles.",
		Extensions: []registry.Extension{
			{Inputs: []string{".pinboard"}, Outputs: []string{".json"}},
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
				"Scale": {
					Type:        cty.Number,
					Default:     cty.NumberIntVal(1),
					Description: "Factor applied to every coordinate and size. Results are rounded to whole pixels.",
				},
			},
		},
	}
}

// Rect is a rectangle in pixels.
type Rect struct {
	X      int `hcl:"x,optional" json:"x"`
	Y      int `hcl:"y,optional" json:"y"`
	Width  int `hcl:"width" json:"width"`
	Height int `hcl:"height" json:"height"`
}

// NamedRect is a rectangle placed on the pinboard.
type NamedRect struct {
	Name   string `hcl:"name,label" json:"name"`
	X      int    `hcl:"x,optional" json:"x"`
	Y      int    `hcl:"y,optional" json:"y"`
	Width  int    `hcl:"width" json:"width"`
	Height int    `hcl:"height" json:"height"`
}

// Board is a decoded pinboard file.
type Board struct {
	Screen     Rect        `hcl:"screen,block" json:"screen"`
	Rectangles []NamedRect `hcl:"rectangle,block" json:"rectangles"`
}

// Parse decodes and validates pinboard source.
func Parse(src []byte, filename string) (*Board, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var b Board
	if diags := gohcl.DecodeBody(file.Body, nil, &b); diags.HasErrors() {
		return nil, diags
	}
	if b.Rectangles == nil {
		b.Rectangles = []NamedRect{}
	}

	if err := validate(&b); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &b, nil
}

func validate(b *Board) error {
	if b.Screen.Width <= 0 || b.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", b.Screen.Width, b.Screen.Height)
	}
	seen := make(map[string]struct{}, len(b.Rectangles))
	for _, r := range b.Rectangles {
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("duplicate rectangle %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.Width < 0 || r.Height < 0 {
			return fmt.Errorf("rectangle %q has a negative size", r.Name)
		}
	}
	return nil
}

// Scaled returns a copy of b with every coordinate multiplied by factor.
func (b *Board) Scaled(factor float64) *Board {
	s := func(v int) int { return int(math.Round(float64(v) * factor)) }
	out := &Board{
		Screen:     Rect{X: s(b.Screen.X), Y: s(b.Screen.Y), Width: s(b.Screen.Width), Height: s(b.Screen.Height)},
		Rectangles: make([]NamedRect, len(b.Rectangles)),
	}
	for i, r := range b.Rectangles {
		out.Rectangles[i] = NamedRect{Name: r.Name, X: s(r.X), Y: s(r.Y), Width: s(r.Width), Height: s(r.Height)}
	}
	return out
}

// Compile implements registry.Compiler.
func (Compiler) Compile(_ context.Context, job *registry.Job) error {
	if len(job.Inputs) != 1 {
		return fmt.Errorf("one input file expected, got %d", len(job.Inputs))
	}
	if len(job.Outputs) != 1 {
		return fmt.Errorf("one output file expected, got %d", len(job.Outputs))
	}

	var indent int
	if err := job.Settings.Decode("Indent", &indent); err != nil {
		return err
	}
	if indent < 0 {
		return fmt.Errorf("parameter Indent must not be negative, got %d", indent)
	}
	var scale float64
	if err := job.Params.Decode("Scale", &scale); err != nil {
		return err
	}
	if scale <= 0 {
		return fmt.Errorf("parameter Scale must be positive, got %g", scale)
	}

	src, err := os.ReadFile(job.Inputs[0])
	if err != nil {
		return err
	}
	board, err := Parse(src, job.Inputs[0])
	if err != nil {
		return err
	}

	data, err := encode(board.Scaled(scale), indent)
	if err != nil {
		return err
	}
	if err := os.WriteFile(job.Outputs[0], data, 0o644); err != nil {
		return err
	}
	job.Logger.Debug("Pinboard written.", "rectangles", len(board.Rectangles), "scale", scale)
	return nil
}

func encode(b *Board, indent int) ([]byte, error) {
	if indent == 0 {
		return json.Marshal(b)
	}
	data, err := json.MarshalIndent(b, "", strings.Repeat(" ", indent))
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
