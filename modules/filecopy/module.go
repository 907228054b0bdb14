// Package filecopy provides the "copy" compiler, which copies every input
// to the output at the same position.
package filecopy

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Name is the compiler name used in manifests.
const Name = "copy"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the compiler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister(Compiler{})
}

// Compiler copies files. Its extensions come from the manifest.
type Compiler struct{}

// Descriptor implements registry.Compiler.
func (Compiler) Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:                   Name,
		Description:            "Copies each input file to the output at the same position.",
		ConfigurableExtensions: true,
		CompilerParams: registry.Schema{
			Optional: map[string]registry.Optional{
				"Mode": {
					Type:        cty.String,
					Default:     cty.StringVal("0644"),
					Description: "Octal permission bits of the written files.",
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

	var modeText string
	if err := job.Settings.Decode("Mode", &modeText); err != nil {
		return err
	}
	mode, err := strconv.ParseUint(modeText, 8, 32)
	if err != nil {
		return fmt.Errorf("invalid Mode %q: must be octal permission bits", modeText)
	}

	for i, in := range job.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := copyFile(in, job.Outputs[i], os.FileMode(mode))
		if err != nil {
			return err
		}
		job.Logger.Debug("File copied.", "from", in, "to", job.Outputs[i], "bytes", n)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("copying %s: %w", src, err)
	}
	return n, os.Chmod(dst, mode)
}
