package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contentgrid/internal/buildctx"
	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/dag"
	"github.com/specialistvlad/contentgrid/internal/executor"
	"github.com/specialistvlad/contentgrid/internal/fsutil"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/specialistvlad/contentgrid/internal/target"
)

// ErrInvalidManifest is returned after the manifest's diagnostics have been
// written to the output.
var ErrInvalidManifest = errors.New("the manifest has errors")

// ManifestExtension is looked for when a directory is given instead of a
// content file.
const ManifestExtension = ".content"

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	if !a.config.NoLogo {
		a.writeLogo()
	}

	path, err := filepath.Abs(a.config.ManifestPath)
	if err != nil {
		return err
	}

	if a.config.Command == CommandNew {
		return a.newManifest(path)
	}

	path, err = findManifest(path)
	if err != nil {
		return err
	}

	m, err := a.loadManifest(path)
	if err != nil {
		return err
	}

	bctx, err := buildctx.New(ctx, m, a.registry, buildctx.Options{Overrides: a.config.Properties})
	if err != nil {
		return err
	}

	if a.config.Command == CommandHelp {
		return a.writeCompilerUsage(bctx.Toolchain.Compilers())
	}

	if a.config.Debug {
		a.writeProperties(bctx)
	}

	ordered, err := a.plan(ctx, bctx, m)
	if err != nil {
		return err
	}

	orch, err := executor.New(bctx, executor.Options{
		Force:   a.config.Force,
		DryRun:  a.config.DryRun,
		Workers: a.config.Workers,
	})
	if err != nil {
		return err
	}

	a.logger.Debug("Orchestrator ready.", "snapshot", orch.SnapshotPath())

	switch a.config.Command {
	case CommandClean:
		if _, err := orch.Clean(ctx, ordered); err != nil {
			return err
		}
	default:
		if _, err := orch.Build(ctx, ordered); err != nil {
			return err
		}
	}

	a.logger.Info("Done.")
	return nil
}

// findManifest returns path when it is a file. A directory must contain
// exactly one manifest, searched recursively.
func findManifest(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("content file %q does not exist", path)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	found, err := fsutil.FindFilesByExtension(path, ManifestExtension)
	if err != nil {
		return "", fmt.Errorf("searching %q for a content file: %w", path, err)
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no %s file found in %q", ManifestExtension, path)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%d %s files found in %q, name one of them: %s",
			len(found), ManifestExtension, path, strings.Join(found, ", "))
	}
}

// loadManifest parses the manifest and writes its diagnostics, if any, to
// the output.
func (a *App) loadManifest(path string) (*model.Manifest, error) {
	loader := model.NewLoader()
	m, diags := loader.Load(path)
	if len(diags) > 0 {
		wr := hcl.NewDiagnosticTextWriter(a.outW, loader.Files(), 78, !color.NoColor)
		if err := wr.WriteDiagnostics(diags); err != nil {
			a.logger.Warn("Could not write manifest diagnostics.", "error", err)
		}
	}
	if diags.HasErrors() {
		return nil, ErrInvalidManifest
	}
	a.logger.Debug("Manifest loaded.",
		"path", m.Path,
		"targets", len(m.Targets),
		"compiler_settings", len(m.Compilers),
	)
	return m, nil
}

// plan resolves every target and puts them in build order.
func (a *App) plan(ctx context.Context, bctx *buildctx.Context, m *model.Manifest) ([]*target.BuildTarget, error) {
	targets, err := target.NewResolver(bctx).ResolveAll(ctx, m.Targets)
	if err != nil {
		return nil, err
	}
	ordered, err := dag.Order(targets)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(ordered))
	for i, t := range ordered {
		names[i] = t.Name
	}
	a.logger.Debug("Build order determined.", "order", names)
	return ordered, nil
}

func (a *App) writeProperties(bctx *buildctx.Context) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintln(a.outW, "Properties:")
	for _, line := range bctx.PropertyLines() {
		fmt.Fprintf(a.outW, "  %s\n", line)
	}
}

func (a *App) writeLogo() {
	color.New(color.FgCyan, color.Bold).Fprintf(a.outW, "contentgrid %s\n", Version)
	fmt.Fprintln(a.outW, "Incremental content builds driven by a .content manifest.")
	fmt.Fprintln(a.outW)
}
