package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/specialistvlad/contentgrid/internal/app"
	"github.com/specialistvlad/contentgrid/internal/buildctx"
	"github.com/spf13/cobra"
)

// Environment variables that provide flag defaults.
const (
	EnvLogLevel  = "CONTENTGRID_LOG_LEVEL"
	EnvLogFormat = "CONTENTGRID_LOG_FORMAT"
	EnvWorkers   = "CONTENTGRID_WORKERS"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type flags struct {
	logLevel   string
	logFormat  string
	workers    int
	noLogo     bool
	force      bool
	dryRun     bool
	debug      bool
	properties string
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	var cfg *app.Config
	root := newRootCommand(output, &cfg)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg == nil {
		return nil, true, nil
	}
	return cfg, false, nil
}

func newRootCommand(output io.Writer, cfg **app.Config) *cobra.Command {
	f := &flags{}
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()

	root := &cobra.Command{
		Use:   "contentgrid",
		Short: "Incremental content builds driven by a .content manifest",
		Long: heading("Usage: contentgrid <command> [options] <content-file>") + "\n\n" +
			"contentgrid turns source assets into game-ready files. A .content\n" +
			"manifest lists targets, each mapping input files to output files\n" +
			"through a compiler chosen by their extensions. Only targets whose\n" +
			"inputs or definitions changed since the last build are rebuilt.",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(output)
	root.SetErr(output)
	root.CompletionOptions.DisableDefaultCmd = true
	setUsageTemplate(root)
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&f.logLevel, "log-level", envOr(EnvLogLevel, "info"), "Logging level: debug, info, warn or error.")
	pf.StringVar(&f.logFormat, "log-format", envOr(EnvLogFormat, "text"), "Log output format: text or json.")
	pf.IntVar(&f.workers, "workers", envInt(EnvWorkers, 1), "Number of targets compiled at once. 1 builds strictly in order.")
	pf.BoolVar(&f.noLogo, "nologo", false, "Suppress the logo banner.")

	configure := func(command string) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			c, err := f.config(command, args[0])
			if err != nil {
				return err
			}
			*cfg = c
			return nil
		}
	}

	build := &cobra.Command{
		Use:   "build <content-file>",
		Short: "Build the stale targets of a content file",
		Args:  cobra.ExactArgs(1),
		RunE:  configure(app.CommandBuild),
	}
	build.Flags().BoolVarP(&f.force, "force", "f", false, "Rebuild every target regardless of staleness.")
	build.Flags().BoolVarP(&f.dryRun, "test", "t", false, "Report what would be built without building it.")
	build.Flags().BoolVarP(&f.debug, "debug", "d", false, "Show the resolved properties before building.")
	build.Flags().StringVarP(&f.properties, "properties", "p", "", `Property overrides, e.g. "OutDir=dist;Scale=2".`)

	clean := &cobra.Command{
		Use:   "clean <content-file>",
		Short: "Delete every output of a content file",
		Args:  cobra.ExactArgs(1),
		RunE:  configure(app.CommandClean),
	}
	clean.Flags().BoolVarP(&f.dryRun, "test", "t", false, "Report what would be deleted without deleting it.")
	clean.Flags().StringVarP(&f.properties, "properties", "p", "", `Property overrides, e.g. "OutDir=dist".`)

	newCmd := &cobra.Command{
		Use:   "new <content-file>",
		Short: "Create a bare-bones content file",
		Args:  cobra.ExactArgs(1),
		RunE:  configure(app.CommandNew),
	}

	help := &cobra.Command{
		Use:   "help [command | content-file]",
		Short: "Show help for a command, or the compilers available to a content file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return root.Help()
			}
			if sub, _, err := root.Find(args); err == nil && sub != root {
				return sub.Help()
			}
			return configure(app.CommandHelp)(cmd, args)
		},
	}
	help.Flags().StringVarP(&f.properties, "properties", "p", "", "Property overrides used while evaluating compiler settings.")

	root.AddCommand(build, clean, newCmd)
	root.SetHelpCommand(help)
	return root
}

func (f *flags) config(command, manifest string) (*app.Config, error) {
	props, err := buildctx.ParseOverrides(f.properties)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}

	cfg, err := app.NewConfig(app.Config{
		Command:      command,
		ManifestPath: manifest,
		Force:        f.force,
		DryRun:       f.dryRun,
		Properties:   props,
		Debug:        f.debug,
		Workers:      f.workers,
		LogFormat:    strings.ToLower(f.logFormat),
		LogLevel:     strings.ToLower(f.logLevel),
		NoLogo:       f.noLogo,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}

var templateOnce sync.Once

func setUsageTemplate(root *cobra.Command) {
	templateOnce.Do(func() {
		cobra.AddTemplateFunc("StyleHeading", color.New(color.FgCyan, color.Bold).SprintFunc())
	})
	usage := strings.NewReplacer(
		`Usage:`, `{{StyleHeading "Usage:"}}`,
		`Available Commands:`, `{{StyleHeading "Commands:"}}`,
		`Additional Commands:`, `{{StyleHeading "Additional Commands:"}}`,
		`Flags:`, `{{StyleHeading "Options:"}}`,
		`Global Flags:`, `{{StyleHeading "Global Options:"}}`,
	).Replace(root.UsageTemplate())
	root.SetUsageTemplate(usage)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: not a number\n", key, v)
		return fallback
	}
	return n
}
