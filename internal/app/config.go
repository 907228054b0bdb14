package app

import (
	"errors"
	"fmt"
	"slices"
)

// Command names.
const (
	CommandBuild = "build"
	CommandClean = "clean"
	CommandHelp  = "help"
	CommandNew   = "new"
)

var (
	commands   = []string{CommandBuild, CommandClean, CommandHelp, CommandNew}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command      string
	ManifestPath string // .content file

	Force      bool
	DryRun     bool
	Properties map[string]string
	Debug      bool // print properties before building
	Workers    int

	LogFormat string
	LogLevel  string
	NoLogo    bool
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if !slices.Contains(commands, cfg.Command) {
		errs = append(errs, fmt.Errorf("unknown command %q", cfg.Command))
	}
	if cfg.ManifestPath == "" {
		errs = append(errs, errors.New("a .content file must be specified"))
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of %v", cfg.LogLevel, logLevels))
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of %v", cfg.LogFormat, logFormats))
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}
