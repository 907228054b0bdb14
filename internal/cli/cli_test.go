package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/specialistvlad/contentgrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestParse_Commands(t *testing.T) {
	testCases := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *app.Config)
	}{
		{
			name: "build with defaults",
			args: []string{"build", "game.content"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, app.CommandBuild, cfg.Command)
				assert.Equal(t, "game.content", cfg.ManifestPath)
				assert.Equal(t, 1, cfg.Workers)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "text", cfg.LogFormat)
				assert.False(t, cfg.Force)
				assert.Empty(t, cfg.Properties)
			},
		},
		{
			name: "build with every option",
			args: []string{"build", "-f", "-t", "-d", "-p", "OutDir=dist; Scale=2", "--workers", "4", "--log-level", "DEBUG", "--log-format", "json", "--nologo", "game.content"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.True(t, cfg.Force)
				assert.True(t, cfg.DryRun)
				assert.True(t, cfg.Debug)
				assert.True(t, cfg.NoLogo)
				assert.Equal(t, 4, cfg.Workers)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
				assert.Equal(t, map[string]string{"OutDir": "dist", "Scale": "2"}, cfg.Properties)
			},
		},
		{
			name: "clean dry run",
			args: []string{"clean", "--test", "game.content"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, app.CommandClean, cfg.Command)
				assert.True(t, cfg.DryRun)
			},
		},
		{
			name: "new",
			args: []string{"new", "fresh.content"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, app.CommandNew, cfg.Command)
				assert.Equal(t, "fresh.content", cfg.ManifestPath)
			},
		},
		{
			name: "help for a content file",
			args: []string{"help", "game.content"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, app.CommandHelp, cfg.Command)
				assert.Equal(t, "game.content", cfg.ManifestPath)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, shouldExit, err := Parse(tc.args, out)
			require.NoError(t, err)
			require.False(t, shouldExit)
			require.NotNil(t, cfg)
			tc.check(t, cfg)
		})
	}
}

func TestParse_Exits(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no arguments", args: nil, want: "Usage:"},
		{name: "help flag", args: []string{"-h"}, want: "build"},
		{name: "help command", args: []string{"help"}, want: "clean"},
		{name: "help for a command", args: []string{"help", "build"}, want: "--force"},
		{name: "version", args: []string{"--version"}, want: app.Version},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, shouldExit, err := Parse(tc.args, out)
			require.NoError(t, err)
			assert.True(t, shouldExit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), tc.want)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown flag", args: []string{"build", "--bogus", "game.content"}, wantErr: "unknown flag: --bogus"},
		{name: "missing content file", args: []string{"build"}, wantErr: "accepts 1 arg(s), received 0"},
		{name: "unknown command", args: []string{"deploy"}, wantErr: `unknown command "deploy"`},
		{name: "bad properties", args: []string{"build", "-p", "novalue", "game.content"}, wantErr: "expected name=value"},
		{name: "bad log level", args: []string{"build", "--log-level", "loud", "game.content"}, wantErr: "invalid log level"},
		{name: "bad workers", args: []string{"build", "--workers", "0", "game.content"}, wantErr: "at least 1"},
		{name: "force is build only", args: []string{"clean", "-f", "game.content"}, wantErr: "unknown shorthand flag: 'f'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, shouldExit, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.False(t, shouldExit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

func TestParse_Environment(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvWorkers, "8")

	cfg, _, err := Parse([]string{"build", "game.content"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8, cfg.Workers)

	cfg, _, err = Parse([]string{"build", "--workers", "2", "game.content"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers, "flags win over the environment")
}
