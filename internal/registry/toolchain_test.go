package registry

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	r.MustRegister(stub("svg2png", Extension{Inputs: []string{"SVG"}, Outputs: []string{".png"}}))
	r.MustRegister(&stubCompiler{desc: Descriptor{
		Name:                   "copy",
		ConfigurableExtensions: true,
		CompilerParams: Schema{
			Optional: map[string]Optional{"Mode": {Type: cty.String, Default: cty.StringVal("0644")}},
		},
	}})
	r.MustRegister(&stubCompiler{desc: Descriptor{
		Name:       "atlas",
		Extensions: []Extension{{Inputs: []string{".png"}, Outputs: []string{".atlas"}}},
		CompilerParams: Schema{
			Required: map[string]Required{"Page": {Type: cty.Number}},
		},
	}})
	return r
}

func settingsFrom(t *testing.T, src string) []*model.CompilerSettings {
	t.Helper()
	m, diags := model.NewLoader().Parse([]byte(src), "m.content")
	require.False(t, diags.HasErrors(), diags.Error())
	return m.Compilers
}

func TestConfigure(t *testing.T) {
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	settings := settingsFrom(t, `
compiler "copy" {
  extension {
    inputs  = ["txt"]
    outputs = [".TXT"]
  }
  parameters {
    Mode  = "0600"
    Owner = "me"
  }
}
compiler "atlas" {
  parameters {
    Page = 1024
  }
}
`)

	tc, err := testRegistry(t).Configure(ctx, settings, nil)
	require.NoError(t, err)

	copyCfg, err := tc.Lookup("copy")
	require.NoError(t, err)
	require.Len(t, copyCfg.Extensions, 1)
	assert.Equal(t, []string{".txt"}, copyCfg.Extensions[0].Inputs)
	assert.Equal(t, cty.StringVal("0600"), copyCfg.Settings["Mode"])
	assert.NotContains(t, copyCfg.Settings, "Owner")
	assert.Contains(t, logs.String(), "Unknown compiler parameter ignored.")
	assert.Contains(t, logs.String(), "parameter=Owner")

	svg, err := tc.Lookup("svg2png")
	require.NoError(t, err)
	assert.Equal(t, []string{".svg"}, svg.Extensions[0].Inputs)

	matches := tc.Match([]string{"/a/b.txt"}, []string{"/out/b.txt"})
	require.Len(t, matches, 1)
	assert.Equal(t, "copy", matches[0].Name())

	var names []string
	for _, c := range tc.Compilers() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"atlas", "copy", "svg2png"}, names)
}

func TestConfigureErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("settings for an unknown compiler", func(t *testing.T) {
		_, err := testRegistry(t).Configure(ctx, settingsFrom(t, `compiler "nope" {}`), nil)
		assert.ErrorIs(t, err, ErrCompilerNotFound)
		loc, ok := model.LocationFromError(err)
		require.True(t, ok)
		assert.Equal(t, 1, loc.Line)
	})

	t.Run("extension override on a fixed compiler", func(t *testing.T) {
		_, err := testRegistry(t).Configure(ctx, settingsFrom(t, `
compiler "svg2png" {
  extension {
    inputs  = [".svg"]
    outputs = [".jpg"]
  }
}`), nil)
		assert.ErrorContains(t, err, "does not accept extension overrides")
	})

	t.Run("compiler-level type error", func(t *testing.T) {
		_, err := testRegistry(t).Configure(ctx, settingsFrom(t, `
compiler "atlas" {
  parameters {
    Page = "big"
  }
}`), nil)
		var typeErr *ParameterTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "Page", typeErr.Key)
	})

	t.Run("unconfigured compiler with required settings is unusable, not fatal", func(t *testing.T) {
		tc, err := testRegistry(t).Configure(ctx, nil, nil)
		require.NoError(t, err)

		atlas, err := tc.Lookup("atlas")
		require.NoError(t, err)
		var missing *MissingRequiredParameterError
		assert.ErrorAs(t, atlas.Usable(), &missing)
	})
}

func TestToolchainFingerprint(t *testing.T) {
	ctx := context.Background()
	base := `
compiler "atlas" {
  parameters {
    Page = %s
  }
}`
	a, err := testRegistry(t).Configure(ctx, settingsFrom(t, fmt.Sprintf(base, "512")), nil)
	require.NoError(t, err)
	b, err := testRegistry(t).Configure(ctx, settingsFrom(t, fmt.Sprintf(base, "512")), nil)
	require.NoError(t, err)
	c, err := testRegistry(t).Configure(ctx, settingsFrom(t, fmt.Sprintf(base, "1024")), nil)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
