package filecopy

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	c, err := r.Lookup(Name)
	require.NoError(t, err)
	assert.True(t, c.Descriptor().ConfigurableExtensions)
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	src := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	dst := []string{filepath.Join(dir, "out", "a.txt"), filepath.Join(dir, "out", "b.txt")}
	require.NoError(t, os.WriteFile(src[0], []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(src[1], []byte("second"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0o755))

	job := &registry.Job{
		Target:   "notes",
		Inputs:   src,
		Outputs:  dst,
		Settings: registry.Values{"Mode": cty.StringVal("0600")},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	require.NoError(t, Compiler{}.Compile(context.Background(), job))

	for i, want := range []string{"first", "second"} {
		data, err := os.ReadFile(dst[i])
		require.NoError(t, err)
		assert.Equal(t, want, string(data))

		info, err := os.Stat(dst[i])
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestCompile_Errors(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testCases := []struct {
		name    string
		job     *registry.Job
		wantErr string
	}{
		{
			name: "count mismatch",
			job: &registry.Job{
				Inputs:   []string{filepath.Join(dir, "a")},
				Outputs:  []string{filepath.Join(dir, "b"), filepath.Join(dir, "c")},
				Settings: registry.Values{"Mode": cty.StringVal("0644")},
			},
			wantErr: "as many outputs as inputs",
		},
		{
			name: "bad mode",
			job: &registry.Job{
				Inputs:   []string{filepath.Join(dir, "a")},
				Outputs:  []string{filepath.Join(dir, "b")},
				Settings: registry.Values{"Mode": cty.StringVal("rw")},
			},
			wantErr: "invalid Mode",
		},
		{
			name: "missing source",
			job: &registry.Job{
				Inputs:   []string{filepath.Join(dir, "nope")},
				Outputs:  []string{filepath.Join(dir, "b")},
				Settings: registry.Values{"Mode": cty.StringVal("0644")},
			},
			wantErr: "no such file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.job.Logger = logger
			err := Compiler{}.Compile(context.Background(), tc.job)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
