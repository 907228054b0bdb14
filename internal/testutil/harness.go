package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/contentgrid/internal/buildctx"
	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/dag"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/specialistvlad/contentgrid/internal/target"
	"github.com/stretchr/testify/require"
)

// ManifestName is the file name Workspace uses for its manifest.
const ManifestName = "game.content"

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Workspace is a temporary content directory with a manifest in it.
type Workspace struct {
	t    *testing.T
	Dir  string
	Logs *SafeBuffer
	Ctx  context.Context
}

// NewWorkspace creates an empty workspace whose context logs to a buffer
// at debug level.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	logs := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &Workspace{
		t:    t,
		Dir:  t.TempDir(),
		Logs: logs,
		Ctx:  ctxlog.WithLogger(context.Background(), logger),
	}
}

// Path returns the absolute path of a workspace-relative name.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.FromSlash(name))
}

// ManifestPath returns the path of the workspace manifest.
func (w *Workspace) ManifestPath() string {
	return w.Path(ManifestName)
}

// Write creates or replaces files, creating parent directories as needed.
func (w *Workspace) Write(files map[string]string) {
	w.t.Helper()
	for name, content := range files {
		p := w.Path(name)
		require.NoError(w.t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(w.t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// WriteManifest replaces the workspace manifest.
func (w *Workspace) WriteManifest(src string) {
	w.t.Helper()
	w.Write(map[string]string{ManifestName: src})
}

// Touch sets the modification time of workspace files.
func (w *Workspace) Touch(at time.Time, names ...string) {
	w.t.Helper()
	for _, name := range names {
		require.NoError(w.t, os.Chtimes(w.Path(name), at, at))
	}
}

// Read returns the content of a workspace file.
func (w *Workspace) Read(name string) string {
	w.t.Helper()
	data, err := os.ReadFile(w.Path(name))
	require.NoError(w.t, err)
	return string(data)
}

// Exists reports whether a workspace file exists.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Stat(w.Path(name))
	return err == nil
}

// Plan is a loaded, resolved and ordered manifest.
type Plan struct {
	Context *buildctx.Context
	Targets []*target.BuildTarget
}

// Load runs the manifest through loading, context construction, resolution
// and ordering, failing the test on any error. The engine floor is pinned
// to the Unix epoch so staleness only depends on workspace files.
func (w *Workspace) Load(reg *registry.Registry, opts buildctx.Options) *Plan {
	w.t.Helper()
	m, diags := model.NewLoader().Load(w.ManifestPath())
	require.False(w.t, diags.HasErrors(), diags.Error())

	if opts.EngineModTime.IsZero() {
		opts.EngineModTime = time.Unix(0, 0)
	}
	bctx, err := buildctx.New(w.Ctx, m, reg, opts)
	require.NoError(w.t, err)

	targets, err := target.NewResolver(bctx).ResolveAll(w.Ctx, m.Targets)
	require.NoError(w.t, err)

	ordered, err := dag.Order(targets)
	require.NoError(w.t, err)

	return &Plan{Context: bctx, Targets: ordered}
}
