package staleness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/fsutil"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotSuffix is appended to the manifest path to name its snapshot.
const SnapshotSuffix = ".hashes"

// Snapshot is the definition state recorded after a successful build.
type Snapshot struct {
	Global  string   `msgpack:"global"`
	Targets []string `msgpack:"targets"`

	set map[string]struct{}
}

// NewSnapshot creates a snapshot from a global hash and target hashes.
func NewSnapshot(global string, targets []string) *Snapshot {
	s := &Snapshot{Global: global, Targets: targets}
	s.index()
	return s
}

// Has reports whether the target hash was recorded.
func (s *Snapshot) Has(hash string) bool {
	if s.set == nil {
		s.index()
	}
	_, ok := s.set[hash]
	return ok
}

// Empty reports whether the snapshot records nothing.
func (s *Snapshot) Empty() bool {
	return s.Global == "" && len(s.Targets) == 0
}

func (s *Snapshot) index() {
	s.set = make(map[string]struct{}, len(s.Targets))
	for _, h := range s.Targets {
		s.set[h] = struct{}{}
	}
}

// PathFor returns the snapshot path of a manifest.
func PathFor(manifestPath string) string {
	return manifestPath + SnapshotSuffix
}

// Load reads the snapshot at path. It never fails: a missing file yields an
// empty snapshot, and an unreadable or corrupt one is logged, deleted and
// replaced by an empty snapshot.
func Load(ctx context.Context, path string) *Snapshot {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No hash snapshot found; starting fresh.", "path", path)
		return NewSnapshot("", nil)
	}

	var s Snapshot
	if err == nil {
		err = msgpack.Unmarshal(data, &s)
	}
	if err != nil {
		logger.Warn("Hash snapshot is unreadable and will be discarded.", "path", path, "error", err)
		if _, rmErr := fsutil.RemoveIfExists(path); rmErr != nil {
			logger.Warn("Could not delete hash snapshot.", "path", path, "error", rmErr)
		}
		return NewSnapshot("", nil)
	}

	s.index()
	logger.Debug("Hash snapshot loaded.", "path", path, "targets", len(s.Targets))
	return &s
}

// Save writes the snapshot atomically.
func Save(path string, s *Snapshot) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding hash snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing hash snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing hash snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing hash snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing hash snapshot: %w", err)
	}
	return nil
}

// Remove deletes the snapshot at path. A missing file is not an error.
func Remove(path string) error {
	_, err := fsutil.RemoveIfExists(path)
	return err
}
