// Package staleness decides which targets need to be rebuilt.
//
// The decision combines file timestamps with a snapshot of definition
// hashes from the previous build. Timestamps catch edited assets; the
// hashes catch manifest edits that change how a target is built without
// touching any file it reads.
package staleness

import (
	"fmt"
	"time"

	"github.com/specialistvlad/contentgrid/internal/buildctx"
	"github.com/specialistvlad/contentgrid/internal/fsutil"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/specialistvlad/contentgrid/internal/target"
)

// Reason explains a staleness verdict.
type Reason string

const (
	ReasonUpToDate          Reason = "up to date"
	ReasonForced            Reason = "forced"
	ReasonOutputMissing     Reason = "output missing"
	ReasonInputNewer        Reason = "input newer than output"
	ReasonEngineNewer       Reason = "engine newer than output"
	ReasonDefinitionChanged Reason = "definition changed"
)

// Verdict is the result of a staleness check.
type Verdict struct {
	Stale  bool
	Reason Reason
}

// MissingInputError reports a declared input that does not exist.
type MissingInputError struct {
	Target string
	Path   string
	Loc    model.Location
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("target %q: input %s does not exist", e.Target, e.Path)
}

// Location implements model.Located.
func (e *MissingInputError) Location() model.Location { return e.Loc }

// Detector checks targets against the file system and a previous snapshot.
type Detector struct {
	bctx  *buildctx.Context
	stats *fsutil.StatCache
}

// NewDetector creates a Detector reading timestamps through stats.
func NewDetector(bctx *buildctx.Context, stats *fsutil.StatCache) *Detector {
	return &Detector{bctx: bctx, stats: stats}
}

// CheckInputs returns a *MissingInputError for the first declared input
// that does not exist. Paths for which skip returns true are not checked.
func (d *Detector) CheckInputs(t *target.BuildTarget, skip func(path string) bool) error {
	for _, in := range t.Inputs {
		if skip != nil && skip(in) {
			continue
		}
		st, err := d.stats.Stat(in)
		if err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
		if !st.Exists {
			return &MissingInputError{Target: t.Name, Path: in, Loc: t.Location}
		}
	}
	return nil
}

// Check decides whether t must be rebuilt and why:
//
//  1. every input must exist, even when forced;
//  2. force makes every target stale;
//  3. the newest input is the latest of the engine floor and every input's
//     modification time;
//  4. a missing output makes the target stale; otherwise the oldest output
//     time is taken;
//  5. a manifest newer than every input counts as the newest input when the
//     global hash changed or the target's hash was not recorded;
//  6. the target is stale when the newest input is newer than the oldest
//     output.
func (d *Detector) Check(t *target.BuildTarget, prev *Snapshot, force bool) (Verdict, error) {
	if err := d.CheckInputs(t, nil); err != nil {
		return Verdict{}, err
	}
	if force {
		return Verdict{Stale: true, Reason: ReasonForced}, nil
	}

	newestInput := d.bctx.EngineModTime
	reason := ReasonEngineNewer
	for _, in := range t.Inputs {
		st, err := d.stats.Stat(in)
		if err != nil {
			return Verdict{}, fmt.Errorf("target %q: %w", t.Name, err)
		}
		if st.ModTime.After(newestInput) {
			newestInput = st.ModTime
			reason = ReasonInputNewer
		}
	}

	var oldestOutput time.Time
	for i, out := range t.Outputs {
		st, err := d.stats.Stat(out)
		if err != nil {
			return Verdict{}, fmt.Errorf("target %q: %w", t.Name, err)
		}
		if !st.Exists {
			return Verdict{Stale: true, Reason: ReasonOutputMissing}, nil
		}
		if i == 0 || st.ModTime.Before(oldestOutput) {
			oldestOutput = st.ModTime
		}
	}

	if d.bctx.ManifestModTime.After(newestInput) && d.definitionChanged(t, prev) {
		newestInput = d.bctx.ManifestModTime
		reason = ReasonDefinitionChanged
	}

	if newestInput.After(oldestOutput) {
		return Verdict{Stale: true, Reason: reason}, nil
	}
	return Verdict{Stale: false, Reason: ReasonUpToDate}, nil
}

func (d *Detector) definitionChanged(t *target.BuildTarget, prev *Snapshot) bool {
	if prev == nil {
		return true
	}
	return prev.Global != d.bctx.GlobalHash || !prev.Has(t.Hash)
}
