// Package executor drives the build and clean lifecycles over an ordered
// list of resolved targets.
package executor

import (
	"time"

	"github.com/specialistvlad/contentgrid/internal/buildctx"
	"github.com/specialistvlad/contentgrid/internal/fsutil"
	"github.com/specialistvlad/contentgrid/internal/staleness"
)

// Options control one build or clean run.
type Options struct {
	// Force rebuilds every target regardless of staleness.
	Force bool
	// DryRun reports what would happen without invoking compilers or
	// deleting files. A dry build still records the hash snapshot.
	DryRun bool
	// Workers bounds the number of targets compiled at once. Values below
	// two run targets one at a time in build order.
	Workers int
}

// Orchestrator runs builds for one build context.
type Orchestrator struct {
	bctx         *buildctx.Context
	opts         Options
	stats        *fsutil.StatCache
	detector     *staleness.Detector
	snapshotPath string
}

// New creates an Orchestrator.
func New(bctx *buildctx.Context, opts Options) (*Orchestrator, error) {
	stats, err := fsutil.NewStatCache(fsutil.DefaultStatCacheSize)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		bctx:         bctx,
		opts:         opts,
		stats:        stats,
		detector:     staleness.NewDetector(bctx, stats),
		snapshotPath: staleness.PathFor(bctx.ManifestPath),
	}, nil
}

// SnapshotPath returns where the hash snapshot is kept.
func (o *Orchestrator) SnapshotPath() string {
	return o.snapshotPath
}

// Status is the outcome of one target in a run.
type Status int

const (
	// StatusSkipped means the target was up to date.
	StatusSkipped Status = iota
	// StatusBuilt means the compiler ran and produced every output.
	StatusBuilt
	// StatusPlanned means the target is stale but the run was a dry run.
	StatusPlanned
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusBuilt:
		return "built"
	case StatusPlanned:
		return "planned"
	default:
		return "unknown"
	}
}

// Result describes what happened to one target.
type Result struct {
	Target   string
	Status   Status
	Reason   staleness.Reason
	Duration time.Duration
}

// Report lists the processed targets in build order.
type Report struct {
	Results []Result
}

// Count returns how many targets ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Targets returns the names of the targets that ended with status s.
func (r *Report) Targets(s Status) []string {
	var out []string
	for _, res := range r.Results {
		if res.Status == s {
			out = append(out, res.Target)
		}
	}
	return out
}
