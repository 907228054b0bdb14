package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/dag"
	"github.com/specialistvlad/contentgrid/internal/fsutil"
	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/specialistvlad/contentgrid/internal/staleness"
	"github.com/specialistvlad/contentgrid/internal/target"
	"golang.org/x/sync/errgroup"
)

// ReasonUpstreamPlanned marks a dry-run target whose input would be
// produced by an earlier planned target.
const ReasonUpstreamPlanned staleness.Reason = "input produced by a planned target"

// run holds the mutable state of one Build call.
type run struct {
	prev    *staleness.Snapshot
	results []Result

	mu      sync.Mutex
	planned map[string]struct{}
}

// Build brings every target in ordered up to date. ordered must be a valid
// build order. The hash snapshot is written only when every target
// succeeded.
func (o *Orchestrator) Build(ctx context.Context, ordered []*target.BuildTarget) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	o.stats.Purge()

	r := &run{
		prev:    staleness.Load(ctx, o.snapshotPath),
		results: make([]Result, len(ordered)),
		planned: make(map[string]struct{}),
	}
	slot := make(map[*target.BuildTarget]int, len(ordered))
	for i, t := range ordered {
		slot[t] = i
		r.results[i] = Result{Target: t.Name, Status: StatusSkipped, Reason: staleness.ReasonUpToDate}
	}

	var waves [][]*target.BuildTarget
	if o.opts.Workers > 1 {
		waves = dag.Levels(ordered)
	} else if len(ordered) > 0 {
		waves = [][]*target.BuildTarget{ordered}
	}

	logger.Debug("Starting build.", "targets", len(ordered), "waves", len(waves), "workers", o.workers())

	for _, wave := range waves {
		if err := o.runWave(ctx, r, wave, slot); err != nil {
			logger.Error("Build failed.", "duration", time.Since(start))
			return &Report{Results: r.results}, err
		}
	}

	hashes := make([]string, len(ordered))
	for i, t := range ordered {
		hashes[i] = t.Hash
	}
	if err := staleness.Save(o.snapshotPath, staleness.NewSnapshot(o.bctx.GlobalHash, hashes)); err != nil {
		logger.Warn("Could not write hash snapshot; the next build may redo work.", "path", o.snapshotPath, "error", err)
	}

	report := &Report{Results: r.results}
	logger.Info("Build finished.",
		"built", report.Count(StatusBuilt),
		"planned", report.Count(StatusPlanned),
		"up_to_date", report.Count(StatusSkipped),
		"duration", time.Since(start),
	)
	return report, nil
}

func (o *Orchestrator) workers() int {
	if o.opts.Workers < 1 {
		return 1
	}
	return o.opts.Workers
}

// runWave processes one set of mutually independent targets. With a single
// worker it stops at the first failure; otherwise it stops dispatching new
// targets and waits for the running ones.
func (o *Orchestrator) runWave(ctx context.Context, r *run, wave []*target.BuildTarget, slot map[*target.BuildTarget]int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, t := range wave {
		if gctx.Err() != nil {
			break
		}
		t := t
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := o.buildOne(gctx, r, t)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return err
			}
			r.results[slot[t]] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return joinFailures(errs)
}

// joinFailures drops cancellations caused by a sibling failure.
func joinFailures(errs []error) error {
	var kept []error
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			kept = append(kept, err)
		}
	}
	if len(kept) == 0 {
		kept = errs
	}
	return errors.Join(kept...)
}

func (o *Orchestrator) buildOne(ctx context.Context, r *run, t *target.BuildTarget) (Result, error) {
	ctx, logger := ctxlog.With(ctx, "target", t.Name)
	started := time.Now()
	res := Result{Target: t.Name}

	var verdict staleness.Verdict
	if o.opts.DryRun && r.anyPlanned(t.Inputs) {
		if err := o.detector.CheckInputs(t, r.isPlanned); err != nil {
			return res, err
		}
		verdict = staleness.Verdict{Stale: true, Reason: ReasonUpstreamPlanned}
		if o.opts.Force {
			verdict.Reason = staleness.ReasonForced
		}
	} else {
		v, err := o.detector.Check(t, r.prev, o.opts.Force)
		if err != nil {
			return res, err
		}
		verdict = v
	}
	res.Reason = verdict.Reason

	if !verdict.Stale {
		logger.Debug("Target is up to date.")
		res.Status = StatusSkipped
		return res, nil
	}

	if o.opts.DryRun {
		logger.Info("Target would be built.", "compiler", t.CompilerName(), "reason", verdict.Reason)
		r.markPlanned(t.Outputs)
		res.Status = StatusPlanned
		return res, nil
	}

	logger.Info("Building target.", "compiler", t.CompilerName(), "reason", verdict.Reason)
	if err := o.compile(ctx, t); err != nil {
		return res, err
	}

	res.Status = StatusBuilt
	res.Duration = time.Since(started)
	logger.Debug("Target built.", "duration", res.Duration)
	return res, nil
}

func (o *Orchestrator) compile(ctx context.Context, t *target.BuildTarget) error {
	logger := ctxlog.FromContext(ctx)
	if err := fsutil.EnsureParentDirs(t.Outputs); err != nil {
		return fmt.Errorf("target %q: %w", t.Name, err)
	}

	job := &registry.Job{
		Target:     t.Name,
		Inputs:     t.Inputs,
		Outputs:    t.Outputs,
		Params:     t.Params,
		Settings:   t.Compiler.Settings,
		Properties: o.bctx.Properties,
		Logger:     logger,
	}
	err := o.invoke(ctx, t, job)
	o.stats.Invalidate(t.Outputs...)
	if err != nil {
		return &CompileError{Target: t.Name, Compiler: t.CompilerName(), Loc: t.Location, Err: err}
	}

	for _, out := range t.Outputs {
		st, err := o.stats.Stat(out)
		if err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
		if !st.Exists {
			return &OutputNotProducedError{Target: t.Name, Path: out, Loc: t.Location}
		}
	}
	logger.Debug("Outputs verified.", "outputs", len(t.Outputs))
	return nil
}

// invoke runs the compiler, turning a panic into an error.
func (o *Orchestrator) invoke(ctx context.Context, t *target.BuildTarget, job *registry.Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.FromContext(ctx).Error("Compiler panicked.", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return t.Compiler.Compiler.Compile(ctx, job)
}

func (r *run) markPlanned(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		r.planned[p] = struct{}{}
	}
}

func (r *run) anyPlanned(paths []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		if _, ok := r.planned[p]; ok {
			return true
		}
	}
	return false
}

func (r *run) isPlanned(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.planned[path]
	return ok
}
