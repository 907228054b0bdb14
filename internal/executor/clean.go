package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/contentgrid/internal/ctxlog"
	"github.com/specialistvlad/contentgrid/internal/fsutil"
	"github.com/specialistvlad/contentgrid/internal/staleness"
	"github.com/specialistvlad/contentgrid/internal/target"
)

// CleanReport counts what Clean removed.
type CleanReport struct {
	Removed []string
	Missing int
}

// Clean deletes every declared output of every target, then the hash
// snapshot. Outputs that do not exist are skipped silently. Every failure
// is collected; a failure does not stop the remaining deletions. In dry-run
// mode nothing is deleted.
func (o *Orchestrator) Clean(ctx context.Context, ordered []*target.BuildTarget) (*CleanReport, error) {
	logger := ctxlog.FromContext(ctx)
	report := &CleanReport{}
	var errs []error

	for _, t := range ordered {
		for _, out := range t.Outputs {
			if o.opts.DryRun {
				st, err := o.stats.Stat(out)
				if err != nil {
					errs = append(errs, fmt.Errorf("target %q: %w", t.Name, err))
					continue
				}
				if st.Exists {
					logger.Info("Output would be removed.", "target", t.Name, "path", out)
					report.Removed = append(report.Removed, out)
				} else {
					report.Missing++
				}
				continue
			}

			removed, err := fsutil.RemoveIfExists(out)
			if err != nil {
				errs = append(errs, fmt.Errorf("target %q: removing %s: %w", t.Name, out, err))
				continue
			}
			if !removed {
				report.Missing++
				continue
			}
			logger.Info("Output removed.", "target", t.Name, "path", out)
			report.Removed = append(report.Removed, out)
		}
	}
	o.stats.Purge()

	if !o.opts.DryRun {
		if err := staleness.Remove(o.snapshotPath); err != nil {
			errs = append(errs, fmt.Errorf("removing hash snapshot: %w", err))
		}
	}

	logger.Info("Clean finished.", "removed", len(report.Removed), "already_missing", report.Missing)
	return report, errors.Join(errs...)
}
