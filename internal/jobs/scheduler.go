// Package jobs runs the lifecycle sweep on a schedule so rumors promote and
// settle even when nobody reads the feed.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/veritas/internal/app"
	"github.com/pscheid92/veritas/internal/platform/correlation"
	"github.com/robfig/cron/v3"
)

type sweeper interface {
	Sweep(ctx context.Context) app.SweepResult
}

// Lease restricts a tick to one instance. Optional.
type Lease interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper sweeper
	lease   Lease
}

// NewScheduler registers the sweep under a cron spec such as "@every 5m".
func NewScheduler(ctx context.Context, s sweeper, spec string, lease Lease) (*Scheduler, error) {
	sched := &Scheduler{
		cron:    cron.New(),
		sweeper: s,
		lease:   lease,
	}

	if _, err := sched.cron.AddFunc(spec, func() { sched.runOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return sched, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Sweep scheduler started")
}

// Stop waits for a running sweep to finish and gives up the lease.
func (s *Scheduler) Stop(ctx context.Context) {
	<-s.cron.Stop().Done()

	if s.lease != nil {
		if err := s.lease.Release(ctx); err != nil {
			slog.Warn("Failed to release sweep lease", "error", err)
		}
	}
	slog.Info("Sweep scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())

	if s.lease != nil {
		leader, err := s.lease.TryAcquire(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Sweep lease unavailable, skipping tick", "error", err)
			return
		}
		if !leader {
			slog.DebugContext(ctx, "Another instance holds the sweep lease")
			return
		}
	}

	res := s.sweeper.Sweep(ctx)
	if res.Promoted > 0 || res.Settled > 0 {
		slog.InfoContext(ctx, "Scheduled sweep applied transitions", "promoted", res.Promoted, "settled", res.Settled)
	}
}
