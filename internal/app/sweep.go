package app

import (
	"context"
	"log/slog"

	"github.com/pscheid92/veritas/internal/platform/correlation"
)

// SweepResult counts the transitions applied by one sweep.
type SweepResult struct {
	Promoted int
	Settled  int
}

// Sweep runs the lazy transitions, promotion first and settlement second.
// Concurrent callers on this instance share one in-flight run, detached from
// the caller's cancellation and bounded by sweepTimeout.
func (s *Service) Sweep(ctx context.Context) SweepResult {
	v, _, _ := s.sweepGroup.Do("sweep", func() (any, error) {
		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sweepTimeout)
		defer cancel()
		return s.sweep(sweepCtx), nil
	})
	return v.(SweepResult)
}

func (s *Service) sweep(ctx context.Context) SweepResult {
	if _, ok := correlation.ID(ctx); !ok {
		ctx = correlation.WithID(ctx, correlation.NewID())
	}

	var res SweepResult

	promoted, err := s.PromoteDue(ctx)
	if err != nil {
		s.recorder.SweepFailed("promote")
		slog.ErrorContext(ctx, "Lazy promotion failed", "error", err)
	}
	res.Promoted = len(promoted)

	settled, err := s.SettleDue(ctx)
	if err != nil {
		s.recorder.SweepFailed("settle")
		slog.ErrorContext(ctx, "Lazy settlement sweep failed", "error", err)
	}
	res.Settled = settled

	return res
}
