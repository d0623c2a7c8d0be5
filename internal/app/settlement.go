package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

// TrySettle finalizes a rumor by its trust score. It is idempotent: a rumor
// that is already terminal yields nil. Callers decide whether the deadline
// matters; the lazy paths only call it for expired rumors.
func (s *Service) TrySettle(ctx context.Context, rumorID uuid.UUID) (*domain.Transition, error) {
	return s.settle(ctx, rumorID, domain.TriggerSettlement)
}

// SettleRumor is the manual trigger. It settles regardless of the deadline
// and reports ErrNotSettleable when the rumor is already final.
func (s *Service) SettleRumor(ctx context.Context, rumorID uuid.UUID) (domain.Status, error) {
	t, err := s.settle(ctx, rumorID, domain.TriggerManual)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", domain.ErrNotSettleable
	}
	return t.To, nil
}

func (s *Service) settle(ctx context.Context, rumorID uuid.UUID, trigger domain.Trigger) (*domain.Transition, error) {
	var (
		transition *domain.Transition
		changes    []domain.ReputationChange
	)

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		transition, changes = nil, nil

		rumor, err := tx.LockRumor(ctx, rumorID)
		if err != nil {
			return err
		}
		if rumor.Status.Terminal() {
			return nil
		}

		to, winning := verdict(rumor.TrustScore)
		ok, err := tx.TransitionStatus(ctx, rumorID, domain.OpenStatuses, to)
		if err != nil || !ok {
			return err
		}

		ballots, err := tx.ListBallots(ctx, rumorID)
		if err != nil {
			return err
		}

		changes, err = s.redistribute(ctx, tx, ballots, winning)
		if err != nil {
			return err
		}

		transition = &domain.Transition{
			RumorID: rumorID,
			From:    rumor.Status,
			To:      to,
			Trigger: trigger,
			At:      s.clock.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle rumor: %w", err)
	}

	if transition != nil {
		s.afterTransition(ctx, *transition, changes)
	}
	return transition, nil
}

// verdict: a non-negative score verifies the rumor, a negative one debunks it.
func verdict(score float64) (domain.Status, domain.VoteType) {
	if score >= 0 {
		return domain.StatusSettled, domain.VoteVerify
	}
	return domain.StatusRejected, domain.VoteDispute
}

// SettleDue finalizes open rumors past their deadline, one batch at a time.
// A failure on one rumor is logged and left for the next sweep.
func (s *Service) SettleDue(ctx context.Context) (int, error) {
	ids, err := s.store.ListExpired(ctx, s.clock.Now(), s.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired rumors: %w", err)
	}

	settled := 0
	for _, id := range ids {
		t, err := s.TrySettle(ctx, id)
		if err != nil {
			s.recorder.SweepFailed("settle")
			slog.ErrorContext(ctx, "Lazy settlement failed", "rumor_id", id, "error", err)
			continue
		}
		if t != nil {
			settled++
		}
	}
	return settled, nil
}
