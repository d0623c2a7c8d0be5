package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

// EvaluateKillSwitch rejects a rumor in initial review once the share of
// disputes among senior votes reaches the rejection rate. Seniority is taken
// from the voters' reputation now, not from the weight snapshot.
// Returns nil when nothing changed.
func (s *Service) EvaluateKillSwitch(ctx context.Context, rumorID uuid.UUID) (*domain.Transition, error) {
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
		if rumor.Status != domain.StatusInitialReview {
			return nil
		}

		ballots, err := tx.ListBallots(ctx, rumorID)
		if err != nil {
			return err
		}

		disputes, seniors := s.seniorDissent(ballots)
		if seniors == 0 {
			return nil
		}

		rate := float64(disputes) / float64(seniors)
		slog.DebugContext(ctx, "Kill switch check", "rumor_id", rumorID, "senior_disputes", disputes, "senior_votes", seniors, "dispute_rate", rate)
		if rate < s.rules.RejectionRate {
			return nil
		}

		ok, err := tx.TransitionStatus(ctx, rumorID, []domain.Status{domain.StatusInitialReview}, domain.StatusRejected)
		if err != nil || !ok {
			return err
		}

		changes, err = s.redistribute(ctx, tx, ballots, domain.VoteDispute)
		if err != nil {
			return err
		}

		transition = &domain.Transition{
			RumorID: rumorID,
			From:    domain.StatusInitialReview,
			To:      domain.StatusRejected,
			Trigger: domain.TriggerKillSwitch,
			At:      s.clock.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate kill switch: %w", err)
	}

	if transition != nil {
		s.afterTransition(ctx, *transition, changes)
	}
	return transition, nil
}

func (s *Service) seniorDissent(ballots []domain.Ballot) (disputes, seniors int) {
	for _, b := range ballots {
		if !s.rules.IsSenior(b.VoterReputation) {
			continue
		}
		seniors++
		if b.Type == domain.VoteDispute {
			disputes++
		}
	}
	return disputes, seniors
}
