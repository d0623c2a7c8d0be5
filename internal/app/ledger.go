package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

// CastVote records one weighted vote and adds it to the rumor's trust score
// in the same atomic unit. Votes on rumors still in review run the kill
// switch after commit.
func (s *Service) CastVote(ctx context.Context, userID, rumorID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error) {
	if !voteType.Valid() {
		return nil, domain.ErrInvalidVoteType
	}

	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, userID, domain.ActionVote); err != nil {
		return nil, err
	}

	rumor, err := s.store.GetRumor(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if rumor.Status.Terminal() {
		return nil, domain.ErrVotingClosed
	}
	if rumor.Expired(now) {
		if _, err := s.TrySettle(ctx, rumorID); err != nil {
			s.recorder.SweepFailed("settle")
			slog.ErrorContext(ctx, "Lazy settlement failed", "rumor_id", rumorID, "error", err)
		}
		return nil, domain.ErrVotingClosed
	}

	vote := domain.Vote{
		UserID:    userID,
		RumorID:   rumorID,
		Type:      voteType,
		Weight:    s.rules.VoteWeight(user.Reputation),
		CreatedAt: now,
	}

	var (
		score        float64
		statusAtVote domain.Status
	)
	err = s.store.WithinTx(ctx, func(tx domain.Tx) error {
		locked, err := tx.LockRumor(ctx, rumorID)
		if err != nil {
			return err
		}
		if !locked.AcceptsVotes(now) {
			return domain.ErrVotingClosed
		}
		statusAtVote = locked.Status

		if err := tx.InsertVote(ctx, &vote); err != nil {
			return err
		}

		score, err = tx.AddTrustScore(ctx, rumorID, vote.Delta())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}

	s.recorder.VoteCast(voteType)
	slog.DebugContext(ctx, "Vote cast", "rumor_id", rumorID, "user_id", userID, "type", voteType, "weight", vote.Weight, "trust_score", score)

	result := &domain.VoteResult{Vote: vote, TrustScore: score}
	if statusAtVote == domain.StatusInitialReview {
		t, err := s.EvaluateKillSwitch(ctx, rumorID)
		if err != nil {
			slog.ErrorContext(ctx, "Kill switch evaluation failed", "rumor_id", rumorID, "error", err)
		}
		result.KillSwitch = t
	}

	return result, nil
}
