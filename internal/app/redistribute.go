package app

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/pscheid92/veritas/internal/domain"
)

// redistribute pays out every ballot of a finalized rumor: the winning side
// gains the consensus reward, the losing side is slashed. Must run in the same
// unit as the status transition.
func (s *Service) redistribute(ctx context.Context, tx domain.Tx, ballots []domain.Ballot, winning domain.VoteType) ([]domain.ReputationChange, error) {
	// Users are locked in ascending ID order across all finalizations.
	ordered := slices.Clone(ballots)
	slices.SortFunc(ordered, func(a, b domain.Ballot) int {
		return bytes.Compare(a.UserID[:], b.UserID[:])
	})

	changes := make([]domain.ReputationChange, 0, len(ordered))
	for _, b := range ordered {
		delta := s.rules.Payout(b.Type, winning)
		rep, err := tx.AdjustReputation(ctx, b.UserID, delta, s.rules.MaxReputation)
		if err != nil {
			return nil, fmt.Errorf("failed to adjust reputation of %s: %w", b.UserID, err)
		}

		changes = append(changes, domain.ReputationChange{
			UserID:        b.UserID,
			Delta:         delta,
			NewReputation: rep,
		})
	}
	return changes, nil
}
