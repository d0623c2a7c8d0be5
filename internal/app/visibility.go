package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

// JitterFunc returns a reveal delay within [lo, hi].
type JitterFunc func(lo, hi time.Duration) time.Duration

// UniformJitter draws uniformly from [lo, hi] at millisecond resolution.
func UniformJitter(lo, hi time.Duration) time.Duration {
	span := hi.Milliseconds() - lo.Milliseconds()
	if span <= 0 {
		return lo
	}
	return lo + time.Duration(rand.Int64N(span+1))*time.Millisecond
}

// schedule computes the reveal time and the fixed deadline of a rumor posted at now.
func (s *Service) schedule(now time.Time) (visibleAt, settlesAt time.Time, jitter time.Duration) {
	jitter = s.jitter(s.rules.JitterMin, s.rules.JitterMax)
	jitter = min(max(jitter, s.rules.JitterMin), s.rules.JitterMax)
	return now.Add(jitter), now.Add(s.rules.SettlementWindow), jitter
}

// PromoteDue moves every rumor whose review window has elapsed to PUBLIC.
// The store applies each change with a guarded update, so racing callers
// and a concurrent kill switch never double-apply.
func (s *Service) PromoteDue(ctx context.Context) ([]uuid.UUID, error) {
	now := s.clock.Now()

	ids, err := s.store.PromoteReviewed(ctx, now.Add(-s.rules.ReviewDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to promote reviewed rumors: %w", err)
	}

	for _, id := range ids {
		s.afterTransition(ctx, domain.Transition{
			RumorID: id,
			From:    domain.StatusInitialReview,
			To:      domain.StatusPublic,
			Trigger: domain.TriggerPromotion,
			At:      now,
		}, nil)
	}
	return ids, nil
}
