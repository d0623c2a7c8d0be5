package domain

import (
	"context"

	"github.com/google/uuid"
)

// EventPublisher publishes committed lifecycle events to infrastructure.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, t Transition) error
}

type Action string

const (
	ActionVote Action = "vote"
	ActionPost Action = "post"
)

// ActionRateLimiter enforces per-user limits using a token bucket.
// Returns true if allowed (token consumed), false if rate limited.
type ActionRateLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID, action Action) (bool, error)
}
