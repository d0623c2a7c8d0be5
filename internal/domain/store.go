package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract of the lifecycle engine. Reads outside a
// transaction are plain snapshots; every mutation that has to be atomic runs
// through WithinTx.
type Store interface {
	// WithinTx runs fn in one atomic unit. If fn returns an error nothing it
	// did is persisted.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	GetRumor(ctx context.Context, rumorID uuid.UUID) (*Rumor, error)
	VoteStats(ctx context.Context, userID uuid.UUID) (VoteStats, error)
	ListFeed(ctx context.Context, q FeedQuery) ([]FeedItem, error)

	// PromoteReviewed moves every INITIAL_REVIEW rumor with visibleAt <= cutoff
	// to PUBLIC with a guarded update and returns the IDs it changed.
	PromoteReviewed(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	// ListExpired returns non-terminal rumors whose deadline is at or before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// Tx is the set of operations available inside an atomic unit.
type Tx interface {
	// LockUser reads the user and holds it until the unit ends.
	LockUser(ctx context.Context, userID uuid.UUID) (*User, error)

	// LockRumor reads the rumor and holds it against concurrent mutation
	// until the unit ends.
	LockRumor(ctx context.Context, rumorID uuid.UUID) (*Rumor, error)
	CreateRumor(ctx context.Context, rumor *Rumor) error

	// InsertVote fails with ErrAlreadyVoted if the (user, rumor) pair exists.
	InsertVote(ctx context.Context, vote *Vote) error
	AddTrustScore(ctx context.Context, rumorID uuid.UUID, delta float64) (float64, error)

	// TransitionStatus sets the status only if the current one is in from.
	// It reports whether the row changed.
	TransitionStatus(ctx context.Context, rumorID uuid.UUID, from []Status, to Status) (bool, error)

	// ListBallots returns all votes on the rumor, ordered by voter ID, joined
	// with the voter's live reputation.
	ListBallots(ctx context.Context, rumorID uuid.UUID) ([]Ballot, error)

	// AdjustReputation applies delta and clamps the result to [0, ceiling]
	// in a single statement, returning the stored value.
	AdjustReputation(ctx context.Context, userID uuid.UUID, delta, ceiling float64) (float64, error)
}
