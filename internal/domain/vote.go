package domain

import (
	"time"

	"github.com/google/uuid"
)

type VoteType int

const (
	VoteVerify  VoteType = 1
	VoteDispute VoteType = -1
)

func (t VoteType) Valid() bool {
	return t == VoteVerify || t == VoteDispute
}

func (t VoteType) String() string {
	switch t {
	case VoteVerify:
		return "verify"
	case VoteDispute:
		return "dispute"
	default:
		return "invalid"
	}
}

// Vote is immutable once recorded. Weight is snapshotted at cast time.
type Vote struct {
	UserID    uuid.UUID
	RumorID   uuid.UUID
	Type      VoteType
	Weight    float64
	CreatedAt time.Time
}

// Delta is the vote's contribution to the rumor's trust score.
func (v Vote) Delta() float64 {
	return float64(v.Type) * v.Weight
}

// Ballot is a recorded vote joined with the voter's current standing.
type Ballot struct {
	Vote
	VoterReputation float64
}

// VoteResult is returned to the caller of a cast vote.
type VoteResult struct {
	Vote       Vote
	TrustScore float64
	KillSwitch *Transition
}

// ReputationChange is one applied payout.
type ReputationChange struct {
	UserID        uuid.UUID
	Delta         float64
	NewReputation float64
}
