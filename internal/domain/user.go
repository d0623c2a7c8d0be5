package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an anonymous community member. Identity issuance happens elsewhere;
// here a user is only an ID with a reputation and a frozen flag.
type User struct {
	ID         uuid.UUID
	Reputation float64
	Frozen     bool
	CreatedAt  time.Time
}

type VoteStats struct {
	Total   int
	Verify  int
	Dispute int
}

// Profile is the caller's own view of their standing.
type Profile struct {
	User      User
	VotePower float64
	PostCost  float64
	IsSenior  bool
	Stats     VoteStats
	Rules     Rules
}
