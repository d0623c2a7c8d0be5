package domain

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInitialReview Status = "INITIAL_REVIEW"
	StatusPublic        Status = "PUBLIC"
	StatusSettled       Status = "SETTLED"
	StatusRejected      Status = "REJECTED"
)

// OpenStatuses are the statuses a rumor can still be voted on and finalized from.
var OpenStatuses = []Status{StatusInitialReview, StatusPublic}

func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusRejected
}

func (s Status) Valid() bool {
	switch s {
	case StatusInitialReview, StatusPublic, StatusSettled, StatusRejected:
		return true
	}
	return false
}

type Rumor struct {
	ID         uuid.UUID
	AuthorID   uuid.UUID
	Content    string
	Status     Status
	TrustScore float64
	VisibleAt  time.Time
	SettlesAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Expired reports whether the settlement deadline has been reached.
func (r *Rumor) Expired(now time.Time) bool {
	return !now.Before(r.SettlesAt)
}

// AcceptsVotes reports whether a vote cast at now may still be recorded.
func (r *Rumor) AcceptsVotes(now time.Time) bool {
	return !r.Status.Terminal() && !r.Expired(now)
}

// ReviewElapsed reports whether the initial review window is over.
func (r *Rumor) ReviewElapsed(now time.Time, review time.Duration) bool {
	return now.Sub(r.VisibleAt) >= review
}

type Trigger string

const (
	TriggerPromotion  Trigger = "promotion"
	TriggerKillSwitch Trigger = "kill_switch"
	TriggerSettlement Trigger = "settlement"
	TriggerManual     Trigger = "manual"
)

// Transition records a committed status change.
type Transition struct {
	RumorID uuid.UUID
	From    Status
	To      Status
	Trigger Trigger
	At      time.Time
}

// CreatedRumor is the result of a successful post.
type CreatedRumor struct {
	Rumor            Rumor
	NewReputation    float64
	VisibleInMinutes int
}
