package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FeedFilter string

const (
	FeedActive  FeedFilter = "active"
	FeedVoted   FeedFilter = "voted"
	FeedResults FeedFilter = "results"
)

// ParseFeedFilter maps a query value onto a filter. Empty means active.
func ParseFeedFilter(s string) (FeedFilter, error) {
	switch FeedFilter(s) {
	case "", FeedActive:
		return FeedActive, nil
	case FeedVoted, FeedResults:
		return FeedFilter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
}

// FeedQuery describes one page of the feed for a viewer.
//
// For FeedActive, IncludeReview widens the status set to INITIAL_REVIEW so
// seniors see rumors during the review window.
type FeedQuery struct {
	Filter        FeedFilter
	ViewerID      uuid.UUID
	IncludeReview bool
	Now           time.Time
	Limit         int
}

type FeedItem struct {
	Rumor  Rumor
	MyVote *Vote
}

type Feed struct {
	Items    []FeedItem
	IsSenior bool
}

// Matches reports whether the rumor belongs on this page. voted tells whether
// the viewer has a vote on it. Stores that cannot push the filter into a query
// use this directly.
func (q FeedQuery) Matches(r *Rumor, voted bool) bool {
	switch q.Filter {
	case FeedVoted:
		return voted
	case FeedResults:
		return r.Status.Terminal() || r.Expired(q.Now)
	default:
		if r.VisibleAt.After(q.Now) || r.Expired(q.Now) {
			return false
		}
		return r.Status == StatusPublic || (q.IncludeReview && r.Status == StatusInitialReview)
	}
}
