package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedFilter(t *testing.T) {
	f, err := ParseFeedFilter("")
	require.NoError(t, err)
	assert.Equal(t, FeedActive, f)

	f, err = ParseFeedFilter("results")
	require.NoError(t, err)
	assert.Equal(t, FeedResults, f)

	_, err = ParseFeedFilter("trending")
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestFeedQuery_Matches(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	revealed := now.Add(-30 * time.Minute)
	future := now.Add(10 * time.Minute)
	open := now.Add(24 * time.Hour)

	tests := []struct {
		name  string
		query FeedQuery
		rumor Rumor
		voted bool
		want  bool
	}{
		{"active public", FeedQuery{Filter: FeedActive}, Rumor{Status: StatusPublic, VisibleAt: revealed, SettlesAt: open}, false, true},
		{"active review hidden", FeedQuery{Filter: FeedActive}, Rumor{Status: StatusInitialReview, VisibleAt: revealed, SettlesAt: open}, false, false},
		{"active review for senior", FeedQuery{Filter: FeedActive, IncludeReview: true}, Rumor{Status: StatusInitialReview, VisibleAt: revealed, SettlesAt: open}, false, true},
		{"active not yet revealed", FeedQuery{Filter: FeedActive, IncludeReview: true}, Rumor{Status: StatusInitialReview, VisibleAt: future, SettlesAt: open}, false, false},
		{"active expired", FeedQuery{Filter: FeedActive}, Rumor{Status: StatusPublic, VisibleAt: revealed, SettlesAt: now}, false, false},
		{"active settled", FeedQuery{Filter: FeedActive, IncludeReview: true}, Rumor{Status: StatusSettled, VisibleAt: revealed, SettlesAt: open}, false, false},
		{"voted", FeedQuery{Filter: FeedVoted}, Rumor{Status: StatusRejected, VisibleAt: revealed, SettlesAt: open}, true, true},
		{"not voted", FeedQuery{Filter: FeedVoted}, Rumor{Status: StatusPublic, VisibleAt: revealed, SettlesAt: open}, false, false},
		{"results terminal", FeedQuery{Filter: FeedResults}, Rumor{Status: StatusSettled, VisibleAt: revealed, SettlesAt: open}, false, true},
		{"results expired open", FeedQuery{Filter: FeedResults}, Rumor{Status: StatusPublic, VisibleAt: revealed, SettlesAt: now}, false, true},
		{"results still open", FeedQuery{Filter: FeedResults}, Rumor{Status: StatusPublic, VisibleAt: revealed, SettlesAt: open}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Now = now
			assert.Equal(t, tt.want, tt.query.Matches(&tt.rumor, tt.voted))
		})
	}
}
