package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	return NewStore(setupTestDB(t), clock), clock
}

func seedUser(t *testing.T, s *Store, rep float64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.UpsertUser(context.Background(), domain.User{ID: id, Reputation: rep, CreatedAt: epoch}))
	return id
}

func seedRumor(t *testing.T, s *Store, author uuid.UUID, status domain.Status, visibleAt time.Time) uuid.UUID {
	t.Helper()
	r := &domain.Rumor{
		ID:        uuid.New(),
		AuthorID:  author,
		Content:   "the parking lot becomes a park",
		Status:    status,
		VisibleAt: visibleAt,
		SettlesAt: epoch.Add(7 * 24 * time.Hour),
		CreatedAt: epoch,
		UpdatedAt: epoch,
	}
	require.NoError(t, s.WithinTx(context.Background(), func(tx domain.Tx) error {
		return tx.CreateRumor(context.Background(), r)
	}))
	return r.ID
}

func TestStore_GetNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.GetRumor(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrRumorNotFound)
}

func TestStore_VoteAndScore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, 80)
	rumor := seedRumor(t, s, user, domain.StatusPublic, epoch)

	vote := &domain.Vote{UserID: user, RumorID: rumor, Type: domain.VoteDispute, Weight: 1.6, CreatedAt: epoch}
	var score float64
	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		if err := tx.InsertVote(ctx, vote); err != nil {
			return err
		}
		var err error
		score, err = tx.AddTrustScore(ctx, rumor, vote.Delta())
		return err
	}))
	assert.InDelta(t, -1.6, score, 1e-9)

	err := s.WithinTx(ctx, func(tx domain.Tx) error { return tx.InsertVote(ctx, vote) })
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	stats, err := s.VoteStats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteStats{Total: 1, Dispute: 1}, stats)

	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		ballots, err := tx.ListBallots(ctx, rumor)
		require.NoError(t, err)
		require.Len(t, ballots, 1)
		assert.Equal(t, domain.VoteDispute, ballots[0].Type)
		assert.Equal(t, 80.0, ballots[0].VoterReputation)
		return nil
	}))
}

func TestStore_RollbackOnError(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, 50)

	err := s.WithinTx(ctx, func(tx domain.Tx) error {
		if _, err := tx.AdjustReputation(ctx, user, -10, 100); err != nil {
			return err
		}
		return domain.ErrUserFrozen
	})
	assert.ErrorIs(t, err, domain.ErrUserFrozen)

	u, err := s.GetUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 50.0, u.Reputation)
}

func TestStore_AdjustReputationClamps(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	low := seedUser(t, s, 3)
	high := seedUser(t, s, 97)

	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		rep, err := tx.AdjustReputation(ctx, low, -15, 100)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rep)

		rep, err = tx.AdjustReputation(ctx, high, 5, 100)
		require.NoError(t, err)
		assert.Equal(t, 100.0, rep)
		return nil
	}))
}

func TestStore_TransitionStatusGuard(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, 50)
	rumor := seedRumor(t, s, user, domain.StatusInitialReview, epoch)

	var wg sync.WaitGroup
	results := make(chan bool, 6)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(tx domain.Tx) error {
				if _, err := tx.LockRumor(ctx, rumor); err != nil {
					return err
				}
				ok, err := tx.TransitionStatus(ctx, rumor, domain.OpenStatuses, domain.StatusRejected)
				results <- ok
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(results)

	changed := 0
	for ok := range results {
		if ok {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
}

func TestStore_PromoteAndExpire(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, 50)
	due := seedRumor(t, s, user, domain.StatusInitialReview, epoch)
	seedRumor(t, s, user, domain.StatusInitialReview, epoch.Add(time.Hour))

	clock.Advance(2 * time.Hour)
	ids, err := s.PromoteReviewed(ctx, clock.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{due}, ids)

	r, err := s.GetRumor(ctx, due)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublic, r.Status)

	expired, err := s.ListExpired(ctx, epoch.Add(7*24*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, expired, 2)
}

func TestStore_ListFeed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	viewer := seedUser(t, s, 50)
	public := seedRumor(t, s, viewer, domain.StatusPublic, epoch.Add(-time.Hour))
	review := seedRumor(t, s, viewer, domain.StatusInitialReview, epoch.Add(-time.Minute))

	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertVote(ctx, &domain.Vote{UserID: viewer, RumorID: public, Type: domain.VoteVerify, Weight: 1, CreatedAt: epoch})
	}))

	items, err := s.ListFeed(ctx, domain.FeedQuery{Filter: domain.FeedActive, ViewerID: viewer, Now: epoch, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].MyVote)
	assert.Equal(t, domain.VoteVerify, items[0].MyVote.Type)

	items, err = s.ListFeed(ctx, domain.FeedQuery{Filter: domain.FeedActive, ViewerID: viewer, IncludeReview: true, Now: epoch, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, review, items[0].Rumor.ID)
	assert.Nil(t, items[0].MyVote)

	items, err = s.ListFeed(ctx, domain.FeedQuery{Filter: domain.FeedVoted, ViewerID: viewer, Now: epoch, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = s.ListFeed(ctx, domain.FeedQuery{Filter: domain.FeedResults, ViewerID: viewer, Now: epoch.Add(8 * 24 * time.Hour), Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
