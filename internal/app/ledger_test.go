package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVote_SnapshotsWeight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := f.user(90)
	rumor := f.rumor(domain.StatusPublic)

	res, err := f.svc.CastVote(ctx, voter, rumor, domain.VoteDispute)
	require.NoError(t, err)
	assert.InDelta(t, 1.8, res.Vote.Weight, 1e-9)
	assert.InDelta(t, -1.8, res.TrustScore, 1e-9)
	assert.Nil(t, res.KillSwitch)
}

func TestCastVote_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := f.user(50)
	public := f.rumor(domain.StatusPublic)
	settled := f.rumor(domain.StatusSettled)

	_, err := f.svc.CastVote(ctx, voter, public, domain.VoteType(0))
	assert.ErrorIs(t, err, domain.ErrInvalidVoteType)

	_, err = f.svc.CastVote(ctx, uuid.New(), public, domain.VoteVerify)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.svc.CastVote(ctx, f.frozenUser(90), public, domain.VoteVerify)
	assert.ErrorIs(t, err, domain.ErrUserFrozen)

	_, err = f.svc.CastVote(ctx, voter, uuid.New(), domain.VoteVerify)
	assert.ErrorIs(t, err, domain.ErrRumorNotFound)

	_, err = f.svc.CastVote(ctx, voter, settled, domain.VoteVerify)
	assert.ErrorIs(t, err, domain.ErrVotingClosed)
}

func TestCastVote_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := f.user(50)
	rumor := f.rumor(domain.StatusPublic)

	_, err := f.svc.CastVote(ctx, voter, rumor, domain.VoteVerify)
	require.NoError(t, err)

	_, err = f.svc.CastVote(ctx, voter, rumor, domain.VoteDispute)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	r, err := f.store.GetRumor(ctx, rumor)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.TrustScore, 1e-9, "the rejected vote must not move the score")
}

func TestCastVote_AfterDeadlineSettlesLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := f.user(50)
	late := f.user(50)
	rumor := f.rumor(domain.StatusPublic)

	_, err := f.svc.CastVote(ctx, early, rumor, domain.VoteVerify)
	require.NoError(t, err)

	f.clock.Advance(7 * 24 * time.Hour)

	_, err = f.svc.CastVote(ctx, late, rumor, domain.VoteVerify)
	assert.ErrorIs(t, err, domain.ErrVotingClosed)
	assert.Equal(t, domain.StatusSettled, f.status(t, rumor))
	assert.Equal(t, 55.0, f.reputation(t, early))
	assert.Equal(t, 50.0, f.reputation(t, late))
}

func TestCastVote_SelfVoteAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rumor := f.rumor(domain.StatusPublic)

	r, err := f.store.GetRumor(ctx, rumor)
	require.NoError(t, err)

	_, err = f.svc.CastVote(ctx, r.AuthorID, rumor, domain.VoteVerify)
	assert.NoError(t, err)
}

func TestCastVote_RateLimited(t *testing.T) {
	limiter := &mockLimiter{allowFn: func(_ context.Context, _ uuid.UUID, action domain.Action) (bool, error) {
		return action != domain.ActionVote, nil
	}}
	f := newFixture(t, WithRateLimiter(limiter))

	_, err := f.svc.CastVote(context.Background(), f.user(50), f.rumor(domain.StatusPublic), domain.VoteVerify)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestCastVote_LimiterFailureAllows(t *testing.T) {
	limiter := &mockLimiter{allowFn: func(context.Context, uuid.UUID, domain.Action) (bool, error) {
		return false, errors.New("redis down")
	}}
	f := newFixture(t, WithRateLimiter(limiter))

	_, err := f.svc.CastVote(context.Background(), f.user(50), f.rumor(domain.StatusPublic), domain.VoteVerify)
	assert.NoError(t, err)
}

func TestCastVote_ConcurrentVotesKeepScoreSum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rumor := f.rumor(domain.StatusPublic)

	const voters = 40
	ids := make([]uuid.UUID, voters)
	for i := range ids {
		ids[i] = f.user(float64(20 + i))
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vt := domain.VoteVerify
			if i%3 == 0 {
				vt = domain.VoteDispute
			}
			_, err := f.svc.CastVote(ctx, id, rumor, vt)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var want float64
	err := f.store.WithinTx(ctx, func(tx domain.Tx) error {
		ballots, err := tx.ListBallots(ctx, rumor)
		if err != nil {
			return err
		}
		require.Len(t, ballots, voters)
		for _, b := range ballots {
			want += b.Delta()
		}
		return nil
	})
	require.NoError(t, err)

	r, err := f.store.GetRumor(ctx, rumor)
	require.NoError(t, err)
	assert.InDelta(t, want, r.TrustScore, 1e-9)
}
