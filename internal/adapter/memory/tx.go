package memory

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

// memTx runs with Store.mu held. Every mutation pushes its inverse onto undo.
type memTx struct {
	store *Store
	undo  []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) LockUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	u, ok := t.store.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) LockRumor(_ context.Context, rumorID uuid.UUID) (*domain.Rumor, error) {
	r, ok := t.store.rumors[rumorID]
	if !ok {
		return nil, domain.ErrRumorNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) CreateRumor(_ context.Context, rumor *domain.Rumor) error {
	if _, ok := t.store.users[rumor.AuthorID]; !ok {
		return domain.ErrUserNotFound
	}

	cp := *rumor
	t.store.rumors[cp.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.store.rumors, cp.ID) })
	return nil
}

func (t *memTx) InsertVote(_ context.Context, vote *domain.Vote) error {
	if _, ok := t.store.rumors[vote.RumorID]; !ok {
		return domain.ErrRumorNotFound
	}

	key := voteKey{userID: vote.UserID, rumorID: vote.RumorID}
	if _, ok := t.store.votes[key]; ok {
		return domain.ErrAlreadyVoted
	}

	cp := *vote
	t.store.votes[key] = &cp
	t.undo = append(t.undo, func() { delete(t.store.votes, key) })
	return nil
}

func (t *memTx) AddTrustScore(_ context.Context, rumorID uuid.UUID, delta float64) (float64, error) {
	r, ok := t.store.rumors[rumorID]
	if !ok {
		return 0, domain.ErrRumorNotFound
	}

	prev := *r
	r.TrustScore += delta
	r.UpdatedAt = t.now()
	t.undo = append(t.undo, func() { *r = prev })
	return r.TrustScore, nil
}

func (t *memTx) TransitionStatus(_ context.Context, rumorID uuid.UUID, from []domain.Status, to domain.Status) (bool, error) {
	r, ok := t.store.rumors[rumorID]
	if !ok {
		return false, domain.ErrRumorNotFound
	}
	if !slices.Contains(from, r.Status) {
		return false, nil
	}

	prev := *r
	r.Status = to
	r.UpdatedAt = t.now()
	t.undo = append(t.undo, func() { *r = prev })
	return true, nil
}

func (t *memTx) ListBallots(_ context.Context, rumorID uuid.UUID) ([]domain.Ballot, error) {
	var ballots []domain.Ballot
	for k, v := range t.store.votes {
		if k.rumorID != rumorID {
			continue
		}
		b := domain.Ballot{Vote: *v}
		if u, ok := t.store.users[k.userID]; ok {
			b.VoterReputation = u.Reputation
		}
		ballots = append(ballots, b)
	}

	slices.SortFunc(ballots, func(a, b domain.Ballot) int {
		return bytes.Compare(a.UserID[:], b.UserID[:])
	})
	return ballots, nil
}

func (t *memTx) AdjustReputation(_ context.Context, userID uuid.UUID, delta, ceiling float64) (float64, error) {
	u, ok := t.store.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}

	prev := u.Reputation
	u.Reputation = min(max(u.Reputation+delta, 0), ceiling)
	t.undo = append(t.undo, func() { u.Reputation = prev })
	return u.Reputation, nil
}

func (t *memTx) now() time.Time {
	return t.store.clock.Now()
}
