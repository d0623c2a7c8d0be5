// Package memory is a single-process Store. One mutex serializes every atomic
// unit and an undo log rolls back a unit whose function fails. It backs
// STORE_BACKEND=memory for local runs and the application tests.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/domain"
)

type voteKey struct {
	userID  uuid.UUID
	rumorID uuid.UUID
}

type Store struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	users  map[uuid.UUID]*domain.User
	rumors map[uuid.UUID]*domain.Rumor
	votes  map[voteKey]*domain.Vote
}

func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:  clock,
		users:  make(map[uuid.UUID]*domain.User),
		rumors: make(map[uuid.UUID]*domain.Rumor),
		votes:  make(map[voteKey]*domain.Vote),
	}
}

// PutUser inserts or replaces a user. Used for seeding.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// PutRumor inserts or replaces a rumor. Used for seeding.
func (s *Store) PutRumor(r domain.Rumor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rumors[r.ID] = &r
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetRumor(_ context.Context, rumorID uuid.UUID) (*domain.Rumor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rumors[rumorID]
	if !ok {
		return nil, domain.ErrRumorNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) VoteStats(_ context.Context, userID uuid.UUID) (domain.VoteStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.VoteStats
	for k, v := range s.votes {
		if k.userID != userID {
			continue
		}
		stats.Total++
		if v.Type == domain.VoteVerify {
			stats.Verify++
		} else {
			stats.Dispute++
		}
	}
	return stats, nil
}

func (s *Store) ListFeed(_ context.Context, q domain.FeedQuery) ([]domain.FeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.FeedItem, 0)
	for _, r := range s.rumors {
		var myVote *domain.Vote
		if v, ok := s.votes[voteKey{userID: q.ViewerID, rumorID: r.ID}]; ok {
			cp := *v
			myVote = &cp
		}
		if !q.Matches(r, myVote != nil) {
			continue
		}
		items = append(items, domain.FeedItem{Rumor: *r, MyVote: myVote})
	}

	slices.SortFunc(items, func(a, b domain.FeedItem) int {
		if c := b.Rumor.VisibleAt.Compare(a.Rumor.VisibleAt); c != 0 {
			return c
		}
		return bytes.Compare(a.Rumor.ID[:], b.Rumor.ID[:])
	})

	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return items, nil
}

func (s *Store) PromoteReviewed(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var ids []uuid.UUID
	for id, r := range s.rumors {
		if r.Status != domain.StatusInitialReview || r.VisibleAt.After(cutoff) {
			continue
		}
		r.Status = domain.StatusPublic
		r.UpdatedAt = now
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids, nil
}

func (s *Store) ListExpired(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := make([]*domain.Rumor, 0)
	for _, r := range s.rumors {
		if !r.Status.Terminal() && r.Expired(now) {
			expired = append(expired, r)
		}
	}
	slices.SortFunc(expired, func(a, b *domain.Rumor) int {
		return cmp.Or(a.SettlesAt.Compare(b.SettlesAt), bytes.Compare(a.ID[:], b.ID[:]))
	})

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	ids := make([]uuid.UUID, len(expired))
	for i, r := range expired {
		ids[i] = r.ID
	}
	return ids, nil
}
