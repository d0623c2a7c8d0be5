package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/adapter/memory"
	"github.com/pscheid92/veritas/internal/domain"
)

var epoch = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

// --- Mock implementations ---

type mockPublisher struct {
	mu          sync.Mutex
	publishFn   func(ctx context.Context, t domain.Transition) error
	transitions []domain.Transition
}

func (m *mockPublisher) PublishStatusChanged(ctx context.Context, t domain.Transition) error {
	m.mu.Lock()
	m.transitions = append(m.transitions, t)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, t)
	}
	return nil
}

func (m *mockPublisher) published() []domain.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Transition(nil), m.transitions...)
}

type mockLimiter struct {
	allowFn func(ctx context.Context, userID uuid.UUID, action domain.Action) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, userID uuid.UUID, action domain.Action) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, userID, action)
	}
	return true, nil
}

type mockRecorder struct {
	nopRecorder
	mu          sync.Mutex
	transitions int
	payouts     int
}

func (m *mockRecorder) Transition(domain.Status, domain.Status, domain.Trigger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions++
}

func (m *mockRecorder) ReputationAdjusted(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payouts++
}

// mockStore wraps a real store and lets a test override single reads.
type mockStore struct {
	domain.Store
	listExpiredFn func(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

func (m *mockStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if m.listExpiredFn != nil {
		return m.listExpiredFn(ctx, now, limit)
	}
	return m.Store.ListExpired(ctx, now, limit)
}

// --- Helpers ---

type fixture struct {
	svc       *Service
	store     *memory.Store
	clock     *clockwork.FakeClock
	publisher *mockPublisher
}

func fixedJitter(d time.Duration) JitterFunc {
	return func(time.Duration, time.Duration) time.Duration { return d }
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(epoch)
	store := memory.NewStore(clock)
	pub := &mockPublisher{}

	opts = append([]Option{WithPublisher(pub), WithJitter(fixedJitter(10 * time.Minute))}, opts...)
	return &fixture{
		svc:       NewService(store, domain.DefaultRules(), clock, opts...),
		store:     store,
		clock:     clock,
		publisher: pub,
	}
}

func (f *fixture) user(rep float64) uuid.UUID {
	id := uuid.New()
	f.store.PutUser(domain.User{ID: id, Reputation: rep, CreatedAt: f.clock.Now()})
	return id
}

func (f *fixture) frozenUser(rep float64) uuid.UUID {
	id := uuid.New()
	f.store.PutUser(domain.User{ID: id, Reputation: rep, Frozen: true, CreatedAt: f.clock.Now()})
	return id
}

// rumor stores a rumor that is already revealed.
func (f *fixture) rumor(status domain.Status) uuid.UUID {
	now := f.clock.Now()
	id := uuid.New()
	f.store.PutRumor(domain.Rumor{
		ID:        id,
		AuthorID:  f.user(50),
		Content:   "the dean is cancelling finals",
		Status:    status,
		VisibleAt: now,
		SettlesAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return id
}

func (f *fixture) reputation(t *testing.T, id uuid.UUID) float64 {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u.Reputation
}

func (f *fixture) status(t *testing.T, id uuid.UUID) domain.Status {
	t.Helper()
	r, err := f.store.GetRumor(context.Background(), id)
	if err != nil {
		t.Fatalf("get rumor: %v", err)
	}
	return r.Status
}
