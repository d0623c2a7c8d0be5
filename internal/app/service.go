package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFeedLimit        = 100
	defaultMaxContentLength = 2000
	defaultSweepBatch       = 200
	sweepTimeout            = 10 * time.Second
)

// Service is the application layer. It is the only component that combines
// the store, the rules and the event side effects.
type Service struct {
	store     domain.Store
	rules     domain.Rules
	clock     clockwork.Clock
	jitter    JitterFunc
	publisher domain.EventPublisher
	limiter   domain.ActionRateLimiter
	recorder  Recorder

	feedLimit        int
	maxContentLength int
	sweepBatch       int

	sweepGroup singleflight.Group
}

type Option func(*Service)

// WithPublisher sets where committed transitions are announced.
func WithPublisher(p domain.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRateLimiter enables per-user limits on votes and posts.
func WithRateLimiter(l domain.ActionRateLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithJitter replaces the random reveal delay, mostly for tests.
func WithJitter(j JitterFunc) Option {
	return func(s *Service) { s.jitter = j }
}

func WithFeedLimit(n int) Option {
	return func(s *Service) { s.feedLimit = n }
}

func WithMaxContentLength(n int) Option {
	return func(s *Service) { s.maxContentLength = n }
}

func WithSweepBatch(n int) Option {
	return func(s *Service) { s.sweepBatch = n }
}

func NewService(store domain.Store, rules domain.Rules, clock clockwork.Clock, opts ...Option) *Service {
	s := &Service{
		store:            store,
		rules:            rules,
		clock:            clock,
		jitter:           UniformJitter,
		recorder:         nopRecorder{},
		feedLimit:        defaultFeedLimit,
		maxContentLength: defaultMaxContentLength,
		sweepBatch:       defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rule set the service was built with.
func (s *Service) Rules() domain.Rules {
	return s.rules
}

// Profile returns the caller's standing and voting history.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.VoteStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Profile{
		User:      *user,
		VotePower: s.rules.VoteWeight(user.Reputation),
		PostCost:  s.rules.PostCost(user.Reputation),
		IsSenior:  s.rules.IsSenior(user.Reputation),
		Stats:     stats,
		Rules:     s.rules,
	}, nil
}

// Feed runs the lazy transitions and then lists rumors for the viewer.
// Transition failures are logged and never fail the read.
func (s *Service) Feed(ctx context.Context, viewerID uuid.UUID, filter domain.FeedFilter) (*domain.Feed, error) {
	viewer, err := s.activeUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	s.Sweep(ctx)

	senior := s.rules.IsSenior(viewer.Reputation)
	items, err := s.store.ListFeed(ctx, domain.FeedQuery{
		Filter:        filter,
		ViewerID:      viewerID,
		IncludeReview: senior,
		Now:           s.clock.Now(),
		Limit:         s.feedLimit,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Feed{Items: items, IsSenior: senior}, nil
}

// Authenticate resolves the caller behind a request. Frozen users are refused.
func (s *Service) Authenticate(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.activeUser(ctx, userID)
}

func (s *Service) activeUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Frozen {
		return nil, domain.ErrUserFrozen
	}
	return user, nil
}

func (s *Service) allow(ctx context.Context, userID uuid.UUID, action domain.Action) error {
	if s.limiter == nil {
		return nil
	}

	ok, err := s.limiter.Allow(ctx, userID, action)
	if err != nil {
		slog.WarnContext(ctx, "Rate limiter unavailable, allowing request", "user_id", userID, "action", action, "error", err)
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

func (s *Service) afterTransition(ctx context.Context, t domain.Transition, changes []domain.ReputationChange) {
	s.recorder.Transition(t.From, t.To, t.Trigger)
	for _, c := range changes {
		s.recorder.ReputationAdjusted(c.Delta)
	}

	slog.InfoContext(ctx, "Rumor transitioned",
		"rumor_id", t.RumorID,
		"from", t.From,
		"to", t.To,
		"trigger", t.Trigger,
		"payouts", len(changes),
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatusChanged(ctx, t); err != nil {
		slog.WarnContext(ctx, "Failed to publish status change", "rumor_id", t.RumorID, "error", err)
	}
}
