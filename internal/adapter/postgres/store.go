package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/pscheid92/veritas/internal/platform/retry"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var txRetryPolicy = retry.Policy{
	MaxAttempts:    4,
	InitialBackoff: 20 * time.Millisecond,
	MaxBackoff:     200 * time.Millisecond,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying transaction", "attempt", attempt, "error", err, "backoff", backoff)
	},
}

// Store implements domain.Store on PostgreSQL. Atomic units are transactions
// that lock the rows they mutate with SELECT ... FOR UPDATE.
type Store struct {
	pool  *pgxpool.Pool
	q     *queries
	clock clockwork.Clock
}

func NewStore(pool *pgxpool.Pool, clock clockwork.Clock) *Store {
	return &Store{
		pool:  pool,
		q:     &queries{db: pool},
		clock: clock,
	}
}

func classifyTxError(err error) retry.Action {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return retry.Retry
		}
	}
	return retry.Stop
}

// WithinTx runs fn in a transaction and retries it on serialization failures
// and deadlocks. fn must be safe to run more than once.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	err := retry.DoVoid(ctx, txRetryPolicy, classifyTxError, func() error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			return fn(&pgTx{q: &queries{db: tx}, clock: s.clock})
		})
	})

	// Unwrap the retry envelope so domain sentinels stay matchable by identity.
	var perm *retry.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.q.getUser(ctx, userID, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *Store) GetRumor(ctx context.Context, rumorID uuid.UUID) (*domain.Rumor, error) {
	r, err := s.q.getRumor(ctx, rumorID, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRumorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rumor: %w", err)
	}
	return r, nil
}

// Reset deletes every user, rumor and vote.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE users, rumors, votes CASCADE"); err != nil {
		return fmt.Errorf("failed to reset tables: %w", err)
	}
	return nil
}

// UpsertUser creates or overwrites a user. Used for seeding and tests.
func (s *Store) UpsertUser(ctx context.Context, u domain.User) error {
	if _, err := s.pool.Exec(ctx, insertUser, u.ID, u.Reputation, u.Frozen, u.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *Store) VoteStats(ctx context.Context, userID uuid.UUID) (domain.VoteStats, error) {
	var stats domain.VoteStats
	if err := s.pool.QueryRow(ctx, voteStats, userID).Scan(&stats.Total, &stats.Verify, &stats.Dispute); err != nil {
		return domain.VoteStats{}, fmt.Errorf("failed to count votes: %w", err)
	}
	return stats, nil
}

func (s *Store) ListFeed(ctx context.Context, q domain.FeedQuery) ([]domain.FeedItem, error) {
	items, err := s.q.listFeed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	return items, nil
}

func (s *Store) PromoteReviewed(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, promoteReviewed, cutoff, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to promote rumors: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to promote rumors: %w", err)
	}
	return ids, nil
}

func (s *Store) ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, listExpired, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired rumors: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to list expired rumors: %w", err)
	}
	return ids, nil
}
