package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/domain"
)

type pgTx struct {
	q     *queries
	clock clockwork.Clock
}

func (t *pgTx) LockUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := t.q.getUser(ctx, userID, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return u, nil
}

func (t *pgTx) LockRumor(ctx context.Context, rumorID uuid.UUID) (*domain.Rumor, error) {
	r, err := t.q.getRumor(ctx, rumorID, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRumorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock rumor: %w", err)
	}
	return r, nil
}

func (t *pgTx) CreateRumor(ctx context.Context, rumor *domain.Rumor) error {
	if err := t.q.insertRumor(ctx, rumor); err != nil {
		return fmt.Errorf("failed to insert rumor: %w", err)
	}
	return nil
}

func (t *pgTx) InsertVote(ctx context.Context, vote *domain.Vote) error {
	_, err := t.q.db.Exec(ctx, insertVote, vote.UserID, vote.RumorID, int16(vote.Type), vote.Weight, vote.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return domain.ErrAlreadyVoted
	}
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (t *pgTx) AddTrustScore(ctx context.Context, rumorID uuid.UUID, delta float64) (float64, error) {
	var score float64
	err := t.q.db.QueryRow(ctx, addTrustScore, rumorID, delta, t.clock.Now()).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrRumorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add trust score: %w", err)
	}
	return score, nil
}

func (t *pgTx) TransitionStatus(ctx context.Context, rumorID uuid.UUID, from []domain.Status, to domain.Status) (bool, error) {
	tag, err := t.q.db.Exec(ctx, transitionStatus, rumorID, statusStrings(from), string(to), t.clock.Now())
	if err != nil {
		return false, fmt.Errorf("failed to transition rumor: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) ListBallots(ctx context.Context, rumorID uuid.UUID) ([]domain.Ballot, error) {
	rows, err := t.q.db.Query(ctx, listBallots, rumorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}

	ballots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Ballot, error) {
		var (
			b  domain.Ballot
			vt int16
		)
		err := row.Scan(&b.UserID, &b.RumorID, &vt, &b.Weight, &b.CreatedAt, &b.VoterReputation)
		b.Type = domain.VoteType(vt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	return ballots, nil
}

func (t *pgTx) AdjustReputation(ctx context.Context, userID uuid.UUID, delta, ceiling float64) (float64, error) {
	var rep float64
	err := t.q.db.QueryRow(ctx, adjustReputation, userID, delta, ceiling).Scan(&rep)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust reputation: %w", err)
	}
	return rep, nil
}
