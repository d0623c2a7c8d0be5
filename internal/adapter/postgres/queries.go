package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pscheid92/veritas/internal/domain"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

const rumorColumns = `id, author_id, content, status, trust_score, visible_at, settles_at, created_at, updated_at`

func scanRumor(row pgx.Row) (*domain.Rumor, error) {
	var (
		r      domain.Rumor
		status string
	)
	if err := row.Scan(&r.ID, &r.AuthorID, &r.Content, &status, &r.TrustScore, &r.VisibleAt, &r.SettlesAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = domain.Status(status)
	return &r, nil
}

const getUser = `SELECT id, reputation, frozen, created_at FROM users WHERE id = $1`

func (q *queries) getUser(ctx context.Context, id uuid.UUID, lock bool) (*domain.User, error) {
	sql := getUser
	if lock {
		sql += ` FOR UPDATE`
	}
	var u domain.User
	if err := q.db.QueryRow(ctx, sql, id).Scan(&u.ID, &u.Reputation, &u.Frozen, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

const getRumor = `SELECT ` + rumorColumns + ` FROM rumors WHERE id = $1`

func (q *queries) getRumor(ctx context.Context, id uuid.UUID, lock bool) (*domain.Rumor, error) {
	sql := getRumor
	if lock {
		sql += ` FOR UPDATE`
	}
	return scanRumor(q.db.QueryRow(ctx, sql, id))
}

const insertUser = `
INSERT INTO users (id, reputation, frozen, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET reputation = EXCLUDED.reputation, frozen = EXCLUDED.frozen`

const insertRumor = `
INSERT INTO rumors (` + rumorColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (q *queries) insertRumor(ctx context.Context, r *domain.Rumor) error {
	_, err := q.db.Exec(ctx, insertRumor, r.ID, r.AuthorID, r.Content, string(r.Status), r.TrustScore, r.VisibleAt, r.SettlesAt, r.CreatedAt, r.UpdatedAt)
	return err
}

const insertVote = `
INSERT INTO votes (user_id, rumor_id, type, weight, created_at)
VALUES ($1, $2, $3, $4, $5)`

const addTrustScore = `
UPDATE rumors SET trust_score = trust_score + $2, updated_at = $3
WHERE id = $1
RETURNING trust_score`

const transitionStatus = `
UPDATE rumors SET status = $3, updated_at = $4
WHERE id = $1 AND status = ANY($2)`

const listBallots = `
SELECT v.user_id, v.rumor_id, v.type, v.weight, v.created_at, u.reputation
FROM votes v
JOIN users u ON u.id = v.user_id
WHERE v.rumor_id = $1
ORDER BY v.user_id`

const adjustReputation = `
UPDATE users SET reputation = LEAST(GREATEST(reputation + $2, 0), $3)
WHERE id = $1
RETURNING reputation`

const voteStats = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE type = 1),
       COUNT(*) FILTER (WHERE type = -1)
FROM votes WHERE user_id = $1`

const promoteReviewed = `
UPDATE rumors SET status = 'PUBLIC', updated_at = $2
WHERE status = 'INITIAL_REVIEW' AND visible_at <= $1
RETURNING id`

const listExpired = `
SELECT id FROM rumors
WHERE status IN ('INITIAL_REVIEW', 'PUBLIC') AND settles_at <= $1
ORDER BY settles_at, id
LIMIT $2`

const feedSelect = `
SELECT r.id, r.author_id, r.content, r.status, r.trust_score, r.visible_at, r.settles_at, r.created_at, r.updated_at,
       v.type, v.weight, v.created_at
FROM rumors r
LEFT JOIN votes v ON v.rumor_id = r.id AND v.user_id = $1
WHERE `

const (
	feedActive  = feedSelect + `r.status = ANY($2) AND r.visible_at <= $3 AND r.settles_at > $3 ORDER BY r.visible_at DESC, r.id LIMIT $4`
	feedVoted   = feedSelect + `v.user_id IS NOT NULL ORDER BY r.visible_at DESC, r.id LIMIT $2`
	feedResults = feedSelect + `(r.status IN ('SETTLED', 'REJECTED') OR r.settles_at <= $2) ORDER BY r.visible_at DESC, r.id LIMIT $3`
)

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (q *queries) listFeed(ctx context.Context, fq domain.FeedQuery) ([]domain.FeedItem, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch fq.Filter {
	case domain.FeedVoted:
		rows, err = q.db.Query(ctx, feedVoted, fq.ViewerID, fq.Limit)
	case domain.FeedResults:
		rows, err = q.db.Query(ctx, feedResults, fq.ViewerID, fq.Now, fq.Limit)
	default:
		statuses := []domain.Status{domain.StatusPublic}
		if fq.IncludeReview {
			statuses = append(statuses, domain.StatusInitialReview)
		}
		rows, err = q.db.Query(ctx, feedActive, fq.ViewerID, statusStrings(statuses), fq.Now, fq.Limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.FeedItem, 0)
	for rows.Next() {
		var (
			r        domain.Rumor
			status   string
			voteType *int16
			weight   *float64
			votedAt  *time.Time
		)
		if err := rows.Scan(&r.ID, &r.AuthorID, &r.Content, &status, &r.TrustScore, &r.VisibleAt, &r.SettlesAt, &r.CreatedAt, &r.UpdatedAt,
			&voteType, &weight, &votedAt); err != nil {
			return nil, err
		}
		r.Status = domain.Status(status)

		item := domain.FeedItem{Rumor: r}
		if voteType != nil {
			item.MyVote = &domain.Vote{
				UserID:    fq.ViewerID,
				RumorID:   r.ID,
				Type:      domain.VoteType(*voteType),
				Weight:    *weight,
				CreatedAt: *votedAt,
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
