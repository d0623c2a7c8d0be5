package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

// CreateRumor charges the author the post cost and stores a new rumor in
// initial review. The deduction and the insert commit together.
func (s *Service) CreateRumor(ctx context.Context, authorID uuid.UUID, content string) (*domain.CreatedRumor, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.maxContentLength {
		return nil, domain.ErrContentTooLong
	}

	if _, err := s.activeUser(ctx, authorID); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, authorID, domain.ActionPost); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	visibleAt, settlesAt, jitter := s.schedule(now)

	var (
		rumor  domain.Rumor
		newRep float64
	)
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		author, err := tx.LockUser(ctx, authorID)
		if err != nil {
			return err
		}
		if author.Frozen {
			return domain.ErrUserFrozen
		}

		newRep, err = tx.AdjustReputation(ctx, authorID, -s.rules.PostCost(author.Reputation), s.rules.MaxReputation)
		if err != nil {
			return err
		}

		rumor = domain.Rumor{
			ID:        uuid.New(),
			AuthorID:  authorID,
			Content:   content,
			Status:    domain.StatusInitialReview,
			VisibleAt: visibleAt,
			SettlesAt: settlesAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.CreateRumor(ctx, &rumor)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rumor: %w", err)
	}

	s.recorder.RumorCreated()

	return &domain.CreatedRumor{
		Rumor:            rumor,
		NewReputation:    newRep,
		VisibleInMinutes: int(math.Round(float64(jitter) / float64(time.Minute))),
	}, nil
}
