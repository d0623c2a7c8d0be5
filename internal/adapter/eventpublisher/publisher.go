package eventpublisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/veritas/internal/domain"
)

// EventPublisher implements domain.EventPublisher by fanning a committed
// transition out to every configured sink. Without sinks it only logs.
type EventPublisher struct {
	sinks []domain.EventPublisher
}

func New(sinks ...domain.EventPublisher) *EventPublisher {
	return &EventPublisher{sinks: sinks}
}

// PublishStatusChanged tries every sink and returns the first failure.
func (ep *EventPublisher) PublishStatusChanged(ctx context.Context, t domain.Transition) error {
	slog.DebugContext(ctx, "Publishing status change", "rumor_id", t.RumorID, "to", t.To, "sinks", len(ep.sinks))

	var firstErr error
	for _, s := range ep.sinks {
		if err := s.PublishStatusChanged(ctx, t); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("publish status change: %w", err)
		}
	}
	return firstErr
}
