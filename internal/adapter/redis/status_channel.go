package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const statusChannel = "rumors:status"

// statusMessage is the wire form of a committed transition.
type statusMessage struct {
	RumorID uuid.UUID `json:"rumorId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Trigger string    `json:"trigger"`
	At      time.Time `json:"at"`
}

// StatusPublisher announces committed transitions on the status channel.
type StatusPublisher struct {
	rdb *goredis.Client
}

func NewStatusPublisher(rdb *goredis.Client) *StatusPublisher {
	return &StatusPublisher{rdb: rdb}
}

func (p *StatusPublisher) PublishStatusChanged(ctx context.Context, t domain.Transition) error {
	data, err := json.Marshal(statusMessage{
		RumorID: t.RumorID,
		From:    string(t.From),
		To:      string(t.To),
		Trigger: string(t.Trigger),
		At:      t.At,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	if err := p.rdb.Publish(ctx, statusChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish status change: %w", err)
	}
	return nil
}

// StatusSubscriber delivers transitions published by any instance.
type StatusSubscriber struct {
	rdb *goredis.Client
}

func NewStatusSubscriber(rdb *goredis.Client) *StatusSubscriber {
	return &StatusSubscriber{rdb: rdb}
}

// Start blocks until ctx is done, calling handle for every well-formed message.
func (s *StatusSubscriber) Start(ctx context.Context, handle func(domain.Transition)) {
	pubsub := s.rdb.Subscribe(ctx, statusChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			t, err := decodeStatus(msg.Payload)
			if err != nil {
				slog.Warn("Dropping malformed status message", "error", err)
				continue
			}
			handle(t)
		case <-ctx.Done():
			return
		}
	}
}

func decodeStatus(payload string) (domain.Transition, error) {
	var m statusMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return domain.Transition{}, fmt.Errorf("failed to unmarshal status change: %w", err)
	}

	t := domain.Transition{
		RumorID: m.RumorID,
		From:    domain.Status(m.From),
		To:      domain.Status(m.To),
		Trigger: domain.Trigger(m.Trigger),
		At:      m.At,
	}
	if !t.From.Valid() || !t.To.Valid() {
		return domain.Transition{}, fmt.Errorf("unknown status in %q -> %q", m.From, m.To)
	}
	return t, nil
}
