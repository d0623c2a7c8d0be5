package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusChannel_RoundTrip(t *testing.T) {
	rdb := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.Transition, 1)
	go NewStatusSubscriber(rdb).Start(ctx, func(tr domain.Transition) { received <- tr })

	// Wait for the subscription to register before publishing.
	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, statusChannel).Result()
		return err == nil && n[statusChannel] == 1
	}, 5*time.Second, 20*time.Millisecond)

	sent := domain.Transition{
		RumorID: uuid.New(),
		From:    domain.StatusInitialReview,
		To:      domain.StatusRejected,
		Trigger: domain.TriggerKillSwitch,
		At:      time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	require.NoError(t, NewStatusPublisher(rdb).PublishStatusChanged(ctx, sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.RumorID, got.RumorID)
		assert.Equal(t, sent.To, got.To)
		assert.Equal(t, sent.Trigger, got.Trigger)
		assert.True(t, sent.At.Equal(got.At))
	case <-time.After(5 * time.Second):
		t.Fatal("no status message received")
	}
}

func TestDecodeStatus_RejectsUnknownStatus(t *testing.T) {
	_, err := decodeStatus(`{"rumorId":"00000000-0000-0000-0000-000000000000","from":"PUBLIC","to":"ARCHIVED"}`)
	assert.Error(t, err)

	_, err = decodeStatus(`not json`)
	assert.Error(t, err)
}
