package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/pscheid92/veritas/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSweeper struct {
	calls int
}

func (m *mockSweeper) Sweep(context.Context) app.SweepResult {
	m.calls++
	return app.SweepResult{Promoted: 1}
}

type mockLease struct {
	acquireFn func(ctx context.Context) (bool, error)
	released  bool
}

func (m *mockLease) TryAcquire(ctx context.Context) (bool, error) {
	if m.acquireFn != nil {
		return m.acquireFn(ctx)
	}
	return true, nil
}

func (m *mockLease) Release(context.Context) error {
	m.released = true
	return nil
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(context.Background(), &mockSweeper{}, "every now and then", nil)
	assert.Error(t, err)
}

func TestRunOnce_WithoutLease(t *testing.T) {
	sw := &mockSweeper{}
	s, err := NewScheduler(context.Background(), sw, "@every 5m", nil)
	require.NoError(t, err)

	s.runOnce(context.Background())
	assert.Equal(t, 1, sw.calls)
}

func TestRunOnce_FollowerSkips(t *testing.T) {
	sw := &mockSweeper{}
	lease := &mockLease{acquireFn: func(context.Context) (bool, error) { return false, nil }}
	s, err := NewScheduler(context.Background(), sw, "@every 5m", lease)
	require.NoError(t, err)

	s.runOnce(context.Background())
	assert.Equal(t, 0, sw.calls)
}

func TestRunOnce_LeaseErrorSkips(t *testing.T) {
	sw := &mockSweeper{}
	lease := &mockLease{acquireFn: func(context.Context) (bool, error) { return false, errors.New("redis down") }}
	s, err := NewScheduler(context.Background(), sw, "@every 5m", lease)
	require.NoError(t, err)

	s.runOnce(context.Background())
	assert.Equal(t, 0, sw.calls)
}

func TestStop_ReleasesLease(t *testing.T) {
	lease := &mockLease{}
	s, err := NewScheduler(context.Background(), &mockSweeper{}, "@every 5m", lease)
	require.NoError(t, err)

	s.Start()
	s.Stop(context.Background())
	assert.True(t, lease.released)
}
