package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/infrastructure/config"
)

type recordingTask struct {
	calls chan struct{}
}

func newRecordingTask() *recordingTask {
	return &recordingTask{calls: make(chan struct{}, 8)}
}

func (r *recordingTask) record() error {
	select {
	case r.calls <- struct{}{}:
	default:
	}
	return nil
}

func (r *recordingTask) RefreshAll(context.Context) error { return r.record() }

func (r *recordingTask) PollAll(context.Context) error { return r.record() }

func TestNewMarketplaceCron_RegistersSchedules(t *testing.T) {
	q := NewJobQueue(config.QueueConfig{}, zap.NewNop())
	task := newRecordingTask()

	t.Run("order poll disabled", func(t *testing.T) {
		c, err := NewMarketplaceCron(config.SchedulerConfig{
			TokenRefreshSchedule: "0 0 2 * * *",
			OrderPollSchedule:    "0 */15 * * * *",
		}, q, task, task, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 1, c.Entries())
	})

	t.Run("order poll enabled", func(t *testing.T) {
		c, err := NewMarketplaceCron(config.SchedulerConfig{
			TokenRefreshSchedule: "0 0 2 * * *",
			OrderPollEnabled:     true,
			OrderPollSchedule:    "0 */15 * * * *",
		}, q, task, task, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 2, c.Entries())
	})

	t.Run("nil poller skips polling", func(t *testing.T) {
		c, err := NewMarketplaceCron(config.SchedulerConfig{
			TokenRefreshSchedule: "0 0 2 * * *",
			OrderPollEnabled:     true,
			OrderPollSchedule:    "0 */15 * * * *",
		}, q, task, nil, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 1, c.Entries())
	})
}

func TestNewMarketplaceCron_InvalidSchedule(t *testing.T) {
	q := NewJobQueue(config.QueueConfig{}, zap.NewNop())
	task := newRecordingTask()

	_, err := NewMarketplaceCron(config.SchedulerConfig{TokenRefreshSchedule: "every night"}, q, task, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	// five field expressions are rejected because seconds are required
	_, err = NewMarketplaceCron(config.SchedulerConfig{
		TokenRefreshSchedule: "0 0 2 * * *",
		OrderPollEnabled:     true,
		OrderPollSchedule:    "*/15 * * * *",
	}, q, task, task, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestMarketplaceCron_FiresThroughQueue(t *testing.T) {
	q := newTestQueue(t, 4)
	refresher := newRecordingTask()
	poller := newRecordingTask()

	c, err := NewMarketplaceCron(config.SchedulerConfig{
		TokenRefreshSchedule: "* * * * * *",
		OrderPollEnabled:     true,
		OrderPollSchedule:    "* * * * * *",
	}, q, refresher, poller, zap.NewNop())
	require.NoError(t, err)

	c.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Stop(ctx)
	})

	for name, task := range map[string]*recordingTask{"refresh": refresher, "poll": poller} {
		select {
		case <-task.calls:
		case <-time.After(3 * time.Second):
			t.Fatalf("%s task never ran", name)
		}
	}
}

func TestMarketplaceCron_StopWithoutStart(t *testing.T) {
	q := NewJobQueue(config.QueueConfig{}, zap.NewNop())
	c, err := NewMarketplaceCron(config.SchedulerConfig{TokenRefreshSchedule: "0 0 2 * * *"}, q, newRecordingTask(), nil, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, c.Stop(context.Background()))
}
