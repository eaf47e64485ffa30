package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeynil/TravelBookingService/internal/models"
)

type queuedJob struct {
	kind    string
	payload []byte
}

type fakeQueue struct {
	jobs []queuedJob
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, kind string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{kind: kind, payload: payload})
	return nil
}

func TestDispatcher_Schedule(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		queue := &fakeQueue{}
		d := NewDispatcher(queue)
		d.now = func() time.Time { return fixed }
		id := uuid.New()

		require.NoError(t, d.Schedule(ctx, models.JobPaymentConfirmation, id))
		require.Len(t, queue.jobs, 1)
		assert.Equal(t, "payment_confirmation", queue.jobs[0].kind)

		var job models.NotificationJob
		require.NoError(t, json.Unmarshal(queue.jobs[0].payload, &job))
		assert.Equal(t, models.JobPaymentConfirmation, job.Kind)
		assert.Equal(t, id, job.EntityID)
		assert.True(t, fixed.Equal(job.EnqueuedAt))
	})

	t.Run("QueueError", func(t *testing.T) {
		queue := &fakeQueue{err: errors.New("broker down")}
		d := NewDispatcher(queue)

		err := d.Schedule(ctx, models.JobBookingConfirmation, uuid.New())
		assert.ErrorContains(t, err, "broker down")
		assert.Empty(t, queue.jobs)
	})
}
