// Package notifications schedules transactional emails on a durable queue
// and executes them outside the request path.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
)

// Queue is a durable, at-least-once job queue.
type Queue interface {
	Enqueue(ctx context.Context, kind string, payload []byte) error
}

type Dispatcher struct {
	queue Queue
	now   func() time.Time
}

func NewDispatcher(queue Queue) *Dispatcher {
	return &Dispatcher{queue: queue, now: time.Now}
}

// Schedule enqueues a job for entityID without waiting for its delivery.
func (d *Dispatcher) Schedule(ctx context.Context, kind models.JobKind, entityID uuid.UUID) error {
	job := models.NotificationJob{
		Kind:       kind,
		EntityID:   entityID,
		EnqueuedAt: d.now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode notification job: %w", err)
	}
	if err := d.queue.Enqueue(ctx, string(kind), payload); err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", kind, err)
	}
	slog.Info("notification scheduled", "kind", kind, "entity_id", entityID)
	return nil
}
