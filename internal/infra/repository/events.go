package repository

import (
	"context"
	"time"

	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"
)

// EventRepository writes the transactional outbox. Rows commit together with
// the state change that produced them; a relay process drains the table.
type EventRepository struct {
	db db.DBTX
}

func NewEventRepository(dbtx db.DBTX) *EventRepository {
	return &EventRepository{db: dbtx}
}

func (r *EventRepository) Publish(ctx context.Context, topic string, payload []byte, occurredAt time.Time) error {
	const q = `
		INSERT INTO event_jobs (topic, payload, occurred_at, created_at)
		VALUES ($1, $2, $3, now())`
	if _, err := r.db.Exec(ctx, q, topic, payload, occurredAt); err != nil {
		return infra.WrapRepoErr("failed to publish event", err)
	}
	return nil
}
