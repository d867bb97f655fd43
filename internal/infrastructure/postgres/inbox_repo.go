package postgres

import (
	"context"
	"fmt"

	"github.com/SRUJA-N/patient-management-system/internal/domain/inbox"

	"github.com/jackc/pgx/v5/pgxpool"
)

type InboxRepository struct {
	pool *pgxpool.Pool
}

func NewInboxRepository(pool *pgxpool.Pool) *InboxRepository {
	return &InboxRepository{pool: pool}
}

// SaveIfNotExists returns true if the event key was recorded (first
// delivery), false if it already existed (redelivery). It joins a
// context transaction when one is present.
func (r *InboxRepository) SaveIfNotExists(ctx context.Context, rec *inbox.Record) (bool, error) {
	const query = `
		INSERT INTO inbox_events (consumer, event_key, event_type, patient_id, processed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (consumer, event_key) DO NOTHING
	`

	var ex executor = r.pool
	if tx := GetTx(ctx); tx != nil {
		ex = tx
	}

	tag, err := ex.Exec(ctx, query, rec.Consumer, rec.EventKey, rec.EventType, rec.PatientID)
	if err != nil {
		return false, fmt.Errorf("insert inbox record: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
