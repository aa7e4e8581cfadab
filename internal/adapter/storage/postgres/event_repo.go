package postgres

import (
	"context"
	"fmt"

	"tracebloom/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BatchEventRepo implements ports.BatchEventRepository using PostgreSQL.
type BatchEventRepo struct {
	pool Pool
}

// NewBatchEventRepo creates a new PostgreSQL batch event repository.
func NewBatchEventRepo(pool Pool) *BatchEventRepo {
	return &BatchEventRepo{pool: pool}
}

// Create appends a status history entry inside the given transaction.
func (r *BatchEventRepo) Create(ctx context.Context, tx pgx.Tx, event *domain.BatchEvent) error {
	query := `
		INSERT INTO batch_events (id, batch_id, from_status, to_status, action, actor_id, actor_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		event.ID,
		event.BatchID,
		event.FromStatus,
		event.ToStatus,
		event.Action,
		event.ActorID,
		event.ActorRole,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting batch event: %w", err)
	}
	return nil
}

// ListByBatch retrieves the status history of a batch in insertion order.
func (r *BatchEventRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.BatchEvent, error) {
	query := `
		SELECT id, batch_id, from_status, to_status, action, actor_id, actor_role, created_at
		FROM batch_events
		WHERE batch_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying batch events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.BatchEvent, 0)
	for rows.Next() {
		var event domain.BatchEvent
		err := rows.Scan(
			&event.ID,
			&event.BatchID,
			&event.FromStatus,
			&event.ToStatus,
			&event.Action,
			&event.ActorID,
			&event.ActorRole,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning batch event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch event rows: %w", err)
	}
	return events, nil
}
