package postgres

import (
	"context"
	"errors"
	"fmt"

	"tracebloom/internal/core/domain"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ShipmentRepo implements ports.ShipmentRepository using PostgreSQL.
type ShipmentRepo struct {
	pool Pool
}

// NewShipmentRepo creates a new PostgreSQL shipment repository.
func NewShipmentRepo(pool Pool) *ShipmentRepo {
	return &ShipmentRepo{pool: pool}
}

// Create inserts a shipment record inside the given transaction. The unique
// constraint on (batch_id, consumer_id) surfaces as a duplicate shipment error.
func (r *ShipmentRepo) Create(ctx context.Context, tx pgx.Tx, shipment *domain.Shipment) error {
	query := `
		INSERT INTO shipments (id, batch_id, consumer_id, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := tx.Exec(ctx, query,
		shipment.ID,
		shipment.BatchID,
		shipment.ConsumerID,
		shipment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateShipment()
		}
		return fmt.Errorf("inserting shipment: %w", err)
	}
	return nil
}

// Exists reports whether a shipment exists for the (batch, consumer) pair.
func (r *ShipmentRepo) Exists(ctx context.Context, batchID, consumerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM shipments WHERE batch_id = $1 AND consumer_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, batchID, consumerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking shipment existence: %w", err)
	}
	return exists, nil
}

// ListByConsumer retrieves all shipments for a consumer, newest first.
func (r *ShipmentRepo) ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]domain.Shipment, error) {
	query := `
		SELECT id, batch_id, consumer_id, created_at
		FROM shipments
		WHERE consumer_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, consumerID)
	if err != nil {
		return nil, fmt.Errorf("querying shipments: %w", err)
	}
	defer rows.Close()

	shipments := make([]domain.Shipment, 0)
	for rows.Next() {
		var shipment domain.Shipment
		if err := rows.Scan(&shipment.ID, &shipment.BatchID, &shipment.ConsumerID, &shipment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning shipment row: %w", err)
		}
		shipments = append(shipments, shipment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shipment rows: %w", err)
	}
	return shipments, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
