package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BatchRepo implements ports.BatchRepository using PostgreSQL.
type BatchRepo struct {
	pool Pool
}

// NewBatchRepo creates a new PostgreSQL batch repository.
func NewBatchRepo(pool Pool) *BatchRepo {
	return &BatchRepo{pool: pool}
}

const batchColumns = `id, producer_id, crop_type, quantity, harvest_date, location,
		description, image_ref, farmer_name, farmer_phone_enc, status, custodian_id,
		created_at, updated_at`

// Create inserts a new batch inside the given transaction.
func (r *BatchRepo) Create(ctx context.Context, tx pgx.Tx, batch *domain.Batch) error {
	query := `
		INSERT INTO batches (id, producer_id, crop_type, quantity, harvest_date, location,
			description, image_ref, farmer_name, farmer_phone_enc, status, custodian_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		batch.ID,
		batch.ProducerID,
		batch.CropType,
		batch.Quantity,
		batch.HarvestDate,
		batch.Location,
		batch.Description,
		batch.ImageRef,
		batch.FarmerName,
		batch.FarmerPhoneEnc,
		batch.Status,
		batch.CustodianID,
		batch.CreatedAt,
		batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}
	return nil
}

// GetByID retrieves a batch by its ID. Returns (nil, nil) when not found.
func (r *BatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`

	var batch domain.Batch
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&batch.ID,
		&batch.ProducerID,
		&batch.CropType,
		&batch.Quantity,
		&batch.HarvestDate,
		&batch.Location,
		&batch.Description,
		&batch.ImageRef,
		&batch.FarmerName,
		&batch.FarmerPhoneEnc,
		&batch.Status,
		&batch.CustodianID,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning batch: %w", err)
	}
	return &batch, nil
}

// UpdateStatus performs the compare-and-swap status write. The WHERE clause
// pins the expected source status, so a concurrent transition that got there
// first leaves zero rows to update.
func (r *BatchRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.BatchStatus, custodianID *uuid.UUID) (bool, error) {
	query := `
		UPDATE batches
		SET status = $1, custodian_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, to, custodianID, id, from)
	if err != nil {
		return false, fmt.Errorf("updating batch status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List retrieves batches matching the given filters, newest first.
func (r *BatchRepo) List(ctx context.Context, params ports.BatchListParams) ([]domain.Batch, error) {
	var (
		conditions []string
		args       []any
	)
	if params.Status != nil {
		args = append(args, *params.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if params.ProducerID != nil {
		args = append(args, *params.ProducerID)
		conditions = append(conditions, "producer_id = $"+strconv.Itoa(len(args)))
	}
	if params.CustodianID != nil {
		args = append(args, *params.CustodianID)
		conditions = append(conditions, "custodian_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + batchColumns + ` FROM batches`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	batches := make([]domain.Batch, 0)
	for rows.Next() {
		var batch domain.Batch
		err := rows.Scan(
			&batch.ID,
			&batch.ProducerID,
			&batch.CropType,
			&batch.Quantity,
			&batch.HarvestDate,
			&batch.Location,
			&batch.Description,
			&batch.ImageRef,
			&batch.FarmerName,
			&batch.FarmerPhoneEnc,
			&batch.Status,
			&batch.CustodianID,
			&batch.CreatedAt,
			&batch.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}
	return batches, nil
}
