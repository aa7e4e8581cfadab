package postgres

import (
	"context"
	"fmt"

	"tracebloom/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepo implements ports.PaymentRepository using PostgreSQL.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PostgreSQL payment repository.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, batch_id, amount, status, payer_role, payee_role, created_at`

// Create inserts a payment record inside the given transaction.
func (r *PaymentRepo) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, batch_id, amount, status, payer_role, payee_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		payment.ID,
		payment.BatchID,
		payment.Amount,
		payment.Status,
		payment.PayerRole,
		payment.PayeeRole,
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// ListByBatch retrieves all payments for a batch, oldest first.
func (r *PaymentRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE batch_id = $1 ORDER BY created_at ASC`
	return r.queryPayments(ctx, query, batchID)
}

// ListByRole retrieves payments where the role appears as payer or payee.
func (r *PaymentRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payer_role = $1 OR payee_role = $1 ORDER BY created_at DESC`
	return r.queryPayments(ctx, query, role)
}

func (r *PaymentRepo) queryPayments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var payment domain.Payment
		err := rows.Scan(
			&payment.ID,
			&payment.BatchID,
			&payment.Amount,
			&payment.Status,
			&payment.PayerRole,
			&payment.PayeeRole,
			&payment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}
	return payments, nil
}
