package postgres

import (
	"context"
	"testing"
	"time"

	"tracebloom/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment() *domain.Payment {
	return &domain.Payment{
		ID:        uuid.New(),
		BatchID:   uuid.New(),
		Amount:    1000,
		Status:    domain.PaymentStatusPending,
		PayerRole: domain.RoleProducer,
		PayeeRole: domain.RoleIntermediary,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func paymentTestColumns() []string {
	return []string{"id", "batch_id", "amount", "status", "payer_role", "payee_role", "created_at"}
}

func paymentRow(p *domain.Payment) *pgxmock.Rows {
	return pgxmock.NewRows(paymentTestColumns()).AddRow(
		p.ID, p.BatchID, p.Amount, p.Status, p.PayerRole, p.PayeeRole, p.CreatedAt,
	)
}

func TestPaymentRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	payment := newTestPayment()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(payment.ID, payment.BatchID, payment.Amount, payment.Status,
			payment.PayerRole, payment.PayeeRole, payment.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, payment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_ListByBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	payment := newTestPayment()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE batch_id").
		WithArgs(payment.BatchID).
		WillReturnRows(paymentRow(payment))

	result, err := repo.ListByBatch(context.Background(), payment.BatchID)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(1000), result[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_ListByRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	payment := newTestPayment()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE payer_role .+ OR payee_role").
		WithArgs(domain.RoleIntermediary).
		WillReturnRows(paymentRow(payment))

	result, err := repo.ListByRole(context.Background(), domain.RoleIntermediary)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, domain.RoleIntermediary, result[0].PayeeRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}
