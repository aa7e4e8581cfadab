package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracebloom/internal/core/domain"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShipment() *domain.Shipment {
	return &domain.Shipment{
		ID:         uuid.New(),
		BatchID:    uuid.New(),
		ConsumerID: uuid.New(),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestShipmentRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewShipmentRepo(mock)
	shipment := newTestShipment()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO shipments").
		WithArgs(shipment.ID, shipment.BatchID, shipment.ConsumerID, shipment.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, shipment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentRepo_Create_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewShipmentRepo(mock)
	shipment := newTestShipment()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO shipments").
		WithArgs(shipment.ID, shipment.BatchID, shipment.ConsumerID, shipment.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "shipments_batch_id_consumer_id_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, shipment)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LEDGER_001", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentRepo_Exists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewShipmentRepo(mock)
	batchID := uuid.New()
	consumerID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(batchID, consumerID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), batchID, consumerID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentRepo_ListByConsumer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewShipmentRepo(mock)
	shipment := newTestShipment()

	mock.ExpectQuery("SELECT .+ FROM shipments WHERE consumer_id").
		WithArgs(shipment.ConsumerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "batch_id", "consumer_id", "created_at"}).
			AddRow(shipment.ID, shipment.BatchID, shipment.ConsumerID, shipment.CreatedAt))

	result, err := repo.ListByConsumer(context.Background(), shipment.ConsumerID)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, shipment.BatchID, result[0].BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
