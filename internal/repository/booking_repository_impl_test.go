package repository

import (
	"testing"
	"time"

	"fixit-server/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

// Two concurrent webhook deliveries must resolve through a single
// conditional UPDATE: the winner sees one affected row, the loser zero.
// No read-then-write is allowed here.
func TestApplyDecisionIssuesConditionalUpdate(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository()

	id := uuid.New()
	workerID := uuid.New()
	decidedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE "bookings" SET .+ WHERE id = \$\d+ AND worker_id = \$\d+ AND status IN \(\$\d+,\$\d+\)`).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			id, workerID,
			entity.BookingStatusRequestSent, entity.BookingStatusWorkerViewed,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.ApplyDecision(db, id, workerID, entity.BookingStatusWorkerAccepted, decidedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDecisionLateDeliveryAffectsNoRows(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository()

	id := uuid.New()
	workerID := uuid.New()

	mock.ExpectExec(`UPDATE "bookings" SET .+ WHERE id = \$\d+ AND worker_id = \$\d+ AND status IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.ApplyDecision(db, id, workerID, entity.BookingStatusWorkerRejected, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
