package repository

import (
	"time"

	"fixit-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(db *gorm.DB, booking *entity.Booking) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error)
	FindByWorkerID(db *gorm.DB, workerID uuid.UUID) ([]entity.Booking, error)

	// FindLatestAwaitingByWorker returns the most recent booking still
	// awaiting the worker's decision, or nil.
	FindLatestAwaitingByWorker(db *gorm.DB, workerID uuid.UUID) (*entity.Booking, error)

	// ApplyDecision atomically moves a booking to accepted/rejected only if
	// it is still awaiting a decision AND assigned to the given worker.
	// Returns affected rows: 1 = this caller won, 0 = lost the race or
	// precondition failed.
	ApplyDecision(db *gorm.DB, id, workerID uuid.UUID, to entity.BookingStatus, decidedAt time.Time) (int64, error)

	// MarkViewed flips request-sent to worker-viewed, gated on the
	// booking's confirmation code.
	MarkViewed(db *gorm.DB, id uuid.UUID, confirmationCode string, viewedAt time.Time) (int64, error)

	// TransitionStatus performs a conditional status update with a
	// precondition on the current status set. Returns affected rows.
	TransitionStatus(db *gorm.DB, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus) (int64, error)
}
