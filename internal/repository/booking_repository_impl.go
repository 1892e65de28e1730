package repository

import (
	"errors"
	"time"

	"fixit-server/internal/domain/entity"
	domainRepo "fixit-server/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(db *gorm.DB, booking *entity.Booking) error {
	return db.Create(booking).Error
}

func (r *bookingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Preload("Items").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByWorkerID(db *gorm.DB, workerID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("Items").
		Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindLatestAwaitingByWorker(db *gorm.DB, workerID uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Where("worker_id = ? AND status IN ?", workerID, entity.DecisionStatuses()).
		Order("created_at DESC").
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// ApplyDecision relies on a single conditional UPDATE so that of two
// concurrent webhook deliveries exactly one observes RowsAffected == 1.
func (r *bookingRepository) ApplyDecision(db *gorm.DB, id, workerID uuid.UUID, to entity.BookingStatus, decidedAt time.Time) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND worker_id = ? AND status IN ?", id, workerID, entity.DecisionStatuses()).
		Updates(map[string]interface{}{
			"status":      to,
			"decision_at": decidedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) MarkViewed(db *gorm.DB, id uuid.UUID, confirmationCode string, viewedAt time.Time) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND confirmation_code = ? AND status = ?", id, confirmationCode, entity.BookingStatusRequestSent).
		Updates(map[string]interface{}{
			"status":           entity.BookingStatusWorkerViewed,
			"worker_viewed_at": viewedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) TransitionStatus(db *gorm.DB, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
