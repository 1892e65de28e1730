package repository

import (
	"fixit-server/internal/domain/entity"
	domainRepo "fixit-server/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingEventRepository struct{}

func NewBookingEventRepository() domainRepo.BookingEventRepository {
	return &bookingEventRepository{}
}

func (r *bookingEventRepository) Create(db *gorm.DB, event *entity.BookingEvent) error {
	return db.Create(event).Error
}

func (r *bookingEventRepository) FindByBookingID(db *gorm.DB, bookingID uuid.UUID) ([]entity.BookingEvent, error) {
	var events []entity.BookingEvent
	err := db.Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
