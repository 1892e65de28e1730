package service

import (
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Auditor records booking lifecycle transitions. Recording is best-effort
// for callers: a failed audit write never blocks the transition itself.
type Auditor interface {
	RecordTransition(tx *gorm.DB, bookingID uuid.UUID, actor string, from, to entity.BookingStatus, note string, metadata entity.JSON) error
}

type auditService struct {
	log       *logrus.Logger
	eventRepo repository.BookingEventRepository
}

func NewAuditService(log *logrus.Logger, eventRepo repository.BookingEventRepository) Auditor {
	return &auditService{
		log:       log,
		eventRepo: eventRepo,
	}
}

func (s *auditService) RecordTransition(tx *gorm.DB, bookingID uuid.UUID, actor string, from, to entity.BookingStatus, note string, metadata entity.JSON) error {
	event := &entity.BookingEvent{
		BookingID:  bookingID,
		Actor:      actor,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		Metadata:   metadata,
	}

	if err := s.eventRepo.Create(tx, event); err != nil {
		s.log.Warnf("Failed to record booking event for %s: %+v", bookingID, err)
		return err
	}

	return nil
}
