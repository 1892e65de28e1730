package repository

import (
	"time"

	"fixit-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderSearchFilter narrows provider listings. Zero values mean "any".
type ProviderSearchFilter struct {
	Service    string
	Location   string
	OnlineOnly bool
}

type ProviderRepository interface {
	Create(db *gorm.DB, provider *entity.Provider) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Provider, error)
	// FindByPhone looks up by normalized phone digits.
	FindByPhone(db *gorm.DB, phone string) (*entity.Provider, error)
	FindAll(db *gorm.DB) ([]entity.Provider, error)
	Search(db *gorm.DB, filter ProviderSearchFilter) ([]entity.Provider, error)

	// SetOnline toggles presence and refreshes last_seen.
	SetOnline(db *gorm.DB, id uuid.UUID, online bool, seenAt time.Time) error
	TouchLastSeen(db *gorm.DB, id uuid.UUID, seenAt time.Time) error
	SetApproved(db *gorm.DB, id uuid.UUID, approved bool) (int64, error)
	SetEmailVerified(db *gorm.DB, email string) (int64, error)
	SetMembershipPaid(db *gorm.DB, id uuid.UUID, paid bool) (int64, error)
}
