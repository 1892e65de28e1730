package repository

import (
	"errors"
	"time"

	"fixit-server/internal/domain/entity"
	domainRepo "fixit-server/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerRepository struct{}

func NewProviderRepository() domainRepo.ProviderRepository {
	return &providerRepository{}
}

func (r *providerRepository) Create(db *gorm.DB, provider *entity.Provider) error {
	return db.Create(provider).Error
}

func (r *providerRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Provider, error) {
	var provider entity.Provider
	err := db.Where("id = ?", id).First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) FindByPhone(db *gorm.DB, phone string) (*entity.Provider, error) {
	var provider entity.Provider
	err := db.Where("phone = ?", phone).First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) FindAll(db *gorm.DB) ([]entity.Provider, error) {
	var providers []entity.Provider
	err := db.Order("created_at DESC").Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) Search(db *gorm.DB, filter domainRepo.ProviderSearchFilter) ([]entity.Provider, error) {
	query := db.Model(&entity.Provider{}).Where("approved_by_admin = ?", true)

	if filter.Service != "" {
		query = query.Where("service ILIKE ?", "%"+filter.Service+"%")
	}
	if filter.Location != "" {
		query = query.Where("location ILIKE ?", "%"+filter.Location+"%")
	}
	if filter.OnlineOnly {
		query = query.Where("is_online = ?", true)
	}

	var providers []entity.Provider
	err := query.Order("last_seen DESC").Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) SetOnline(db *gorm.DB, id uuid.UUID, online bool, seenAt time.Time) error {
	return db.Model(&entity.Provider{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_online": online,
			"last_seen": seenAt,
		}).Error
}

func (r *providerRepository) TouchLastSeen(db *gorm.DB, id uuid.UUID, seenAt time.Time) error {
	return db.Model(&entity.Provider{}).
		Where("id = ?", id).
		Update("last_seen", seenAt).Error
}

func (r *providerRepository) SetApproved(db *gorm.DB, id uuid.UUID, approved bool) (int64, error) {
	result := db.Model(&entity.Provider{}).
		Where("id = ?", id).
		Update("approved_by_admin", approved)
	return result.RowsAffected, result.Error
}

func (r *providerRepository) SetEmailVerified(db *gorm.DB, email string) (int64, error) {
	result := db.Model(&entity.Provider{}).
		Where("email = ?", email).
		Update("email_verified", true)
	return result.RowsAffected, result.Error
}

func (r *providerRepository) SetMembershipPaid(db *gorm.DB, id uuid.UUID, paid bool) (int64, error) {
	result := db.Model(&entity.Provider{}).
		Where("id = ?", id).
		Update("membership_paid", paid)
	return result.RowsAffected, result.Error
}
