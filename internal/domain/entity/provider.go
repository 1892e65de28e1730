package entity

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a service professional who receives booking requests over
// WhatsApp. Phone is stored normalized (digits with country code) and is
// the webhook identity key.
type Provider struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Email string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`

	Service    string `gorm:"type:varchar(100);not null;index:idx_providers_service_location" json:"service"`
	Experience string `gorm:"type:varchar(100);not null" json:"experience"`
	Location   string `gorm:"type:varchar(255);not null;index:idx_providers_service_location" json:"location"`

	// Cloudinary URLs for verification documents
	PhotoURL   string `gorm:"type:text" json:"photo_url,omitempty"`
	AadhaarURL string `gorm:"type:text" json:"aadhaar_url,omitempty"`
	PancardURL string `gorm:"type:text" json:"pancard_url,omitempty"`

	// IsOnline is toggled by WhatsApp START/STOP commands and gates
	// whether the provider is offered in search and may act on bookings.
	IsOnline        bool      `gorm:"not null;default:false;index" json:"is_online"`
	EmailVerified   bool      `gorm:"not null;default:false" json:"email_verified"`
	MembershipPaid  bool      `gorm:"not null;default:false" json:"membership_paid"`
	ApprovedByAdmin bool      `gorm:"not null;default:false" json:"approved_by_admin"`
	LastSeen        time.Time `gorm:"not null;autoCreateTime" json:"last_seen"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Provider) TableName() string {
	return "providers"
}

// Bookable reports whether the provider may be offered new bookings.
func (p *Provider) Bookable() bool {
	return p.ApprovedByAdmin && p.IsOnline
}
