package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// RegisterProviderRequest is the multipart form body of provider
// registration; document files arrive alongside these fields.
type RegisterProviderRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,min=10"`
	Service    string `json:"service" validate:"required"`
	Experience string `json:"experience" validate:"required"`
	Location   string `json:"location" validate:"required"`
}

type SearchProvidersRequest struct {
	Service    string
	Location   string
	OnlineOnly bool
}

// Response DTOs

type ProviderResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Service         string    `json:"service"`
	Experience      string    `json:"experience"`
	Location        string    `json:"location"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	IsOnline        bool      `json:"is_online"`
	EmailVerified   bool      `json:"email_verified"`
	MembershipPaid  bool      `json:"membership_paid"`
	ApprovedByAdmin bool      `json:"approved_by_admin"`
	LastSeen        time.Time `json:"last_seen"`
	CreatedAt       time.Time `json:"created_at"`
}

type ProviderListResponse struct {
	Providers []ProviderResponse `json:"providers"`
	Total     int                `json:"total"`
}
