package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookingItemInput struct {
	Label string  `json:"label" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// CreateBookingRequest accepts either the single-issue form (Issue+Price)
// or a list of line items; the single form becomes a list of length one.
// Worker display fields are denormalized from the provider record, not
// trusted from the client.
type CreateBookingRequest struct {
	WorkerID uuid.UUID `json:"worker_id" validate:"required"`

	Issue  string             `json:"issue"`
	Price  float64            `json:"price" validate:"gte=0"`
	Issues []BookingItemInput `json:"issues" validate:"dive"`

	UserName    string `json:"user_name" validate:"required"`
	UserPhone   string `json:"user_phone" validate:"required,min=10"`
	UserAddress string `json:"user_address" validate:"required"`
	TimeSlot    string `json:"time_slot" validate:"required"`
}

// Response DTOs

type BookingItemResponse struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

type BookingResponse struct {
	ID               uuid.UUID             `json:"id"`
	WorkerID         uuid.UUID             `json:"worker_id"`
	UserID           uuid.UUID             `json:"user_id"`
	WorkerName       string                `json:"worker_name"`
	WorkerPhone      string                `json:"worker_phone"`
	UserName         string                `json:"user_name"`
	UserPhone        string                `json:"user_phone"`
	UserAddress      string                `json:"user_address"`
	TimeSlot         string                `json:"time_slot"`
	Items            []BookingItemResponse `json:"items"`
	TotalPrice       float64               `json:"total_price"`
	Status           string                `json:"status"`
	ConfirmationCode string                `json:"confirmation_code,omitempty"`
	PaymentStatus    string                `json:"payment_status"`
	RequestSentAt    *time.Time            `json:"request_sent_at,omitempty"`
	WorkerViewedAt   *time.Time            `json:"worker_viewed_at,omitempty"`
	DecisionAt       *time.Time            `json:"decision_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// CreateBookingResult carries the advisory notification outcome next to
// the booking: creation can succeed while the provider notification fails.
type CreateBookingResult struct {
	Booking  *BookingResponse `json:"booking"`
	Notified bool             `json:"notified"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

type BookingEventResponse struct {
	Actor      string    `json:"actor"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
