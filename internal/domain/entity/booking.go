package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents where a booking is in its lifecycle
type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "pending"
	BookingStatusRequestSent    BookingStatus = "request-sent"
	BookingStatusWorkerViewed   BookingStatus = "worker-viewed"
	BookingStatusWorkerAccepted BookingStatus = "worker-accepted"
	BookingStatusWorkerRejected BookingStatus = "worker-rejected"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusUserCancelled  BookingStatus = "user-cancelled"
	BookingStatusCompleted      BookingStatus = "completed"
	BookingStatusClosed         BookingStatus = "closed"
)

// PaymentStatus is tracked separately from the booking lifecycle
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "Unpaid"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusRefunded PaymentStatus = "Refunded"
	PaymentStatusPartial  PaymentStatus = "Partial"
)

// Booking links a customer to a provider for a requested service.
// Party names and phones are denormalized at creation time so the record
// stays readable even if the referenced accounts change later.
type Booking struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	WorkerID uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_worker_status" json:"worker_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	WorkerName  string `gorm:"type:varchar(255);not null" json:"worker_name"`
	WorkerPhone string `gorm:"type:varchar(20);not null" json:"worker_phone"`
	UserName    string `gorm:"type:varchar(255);not null" json:"user_name"`
	UserPhone   string `gorm:"type:varchar(20);not null" json:"user_phone"`
	UserAddress string `gorm:"type:text;not null" json:"user_address"`

	// TimeSlot is display text chosen by the customer, not a validated datetime.
	TimeSlot string `gorm:"type:varchar(100);not null" json:"time_slot"`

	Items      []BookingItem `gorm:"foreignKey:BookingID" json:"items,omitempty"`
	TotalPrice float64       `gorm:"type:numeric(12,2);not null" json:"total_price"`

	Status           BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_bookings_worker_status" json:"status"`
	ConfirmationCode string        `gorm:"type:varchar(50);not null" json:"confirmation_code"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(10);not null;default:'Unpaid'" json:"payment_status"`

	RequestSentAt  *time.Time `json:"request_sent_at,omitempty"`
	WorkerViewedAt *time.Time `json:"worker_viewed_at,omitempty"`
	DecisionAt     *time.Time `json:"decision_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Worker *Provider `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BookingItem is one line of work requested on a booking. A single-issue
// booking is a list of length one.
type BookingItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	Label     string    `gorm:"type:varchar(255);not null" json:"label"`
	Price     float64   `gorm:"type:numeric(12,2);not null" json:"price"`
}

func (BookingItem) TableName() string {
	return "booking_items"
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusUserCancelled, BookingStatusCompleted, BookingStatusClosed:
		return true
	}
	return false
}

// AwaitingDecision reports whether the assigned provider may still
// accept or reject the booking.
func (s BookingStatus) AwaitingDecision() bool {
	return s == BookingStatusRequestSent || s == BookingStatusWorkerViewed
}

func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

func (b *Booking) AwaitingDecision() bool {
	return b.Status.AwaitingDecision()
}

// DecisionStatuses are the states a webhook decision may move a booking from.
func DecisionStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusRequestSent, BookingStatusWorkerViewed}
}

// CancellableStatuses are every non-terminal state: the owner may cancel
// until the job is completed or closed.
func CancellableStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusRequestSent,
		BookingStatusWorkerViewed,
		BookingStatusWorkerAccepted,
		BookingStatusWorkerRejected,
		BookingStatusConfirmed,
	}
}
