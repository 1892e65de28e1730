package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"fixit-server/internal/converter"
	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/domain/repository"
	"fixit-server/internal/gateway/whatsapp"
	"fixit-server/internal/service"
	"fixit-server/pkg/phone"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrBookingNotOwned         = errors.New("booking does not belong to you")
	ErrBookingNotCancellable   = errors.New("booking is already in a terminal state")
	ErrBookingNotAccepted      = errors.New("booking has not been accepted by the worker")
	ErrBookingNotConfirmed     = errors.New("booking is not confirmed")
	ErrWorkerNotFound          = errors.New("worker not found")
	ErrWorkerNotApproved       = errors.New("worker is not approved for bookings")
	ErrNoIssues                = errors.New("booking needs at least one issue")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")

	ErrProviderNotRegistered = errors.New("phone number is not a registered provider")
	ErrProviderOffline       = errors.New("provider is offline")
	ErrNoPendingBooking      = errors.New("no booking awaiting a decision")
	ErrDecisionAlreadyMade   = errors.New("booking decision was already made")
)

// Notifier sends advisory WhatsApp messages; failures never block the
// booking mutation that triggered them.
type Notifier interface {
	Send(toE164, body string) (string, error)
}

type BookingUsecase interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *dto.CreateBookingRequest) (*dto.CreateBookingResult, error)
	GetMyBookings(ctx context.Context, userID uuid.UUID) (*dto.BookingListResponse, error)
	GetBookingHistory(ctx context.Context, bookingID, userID uuid.UUID) ([]dto.BookingEventResponse, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*dto.BookingResponse, error)
	ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) error
	CompleteBooking(ctx context.Context, bookingID, userID uuid.UUID) error
	MarkViewed(ctx context.Context, bookingID uuid.UUID, confirmationCode string) error
	CloseBooking(ctx context.Context, bookingID, adminID uuid.UUID, note string) error

	// ApplyWebhookDecision handles an ACCEPT/REJECT command from the
	// webhook ingress. The command's booking id is optional; without it
	// the provider's most recent outstanding request is targeted.
	ApplyWebhookDecision(ctx context.Context, fromPhone string, cmd whatsapp.Command) (*entity.Booking, error)
}

type bookingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	providerRepo repository.ProviderRepository
	eventRepo    repository.BookingEventRepository
	auditor      service.Auditor
	notifier     Notifier
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	providerRepo repository.ProviderRepository,
	eventRepo repository.BookingEventRepository,
	auditor service.Auditor,
	notifier Notifier,
) BookingUsecase {
	return &bookingUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		providerRepo: providerRepo,
		eventRepo:    eventRepo,
		auditor:      auditor,
		notifier:     notifier,
	}
}

// CreateBooking persists the booking and then attempts the provider
// notification. The two outcomes are independent: a failed send is
// reported in the result, never rolled into the creation.
func (u *bookingUsecase) CreateBooking(ctx context.Context, userID uuid.UUID, req *dto.CreateBookingRequest) (*dto.CreateBookingResult, error) {
	worker, err := u.providerRepo.FindByID(u.db.WithContext(ctx), req.WorkerID)
	if err != nil {
		u.log.Warnf("Failed to find worker %s: %+v", req.WorkerID, err)
		return nil, err
	}
	if worker == nil {
		return nil, ErrWorkerNotFound
	}
	if !worker.ApprovedByAdmin {
		return nil, ErrWorkerNotApproved
	}

	items, total, err := normalizeItems(req)
	if err != nil {
		return nil, err
	}

	code, err := generateConfirmationCode()
	if err != nil {
		u.log.Errorf("Failed to generate confirmation code: %+v", err)
		return nil, err
	}

	now := time.Now().UTC()
	booking := &entity.Booking{
		WorkerID:         worker.ID,
		UserID:           userID,
		WorkerName:       worker.Name,
		WorkerPhone:      worker.Phone,
		UserName:         req.UserName,
		UserPhone:        phone.Normalize(req.UserPhone),
		UserAddress:      req.UserAddress,
		TimeSlot:         req.TimeSlot,
		Items:            items,
		TotalPrice:       total,
		Status:           entity.BookingStatusRequestSent,
		ConfirmationCode: code,
		PaymentStatus:    entity.PaymentStatusUnpaid,
		RequestSentAt:    &now,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.bookingRepo.Create(tx, booking); err != nil {
		u.log.Errorf("Failed to insert booking: %+v", err)
		return nil, err
	}

	u.auditor.RecordTransition(tx, booking.ID, actorUser(userID),
		entity.BookingStatusPending, entity.BookingStatusRequestSent,
		"booking created", entity.JSON{"time_slot": req.TimeSlot})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	notified := u.notifyWorker(worker, requestMessage(booking))

	u.log.Infof("Booking created: id=%s, worker=%s, notified=%t", booking.ID, worker.ID, notified)
	return &dto.CreateBookingResult{
		Booking:  converter.BookingToResponse(booking),
		Notified: notified,
	}, nil
}

func (u *bookingUsecase) GetMyBookings(ctx context.Context, userID uuid.UUID) (*dto.BookingListResponse, error) {
	bookings, err := u.bookingRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find bookings for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

func (u *bookingUsecase) GetBookingHistory(ctx context.Context, bookingID, userID uuid.UUID) ([]dto.BookingEventResponse, error) {
	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, ErrBookingNotOwned
	}

	events, err := u.eventRepo.FindByBookingID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to load events for booking %s: %+v", bookingID, err)
		return nil, err
	}
	return converter.BookingEventsToResponses(events), nil
}

// CancelBooking moves any non-terminal booking to user-cancelled. Only the
// owning user may cancel; the ownership failure is distinct from not-found.
func (u *bookingUsecase) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, ErrBookingNotOwned
	}

	rows, err := u.bookingRepo.TransitionStatus(u.db.WithContext(ctx), bookingID,
		entity.CancellableStatuses(), entity.BookingStatusUserCancelled)
	if err != nil {
		u.log.Warnf("Failed to cancel booking %s: %+v", bookingID, err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrBookingNotCancellable
	}

	u.auditor.RecordTransition(u.db.WithContext(ctx), bookingID, actorUser(userID),
		booking.Status, entity.BookingStatusUserCancelled, "cancelled by customer", nil)

	if worker, err := u.providerRepo.FindByID(u.db.WithContext(ctx), booking.WorkerID); err == nil && worker != nil {
		u.notifyWorker(worker, fmt.Sprintf("Booking %s was cancelled by the customer.", shortID(booking.ID)))
	}

	booking.Status = entity.BookingStatusUserCancelled
	u.log.Infof("Booking cancelled: id=%s", bookingID)
	return converter.BookingToResponse(booking), nil
}

func (u *bookingUsecase) ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) error {
	return u.ownerTransition(ctx, bookingID, userID,
		[]entity.BookingStatus{entity.BookingStatusWorkerAccepted},
		entity.BookingStatusConfirmed, ErrBookingNotAccepted, "confirmed by customer")
}

func (u *bookingUsecase) CompleteBooking(ctx context.Context, bookingID, userID uuid.UUID) error {
	return u.ownerTransition(ctx, bookingID, userID,
		[]entity.BookingStatus{entity.BookingStatusConfirmed},
		entity.BookingStatusCompleted, ErrBookingNotConfirmed, "service completed")
}

func (u *bookingUsecase) ownerTransition(ctx context.Context, bookingID, userID uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus, precondErr error, note string) error {
	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if booking.UserID != userID {
		return ErrBookingNotOwned
	}

	rows, err := u.bookingRepo.TransitionStatus(u.db.WithContext(ctx), bookingID, from, to)
	if err != nil {
		u.log.Warnf("Failed transition of booking %s to %s: %+v", bookingID, to, err)
		return err
	}
	if rows == 0 {
		return precondErr
	}

	u.auditor.RecordTransition(u.db.WithContext(ctx), bookingID, actorUser(userID),
		booking.Status, to, note, nil)

	u.log.Infof("Booking %s: %s -> %s", bookingID, booking.Status, to)
	return nil
}

// MarkViewed records that the worker opened the request link. Repeat calls
// after the first view (or after a decision) are harmless no-ops.
func (u *bookingUsecase) MarkViewed(ctx context.Context, bookingID uuid.UUID, confirmationCode string) error {
	rows, err := u.bookingRepo.MarkViewed(u.db.WithContext(ctx), bookingID, confirmationCode, time.Now().UTC())
	if err != nil {
		u.log.Warnf("Failed to mark booking %s viewed: %+v", bookingID, err)
		return err
	}
	if rows > 0 {
		u.auditor.RecordTransition(u.db.WithContext(ctx), bookingID, "system",
			entity.BookingStatusRequestSent, entity.BookingStatusWorkerViewed, "request link opened", nil)
		return nil
	}

	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if booking.ConfirmationCode != confirmationCode {
		return ErrInvalidConfirmationCode
	}
	return nil
}

func (u *bookingUsecase) CloseBooking(ctx context.Context, bookingID, adminID uuid.UUID, note string) error {
	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	rows, err := u.bookingRepo.TransitionStatus(u.db.WithContext(ctx), bookingID,
		entity.CancellableStatuses(), entity.BookingStatusClosed)
	if err != nil {
		u.log.Warnf("Failed to close booking %s: %+v", bookingID, err)
		return err
	}
	if rows == 0 {
		return ErrBookingNotCancellable
	}

	u.auditor.RecordTransition(u.db.WithContext(ctx), bookingID, actorAdmin(adminID),
		booking.Status, entity.BookingStatusClosed, note, nil)

	u.log.Infof("Booking closed by admin: id=%s", bookingID)
	return nil
}

// ApplyWebhookDecision resolves the sender to a provider and applies the
// decision with a status precondition, so of two racing deliveries exactly
// one wins; the loser gets ErrDecisionAlreadyMade.
func (u *bookingUsecase) ApplyWebhookDecision(ctx context.Context, fromPhone string, cmd whatsapp.Command) (*entity.Booking, error) {
	provider, err := u.providerRepo.FindByPhone(u.db.WithContext(ctx), phone.Normalize(fromPhone))
	if err != nil {
		u.log.Warnf("Failed provider lookup for webhook sender: %+v", err)
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotRegistered
	}

	if err := u.providerRepo.TouchLastSeen(u.db.WithContext(ctx), provider.ID, time.Now().UTC()); err != nil {
		u.log.Warnf("Failed to touch last_seen for provider %s: %+v", provider.ID, err)
	}

	if !provider.IsOnline {
		return nil, ErrProviderOffline
	}

	var booking *entity.Booking
	if cmd.HasBookingID {
		booking, err = u.bookingRepo.FindByID(u.db.WithContext(ctx), cmd.BookingID)
	} else {
		booking, err = u.bookingRepo.FindLatestAwaitingByWorker(u.db.WithContext(ctx), provider.ID)
	}
	if err != nil {
		u.log.Warnf("Failed booking lookup for provider %s: %+v", provider.ID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrNoPendingBooking
	}
	if booking.WorkerID != provider.ID {
		return nil, ErrBookingNotOwned
	}

	to := entity.BookingStatusWorkerAccepted
	if cmd.Kind == whatsapp.CommandReject {
		to = entity.BookingStatusWorkerRejected
	}

	now := time.Now().UTC()
	rows, err := u.bookingRepo.ApplyDecision(u.db.WithContext(ctx), booking.ID, provider.ID, to, now)
	if err != nil {
		u.log.Warnf("Failed to apply decision on booking %s: %+v", booking.ID, err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrDecisionAlreadyMade
	}

	u.auditor.RecordTransition(u.db.WithContext(ctx), booking.ID, actorProvider(provider.ID),
		booking.Status, to, "decision via whatsapp", entity.JSON{"command": string(cmd.Kind)})

	booking.Status = to
	booking.DecisionAt = &now
	u.log.Infof("Booking %s: worker %s -> %s", booking.ID, provider.ID, to)
	return booking, nil
}

// notifyWorker sends a best-effort WhatsApp message; failure only flips
// the returned flag.
func (u *bookingUsecase) notifyWorker(worker *entity.Provider, body string) bool {
	to := phone.ToE164(worker.Phone)
	if to == "" {
		u.log.Warnf("Worker %s has no valid phone for notification", worker.ID)
		return false
	}
	if _, err := u.notifier.Send(to, body); err != nil {
		u.log.Warnf("Failed to notify worker %s: %+v", worker.ID, err)
		return false
	}
	return true
}

func normalizeItems(req *dto.CreateBookingRequest) ([]entity.BookingItem, float64, error) {
	var items []entity.BookingItem
	if len(req.Issues) > 0 {
		for _, in := range req.Issues {
			items = append(items, entity.BookingItem{Label: in.Label, Price: in.Price})
		}
	} else if strings.TrimSpace(req.Issue) != "" {
		items = append(items, entity.BookingItem{Label: req.Issue, Price: req.Price})
	}
	if len(items) == 0 {
		return nil, 0, ErrNoIssues
	}

	var total float64
	for _, item := range items {
		total += item.Price
	}
	return items, total, nil
}

func requestMessage(booking *entity.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New booking request %s\n", shortID(booking.ID))
	for _, item := range booking.Items {
		fmt.Fprintf(&b, "- %s (₹%.0f)\n", item.Label, item.Price)
	}
	fmt.Fprintf(&b, "When: %s\n", booking.TimeSlot)
	fmt.Fprintf(&b, "Where: %s\n", booking.UserAddress)
	fmt.Fprintf(&b, "Customer: %s\n\n", booking.UserName)
	fmt.Fprintf(&b, "Reply ACCEPT %s or REJECT %s", booking.ID, booking.ID)
	return b.String()
}

// generateConfirmationCode returns a short random token used to authorize
// link-based actions on the booking.
func generateConfirmationCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("FX-%08X", buf), nil
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func actorUser(id uuid.UUID) string     { return "user:" + id.String() }
func actorProvider(id uuid.UUID) string { return "provider:" + id.String() }
func actorAdmin(id uuid.UUID) string    { return "admin:" + id.String() }
