package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/domain/repository"
	"fixit-server/internal/gateway/whatsapp"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// --- stubs ---

type stubBookingRepo struct {
	repository.BookingRepository

	created          *entity.Booking
	createErr        error
	byID             map[uuid.UUID]*entity.Booking
	byUser           []entity.Booking
	latestAwaiting   *entity.Booking
	decisionRows     int64
	viewedRows       int64
	transitionRows   int64
	lastTransitionTo entity.BookingStatus
}

func (s *stubBookingRepo) Create(db *gorm.DB, booking *entity.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	booking.ID = uuid.New()
	s.created = booking
	return nil
}

func (s *stubBookingRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	return s.byID[id], nil
}

func (s *stubBookingRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error) {
	return s.byUser, nil
}

func (s *stubBookingRepo) FindLatestAwaitingByWorker(db *gorm.DB, workerID uuid.UUID) (*entity.Booking, error) {
	return s.latestAwaiting, nil
}

func (s *stubBookingRepo) ApplyDecision(db *gorm.DB, id, workerID uuid.UUID, to entity.BookingStatus, decidedAt time.Time) (int64, error) {
	s.lastTransitionTo = to
	return s.decisionRows, nil
}

func (s *stubBookingRepo) MarkViewed(db *gorm.DB, id uuid.UUID, code string, viewedAt time.Time) (int64, error) {
	return s.viewedRows, nil
}

func (s *stubBookingRepo) TransitionStatus(db *gorm.DB, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus) (int64, error) {
	s.lastTransitionTo = to
	return s.transitionRows, nil
}

type stubProviderRepo struct {
	repository.ProviderRepository

	byID    map[uuid.UUID]*entity.Provider
	byPhone map[string]*entity.Provider
	touched bool
}

func (s *stubProviderRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Provider, error) {
	return s.byID[id], nil
}

func (s *stubProviderRepo) FindByPhone(db *gorm.DB, phone string) (*entity.Provider, error) {
	return s.byPhone[phone], nil
}

func (s *stubProviderRepo) TouchLastSeen(db *gorm.DB, id uuid.UUID, seenAt time.Time) error {
	s.touched = true
	return nil
}

type stubEventRepo struct {
	repository.BookingEventRepository

	events []entity.BookingEvent
}

func (s *stubEventRepo) Create(db *gorm.DB, event *entity.BookingEvent) error {
	s.events = append(s.events, *event)
	return nil
}

func (s *stubEventRepo) FindByBookingID(db *gorm.DB, bookingID uuid.UUID) ([]entity.BookingEvent, error) {
	return s.events, nil
}

type recordingAuditor struct {
	transitions []entity.BookingStatus
}

func (a *recordingAuditor) RecordTransition(tx *gorm.DB, bookingID uuid.UUID, actor string, from, to entity.BookingStatus, note string, metadata entity.JSON) error {
	a.transitions = append(a.transitions, to)
	return nil
}

type fakeNotifier struct {
	sent []string
	to   []string
	err  error
}

func (f *fakeNotifier) Send(toE164, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.to = append(f.to, toE164)
	f.sent = append(f.sent, body)
	return "SM" + uuid.NewString()[:8], nil
}

type bookingFixture struct {
	uc        BookingUsecase
	bookings  *stubBookingRepo
	providers *stubProviderRepo
	events    *stubEventRepo
	auditor   *recordingAuditor
	notifier  *fakeNotifier
	mock      sqlmock.Sqlmock
}

func newBookingFixture(t *testing.T) *bookingFixture {
	db, mock := newTestDB(t)

	f := &bookingFixture{
		bookings: &stubBookingRepo{byID: map[uuid.UUID]*entity.Booking{}},
		providers: &stubProviderRepo{
			byID:    map[uuid.UUID]*entity.Provider{},
			byPhone: map[string]*entity.Provider{},
		},
		events:   &stubEventRepo{},
		auditor:  &recordingAuditor{},
		notifier: &fakeNotifier{},
		mock:     mock,
	}
	f.uc = NewBookingUsecase(db, newTestLogger(), f.bookings, f.providers, f.events, f.auditor, f.notifier)
	return f
}

func (f *bookingFixture) addProvider(approved, online bool) *entity.Provider {
	p := &entity.Provider{
		ID:              uuid.New(),
		Name:            "Ramesh Kumar",
		Phone:           "919876543210",
		Service:         "plumber",
		ApprovedByAdmin: approved,
		IsOnline:        online,
	}
	f.providers.byID[p.ID] = p
	f.providers.byPhone[p.Phone] = p
	return p
}

func validCreateRequest(workerID uuid.UUID) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		WorkerID:    workerID,
		Issue:       "Leaking kitchen tap",
		Price:       350,
		UserName:    "Anita Sharma",
		UserPhone:   "09812345678",
		UserAddress: "14 MG Road, Pune",
		TimeSlot:    "Tomorrow 10am-12pm",
	}
}

func TestCreateBooking(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(worker.ID))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Notified)
	assert.Equal(t, string(entity.BookingStatusRequestSent), result.Booking.Status)
	assert.Equal(t, 350.0, result.Booking.TotalPrice)
	assert.Equal(t, "919812345678", result.Booking.UserPhone)
	assert.NotEmpty(t, result.Booking.ConfirmationCode)
	require.NotNil(t, f.bookings.created)
	assert.NotNil(t, f.bookings.created.RequestSentAt)

	require.Len(t, f.notifier.to, 1)
	assert.Equal(t, "+919876543210", f.notifier.to[0])
	assert.Contains(t, f.notifier.sent[0], "Leaking kitchen tap")
	assert.Contains(t, f.notifier.sent[0], "ACCEPT")

	require.Len(t, f.auditor.transitions, 1)
	assert.Equal(t, entity.BookingStatusRequestSent, f.auditor.transitions[0])
}

func TestCreateBookingMultipleItems(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)

	req := validCreateRequest(worker.ID)
	req.Issue = ""
	req.Price = 0
	req.Issues = []dto.BookingItemInput{
		{Label: "Fix tap", Price: 350},
		{Label: "Replace pipe", Price: 800},
	}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.uc.CreateBooking(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, 1150.0, result.Booking.TotalPrice)
	assert.Len(t, result.Booking.Items, 2)
}

func TestCreateBookingWorkerNotFound(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(uuid.New()))
	assert.ErrorIs(t, err, ErrWorkerNotFound)
}

func TestCreateBookingWorkerNotApproved(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(false, true)

	_, err := f.uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(worker.ID))
	assert.ErrorIs(t, err, ErrWorkerNotApproved)
}

func TestCreateBookingNoIssues(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)

	req := validCreateRequest(worker.ID)
	req.Issue = "   "
	req.Issues = nil

	_, err := f.uc.CreateBooking(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, ErrNoIssues)
}

func TestCreateBookingSurvivesNotifyFailure(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)
	f.notifier.err = errors.New("twilio unreachable")

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(worker.ID))
	require.NoError(t, err)
	assert.False(t, result.Notified)
	assert.NotNil(t, f.bookings.created)
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture(t)
	userID := uuid.New()
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:     bookingID,
		UserID: userID,
		Status: entity.BookingStatusWorkerAccepted,
	}
	f.bookings.transitionRows = 1

	resp, err := f.uc.CancelBooking(context.Background(), bookingID, userID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusUserCancelled), resp.Status)
	assert.Equal(t, entity.BookingStatusUserCancelled, f.bookings.lastTransitionTo)
}

func TestCancelBookingNotOwned(t *testing.T) {
	f := newBookingFixture(t)
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:     bookingID,
		UserID: uuid.New(),
		Status: entity.BookingStatusRequestSent,
	}

	_, err := f.uc.CancelBooking(context.Background(), bookingID, uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotOwned)
}

func TestCancelBookingAlreadyTerminal(t *testing.T) {
	f := newBookingFixture(t)
	userID := uuid.New()
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:     bookingID,
		UserID: userID,
		Status: entity.BookingStatusCompleted,
	}
	f.bookings.transitionRows = 0

	_, err := f.uc.CancelBooking(context.Background(), bookingID, userID)
	assert.ErrorIs(t, err, ErrBookingNotCancellable)
}

func TestConfirmBookingRequiresAcceptance(t *testing.T) {
	f := newBookingFixture(t)
	userID := uuid.New()
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:     bookingID,
		UserID: userID,
		Status: entity.BookingStatusRequestSent,
	}
	f.bookings.transitionRows = 0

	err := f.uc.ConfirmBooking(context.Background(), bookingID, userID)
	assert.ErrorIs(t, err, ErrBookingNotAccepted)
}

func TestMarkViewedWrongCode(t *testing.T) {
	f := newBookingFixture(t)
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:               bookingID,
		Status:           entity.BookingStatusRequestSent,
		ConfirmationCode: "FX-AAAA1111",
	}
	f.bookings.viewedRows = 0

	err := f.uc.MarkViewed(context.Background(), bookingID, "FX-WRONG")
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)
}

func TestMarkViewedRepeatIsNoop(t *testing.T) {
	f := newBookingFixture(t)
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:               bookingID,
		Status:           entity.BookingStatusWorkerViewed,
		ConfirmationCode: "FX-AAAA1111",
	}
	f.bookings.viewedRows = 0

	err := f.uc.MarkViewed(context.Background(), bookingID, "FX-AAAA1111")
	assert.NoError(t, err)
}

func TestApplyWebhookDecisionAccept(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)
	f.bookings.latestAwaiting = &entity.Booking{
		ID:       uuid.New(),
		WorkerID: worker.ID,
		Status:   entity.BookingStatusRequestSent,
	}
	f.bookings.decisionRows = 1

	booking, err := f.uc.ApplyWebhookDecision(context.Background(), "whatsapp:+919876543210",
		whatsapp.Command{Kind: whatsapp.CommandAccept})
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusWorkerAccepted, booking.Status)
	assert.NotNil(t, booking.DecisionAt)
	assert.True(t, f.providers.touched)
}

func TestApplyWebhookDecisionReject(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)
	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:       bookingID,
		WorkerID: worker.ID,
		Status:   entity.BookingStatusWorkerViewed,
	}
	f.bookings.decisionRows = 1

	booking, err := f.uc.ApplyWebhookDecision(context.Background(), "+919876543210",
		whatsapp.Command{Kind: whatsapp.CommandReject, BookingID: bookingID, HasBookingID: true})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusWorkerRejected, booking.Status)
}

func TestApplyWebhookDecisionUnknownSender(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.uc.ApplyWebhookDecision(context.Background(), "+911111111111",
		whatsapp.Command{Kind: whatsapp.CommandAccept})
	assert.ErrorIs(t, err, ErrProviderNotRegistered)
}

func TestApplyWebhookDecisionOffline(t *testing.T) {
	f := newBookingFixture(t)
	f.addProvider(true, false)

	_, err := f.uc.ApplyWebhookDecision(context.Background(), "919876543210",
		whatsapp.Command{Kind: whatsapp.CommandAccept})
	assert.ErrorIs(t, err, ErrProviderOffline)
}

func TestApplyWebhookDecisionNoPending(t *testing.T) {
	f := newBookingFixture(t)
	f.addProvider(true, true)
	f.bookings.latestAwaiting = nil

	_, err := f.uc.ApplyWebhookDecision(context.Background(), "919876543210",
		whatsapp.Command{Kind: whatsapp.CommandAccept})
	assert.ErrorIs(t, err, ErrNoPendingBooking)
}

func TestApplyWebhookDecisionWrongWorker(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)
	_ = worker

	bookingID := uuid.New()
	f.bookings.byID[bookingID] = &entity.Booking{
		ID:       bookingID,
		WorkerID: uuid.New(), // someone else's booking
		Status:   entity.BookingStatusRequestSent,
	}

	_, err := f.uc.ApplyWebhookDecision(context.Background(), "919876543210",
		whatsapp.Command{Kind: whatsapp.CommandAccept, BookingID: bookingID, HasBookingID: true})
	assert.ErrorIs(t, err, ErrBookingNotOwned)
}

// Two deliveries race; the repository reports zero affected rows for the
// loser and the usecase translates that to a distinct error.
func TestApplyWebhookDecisionAlreadyDecided(t *testing.T) {
	f := newBookingFixture(t)
	worker := f.addProvider(true, true)
	f.bookings.latestAwaiting = &entity.Booking{
		ID:       uuid.New(),
		WorkerID: worker.ID,
		Status:   entity.BookingStatusRequestSent,
	}
	f.bookings.decisionRows = 0

	_, err := f.uc.ApplyWebhookDecision(context.Background(), "919876543210",
		whatsapp.Command{Kind: whatsapp.CommandReject})
	assert.ErrorIs(t, err, ErrDecisionAlreadyMade)
}
