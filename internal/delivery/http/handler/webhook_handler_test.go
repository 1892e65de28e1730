package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fixit-server/config"
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/gateway/whatsapp"
	"fixit-server/internal/usecase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookingUsecase struct {
	usecase.BookingUsecase

	decisionBooking *entity.Booking
	decisionErr     error
	gotCmd          whatsapp.Command
	gotFrom         string
}

func (s *stubBookingUsecase) ApplyWebhookDecision(ctx context.Context, fromPhone string, cmd whatsapp.Command) (*entity.Booking, error) {
	s.gotFrom = fromPhone
	s.gotCmd = cmd
	return s.decisionBooking, s.decisionErr
}

type stubProviderUsecase struct {
	usecase.ProviderUsecase

	provider    *entity.Provider
	presenceErr error
	gotOnline   bool
}

func (s *stubProviderUsecase) SetPresenceByPhone(ctx context.Context, fromPhone string, online bool) (*entity.Provider, error) {
	s.gotOnline = online
	return s.provider, s.presenceErr
}

func newWebhookFixture() (*WebhookHandler, *stubBookingUsecase, *stubProviderUsecase) {
	bookings := &stubBookingUsecase{}
	providers := &stubProviderUsecase{}

	log := logrus.New()
	log.SetOutput(io.Discard)

	// signature validation off: sandbox mode
	validator := whatsapp.NewWebhookValidator(config.TwilioConfig{ValidateWebhook: false}, "")

	return NewWebhookHandler(bookings, providers, validator, log), bookings, providers
}

func postWebhook(t *testing.T, h *WebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/providers/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleWhatsApp(rec, req)
	return rec
}

func TestWebhookAccept(t *testing.T) {
	h, bookings, _ := newWebhookFixture()
	bookings.decisionBooking = &entity.Booking{
		ID:          uuid.New(),
		Status:      entity.BookingStatusWorkerAccepted,
		UserName:    "Anita Sharma",
		UserAddress: "14 MG Road, Pune",
		TimeSlot:    "Tomorrow 10am",
	}

	rec := postWebhook(t, h, url.Values{
		"From": {"whatsapp:+919876543210"},
		"Body": {"ACCEPT"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response><Message>")
	assert.Contains(t, rec.Body.String(), "Accepted!")
	assert.Equal(t, "whatsapp:+919876543210", bookings.gotFrom)
	assert.Equal(t, whatsapp.CommandAccept, bookings.gotCmd.Kind)
}

func TestWebhookRejectWithBookingID(t *testing.T) {
	h, bookings, _ := newWebhookFixture()
	bookingID := uuid.New()
	bookings.decisionBooking = &entity.Booking{
		ID:     bookingID,
		Status: entity.BookingStatusWorkerRejected,
	}

	rec := postWebhook(t, h, url.Values{
		"From": {"whatsapp:+919876543210"},
		"Body": {"reject " + bookingID.String()},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rejected")
	assert.True(t, bookings.gotCmd.HasBookingID)
	assert.Equal(t, bookingID, bookings.gotCmd.BookingID)
}

func TestWebhookStart(t *testing.T) {
	h, _, providers := newWebhookFixture()
	providers.provider = &entity.Provider{Name: "Ramesh Kumar", IsOnline: true}

	rec := postWebhook(t, h, url.Values{
		"From": {"whatsapp:+919876543210"},
		"Body": {"START"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ONLINE")
	assert.True(t, providers.gotOnline)
}

func TestWebhookStopAcceptsLeaveAlias(t *testing.T) {
	h, _, providers := newWebhookFixture()
	providers.provider = &entity.Provider{Name: "Ramesh Kumar"}

	rec := postWebhook(t, h, url.Values{
		"From": {"whatsapp:+919876543210"},
		"Body": {"leave"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OFFLINE")
	assert.False(t, providers.gotOnline)
}

// Errors surface as reply text, never as HTTP errors: Twilio would retry
// a 5xx and the provider would see nothing.
func TestWebhookErrorsStillAnswer200(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		reply string
	}{
		{"unregistered", usecase.ErrProviderNotRegistered, "not registered"},
		{"offline", usecase.ErrProviderOffline, "OFFLINE"},
		{"no pending", usecase.ErrNoPendingBooking, "No booking"},
		{"already decided", usecase.ErrDecisionAlreadyMade, "already recorded"},
		{"wrong worker", usecase.ErrBookingNotOwned, "not assigned to you"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, bookings, _ := newWebhookFixture()
			bookings.decisionErr = tc.err

			rec := postWebhook(t, h, url.Values{
				"From": {"whatsapp:+919876543210"},
				"Body": {"ACCEPT"},
			})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.reply)
		})
	}
}

func TestWebhookUnknownCommandGetsHelp(t *testing.T) {
	h, bookings, _ := newWebhookFixture()

	rec := postWebhook(t, h, url.Values{
		"From": {"whatsapp:+919876543210"},
		"Body": {"hello there"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Commands:")
	// no decision was attempted
	assert.Empty(t, bookings.gotFrom)
}

func TestWebhookRequiresValidSignatureWhenEnabled(t *testing.T) {
	bookings := &stubBookingUsecase{}
	providers := &stubProviderUsecase{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	validator := whatsapp.NewWebhookValidator(config.TwilioConfig{
		AuthToken:       "secret-token",
		ValidateWebhook: true,
	}, "https://example.com")

	h := NewWebhookHandler(bookings, providers, validator, log)

	rec := postWebhook(t, h, url.Values{
		"From": {"whatsapp:+919876543210"},
		"Body": {"ACCEPT"},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
