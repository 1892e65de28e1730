package handler

import (
	"fmt"
	"net/http"

	"fixit-server/internal/domain/entity"
	"fixit-server/internal/gateway/whatsapp"
	"fixit-server/internal/usecase"

	"github.com/sirupsen/logrus"
)

const helpReply = "Commands: START (go online), STOP (go offline), " +
	"ACCEPT <booking-id>, REJECT <booking-id>. " +
	"ACCEPT or REJECT alone acts on your latest request."

// WebhookHandler is the WhatsApp ingress. Twilio retries on non-2xx, so
// every outcome after signature validation answers 200 with a TwiML
// message; errors become reply text, not status codes.
type WebhookHandler struct {
	bookingUsecase  usecase.BookingUsecase
	providerUsecase usecase.ProviderUsecase
	validator       *whatsapp.WebhookValidator
	log             *logrus.Logger
}

func NewWebhookHandler(
	bookingUsecase usecase.BookingUsecase,
	providerUsecase usecase.ProviderUsecase,
	validator *whatsapp.WebhookValidator,
	log *logrus.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		bookingUsecase:  bookingUsecase,
		providerUsecase: providerUsecase,
		validator:       validator,
		log:             log,
	}
}

func (h *WebhookHandler) HandleWhatsApp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if !h.validator.Validate(r) {
		h.log.Warnf("Rejected webhook with invalid signature from %s", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" {
		writeTwiML(w, helpReply)
		return
	}

	cmd := whatsapp.ParseCommand(body)
	h.log.Infof("Webhook command: kind=%s, has_id=%t", cmd.Kind, cmd.HasBookingID)

	var reply string
	switch cmd.Kind {
	case whatsapp.CommandStart:
		reply = h.handlePresence(r, from, true)
	case whatsapp.CommandStop:
		reply = h.handlePresence(r, from, false)
	case whatsapp.CommandAccept, whatsapp.CommandReject:
		reply = h.handleDecision(r, from, cmd)
	default:
		reply = helpReply
	}

	writeTwiML(w, reply)
}

func (h *WebhookHandler) handlePresence(r *http.Request, from string, online bool) string {
	provider, err := h.providerUsecase.SetPresenceByPhone(r.Context(), from, online)
	if err != nil {
		switch err {
		case usecase.ErrProviderNotRegistered:
			return "This number is not registered as a provider."
		default:
			h.log.Warnf("Failed presence change: %+v", err)
			return "Something went wrong, please try again."
		}
	}

	if online {
		return fmt.Sprintf("Welcome back %s! You are now ONLINE and will receive booking requests.", provider.Name)
	}
	return fmt.Sprintf("%s, you are now OFFLINE. Send START to receive bookings again.", provider.Name)
}

func (h *WebhookHandler) handleDecision(r *http.Request, from string, cmd whatsapp.Command) string {
	booking, err := h.bookingUsecase.ApplyWebhookDecision(r.Context(), from, cmd)
	if err != nil {
		switch err {
		case usecase.ErrProviderNotRegistered:
			return "This number is not registered as a provider."
		case usecase.ErrProviderOffline:
			return "You are OFFLINE. Send START first, then accept or reject the booking."
		case usecase.ErrNoPendingBooking:
			return "No booking is waiting for your decision."
		case usecase.ErrBookingNotOwned:
			return "That booking is not assigned to you."
		case usecase.ErrDecisionAlreadyMade:
			return "A decision was already recorded for this booking."
		default:
			h.log.Warnf("Failed webhook decision: %+v", err)
			return "Something went wrong, please try again."
		}
	}

	if booking.Status == entity.BookingStatusWorkerAccepted {
		return fmt.Sprintf("Accepted! %s at %s. The customer (%s) has been asked to confirm.",
			booking.UserAddress, booking.TimeSlot, booking.UserName)
	}
	return "Rejected. The customer will be informed."
}

func writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(whatsapp.TwiMLReply(message)))
}
