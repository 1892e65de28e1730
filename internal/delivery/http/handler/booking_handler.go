package handler

import (
	"encoding/json"
	"net/http"

	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/delivery/http/middleware"
	"fixit-server/internal/usecase"
	"fixit-server/pkg/response"
	"fixit-server/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// CreateBooking creates a booking and fires the WhatsApp request to the
// worker. The response's "notified" flag tells the client whether the
// message went out.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		switch err {
		case usecase.ErrWorkerNotFound:
			response.NotFound(w, "Worker not found")
		case usecase.ErrWorkerNotApproved:
			response.Error(w, http.StatusUnprocessableEntity, "Worker is not accepting bookings", nil)
		case usecase.ErrNoIssues:
			response.Error(w, http.StatusBadRequest, "Booking needs at least one issue", nil)
		default:
			response.InternalServerError(w, "Failed to create booking")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Booking created", result)
}

// GetMyBookings lists the authenticated user's bookings
func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookings, err := h.bookingUsecase.GetMyBookings(r.Context(), userID)
	if err != nil {
		response.InternalServerError(w, "Failed to list bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

// GetBookingHistory returns the booking's transition trail to its owner
func (h *BookingHandler) GetBookingHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookingID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	events, err := h.bookingUsecase.GetBookingHistory(r.Context(), bookingID, userID)
	if err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrBookingNotOwned:
			response.Forbidden(w, "Not your booking")
		default:
			response.InternalServerError(w, "Failed to load booking history")
		}
		return
	}

	response.Success(w, http.StatusOK, "History retrieved successfully", events)
}

// CancelBooking lets the owner cancel any non-terminal booking
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookingID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.CancelBooking(r.Context(), bookingID, userID)
	if err != nil {
		h.writeLifecycleError(w, err, "Failed to cancel booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled", booking)
}

// ConfirmBooking moves an accepted booking to confirmed
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookingID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.bookingUsecase.ConfirmBooking(r.Context(), bookingID, userID); err != nil {
		h.writeLifecycleError(w, err, "Failed to confirm booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking confirmed", nil)
}

// CompleteBooking marks a confirmed booking as done
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookingID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.bookingUsecase.CompleteBooking(r.Context(), bookingID, userID); err != nil {
		h.writeLifecycleError(w, err, "Failed to complete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking completed", nil)
}

// ViewBooking records that the worker opened the request link. The link is
// public; the confirmation code in the query string is the authorization.
func (h *BookingHandler) ViewBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		response.Error(w, http.StatusBadRequest, "Missing confirmation code", nil)
		return
	}

	if err := h.bookingUsecase.MarkViewed(r.Context(), bookingID, code); err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrInvalidConfirmationCode:
			response.Forbidden(w, "Invalid confirmation code")
		default:
			response.InternalServerError(w, "Failed to record view")
		}
		return
	}

	response.Success(w, http.StatusOK, "View recorded", nil)
}

func (h *BookingHandler) writeLifecycleError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrBookingNotFound:
		response.NotFound(w, "Booking not found")
	case usecase.ErrBookingNotOwned:
		response.Forbidden(w, "Not your booking")
	case usecase.ErrBookingNotCancellable:
		response.Conflict(w, "Booking is already in a final state")
	case usecase.ErrBookingNotAccepted:
		response.Conflict(w, "Booking has not been accepted yet")
	case usecase.ErrBookingNotConfirmed:
		response.Conflict(w, "Booking is not confirmed")
	default:
		response.InternalServerError(w, fallback)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking id", nil)
		return uuid.Nil, false
	}
	return id, true
}
