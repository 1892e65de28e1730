package handler

import (
	"encoding/json"
	"net/http"

	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/delivery/http/middleware"
	"fixit-server/internal/service"
	"fixit-server/internal/usecase"
	"fixit-server/pkg/response"
	"fixit-server/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AdminHandler struct {
	adminUsecase   usecase.AdminUsecase
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewAdminHandler(adminUsecase usecase.AdminUsecase, bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *AdminHandler {
	return &AdminHandler{
		adminUsecase:   adminUsecase,
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// Register creates an admin account, gated by the bootstrap secret
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.adminUsecase.Register(r.Context(), &req); err != nil {
		switch err {
		case usecase.ErrInvalidAdminSecret:
			response.Forbidden(w, "Invalid registration secret")
		case usecase.ErrEmailAlreadyExists:
			response.Conflict(w, "Email already exists")
		default:
			response.InternalServerError(w, "Failed to register admin")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Admin registered", nil)
}

// Login is step one of the two-step admin login: password check, then an
// OTP is mailed and a temp token returned.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.adminUsecase.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidCredentials:
			response.Unauthorized(w, "Invalid email or password")
		default:
			response.InternalServerError(w, "Failed to login")
		}
		return
	}

	response.Success(w, http.StatusOK, "OTP sent to email", result)
}

// VerifyOTP is step two: temp token plus emailed code for real tokens
func (h *AdminHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminVerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	tokens, err := h.adminUsecase.VerifyOTP(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidToken:
			response.Unauthorized(w, "Invalid or expired temp token")
		case service.ErrOTPNotFound, service.ErrOTPMismatch:
			response.Error(w, http.StatusBadRequest, "Invalid or expired code", nil)
		case usecase.ErrAdminNotFound:
			response.NotFound(w, "Admin not found")
		default:
			response.InternalServerError(w, "Failed to verify OTP")
		}
		return
	}

	response.Success(w, http.StatusOK, "Login successful", tokens)
}

// ListProviders returns every provider, including unapproved ones
func (h *AdminHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.adminUsecase.ListProviders(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list providers")
		return
	}

	response.Success(w, http.StatusOK, "Providers retrieved successfully", providers)
}

// ApproveProvider sets or clears the approval flag
func (h *AdminHandler) ApproveProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := parseProviderIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Approved bool `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.adminUsecase.ApproveProvider(r.Context(), providerID, req.Approved); err != nil {
		switch err {
		case usecase.ErrProviderNotFound:
			response.NotFound(w, "Provider not found")
		default:
			response.InternalServerError(w, "Failed to update approval")
		}
		return
	}

	response.Success(w, http.StatusOK, "Provider approval updated", nil)
}

// SetMembership flips the provider's membership-paid flag
func (h *AdminHandler) SetMembership(w http.ResponseWriter, r *http.Request) {
	providerID, ok := parseProviderIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Paid bool `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.adminUsecase.SetMembershipPaid(r.Context(), providerID, req.Paid); err != nil {
		switch err {
		case usecase.ErrProviderNotFound:
			response.NotFound(w, "Provider not found")
		default:
			response.InternalServerError(w, "Failed to update membership")
		}
		return
	}

	response.Success(w, http.StatusOK, "Provider membership updated", nil)
}

// CloseBooking administratively closes a booking
func (h *AdminHandler) CloseBooking(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookingID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req dto.CloseBookingRequest
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.bookingUsecase.CloseBooking(r.Context(), bookingID, adminID, req.Note); err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrBookingNotCancellable:
			response.Conflict(w, "Booking is already in a final state")
		default:
			response.InternalServerError(w, "Failed to close booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking closed", nil)
}

func parseProviderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider id", nil)
		return uuid.Nil, false
	}
	return id, true
}
