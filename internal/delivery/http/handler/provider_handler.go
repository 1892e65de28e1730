package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/service"
	"fixit-server/internal/usecase"
	"fixit-server/pkg/response"
	"fixit-server/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxRegisterFormSize bounds the multipart registration upload (photo plus
// two id documents).
const maxRegisterFormSize = 20 << 20

type ProviderHandler struct {
	providerUsecase usecase.ProviderUsecase
	validator       *validator.CustomValidator
}

func NewProviderHandler(providerUsecase usecase.ProviderUsecase, validator *validator.CustomValidator) *ProviderHandler {
	return &ProviderHandler{
		providerUsecase: providerUsecase,
		validator:       validator,
	}
}

// Register handles provider onboarding: a multipart form with profile
// fields plus photo, aadhaar and pancard files.
func (h *ProviderHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRegisterFormSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", nil)
		return
	}

	req := dto.RegisterProviderRequest{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		Service:    r.FormValue("service"),
		Experience: r.FormValue("experience"),
		Location:   r.FormValue("location"),
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	files := &usecase.RegisterProviderFiles{}
	var closers []multipart.File

	if f, ok := openFormFile(r, "photo"); ok {
		files.Photo = f
		closers = append(closers, f)
	}
	if f, ok := openFormFile(r, "aadhaar"); ok {
		files.Aadhaar = f
		closers = append(closers, f)
	}
	if f, ok := openFormFile(r, "pancard"); ok {
		files.Pancard = f
		closers = append(closers, f)
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	provider, err := h.providerUsecase.Register(r.Context(), &req, files)
	if err != nil {
		switch err {
		case usecase.ErrPhoneAlreadyRegistered:
			response.Conflict(w, "Phone number already registered")
		default:
			response.InternalServerError(w, "Failed to register provider")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Provider registered, verification code sent", provider)
}

// VerifyEmail redeems the emailed verification code
func (h *ProviderHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.providerUsecase.VerifyEmail(r.Context(), &req); err != nil {
		switch err {
		case service.ErrOTPNotFound, service.ErrOTPMismatch:
			response.Error(w, http.StatusBadRequest, "Invalid or expired code", nil)
		case usecase.ErrEmailNotVerifiable:
			response.NotFound(w, "No provider registered with this email")
		default:
			response.InternalServerError(w, "Failed to verify email")
		}
		return
	}

	response.Success(w, http.StatusOK, "Email verified", nil)
}

// ResendOTP mails a fresh verification code
func (h *ProviderHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.providerUsecase.ResendVerificationOTP(r.Context(), &req); err != nil {
		response.InternalServerError(w, "Failed to send verification code")
		return
	}

	response.Success(w, http.StatusOK, "Verification code sent", nil)
}

// Search lists approved providers, optionally filtered by service,
// location and online presence.
func (h *ProviderHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.SearchProvidersRequest{
		Service:    q.Get("service"),
		Location:   q.Get("location"),
		OnlineOnly: q.Get("online") == "true",
	}

	providers, err := h.providerUsecase.Search(r.Context(), &req)
	if err != nil {
		response.InternalServerError(w, "Failed to search providers")
		return
	}

	response.Success(w, http.StatusOK, "Providers retrieved successfully", providers)
}

// GetProvider returns one provider's public profile
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider id", nil)
		return
	}

	provider, err := h.providerUsecase.GetByID(r.Context(), id)
	if err != nil {
		switch err {
		case usecase.ErrProviderNotFound:
			response.NotFound(w, "Provider not found")
		default:
			response.InternalServerError(w, "Failed to get provider")
		}
		return
	}

	response.Success(w, http.StatusOK, "Provider retrieved successfully", provider)
}

func openFormFile(r *http.Request, field string) (multipart.File, bool) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, false
	}
	return file, true
}
