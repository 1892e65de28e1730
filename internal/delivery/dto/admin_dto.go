package dto

// Request DTOs

type AdminRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	// Secret must match the configured admin bootstrap secret.
	Secret string `json:"secret" validate:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminVerifyOTPRequest struct {
	TempToken string `json:"temp_token" validate:"required"`
	OTP       string `json:"otp" validate:"required,len=6"`
}

type CloseBookingRequest struct {
	Note string `json:"note"`
}

// Response DTOs

type AdminLoginResponse struct {
	// TempToken is only good for the OTP verification exchange.
	TempToken string `json:"temp_token"`
}
