package http

import (
	"net/http"

	"fixit-server/internal/delivery/http/handler"
	"fixit-server/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router          *mux.Router
	authHandler     *handler.AuthHandler
	bookingHandler  *handler.BookingHandler
	providerHandler *handler.ProviderHandler
	adminHandler    *handler.AdminHandler
	webhookHandler  *handler.WebhookHandler
	authMiddleware  *middleware.AuthMiddleware
	corsMiddleware  *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	bookingHandler *handler.BookingHandler,
	providerHandler *handler.ProviderHandler,
	adminHandler *handler.AdminHandler,
	webhookHandler *handler.WebhookHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		authHandler:     authHandler,
		bookingHandler:  bookingHandler,
		providerHandler: providerHandler,
		adminHandler:    adminHandler,
		webhookHandler:  webhookHandler,
		authMiddleware:  authMiddleware,
		corsMiddleware:  corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	api := r.router.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// WhatsApp ingress (Twilio-signed, not JWT-authenticated). The second
	// path is a legacy alias still configured on some Twilio numbers.
	api.HandleFunc("/providers/whatsapp", r.webhookHandler.HandleWhatsApp).Methods(http.MethodPost)
	api.HandleFunc("/bookings/whatsapp-reply", r.webhookHandler.HandleWhatsApp).Methods(http.MethodPost)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", r.authHandler.Signup).Methods(http.MethodPost)
	auth.HandleFunc("/signin", r.authHandler.Signin).Methods(http.MethodPost)
	auth.HandleFunc("/google-login", r.authHandler.GoogleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", r.authHandler.ForgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", r.authHandler.ResetPassword).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)
	authProtected.HandleFunc("/update-profile", r.authHandler.UpdateProfile).Methods(http.MethodPut)

	// Provider routes (public)
	providers := api.PathPrefix("/providers").Subrouter()
	providers.HandleFunc("", r.providerHandler.Register).Methods(http.MethodPost)
	providers.HandleFunc("/verify-email", r.providerHandler.VerifyEmail).Methods(http.MethodPost)
	providers.HandleFunc("/resend-otp", r.providerHandler.ResendOTP).Methods(http.MethodPost)
	providers.HandleFunc("/search", r.providerHandler.Search).Methods(http.MethodGet)
	providers.HandleFunc("", r.providerHandler.Search).Methods(http.MethodGet)
	providers.HandleFunc("/{id}", r.providerHandler.GetProvider).Methods(http.MethodGet)

	// Worker-facing request link; authorized by confirmation code, not JWT
	api.HandleFunc("/bookings/{id}/view", r.bookingHandler.ViewBooking).Methods(http.MethodGet)

	// Booking routes (customer)
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.authMiddleware.Authenticate)
	bookings.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	bookings.HandleFunc("", r.bookingHandler.GetMyBookings).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}/history", r.bookingHandler.GetBookingHistory).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPatch)
	bookings.HandleFunc("/{id}/confirm", r.bookingHandler.ConfirmBooking).Methods(http.MethodPatch)
	bookings.HandleFunc("/{id}/complete", r.bookingHandler.CompleteBooking).Methods(http.MethodPatch)

	// Admin auth (public)
	api.HandleFunc("/admin/register", r.adminHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", r.adminHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/admin/verify-otp", r.adminHandler.VerifyOTP).Methods(http.MethodPost)

	// Admin routes (protected, admin role only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/providers", r.adminHandler.ListProviders).Methods(http.MethodGet)
	admin.HandleFunc("/providers/{id}/approve", r.adminHandler.ApproveProvider).Methods(http.MethodPatch)
	admin.HandleFunc("/providers/{id}/membership", r.adminHandler.SetMembership).Methods(http.MethodPatch)
	admin.HandleFunc("/bookings/{id}/close", r.adminHandler.CloseBooking).Methods(http.MethodPost)

	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
