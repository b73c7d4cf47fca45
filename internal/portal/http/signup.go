package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/campus/internal/portal/service"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

const msgSignupSuccess = "Account created! Please check your email and click the verification link to complete registration."

type SignupHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP registers a new account from the signup form.
//
//	@Summary		Sign up
//	@Description	Creates an unverified account and emails a verification link valid for 24 hours. Failures redirect to /signup?error=...
//	@Tags			Registration
//	@Accept			x-www-form-urlencoded
//	@Param			name			formData	string	true	"Display name"
//	@Param			email			formData	string	true	"Account email"
//	@Param			password		formData	string	true	"Password"
//	@Param			confirmPassword	formData	string	true	"Password again"
//	@Success		302				{string}	string	"Redirect to /login?message=..."
//	@Router			/signup [post]
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.RegistrationService.Register(r.Context(),
		r.PostFormValue("name"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		r.PostFormValue("confirmPassword"),
	)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, service.ErrMissingFields):
			msg = "Please fill all fields"
		case errors.Is(err, service.ErrPasswordMismatch):
			msg = "Passwords do not match"
		case errors.Is(err, service.ErrWeakPassword):
			msg = msgWeakPassword
		case errors.Is(err, service.ErrEmailTaken):
			msg = "User with this email already exists"
		case errors.Is(err, service.ErrEmailDeliveryFailed):
			msg = "Failed to send verification email. Please try again."
		default:
			slogx.FromContext(r.Context()).Error("signup failed", slog.Any("error", err))
			msg = "An error occurred. Please try again."
		}
		httpx.RedirectWithQuery(w, r, "/signup", "error", msg)
		return
	}

	httpx.RedirectWithQuery(w, r, "/login", "message", msgSignupSuccess)
}

const msgWeakPassword = "Password is too weak. Please choose a stronger password."
