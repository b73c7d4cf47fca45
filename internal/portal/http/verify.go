package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/campus/internal/portal/service"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

type verifyPage struct {
	Verified bool
	Message  string
}

type VerifyEmailHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP consumes the emailed verification link.
//
//	@Summary		Verify email
//	@Description	Consumes a single-use verification token and marks the account verified. The outcome is rendered as an HTML page.
//	@Tags			Registration
//	@Produce		html
//	@Param			token	query	string	true	"Verification token from the email"
//	@Success		200		{string}	string	"Outcome page"
//	@Router			/verify-email [get]
func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.VerificationService.VerifyEmail(r.Context(), r.URL.Query().Get("token"))

	data := verifyPage{Verified: err == nil}
	switch {
	case err == nil:
		data.Message = "Your email has been verified successfully!"
	case errors.Is(err, service.ErrInvalidLink):
		data.Message = "Invalid verification link."
	case errors.Is(err, service.ErrTokenExpired):
		data.Message = "Verification link has expired. Please sign up again."
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		data.Message = "This verification link has already been used."
	default:
		slogx.FromContext(r.Context()).Error("email verification failed", slog.Any("error", err))
		data.Message = "An error occurred during verification. Please try again."
	}

	render(w, r, http.StatusOK, "verify_email.html", data)
}
