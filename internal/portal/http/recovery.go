package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/campus/internal/portal/service"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

const (
	msgResetRequested = "If that email exists, we sent a reset link."
	msgRecoveryFailed = "Something went wrong. Try again."
)

// resetPage is the reset form state. An empty Token hides the form.
type resetPage struct {
	Token   string
	Error   string
	Message string
}

type RecoveryHandler struct {
	RecoveryService *service.RecoveryService
}

// HandleForgot requests a reset link.
//
//	@Summary		Request password reset
//	@Description	Emails a one hour reset link when the address belongs to an account. The response is the same either way. An empty email or an internal failure redirects with ?error=...
//	@Tags			Recovery
//	@Accept			x-www-form-urlencoded
//	@Param			email	formData	string	true	"Account email"
//	@Success		302		{string}	string	"Redirect to /forgot-password?message=..."
//	@Router			/forgot-password [post]
func (h *RecoveryHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	err := h.RecoveryService.RequestReset(r.Context(), r.PostFormValue("email"))
	switch {
	case err == nil:
		httpx.RedirectWithQuery(w, r, "/forgot-password", "message", msgResetRequested)
	case errors.Is(err, service.ErrMissingFields):
		httpx.RedirectWithQuery(w, r, "/forgot-password", "error", "Please enter your email")
	default:
		slogx.FromContext(r.Context()).Error("password reset request failed", slog.Any("error", err))
		httpx.RedirectWithQuery(w, r, "/forgot-password", "error", msgRecoveryFailed)
	}
}

// HandleResetPage renders the reset form for the token in the link.
//
//	@Summary	Password reset form
//	@Tags		Recovery
//	@Produce	html
//	@Param		token	query	string	true	"Reset token from the email"
//	@Success	200		{string}	string	"Form page"
//	@Router		/reset-password [get]
func (h *RecoveryHandler) HandleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		render(w, r, http.StatusOK, "reset_password.html", resetPage{Error: "Invalid reset link"})
		return
	}
	render(w, r, http.StatusOK, "reset_password.html", resetPage{Token: token})
}

// HandleReset consumes a reset token and sets the new password.
//
//	@Summary		Reset password
//	@Description	Consumes a single-use reset token. The outcome is rendered on the reset form page.
//	@Tags			Recovery
//	@Accept			x-www-form-urlencoded
//	@Produce		html
//	@Param			token			formData	string	true	"Reset token"
//	@Param			password		formData	string	true	"New password"
//	@Param			confirmPassword	formData	string	true	"New password again"
//	@Success		200				{string}	string	"Outcome page"
//	@Router			/reset-password [post]
func (h *RecoveryHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	token := r.PostFormValue("token")
	err := h.RecoveryService.ResetPassword(r.Context(), token,
		r.PostFormValue("password"),
		r.PostFormValue("confirmPassword"),
	)

	// Validation failures keep the token so the form can be resubmitted;
	// token failures and success drop it.
	data := resetPage{Token: token}
	switch {
	case err == nil:
		data = resetPage{Message: "Your password has been reset. You may now log in."}
	case errors.Is(err, service.ErrMissingToken):
		data = resetPage{Error: "Missing token"}
	case errors.Is(err, service.ErrMissingFields):
		data.Error = "Please fill all fields"
	case errors.Is(err, service.ErrPasswordMismatch):
		data.Error = "Passwords do not match"
	case errors.Is(err, service.ErrWeakPassword):
		data.Error = msgWeakPassword
	case errors.Is(err, service.ErrInvalidResetToken):
		data = resetPage{Error: "Invalid reset token"}
	case errors.Is(err, service.ErrResetTokenExpiredOrUsed):
		data = resetPage{Error: "Reset link expired or used"}
	default:
		slogx.FromContext(r.Context()).Error("password reset failed", slog.Any("error", err))
		data.Error = msgRecoveryFailed
	}

	render(w, r, http.StatusOK, "reset_password.html", data)
}
