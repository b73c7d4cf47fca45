package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/campus/internal/portal/service"
	"github.com/aussiebroadwan/campus/internal/portal/session"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// LoginHandler serves the session login and logout endpoints.
type LoginHandler struct {
	AuthService *service.AuthService
	Sessions    *session.Manager
}

// HandlePost authenticates the login form.
//
//	@Summary		Log in
//	@Description	Authenticates the form credentials and starts a session. The configured admin credentials always yield an admin session. Failures redirect to /login?error=...
//	@Tags			Session
//	@Accept			x-www-form-urlencoded
//	@Param			email		formData	string	true	"Account email"
//	@Param			password	formData	string	true	"Account password"
//	@Param			role		formData	string	false	"Selected role"	Enums(user, admin)
//	@Success		302			{string}	string	"Redirect to /home or /admin with the session cookie set"
//	@Router			/login [post]
func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	sess, err := h.AuthService.Login(r.Context(),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		r.PostFormValue("role"),
	)
	if err != nil {
		msg := loginMessage(err)
		if msg == msgLoginFailed {
			log.Error("login failed", slog.Any("error", err))
		}
		httpx.RedirectWithQuery(w, r, "/login", "error", msg)
		return
	}

	// Drop any session the browser already held.
	if old := session.IDFromRequest(r); old != "" {
		if err := h.Sessions.Destroy(r.Context(), old); err != nil {
			log.Warn("failed to destroy previous session", slog.Any("error", err))
		}
	}
	h.Sessions.SetCookie(w, sess)

	if sess.Principal.IsAdmin() {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/home", http.StatusFound)
}

// HandleLogout destroys the session and clears the cookie.
//
//	@Summary	Log out
//	@Tags		Session
//	@Success	302	{string}	string	"Redirect to /"
//	@Router		/logout [get]
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if id := session.IDFromRequest(r); id != "" {
		if err := h.Sessions.Destroy(r.Context(), id); err != nil {
			slogx.FromContext(r.Context()).Error("failed to destroy session", slog.Any("error", err))
		}
	}
	h.Sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

const msgLoginFailed = "An error occurred. Please try again."

func loginMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return "Please fill all fields"
	case errors.Is(err, service.ErrInvalidAdminCredentials):
		return "Invalid admin credentials"
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found. Please sign up first."
	case errors.Is(err, service.ErrNotVerified):
		return "Please verify your email before logging in. Check your inbox for the verification link."
	case errors.Is(err, service.ErrInvalidPassword):
		return "Invalid password"
	default:
		return msgLoginFailed
	}
}
