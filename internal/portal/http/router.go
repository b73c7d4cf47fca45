package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/service"
	"github.com/aussiebroadwan/campus/internal/portal/session"
	"github.com/aussiebroadwan/campus/internal/portal/store"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/go-chi/chi/v5/middleware"

	_ "github.com/aussiebroadwan/campus/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       httpx.RateLimitProfiles

	store    store.Store
	sessions *session.Manager

	// SessionsPing is checked by /readyz when sessions live outside the
	// database.
	SessionsPing PingFunc

	AuthService         *service.AuthService
	RegistrationService *service.RegistrationService
	VerificationService *service.VerificationService
	RecoveryService     *service.RecoveryService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	sessions *session.Manager,
	limits httpx.RateLimitProfiles,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		limits:       limits,
		store:        st,
		sessions:     sessions,
	}

	// Logging wraps recovery so a panic is still logged as a 500.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		middleware.Recoverer,
		sessions.LoadPrincipal,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerSession()
	r.registerRegistration()
	r.registerRecovery()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Campus Portal API
//	@version		0.1.0
//	@description	Identity endpoints of the college management portal: session login, signup with email verification and password recovery.
//	@description
//	@description	Form endpoints answer with redirects or HTML pages; only the health probes return JSON.
//
//	@host			localhost:5000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPages() {
	lenient := httpx.RateLimitByIP(r.limits.Lenient)

	r.Mux.Handle("GET /{$}", httpx.Chain(page("index.html"), lenient))
	r.Mux.Handle("GET /login", httpx.Chain(page("login.html"), lenient))
	r.Mux.Handle("GET /signup", httpx.Chain(page("signup.html"), lenient))
	r.Mux.Handle("GET /forgot-password", httpx.Chain(page("forgot_password.html"), lenient))

	r.Mux.Handle("GET /home",
		httpx.Chain(principalPage("home.html"),
			lenient,
			session.RequireUser,
		),
	)
	r.Mux.Handle("GET /admin",
		httpx.Chain(principalPage("admin.html"),
			lenient,
			session.RequireUser,
			session.RequireAdmin,
		),
	)
}

func (r *Router) registerSession() {
	h := &LoginHandler{AuthService: r.AuthService, Sessions: r.sessions}

	// POST /login - strict rate limit by IP + email (credential checks)
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIPAndFormField(r.limits.Strict, "email"),
		),
	)
	r.Mux.Handle("GET /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}

func (r *Router) registerRegistration() {
	// POST /signup - moderate rate limit by IP (creates accounts, sends mail)
	r.Mux.Handle("POST /signup",
		httpx.Chain(&SignupHandler{RegistrationService: r.RegistrationService},
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
	r.Mux.Handle("GET /verify-email",
		httpx.Chain(&VerifyEmailHandler{VerificationService: r.VerificationService},
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}

func (r *Router) registerRecovery() {
	h := &RecoveryHandler{RecoveryService: r.RecoveryService}
	moderate := httpx.RateLimitByIP(r.limits.Moderate)

	r.Mux.Handle("POST /forgot-password", httpx.Chain(http.HandlerFunc(h.HandleForgot), moderate))
	r.Mux.Handle("GET /reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPage),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("POST /reset-password", httpx.Chain(http.HandlerFunc(h.HandleReset), moderate))
}

func (r *Router) registerSystem() {
	// Health check endpoints - public limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.SessionsPing),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
	r.Mux.Handle("GET /swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}
