package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/campus/internal/portal/http"
	"github.com/aussiebroadwan/campus/internal/portal/mail"
	"github.com/aussiebroadwan/campus/internal/portal/service"
	"github.com/aussiebroadwan/campus/internal/portal/session"
	"github.com/aussiebroadwan/campus/internal/portal/store"
	"github.com/aussiebroadwan/campus/internal/portal/store/drivers/postgres"
	"github.com/aussiebroadwan/campus/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

const startupTimeout = 15 * time.Second

// Application owns the portal's dependencies and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	redis    *redis.Client // nil unless SESSION_BACKEND=redis
	hasher   *cryptox.PasswordHasher
	notifier mail.Notifier
	sessions *session.Manager

	authService         *service.AuthService
	registrationService *service.RegistrationService
	verificationService *service.VerificationService
	recoveryService     *service.RecoveryService
	housekeepingService *service.HousekeepingService // nil with redis sessions

	server *http.Server
	router *httpapi.Router
}

// New builds the application: logger, pepper, store and migrations, session
// backend, services, admin bootstrap and router. Nothing listens until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "campus-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx, cancel := context.WithTimeout(slogx.WithContext(context.Background(), app.logger), startupTimeout)
	defer cancel()

	hasher, err := cryptox.NewPasswordHasher(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = hasher

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initSessions(ctx); err != nil {
		_ = app.closeBackends()
		return nil, err
	}

	app.initNotifier()
	app.initServices()

	if err := app.authService.BootstrapAdmin(ctx); err != nil {
		_ = app.closeBackends()
		return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("portal starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
		slog.String("database", app.cfg.DatabaseDriver),
		slog.String("sessions", app.cfg.SessionBackend),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopWorkers()
			_ = app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server, stops housekeeping and closes the
// backends.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.stopWorkers()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

func (app *Application) stopWorkers() {
	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}
}

func (app *Application) closeBackends() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", slog.String("driver", app.cfg.DatabaseDriver))
	return nil
}

// initSessions picks the session backend. Redis is pinged up front so a bad
// address fails at startup rather than on the first login.
func (app *Application) initSessions(ctx context.Context) error {
	var backend session.Backend = session.StoreBackend{Store: app.db}

	if app.cfg.SessionBackend == SessionsRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
		}
		app.redis = client
		backend = session.RedisBackend{Client: client}
	}

	app.sessions = session.NewManager(backend, app.cfg.SessionTTL)
	app.sessions.CookieSecure = app.cfg.CookieSecure
	return nil
}

func (app *Application) initNotifier() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, emails will only be logged")
		app.notifier = mail.LogNotifier{Logger: app.logger, BaseURL: app.cfg.PublicBaseURL}
		return
	}

	n := mail.NewSMTPNotifier(
		app.cfg.SMTPHost,
		app.cfg.SMTPPort,
		app.cfg.SMTPUsername,
		app.cfg.SMTPPassword,
		app.cfg.MailFrom,
		app.cfg.PublicBaseURL,
	)
	if app.cfg.MailSendTimeout > 0 {
		n.SendTimeout = app.cfg.MailSendTimeout
	}
	app.notifier = n
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:    app.db,
		Sessions: app.sessions,
		Admin: service.AdminCredentials{
			Email:    app.cfg.AdminEmail,
			Password: app.cfg.AdminPassword,
		},
		Hasher: app.hasher,
	}
	app.registrationService = &service.RegistrationService{
		Store:              app.db,
		Notifier:           app.notifier,
		Hasher:             app.hasher,
		MinPasswordEntropy: app.cfg.MinPasswordEntropy,
	}
	app.verificationService = &service.VerificationService{Store: app.db}
	app.recoveryService = &service.RecoveryService{
		Store:              app.db,
		Notifier:           app.notifier,
		Hasher:             app.hasher,
		MinPasswordEntropy: app.cfg.MinPasswordEntropy,
	}

	// Redis expires its own keys; only session rows need sweeping.
	if app.cfg.SessionBackend != SessionsRedis {
		app.housekeepingService = service.NewHousekeepingService(
			app.db,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.sessions,
		app.cfg.RateLimits,
		app.logger,
	)

	if app.redis != nil {
		client := app.redis
		router.SessionsPing = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	router.AuthService = app.authService
	router.RegistrationService = app.registrationService
	router.VerificationService = app.verificationService
	router.RecoveryService = app.recoveryService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
