package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionsDatabase = "database"
	SessionsRedis    = "redis"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 5000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
	PublicBaseURL        string        // Prefix for links in emails (default: http://localhost:5000)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite file (default: portal.db)
	DatabaseURL    string // Postgres DSN, required with the postgres driver
	PepperFile     string // Password pepper, created on first start (default: pepper)

	SessionBackend string        // database or redis (default: database)
	SessionTTL     time.Duration // default: 24h
	CookieSecure   bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	AdminEmail    string // Optional: admin override login and startup bootstrap
	AdminPassword string

	SMTPHost        string // Optional: mail is only logged when empty
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	MailFrom        string
	MailSendTimeout time.Duration

	MinPasswordEntropy float64 // 0 disables the strength check

	RateLimits httpx.RateLimitProfiles
}

// LoadConfig reads configuration from the environment and, when path is not
// empty, from a config file. Environment variables win over the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Env:                  v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		Port:                 v.GetInt("PORT"),
		ShutdownGracePeriod:  v.GetDuration("SHUTDOWN_GRACE_PERIOD"),
		HousekeepingInterval: v.GetDuration("HOUSEKEEPING_INTERVAL"),
		PublicBaseURL:        v.GetString("PUBLIC_BASE_URL"),

		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseFile:   v.GetString("DATABASE_FILE"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		PepperFile:     v.GetString("PEPPER_FILE"),

		SessionBackend: v.GetString("SESSION_BACKEND"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		CookieSecure:   v.GetBool("COOKIE_SECURE"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		SMTPHost:        v.GetString("SMTP_HOST"),
		SMTPPort:        v.GetInt("SMTP_PORT"),
		SMTPUsername:    v.GetString("SMTP_USERNAME"),
		SMTPPassword:    v.GetString("SMTP_PASSWORD"),
		MailFrom:        v.GetString("MAIL_FROM"),
		MailSendTimeout: v.GetDuration("MAIL_SEND_TIMEOUT"),

		MinPasswordEntropy: v.GetFloat64("MIN_PASSWORD_ENTROPY"),
	}

	defaults := httpx.DefaultRateLimitProfiles()
	cfg.RateLimits = httpx.RateLimitProfiles{
		Strict:   defaults.Strict.Override(rateLimit(v, "STRICT")),
		Moderate: defaults.Moderate.Override(rateLimit(v, "MODERATE")),
		Lenient:  defaults.Lenient.Override(rateLimit(v, "LENIENT")),
		Public:   defaults.Public.Override(rateLimit(v, "PUBLIC")),
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 5000)
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second)
	v.SetDefault("HOUSEKEEPING_INTERVAL", time.Hour)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")

	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_FILE", "portal.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PEPPER_FILE", "pepper")

	v.SetDefault("SESSION_BACKEND", SessionsDatabase)
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_SEND_TIMEOUT", 10*time.Second)

	v.SetDefault("MIN_PASSWORD_ENTROPY", 0)
}

// rateLimit reads RATELIMIT_{tier}_* keys. Unset keys come back as zero and
// leave the default tier untouched.
func rateLimit(v *viper.Viper, tier string) httpx.RateLimitConfig {
	prefix := "RATELIMIT_" + tier + "_"
	return httpx.RateLimitConfig{
		RequestsPerWindow: v.GetInt(prefix + "REQUESTS"),
		Window:            time.Duration(v.GetInt(prefix+"WINDOW_SEC")) * time.Second,
		Burst:             v.GetInt(prefix + "BURST"),
	}
}

// Validate reports settings that cannot start a server.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.SessionBackend {
	case SessionsDatabase:
	case SessionsRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	if c.SMTPHost != "" && c.MailFrom == "" {
		errs = append(errs, errors.New("MAIL_FROM is required when SMTP_HOST is set"))
	}

	return errors.Join(errs...)
}
