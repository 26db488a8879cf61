// Package config reads the service configuration from the environment.
//
// Values come from real environment variables first; .env files passed to
// Load fill in whatever is not already set. A missing .env file is fine,
// which keeps production (no file, real env) and local development (a
// .env next to the binary) on the same code path.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretLen = 16
)

type Config struct {
	Port int
	// PublicURL is the externally reachable base URL used in emailed links.
	PublicURL string
	SecretKey string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	// SESFrom empty means mail is written to the log instead of sent.
	SESFrom   string
	AWSRegion string

	MailWorkers   int
	MailQueueSize int
	MailTimeout   time.Duration

	SendEmailDefault     bool
	RequireVerifiedLogin bool
	BcryptCost           int

	LogLevel  slog.Level
	LogFormat string
}

// Load reads the given .env files (skipping ones that do not exist) and then
// parses the environment. All invalid settings are reported together.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return parse(os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

// env reads settings through a lookupFunc and remembers every bad value.
type env struct {
	lookup lookupFunc
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e *env) boolean(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (e *env) fail(format string, args ...interface{}) {
	e.errs = append(e.errs, fmt.Errorf(format, args...))
}

func parse(lookup lookupFunc) (Config, error) {
	e := &env{lookup: lookup}

	cfg := Config{
		Port:                 e.integer("PORT", 8080),
		SecretKey:            e.str("SECRET_KEY", ""),
		DBDriver:             strings.ToLower(e.str("DB_DRIVER", DriverSQLite)),
		DBPath:               e.str("DB_PATH", "data/gym-tracker.db"),
		DatabaseURL:          e.str("DATABASE_URL", ""),
		SESFrom:              e.str("SES_EMAIL", ""),
		AWSRegion:            e.str("AWS_REGION", "us-east-1"),
		MailWorkers:          e.integer("MAIL_WORKERS", 2),
		MailQueueSize:        e.integer("MAIL_QUEUE_SIZE", 100),
		MailTimeout:          e.duration("MAIL_TIMEOUT", 10*time.Second),
		SendEmailDefault:     e.boolean("SEND_EMAIL_DEFAULT", true),
		RequireVerifiedLogin: e.boolean("REQUIRE_VERIFIED_LOGIN", false),
		BcryptCost:           e.integer("BCRYPT_COST", 12),
		LogFormat:            strings.ToLower(e.str("LOG_FORMAT", "text")),
	}
	cfg.PublicURL = strings.TrimRight(e.str("SERVER_ADDRESS", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	if err := cfg.LogLevel.UnmarshalText([]byte(e.str("LOG_LEVEL", "info"))); err != nil {
		e.fail("LOG_LEVEL: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		e.fail("PORT: %d is out of range", cfg.Port)
	}
	if len(cfg.SecretKey) < minSecretLen {
		e.fail("SECRET_KEY: must be set and at least %d characters", minSecretLen)
	}
	if u, err := url.Parse(cfg.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		e.fail("SERVER_ADDRESS: %q is not an absolute URL", cfg.PublicURL)
	}
	if cfg.MailWorkers < 1 {
		e.fail("MAIL_WORKERS: must be at least 1")
	}
	if cfg.MailQueueSize < 1 {
		e.fail("MAIL_QUEUE_SIZE: must be at least 1")
	}
	if cfg.MailTimeout <= 0 {
		e.fail("MAIL_TIMEOUT: must be positive")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		e.fail("LOG_FORMAT: %q is not text or json", cfg.LogFormat)
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = postgresURL(e)
		}
	default:
		e.fail("DB_DRIVER: %q is not sqlite or postgres", cfg.DBDriver)
	}

	if len(e.errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(e.errs...))
	}
	return cfg, nil
}

// postgresURL assembles a DSN from the DB_* variables.
func postgresURL(e *env) string {
	name := e.str("DATABASE", "")
	if name == "" {
		e.fail("DATABASE_URL or DATABASE must be set for the postgres driver")
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(e.str("DB_HOST", "localhost"), e.str("DB_PORT", "5432")),
		Path:     "/" + name,
		RawQuery: "sslmode=" + e.str("DB_SSLMODE", "disable"),
	}
	if user := e.str("DB_USER", ""); user != "" {
		if pw, ok := e.lookup("DB_PASSWORD"); ok {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
