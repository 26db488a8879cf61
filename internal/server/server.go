// Package server is the composition root: it opens the store, builds the
// mail dispatcher, services and handlers, mounts the routes and runs the
// HTTP server until a shutdown signal arrives.
//
// DEPENDENCY FLOW:
//
//	config.Config → Store (sqlite | postgres)
//	             → mail.Dispatcher(Sender)
//	             → service.AccountService → handler.AccountHandler → routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gym-tracker/internal/auth"
	"github.com/sakif/gym-tracker/internal/config"
	"github.com/sakif/gym-tracker/internal/handler"
	"github.com/sakif/gym-tracker/internal/mail"
	"github.com/sakif/gym-tracker/internal/middleware"
	"github.com/sakif/gym-tracker/internal/repository"
	"github.com/sakif/gym-tracker/internal/repository/postgres"
	sqliteRepo "github.com/sakif/gym-tracker/internal/repository/sqlite"
	"github.com/sakif/gym-tracker/internal/service"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Server owns the store and the mail dispatcher; both are released when
// Start returns or Close is called.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	mailer *mail.Dispatcher
}

// New wires every dependency. sender is where verification emails go: an
// SES sender in production, a log or recording sender otherwise.
func New(cfg config.Config, logger *slog.Logger, sender mail.Sender) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	mailer := mail.NewDispatcher(sender, mail.Config{
		Workers:     cfg.MailWorkers,
		QueueSize:   cfg.MailQueueSize,
		SendTimeout: cfg.MailTimeout,
	}, logger)
	mailer.Start()

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		mailer: mailer,
	}

	accounts := service.NewAccountService(store, tokens, passwords, mailer, service.Options{
		PublicURL:            cfg.PublicURL,
		SendEmailDefault:     cfg.SendEmailDefault,
		RequireVerifiedLogin: cfg.RequireVerifiedLogin,
	}, logger)

	s.setupRoutes(handler.NewAccountHandler(accounts, logger))
	return s, nil
}

func openStore(cfg config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			// Like `mkdir -p`; 0755 = owner rwx, others r-x.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
}

// setupRoutes mounts middleware and routes.
//
// ROUTES:
//
//	GET      /health
//	POST     /register/new                 (alias POST /users/register)
//	GET      /register/verify?token=       (alias GET  /users/verify)
//	POST     /register/verify/resend
//	GET      /register/email_in_use?email=
//	GET      /register/username_in_use?username=
//	GET|POST /token/generate
//
// Middleware order: RequestID first so the logger can see the id, Recoverer
// innermost so a panic is logged as a 500.
func (s *Server) setupRoutes(accounts *handler.AccountHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/health", handler.HandleHealth)

	s.router.Route("/register", func(r chi.Router) {
		r.Post("/new", accounts.HandleRegister)
		r.Get("/verify", accounts.HandleVerify)
		r.Post("/verify/resend", accounts.HandleResend)
		r.Get("/email_in_use", accounts.HandleEmailInUse)
		r.Get("/username_in_use", accounts.HandleUsernameInUse)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", accounts.HandleRegister)
		r.Get("/verify", accounts.HandleVerify)
	})

	s.router.Get("/token/generate", accounts.HandleGenerateToken)
	s.router.Post("/token/generate", accounts.HandleGenerateToken)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close drains queued mail and closes the store. Start calls it on the way
// out; tests that never call Start call it directly.
func (s *Server) Close() error {
	s.mailer.Stop()
	return s.store.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down in order:
//  1. stop accepting connections and let in-flight requests finish (30s)
//  2. deliver the mail those requests queued
//  3. close the database
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.PublicURL),
			slog.String("driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
