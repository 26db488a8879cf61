// Package main is the entry point for the gym-tracker account server.
//
// main stays minimal: read configuration, build the logger and the mail
// sender, hand everything to internal/server and block until shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/gym-tracker/internal/config"
	"github.com/sakif/gym-tracker/internal/mail"
	"github.com/sakif/gym-tracker/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// A .env in the working directory is optional; real env vars win.
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	// === 3. MAIL SENDER ===
	// Without an SES identity the server still runs; verification links
	// are written to the log instead.
	var sender mail.Sender
	if cfg.SESFrom != "" {
		ses, err := mail.NewSESSender(context.Background(), cfg.AWSRegion, cfg.SESFrom)
		if err != nil {
			logger.Error("failed to configure SES", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sender = ses
	} else {
		logger.Warn("SES_EMAIL not set, verification emails will be logged, not sent")
		sender = mail.NewLogSender(logger)
	}

	// === 4. SERVER ===
	srv, err := server.New(cfg, logger, sender)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
