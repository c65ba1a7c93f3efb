package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomadways/apinomad/internal/config"
	"github.com/nomadways/apinomad/internal/database"
	"github.com/nomadways/apinomad/internal/email"
	"github.com/nomadways/apinomad/internal/logging"
	"github.com/nomadways/apinomad/internal/media"
	"github.com/nomadways/apinomad/internal/server"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.ActivationURL, cfg.PasswordResetURL)

	srv := server.New(db, cfg, emailClient, media.FFProber{}, logger)

	// Expired sessions and action tokens accumulate; sweep them hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("sweep sessions", "error", err)
			} else if n > 0 {
				logger.Debug("swept expired sessions", "count", n)
			}
			if n, err := srv.ActionTokenStore().DeleteExpired(); err != nil {
				logger.Error("sweep action tokens", "error", err)
			} else if n > 0 {
				logger.Debug("swept expired action tokens", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // uploads
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
