package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/config"
	"github.com/stemsi/quickquiz-console/internal/handler"
	"github.com/stemsi/quickquiz-console/internal/logger"
	"github.com/stemsi/quickquiz-console/internal/router"
	"github.com/stemsi/quickquiz-console/internal/service"
	"github.com/stemsi/quickquiz-console/internal/stubserver"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, nil)
	log.Info().
		Str("port", cfg.StubPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting QuickQuiz stub backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Seed In-Memory Store ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	store := stubserver.NewStore(time.Now)

	fx, err := stubserver.Seed(store, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed stub data")
	}
	log.Info().
		Str("teacher", stubserver.SeedTeacherEmail).
		Str("student", stubserver.SeedStudentEmail).
		Str("course_id", fx.CourseID).
		Int("active_test_id", fx.ActiveTestID).
		Msg("Seeded demo accounts")

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, store, log),
		Teacher: handler.NewTeacherHandler(store, log),
		Student: handler.NewStudentHandler(store, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.StubPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.StubPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
