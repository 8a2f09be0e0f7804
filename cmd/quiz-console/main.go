package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/apiclient"
	"github.com/stemsi/quickquiz-console/internal/config"
	"github.com/stemsi/quickquiz-console/internal/console"
	"github.com/stemsi/quickquiz-console/internal/logger"
	"github.com/stemsi/quickquiz-console/internal/session"
	"github.com/stemsi/quickquiz-console/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.ConsoleLogLevel, cfg.LogFormat, nil)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Str("session_store", cfg.SessionStore).
		Bool("autosave", cfg.Autosave).
		Msg("Starting QuickQuiz console")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Open Session Store ────────────────────────────────────────────
	store, closeStore, err := openSessionStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer closeStore()

	sess := session.NewManager(store, log)

	// ─── Initialize API Client ─────────────────────────────────────────
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api := apiclient.New(cfg.APIBaseURL, httpClient, sess, log)

	deps := console.Deps{API: api, Session: sess, Log: log}

	// ─── Start Autosave Worker ─────────────────────────────────────────
	// The worker outlives ctx so that queued answers are drained after an
	// interrupt.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	if cfg.Autosave {
		autosave := worker.NewAutosaveWorker(api, cfg.AutosaveQueueSize, log)
		deps.Saver = autosave
		wg.Add(1)
		go func() {
			defer wg.Done()
			autosave.Start(workerCtx)
		}()
	}

	// ─── Run Console ───────────────────────────────────────────────────
	runErr := console.Run(ctx, os.Stdin, os.Stdout, deps, console.Config{ServerURL: cfg.APIBaseURL})

	stopWorker()
	wg.Wait()

	if runErr != nil {
		log.Error().Err(runErr).Msg("Console stopped")
		closeStore()
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, "Bye.")
}

// openSessionStore returns the configured store and a function releasing it.
func openSessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		store, rdb, err := session.DialRedisStore(dialCtx, cfg.RedisURL, cfg.SessionNamespace, log)
		if err != nil {
			return nil, nil, err
		}
		var once sync.Once
		return store, func() {
			once.Do(func() {
				if err := rdb.Close(); err != nil {
					log.Error().Err(err).Msg("Redis close error")
				}
			})
		}, nil
	case config.SessionStoreFile, "":
		return session.NewFileStore(cfg.SessionFile), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
