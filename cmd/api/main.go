package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smart-accountant/internal/api/handlers"
	"github.com/dvloznov/smart-accountant/internal/app"
	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/config"
	"github.com/dvloznov/smart-accountant/internal/jobs/inmemory"
	"github.com/dvloznov/smart-accountant/internal/logger"
)

const (
	jobQueueCapacity = 100
	shutdownTimeout  = 30 * time.Second
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	if err := run(ctx, cfg, *port, log); err != nil {
		log.Fatal().Err(err).Msg("API server failed")
	}
	log.Info().Msg("Server exited")
}

// run serves the API until ctx is cancelled, then drains the HTTP server
// and the ingestion worker.
func run(ctx context.Context, cfg *config.Config, port string, log zerolog.Logger) error {
	services, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	authSvc := auth.NewService(services.Users, cfg.SessionTTL)
	if cfg.AdminUsername == "" {
		log.Warn().Msg("No ADMIN_USERNAME configured, only existing users can sign in")
	} else if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminFullName); err != nil {
		return err
	}

	// The worker outlives ctx so an in-flight ingestion can finish during
	// shutdown.
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancelWorker()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(jobQueueCapacity, jobStore, handlers.ErrorKind)
	if err := jobQueue.Start(workerCtx, handlers.IngestJobHandler(services.Ledger)); err != nil {
		return err
	}
	log.Info().Msg("Ingestion worker started")

	router := handlers.NewRouter(handlers.Handlers{
		Auth:    handlers.NewAuthHandler(authSvc),
		Users:   handlers.NewUsersHandler(authSvc),
		Ledger:  handlers.NewLedgerHandler(services.Ledger),
		Jobs:    handlers.NewJobsHandler(jobQueue, jobStore),
		Exports: handlers.NewExportsHandler(services.Ledger, services.Sheets, services.Notion, cfg.NotionDatabaseID),
	}, authSvc, log)

	// Extraction retries can take several seconds, so writes get more room
	// than reads.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ingestion worker did not stop in time")
	}
	return nil
}
