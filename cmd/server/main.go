package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fractracker/complaints/internal/app"
	"github.com/fractracker/complaints/internal/config"
	httpapi "github.com/fractracker/complaints/internal/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := app.NewLogger(cfg, "fractracker-complaints")

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	shutdown, stopBatches := context.WithCancel(context.Background())
	defer stopBatches()
	deps := a.Deps()
	deps.Shutdown = shutdown
	router := httpapi.Router(cfg, deps, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		// Batches still running after the grace period are cancelled.
		stopBatches()
		logger.Warn().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}
