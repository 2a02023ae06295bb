package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/config"
	httpapi "github.com/waveconnect/backend-go/internal/http"
	"github.com/waveconnect/backend-go/internal/sink"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	if err := run(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := (&buoy.DefaultServiceFactory{}).NewService(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return err
	}

	var checks []httpapi.HealthCheck
	if cfg.DatabaseURL != "" {
		store, err := sink.OpenSQLStore(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		checks = append(checks, store.Ping)
	}

	router := httpapi.SetupRouter(svc, checks...)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
