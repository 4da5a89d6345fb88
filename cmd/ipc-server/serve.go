package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ipc/ipc/internal/config"
	"github.com/ipc/ipc/internal/domain/abx"
	"github.com/ipc/ipc/internal/domain/census"
	"github.com/ipc/ipc/internal/domain/importbatch"
	"github.com/ipc/ipc/internal/platform/db"
	"github.com/ipc/ipc/internal/platform/middleware"
)

const defaultBodyLimit = "1M"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// app holds the wired services.
type app struct {
	batches *importbatch.Service
	census  *census.Service
	abx     *abx.Service
}

func newApp(pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) *app {
	var tx db.TxBeginner
	if pool != nil {
		tx = pool
	}
	batches := importbatch.NewService(importbatch.NewRepoPG(pool))
	censusSvc := census.NewService(census.NewRepoPG(pool), batches, tx, logger)
	abxSvc := abx.NewService(abx.NewRepoPG(pool), batches, censusSvc, tx, cfg.Heuristics(), logger)
	return &app{batches: batches, census: censusSvc, abx: abxSvc}
}

func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	api := e.Group("/api/v1",
		middleware.RateLimit(rateLimitCfg),
		middleware.BodyLimit(defaultBodyLimit, cfg.MaxUploadSize),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)
	importbatch.NewHandler(a.batches).RegisterRoutes(api)
	census.NewHandler(a.census).RegisterRoutes(api)
	abx.NewHandler(a.abx).RegisterRoutes(api)

	return e
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	e := newServer(cfg, logger, pool, newApp(pool, cfg, logger))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
