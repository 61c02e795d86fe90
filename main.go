package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"api_pos/api"
	"api_pos/internal/auth"
	"api_pos/internal/cache"
	"api_pos/internal/config"
	"api_pos/internal/database"
	"api_pos/internal/observability"
	"api_pos/internal/sales"
	"api_pos/internal/sqlstore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pos server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadEnv()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, shutdownLogs, err := observability.BridgeLogs(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up log export: %w", err)
	}
	defer func() {
		_ = logger.Sync()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownLogs(shutdownCtx)
	}()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", zap.Error(err))
		}
	}()

	dbClient, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := dbClient.Migrate(ctx); err != nil {
		return err
	}
	store := sqlstore.New(dbClient)

	var salesOpts []sales.Option
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("product cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			salesOpts = append(salesOpts, sales.WithCache(redisCache))
		}
	}

	salesService := sales.NewService(store, logger, salesOpts...)
	authService := auth.NewService(store, logger, cfg.AdminUsername, cfg.SessionTTL)

	if _, err := authService.EnsureDefaultAdmin(ctx, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.InitRoutes(r, salesService, authService, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pos server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error trying to start server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
