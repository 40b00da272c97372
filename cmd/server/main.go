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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dutycalc/internal/config"
	"dutycalc/internal/duty"
	"dutycalc/internal/handler"
	"dutycalc/internal/logger"
	"dutycalc/internal/middleware"
	"dutycalc/internal/repository/postgres"
	"dutycalc/internal/router"
	"dutycalc/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	storeHealth := postgres.NewStoreHealth(db)
	commodityRepo := postgres.NewCommodityRepo(db)

	// Initialize the engine
	calc := duty.NewCalculator(duty.Sources{
		Health:        storeHealth,
		GeneralRates:  postgres.NewGeneralRateRepo(db),
		FTARates:      postgres.NewFTARateRepo(db),
		TradeRemedies: postgres.NewTradeRemedyRepo(db),
		TCOs:          postgres.NewTCORepo(db),
		GSTProvisions: postgres.NewGSTProvisionRepo(db),
	}, duty.Options{
		GSTRate:           cfg.Engine.GSTRate,
		GSTThreshold:      cfg.Engine.GSTThreshold,
		StoreErrorMode:    cfg.Engine.StoreErrorMode,
		ConcurrentLookups: cfg.Engine.ConcurrentLookups,
	}, log.Named("duty"))

	// Initialize services
	calcSvc := service.NewCalculationService(calc, service.BatchConfig{
		Concurrency: cfg.Batch.Concurrency,
		MaxItems:    cfg.Batch.MaxItems,
	}, log.Named("batch"))
	commoditySvc := service.NewCommodityService(commodityRepo)

	// Initialize handlers
	dutyH := handler.NewDutyHandler(calcSvc, cfg.Batch.MaxItems)
	commodityH := handler.NewCommodityHandler(commoditySvc)
	healthH := handler.NewHealthHandler(storeHealth)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := router.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}
	if cfg.JWT.Enabled() {
		opts.Verifier = service.NewTokenVerifier(cfg.JWT)
	} else {
		log.Warn("jwt secret not set, API authentication disabled")
	}
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		opts.RateLimiter = limiter
		go sweepLimiter(ctx, limiter)
	}

	// Setup router
	r := router.Setup(log, opts, dutyH, commodityH, healthH)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("store_error_mode", string(cfg.Engine.StoreErrorMode)),
			zap.Bool("auth", cfg.JWT.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
