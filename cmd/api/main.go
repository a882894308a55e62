package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/glowops/medspa-scheduling/internal/api/router"
	appconfig "github.com/glowops/medspa-scheduling/internal/config"
	"github.com/glowops/medspa-scheduling/internal/http/handlers"
	"github.com/glowops/medspa-scheduling/internal/observability/metrics"
	"github.com/glowops/medspa-scheduling/internal/schedule"
	"github.com/glowops/medspa-scheduling/internal/slotlock"
	"github.com/glowops/medspa-scheduling/internal/waitlist"
	"github.com/glowops/medspa-scheduling/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduling API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	schedMetrics := metrics.NewSchedulingMetrics(nil)

	scheduleStore := schedule.NewStore(pool)
	waitlistStore := waitlist.NewStore(pool)
	locker := slotlock.New(redisClient, logger)

	scorer := waitlist.NewScorer(matchWeights(cfg), cfg.MinNoticeHours)
	offers := waitlist.NewOfferService(waitlistStore, scorer, locker, schedMetrics, logger, cfg.OfferTTL, nil)

	layoutOpts := schedule.DefaultLayoutOptions()
	layoutOpts.GapPercent = cfg.LayoutGapPercent

	routerCfg := &router.Config{
		Logger:             logger,
		Calendar:           handlers.NewCalendarHandler(scheduleStore, layoutOpts, schedMetrics, logger),
		Shifts:             handlers.NewShiftsHandler(scheduleStore, logger),
		Waitlist:           handlers.NewWaitlistHandler(waitlistStore, offers, logger),
		MetricsHandler:     promhttp.Handler(),
		StaffJWTSecret:     cfg.StaffJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func matchWeights(cfg *appconfig.Config) waitlist.MatchWeights {
	return waitlist.MatchWeights{
		PriorityHigh:        cfg.WeightPriorityHigh,
		PriorityMedium:      cfg.WeightPriorityMedium,
		PriorityLow:         cfg.WeightPriorityLow,
		ServiceExact:        cfg.WeightServiceExact,
		ServicePartial:      cfg.WeightServicePartial,
		DurationFits:        cfg.WeightDurationFits,
		DurationPenalty:     cfg.WeightDurationPenalty,
		PractitionerMatch:   cfg.WeightPractitioner,
		WaitPerDay:          cfg.WeightWaitPerDay,
		WaitCap:             cfg.WeightWaitCap,
		FormsComplete:       cfg.WeightFormsComplete,
		DepositPaid:         cfg.WeightDepositPaid,
		AvailabilityFit:     cfg.WeightAvailabilityFit,
		AvailabilityPenalty: cfg.WeightAvailabilityMiss,
		DeclinePenalty:      cfg.WeightDeclinePenalty,
		DeclineCap:          cfg.WeightDeclineCap,
	}
}
