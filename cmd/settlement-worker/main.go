package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maplecart/maplecart-backend/internal/cron"
	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/internal/rewards"
	"github.com/maplecart/maplecart-backend/internal/users"
	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/logger"
	"github.com/maplecart/maplecart-backend/pkg/metrics"
	"github.com/maplecart/maplecart-backend/pkg/migrate"
	"github.com/maplecart/maplecart-backend/pkg/redis"
)

const lockKeyFormat = "maplecart:settlement-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "settlement-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "settlement-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	rewardRepo := rewards.NewRepository(conn)
	accountRepo := finance.NewAccountRepository(conn)
	flowRepo := finance.NewFlowRepository(conn)
	splitRepo := finance.NewSplitRepository(conn)

	rewardSvc, err := rewards.NewService(rewardRepo, userRepo, accountRepo, cfg.Finance)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	financeSvc, err := finance.NewService(accountRepo, flowRepo, splitRepo, cfg.Finance, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create finance service", err)
		os.Exit(1)
	}

	autoReceiveJob, err := cron.NewAutoReceiveJob(cron.AutoReceiveJobParams{
		Logger:  logg,
		DB:      dbClient,
		Orders:  orderRepo,
		Finance: financeSvc,
		Rewards: rewardSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-receive job", err)
		os.Exit(1)
	}

	jobs := []cron.Job{autoReceiveJob}
	if cfg.Finance.ReferralEnabled {
		payoutJob, err := cron.NewRewardPayoutJob(cron.RewardPayoutJobParams{
			Logger:  logg,
			Rewards: rewardSvc,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create reward payout job", err)
			os.Exit(1)
		}
		jobs = append(jobs, payoutJob)
	}

	promRegistry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCronJobMetrics(promRegistry)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Scheduler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Scheduler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Scheduler.Interval.String(),
	})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: metricsHandler(promRegistry),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer metricsServer.Close()

	logg.Info(ctx, "starting settlement worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "settlement worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "settlement worker shutting down gracefully")
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
