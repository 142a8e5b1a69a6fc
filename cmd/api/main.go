package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maplecart/maplecart-backend/api/routes"
	"github.com/maplecart/maplecart-backend/internal/cart"
	"github.com/maplecart/maplecart-backend/internal/catalog"
	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/inventory"
	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/internal/refunds"
	"github.com/maplecart/maplecart-backend/internal/rewards"
	"github.com/maplecart/maplecart-backend/internal/users"
	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/logger"
	"github.com/maplecart/maplecart-backend/pkg/migrate"
	"github.com/maplecart/maplecart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	refundRepo := refunds.NewRepository(conn)
	rewardRepo := rewards.NewRepository(conn)
	accountRepo := finance.NewAccountRepository(conn)
	flowRepo := finance.NewFlowRepository(conn)
	splitRepo := finance.NewSplitRepository(conn)

	rewardSvc, err := rewards.NewService(rewardRepo, userRepo, accountRepo, cfg.Finance)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	var accruer finance.Accruer
	if cfg.Finance.ReferralEnabled {
		accruer = rewardSvc
	}

	financeSvc, err := finance.NewService(accountRepo, flowRepo, splitRepo, cfg.Finance, accruer)
	if err != nil {
		logg.Error(context.Background(), "failed to create finance service", err)
		os.Exit(1)
	}

	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderSvc, err := orders.NewService(dbClient, orderRepo, cartRepo, catalogRepo, inventoryRepo, userRepo, financeSvc, cfg.Orders, cfg.Finance, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	var voider refunds.RewardVoider
	if cfg.Finance.ReferralEnabled {
		voider = rewardSvc
	}

	refundSvc, err := refunds.NewService(dbClient, refundRepo, orderRepo, financeSvc, inventoryRepo, voider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Logger:   logg,
			Database: dbClient,
			Cache:    redisClient,
			Cart:     cartSvc,
			Orders:   orderSvc,
			Refunds:  refundSvc,
			Finance:  financeSvc,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
