package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopflow-app/shopflow-backend/api/routes"
	"github.com/shopflow-app/shopflow-backend/internal/customers"
	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/internal/invoices"
	"github.com/shopflow-app/shopflow-backend/internal/labor"
	"github.com/shopflow-app/shopflow-backend/internal/notifications"
	"github.com/shopflow-app/shopflow-backend/internal/parts"
	"github.com/shopflow-app/shopflow-backend/internal/settings"
	"github.com/shopflow-app/shopflow-backend/internal/units"
	"github.com/shopflow-app/shopflow-backend/pkg/config"
	"github.com/shopflow-app/shopflow-backend/pkg/db"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
	"github.com/shopflow-app/shopflow-backend/pkg/migrate"
	"github.com/shopflow-app/shopflow-backend/pkg/redis"
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

	svcs, err := buildServices(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	registry := prometheus.NewRegistry()
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, svcs),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		if err := server.Shutdown(stopCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (routes.Services, error) {
	gdb := dbClient.DB()

	settingsSvc, err := settings.NewService(gdb)
	if err != nil {
		return routes.Services{}, err
	}

	customersSvc, err := customers.NewService(customers.NewRepository(gdb), dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	unitsSvc, err := units.NewService(gdb)
	if err != nil {
		return routes.Services{}, err
	}

	partsSvc, err := parts.NewService(gdb)
	if err != nil {
		return routes.Services{}, err
	}

	laborSvc, err := labor.NewService(gdb)
	if err != nil {
		return routes.Services{}, err
	}

	dispatcher, err := notifications.NewLogDispatcher(logg, cfg.Shop.Phone)
	if err != nil {
		return routes.Services{}, err
	}

	estimatesRepo := estimates.NewRepository(gdb)
	estimatesSvc, err := estimates.NewService(estimatesRepo, dbClient, settingsSvc, dispatcher)
	if err != nil {
		return routes.Services{}, err
	}

	invoicesSvc, err := invoices.NewService(gdb, dbClient, dispatcher)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Customers: customersSvc,
		Units:     unitsSvc,
		Parts:     partsSvc,
		Labor:     laborSvc,
		Estimates: estimatesSvc,
		EstRepo:   estimatesRepo,
		Invoices:  invoicesSvc,
		Settings:  settingsSvc,
	}, nil
}
