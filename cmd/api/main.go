package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/velora-dev/storefront-backend/api/routes"
	cartsvc "github.com/velora-dev/storefront-backend/internal/cart"
	catalogsvc "github.com/velora-dev/storefront-backend/internal/catalog"
	notifsvc "github.com/velora-dev/storefront-backend/internal/notifications"
	ordersvc "github.com/velora-dev/storefront-backend/internal/orders"
	promosvc "github.com/velora-dev/storefront-backend/internal/promotions"
	usersvc "github.com/velora-dev/storefront-backend/internal/users"
	"github.com/velora-dev/storefront-backend/pkg/config"
	"github.com/velora-dev/storefront-backend/pkg/db"
	"github.com/velora-dev/storefront-backend/pkg/logger"
	"github.com/velora-dev/storefront-backend/pkg/migrate"
	"github.com/velora-dev/storefront-backend/pkg/redis"
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

	gormDB := dbClient.DB()

	catalogRepo := catalogsvc.NewRepository(gormDB)
	cartRepo := cartsvc.NewRepository(gormDB)
	promoRepo := promosvc.NewRepository(gormDB)
	orderRepo := ordersvc.NewRepository(gormDB)
	notifRepo := notifsvc.NewRepository(gormDB)
	userRepo := usersvc.NewRepository(gormDB)

	catalogService, err := catalogsvc.NewService(catalogRepo)
	exitOnError(logg, "failed to create catalog service", err)

	cartService, err := cartsvc.NewService(cartRepo, catalogRepo)
	exitOnError(logg, "failed to create cart service", err)

	promoService, err := promosvc.NewService(promoRepo)
	exitOnError(logg, "failed to create promotions service", err)

	notifService, err := notifsvc.NewService(notifRepo)
	exitOnError(logg, "failed to create notifications service", err)

	orderService, err := ordersvc.NewService(
		dbClient,
		orderRepo,
		cartRepo,
		catalogRepo,
		promoService,
		notifService,
		cfg.Shipping,
		logg,
	)
	exitOnError(logg, "failed to create order service", err)

	userService, err := usersvc.NewService(userRepo, cfg.JWT, cfg.Password)
	exitOnError(logg, "failed to create user service", err)

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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Users:         userService,
			Catalog:       catalogService,
			Cart:          cartService,
			Orders:        orderService,
			Promotions:    promoService,
			Notifications: notifService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
