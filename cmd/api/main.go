package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/perfuman/storefront-backend/api/routes"
	"github.com/perfuman/storefront-backend/internal/checkout"
	"github.com/perfuman/storefront-backend/internal/cron"
	"github.com/perfuman/storefront-backend/internal/orders"
	"github.com/perfuman/storefront-backend/internal/payments"
	"github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/config"
	"github.com/perfuman/storefront-backend/pkg/db"
	"github.com/perfuman/storefront-backend/pkg/logger"
	"github.com/perfuman/storefront-backend/pkg/mercadopago"
	"github.com/perfuman/storefront-backend/pkg/migrate"
	"github.com/perfuman/storefront-backend/pkg/redis"
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

	gateway, err := mercadopago.NewClient(context.Background(), cfg.MercadoPago, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(productsRepo, ordersRepo, gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(dbClient, ordersRepo, productsRepo, gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	expirer, err := cron.NewExpirer(cron.ExpirerParams{
		Logger:       logg,
		DB:           dbClient,
		OrdersRepo:   ordersRepo,
		ProductsRepo: productsRepo,
		PendingTTL:   cfg.Cron.PendingTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order expirer", err)
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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			ProductsRepo:    productsRepo,
			OrdersRepo:      ordersRepo,
			CheckoutService: checkoutService,
			PaymentsService: paymentsService,
			Expirer:         expirer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
