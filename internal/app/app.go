// Package app is the composition root: it loads configuration, connects the
// shared infrastructure, and wires the domain services together.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tokri-app/tokri-backend/internal/deliveries"
	"github.com/tokri-app/tokri-backend/internal/orders"
	"github.com/tokri-app/tokri-backend/internal/payments"
	"github.com/tokri-app/tokri-backend/internal/wallets"
	"github.com/tokri-app/tokri-backend/pkg/config"
	"github.com/tokri-app/tokri-backend/pkg/db"
	"github.com/tokri-app/tokri-backend/pkg/logger"
	"github.com/tokri-app/tokri-backend/pkg/razorpay"
	"github.com/tokri-app/tokri-backend/pkg/redis"
)

// App holds the wired service graph for embedding callers.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	DB    *db.Client
	Redis *redis.Client
	Locks redis.EntityLocker

	Gateway *razorpay.Client

	Orders     orders.Service
	Deliveries deliveries.Service
	Payments   payments.Service
	Wallets    wallets.Service
}

// New builds the full dependency graph from the environment.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig builds the dependency graph from an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	logg := logger.New(logger.Options{
		ServiceName: "tokri-backend",
		Level:       levelFor(cfg.App),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	locks := redisClient.NewEntityLock(cfg.Redis.LockTTL)

	gateway, err := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret,
		razorpay.WithBaseURL(cfg.Razorpay.BaseURL),
		razorpay.WithWebhookSecret(cfg.Razorpay.WebhookSecret),
		razorpay.WithHTTPClient(&http.Client{Timeout: cfg.Razorpay.Timeout}),
	)
	if err != nil {
		_ = redisClient.Close()
		_ = dbClient.Close()
		return nil, err
	}

	conn := dbClient.DB()
	orderRepo := orders.NewRepository(conn)
	deliveryRepo := deliveries.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)
	walletRepo := wallets.NewRepository(conn)

	orderSvc, err := orders.NewService(orderRepo, dbClient, locks)
	if err != nil {
		return nil, err
	}
	deliverySvc, err := deliveries.NewService(deliveryRepo, dbClient, locks)
	if err != nil {
		return nil, err
	}
	paymentSvc, err := payments.NewService(paymentRepo, orderRepo, gateway, dbClient, locks)
	if err != nil {
		return nil, err
	}
	walletSvc, err := wallets.NewService(walletRepo, dbClient, locks)
	if err != nil {
		return nil, err
	}

	logg.Info(ctx, "application wired")

	return &App{
		Config:     cfg,
		Log:        logg,
		DB:         dbClient,
		Redis:      redisClient,
		Locks:      locks,
		Gateway:    gateway,
		Orders:     orderSvc,
		Deliveries: deliverySvc,
		Payments:   paymentSvc,
		Wallets:    walletSvc,
	}, nil
}

// Close releases the shared connections.
func (a *App) Close() error {
	var first error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func levelFor(cfg config.AppConfig) zerolog.Level {
	if cfg.IsDev() {
		return zerolog.DebugLevel
	}
	return logger.ParseLevel(cfg.LogLevel)
}
