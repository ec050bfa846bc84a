package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cheapshop/backend/internal/auth"
	"github.com/cheapshop/backend/internal/config"
	"github.com/cheapshop/backend/internal/counter"
	"github.com/cheapshop/backend/internal/db"
	"github.com/cheapshop/backend/internal/handler"
	"github.com/cheapshop/backend/internal/inventory"
	"github.com/cheapshop/backend/internal/notify"
	"github.com/cheapshop/backend/internal/order"
	"github.com/cheapshop/backend/internal/product"
	"github.com/cheapshop/backend/internal/transport"
	"github.com/cheapshop/backend/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "cheapshop-backend").Logger()

	log.Info().Msg("Cheapshop backend starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	store, err := db.New(context.Background(), *cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	if err := store.ApplyMigrations(*cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	authMgr := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	seq := counter.New()
	ledger := inventory.New()

	var notifier order.Notifier = notify.Noop{}
	if cfg.Redis.Addr != "" {
		redisNotifier := notify.NewRedis(cfg.Redis.Addr, cfg.Redis.Channel)
		defer redisNotifier.Close()
		notifier = redisNotifier
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("Order notifications enabled")
	}

	orderSvc := order.NewService(store, store.Pool, order.NewRepository(), ledger, seq, notifier)
	productSvc := product.NewService(store, store.Pool, product.NewRepository(), seq)
	userSvc := user.NewService(store, store.Pool, user.NewRepository(), seq, authMgr)

	router := transport.NewRouter(
		handler.NewOrderHandler(orderSvc),
		handler.NewProductHandler(productSvc),
		handler.NewUserHandler(userSvc),
		authMgr,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
