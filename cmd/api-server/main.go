package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pielarmonia/booking-service/internal/api"
	"github.com/pielarmonia/booking-service/internal/booking"
	"github.com/pielarmonia/booking-service/internal/calendar"
	"github.com/pielarmonia/booking-service/internal/config"
	"github.com/pielarmonia/booking-service/internal/logging"
	"github.com/pielarmonia/booking-service/internal/payment"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("api-server starting",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store", cfg.StorePath()),
		zap.Bool("encrypted", cfg.EncryptionKey != ""))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := booking.NewEngine(booking.EngineConfig{
		Path:        cfg.StorePath(),
		Key:         booking.DeriveKey(cfg.EncryptionKey),
		MaxBackups:  cfg.MaxBackups,
		LockTimeout: cfg.LockTimeout,
		LockPoll:    cfg.LockPoll,
		Logger:      logger,
	})
	if _, err := engine.Load(); err != nil {
		logger.Fatal("store unreadable", zap.Error(err))
	}

	var pay payment.Adapter
	if cfg.StripeKey != "" {
		pay = payment.NewStripeAdapter(cfg.StripeKey)
		logger.Info("stripe payment adapter enabled")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = api.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer rdb.Close()
		logger.Info("rate limiter enabled", zap.String("redis", cfg.RedisAddr))
	}

	svc := booking.NewService(engine, calendar.Inactive{}, pay, booking.ServiceConfig{
		Currency:        cfg.Currency,
		VATRate:         cfg.VATRate,
		SiteID:          cfg.SiteID,
		DefaultSchedule: cfg.DefaultSchedule,
	}, logger)

	router := api.NewRouter(api.RouterConfig{
		Service:   svc,
		Store:     engine,
		Redis:     rdb,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
		Env:       cfg.Env,
		Version:   version,
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", server.Addr))

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
