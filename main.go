package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"loan-dashboard/config"
	httpLayer "loan-dashboard/http"
	"loan-dashboard/logging"
	"loan-dashboard/repository"
	"loan-dashboard/service"
	"loan-dashboard/tracing"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	cache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	store := service.NewLoanStore(cache,
		service.WithStorageKey(cfg.Storage.Key),
		service.WithStoreLogger(logger.Named("store")),
	)
	if err := store.Load(ctx); err != nil {
		return err
	}

	recorder, err := openRecorder(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("close payment history", zap.Error(err))
		}
	}()

	limits := service.Limits{
		MaxLoanAmount:   cfg.Limits.MaxLoanAmount,
		MaxInterestRate: cfg.Limits.MaxInterestRate,
		MaxTermMonths:   cfg.Limits.MaxTermMonths,
	}
	loanService := service.NewLoanService(limits)
	calculator := service.NewCalculator(limits)
	payments := service.NewPaymentService(store, recorder, logger.Named("payments"))
	schedule := service.NewScheduleService(store)

	ai := service.NewAIService(service.AIConfig{
		APIKey:      cfg.AI.APIKey,
		APIURL:      cfg.AI.APIURL,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	}, logger.Named("ai"))
	if !ai.Enabled() {
		logger.Warn("OPENAI_API_KEY not set: chat will fail and recommendations use the fallback set")
	}
	chat := service.NewChatService(ai, limits, logger.Named("chat"))
	recommendations := service.NewRecommendationService(ai, logger.Named("recommendations"))

	if cfg.Reminder.Enabled {
		reminder := service.NewReminder(store, cfg.Reminder.WindowDays, logger.Named("reminder"))
		if err := reminder.Register(cfg.Reminder.Cron); err != nil {
			return err
		}
		reminder.Start()
		defer reminder.Stop()
	}

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer rateLimiter.Stop()

	router := httpLayer.NewRouter(httpLayer.Handlers{
		Loans:      httpLayer.NewLoanHandler(store, loanService, logger),
		Payments:   httpLayer.NewPaymentHandler(payments, schedule, logger),
		Calculator: httpLayer.NewCalculatorHandler(loanService, calculator, store, logger),
		Chat:       httpLayer.NewChatHandler(chat, recommendations, store, logger),
	}, rateLimiter, logger.Named("http"))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.CacheRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		cache := repository.NewRedisCache(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			_ = cache.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Storage.RedisAddr, err)
		}
		logger.Info("storing loans in redis", zap.String("addr", cfg.Storage.RedisAddr))
		return cache, func() { _ = cache.Close() }, nil
	case config.DriverFile:
		cache, err := repository.NewFileCache(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("storing loans on disk", zap.String("dir", cfg.Storage.DataDir))
		return cache, func() {}, nil
	default:
		logger.Info("storing loans in memory")
		return repository.NewMemoryCache(), func() {}, nil
	}
}

func openRecorder(cfg *config.Config, logger *zap.Logger) (repository.PaymentRecorder, error) {
	if cfg.History.SQLitePath == "" {
		return repository.NewMemoryPaymentRecorder(), nil
	}
	return repository.NewSQLitePaymentRecorder(cfg.History.SQLitePath, logger.Named("history"))
}
