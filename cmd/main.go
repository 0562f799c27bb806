package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/bolao-system/cache"
	"github.com/Dosada05/bolao-system/config"
	"github.com/Dosada05/bolao-system/db"
	"github.com/Dosada05/bolao-system/handlers"
	"github.com/Dosada05/bolao-system/live"
	"github.com/Dosada05/bolao-system/pix"
	"github.com/Dosada05/bolao-system/repositories"
	api "github.com/Dosada05/bolao-system/routes"
	"github.com/Dosada05/bolao-system/services"
	"github.com/Dosada05/bolao-system/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const requestTimeout = 30 * time.Second

// @title Bolão API
// @version 1.0
// @description Палпиты, рейтинг и PIX-оплаты билетов.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(appCtx, dbConn, logger); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	rankingCache := newRankingCache(appCtx, cfg, logger)
	uploader := newUploader(appCtx, cfg, logger)
	gateway := newPixGateway(cfg, logger)

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(appCtx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	contestRepo := repositories.NewPostgresContestRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	predictionRepo := repositories.NewPostgresPredictionRepository(dbConn)
	paymentRepo := repositories.NewPostgresPaymentRepository(dbConn)
	snapshotRepo := repositories.NewPostgresSnapshotRepository(dbConn, contestRepo, matchRepo, predictionRepo)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, []byte(cfg.JWTSecretKey), logger)
	rankingService := services.NewRankingService(snapshotRepo, contestRepo, rankingCache, wsHub, logger)
	contestService := services.NewContestService(contestRepo, matchRepo, uploader, logger)
	matchService := services.NewMatchService(matchRepo, contestRepo, rankingService, uploader, logger)
	paymentService := services.NewPaymentService(
		paymentRepo,
		gateway,
		rankingService,
		wsHub,
		services.PaymentServiceConfig{
			ChargeExpiration: cfg.PixChargeExpiration,
			WebhookSecret:    cfg.PixWebhookSecret,
		},
		logger,
	)
	predictionService := services.NewPredictionService(
		dbConn, // транзакция на весь билет
		predictionRepo,
		contestRepo,
		matchRepo,
		paymentRepo,
		paymentService,
		rankingService,
		logger,
	)
	dashboardService := services.NewDashboardService(contestRepo, matchRepo, predictionRepo, paymentRepo)
	logger.Info("Services initialized")

	if _, err := authService.EnsureAdmin(appCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		logger.Error("failed to bootstrap admin user", slog.Any("error", err))
		os.Exit(1)
	}

	go runScheduler(appCtx, cfg.ReconcileInterval, contestService, paymentService, logger)

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Contest:   handlers.NewContestHandler(contestService),
		Match:     handlers.NewMatchHandler(matchService),
		Ticket:    handlers.NewTicketHandler(predictionService),
		Ranking:   handlers.NewRankingHandler(rankingService),
		Payment:   handlers.NewPaymentHandler(paymentService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, rankingService, cfg.CORSAllowedOrigins, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: requestTimeout,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
		// WriteTimeout не задаём: websocket-соединения живут долго,
		// остальные запросы ограничены middleware Timeout.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			cancelApp()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		// планировщик и хаб останавливаются вместе с appCtx
		cancelApp()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// newRankingCache подключает Redis, если он настроен и отвечает. Иначе рейтинг
// считается на каждый запрос.
func newRankingCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.RankingCache {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, ranking cache disabled")
		return cache.NewNoopRankingCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, ranking cache disabled", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		_ = client.Close()
		return cache.NewNoopRankingCache()
	}

	logger.Info("Redis ranking cache initialized", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.RankingCacheTTL))
	return cache.NewRedisRankingCache(client, cfg.RankingCacheTTL, logger)
}

func newUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) storage.FileUploader {
	if !cfg.R2Enabled() {
		logger.Info("R2 not configured, photo uploads disabled")
		return nil
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader, photo uploads disabled", slog.Any("error", err))
		return nil
	}
	logger.Info("Cloudflare R2 uploader initialized")
	return uploader
}

func newPixGateway(cfg *config.Config, logger *slog.Logger) pix.Gateway {
	if !cfg.PixEnabled() {
		logger.Warn("PIX gateway not configured, paid tickets are rejected")
		return pix.NewDisabledGateway()
	}

	gateway, err := pix.NewEfiGateway(pix.EfiConfig{
		BaseURL:      cfg.PixBaseURL,
		ClientID:     cfg.PixClientID,
		ClientSecret: cfg.PixClientSecret,
		CertFile:     cfg.PixCertFile,
		KeyFile:      cfg.PixKeyFile,
		PixKey:       cfg.PixKey,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize PIX gateway, payments disabled", slog.Any("error", err))
		return pix.NewDisabledGateway()
	}
	logger.Info("PIX gateway initialized", slog.String("base_url", cfg.PixBaseURL))
	return gateway
}

// runScheduler закрывает конкурсы по датам и сверяет ожидающие платежи.
func runScheduler(
	ctx context.Context,
	interval time.Duration,
	contests services.ContestService,
	payments services.PaymentService,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("Scheduler started", slog.Duration("interval", interval))

	tick := func() {
		if err := contests.AutoUpdateStatuses(ctx); err != nil {
			logger.Error("Scheduler: contest status update failed", slog.Any("error", err))
		}
		// итог сверки логирует сам сервис
		if _, err := payments.ReconcilePending(ctx); err != nil {
			if errors.Is(err, services.ErrPaymentsDisabled) {
				logger.Debug("Scheduler: payments disabled, reconciliation skipped")
				return
			}
			logger.Error("Scheduler: payment reconciliation failed", slog.Any("error", err))
		}
	}

	// первый прогон сразу при старте
	tick()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			tick()
		}
	}
}
