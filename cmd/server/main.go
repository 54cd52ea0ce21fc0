package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"payment-links.backend/internal/config"
	domainrepos "payment-links.backend/internal/domain/repositories"
	"payment-links.backend/internal/infrastructure/jobs"
	"payment-links.backend/internal/infrastructure/orderstore"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/internal/infrastructure/repositories"
	"payment-links.backend/internal/interfaces/http/handlers"
	"payment-links.backend/internal/interfaces/http/middleware"
	"payment-links.backend/internal/usecases"
	"payment-links.backend/pkg/crypto"
	"payment-links.backend/pkg/httpclient"
	"payment-links.backend/pkg/jwt"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/redis"
)

const (
	idempotencyLockTTL      = 2 * time.Minute
	idempotencyRetentionTTL = 24 * time.Hour
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	newSecretBox = crypto.NewSecretBox
	runServer    = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB     = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	// Redis backs the Idempotency-Key response store
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(ctx, "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(ctx, "Connected to PostgreSQL via GORM")
	}

	secretBox, err := newSecretBox(cfg.Security.CredentialEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize credential cipher: %w", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Repositories
	configRepo := repositories.NewCurrencyConfigRepository(db)
	linkRepo := repositories.NewPaymentLinkRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)
	apiTokenRepo := repositories.NewApiTokenRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Outbound clients
	httpClient := httpclient.NewDefaultClient(cfg.PayU.HTTPTimeout)
	payuClient := payu.NewClient(httpClient, payu.Endpoints{
		UATAccountsURL:  cfg.PayU.UATAccountsURL,
		ProdAccountsURL: cfg.PayU.ProdAccountsURL,
		UATAPIURL:       cfg.PayU.UATAPIURL,
		ProdAPIURL:      cfg.PayU.ProdAPIURL,
	})
	orderClient := orderstore.NewClient(httpClient, cfg.OrderStore.URL, cfg.OrderStore.Key, cfg.OrderStore.Secret)
	var notifier domainrepos.OrderNotifier
	if cfg.OrderStore.URL != "" {
		notifier = orderClient
	} else {
		logger.Warn(ctx, "ORDER_STORE_URL is not set, order lookups will fail and paid orders will not be updated")
	}

	// Usecases
	tokenManager := usecases.NewTokenManager(apiTokenRepo, payuClient, cfg.PayU.TokenBuffer)
	configUsecase := usecases.NewCurrencyConfigUsecase(configRepo, uow, secretBox, payuClient)
	linkUsecase := usecases.NewPaymentLinkUsecase(linkRepo, txnRepo, orderClient, configUsecase, tokenManager, payuClient, usecases.LinkOptions{
		CallbackBaseURL: cfg.PayU.CallbackBaseURL,
		InvoiceLength:   cfg.PayU.InvoiceLength,
	})
	reconUsecase := usecases.NewReconciliationUsecase(linkRepo, txnRepo, orderClient, uow, configUsecase, tokenManager, payuClient, notifier)

	// Handlers
	webhookHandler := handlers.NewPayUWebhookHandler(reconUsecase)
	statusHandler := handlers.NewPaymentLinkStatusHandler(reconUsecase)
	linkHandler := handlers.NewPaymentLinkHandler(linkUsecase, reconUsecase)
	configHandler := handlers.NewCurrencyConfigHandler(configUsecase)

	// Start background jobs
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	expiryJob := jobs.NewPaymentLinkExpiryJob(linkRepo, cfg.Jobs.LinkExpiryInterval)
	go expiryJob.Start(jobCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerPayUWebhookRoute(r, webhookHandler)
	registerAPIV1Routes(r, routeDeps{
		paymentLinkHandler:    linkHandler,
		statusHandler:         statusHandler,
		currencyConfigHandler: configHandler,
		authMiddleware:        middleware.AuthMiddleware(jwtService),
		idempotency:           middleware.IdempotencyMiddleware(redis.NewResponseStore(idempotencyLockTTL, idempotencyRetentionTTL)),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(ctx, "Shutting down server")
		expiryJob.Stop()
		cancel()
	}()

	logger.Info(ctx, "Payment links backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("webhook", cfg.PayU.CallbackBaseURL+"/payu/webhook"),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
