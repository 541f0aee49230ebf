package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/infrastructure/cache"
	"github.com/grantflow/backend/internal/infrastructure/config"
	"github.com/grantflow/backend/internal/infrastructure/logger"
	"github.com/grantflow/backend/internal/infrastructure/notify"
	"github.com/grantflow/backend/internal/infrastructure/persistence"
	"github.com/grantflow/backend/internal/infrastructure/storage"
	"github.com/grantflow/backend/internal/interfaces/http/handler"
	"github.com/grantflow/backend/internal/interfaces/http/middleware"
	"github.com/grantflow/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer log.Sync() //nolint:errcheck

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// Repositories
	reportRepo := persistence.NewGormReportRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	bankAccountRepo := persistence.NewGormBankAccountRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)
	auditSink := persistence.NewGormAuditSink(db.DB)

	// Object storage for report files and payment receipts
	blobStore, err := storage.NewS3BlobStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}
	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := blobStore.EnsureBucket(ensureCtx); err != nil {
		ensureCancel()
		log.Fatal("failed to ensure storage bucket", zap.Error(err))
	}
	ensureCancel()

	// Idempotency store for settlement deduplication
	idemStore, err := cache.NewIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize idempotency store", zap.Error(err))
	}
	defer idemStore.Close() //nolint:errcheck

	idemConfig := shared.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Enabled: cfg.Idempotency.Enabled,
	}

	notifier := notify.NewLogNotifier(log)
	clock := grant.SystemClock{}

	// Application services
	orchestrator := grantapp.NewDisbursementOrchestrator(txManager, notifier, clock, log)
	reportService := grantapp.NewReportWorkflowService(
		reportRepo, enrollmentRepo, txManager, blobStore, orchestrator, notifier, clock, log,
	)
	settlementService := grantapp.NewPaymentSettlementService(
		paymentRepo, bankAccountRepo, blobStore, auditSink, notifier,
		idemStore, idemConfig, clock, log,
	)
	bankService := grantapp.NewBankValidationService(bankAccountRepo, auditSink, notifier, clock, log)
	enrollmentService := grantapp.NewEnrollmentService(enrollmentRepo, txManager, auditSink, notifier, log)

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(db)
	reportHandler := handler.NewReportHandler(reportService)
	paymentHandler := handler.NewPaymentHandler(settlementService)
	bankAccountHandler := handler.NewBankAccountHandler(bankService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(systemHandler).
		Register(reportHandler).
		Register(paymentHandler).
		Register(bankAccountHandler).
		Register(enrollmentHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
