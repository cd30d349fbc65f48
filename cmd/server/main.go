package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appevent "github.com/restosuite/backend/internal/application/event"
	appsupply "github.com/restosuite/backend/internal/application/supply"
	"github.com/restosuite/backend/internal/domain/shared"
	"github.com/restosuite/backend/internal/infrastructure/cache"
	"github.com/restosuite/backend/internal/infrastructure/config"
	"github.com/restosuite/backend/internal/infrastructure/event"
	"github.com/restosuite/backend/internal/infrastructure/logger"
	"github.com/restosuite/backend/internal/infrastructure/persistence"
	"github.com/restosuite/backend/internal/infrastructure/telemetry"
	"github.com/restosuite/backend/internal/interfaces/http/handler"
	"github.com/restosuite/backend/internal/interfaces/http/middleware"
	"github.com/restosuite/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting RestoSuite Supply Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database query tracing
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:  cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB, log)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Event serializer knows all supply event types
	eventSerializer := event.NewEventSerializer()

	// Outbox publisher persists events in the same transaction as the order
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	purchaseOrderRepo.SetOutboxEventSaver(outboxPublisher)

	// Initialize application services
	receivingService := appsupply.NewReceivingService(purchaseOrderRepo)
	discrepancyService := appsupply.NewDiscrepancyService(purchaseOrderRepo)
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	// In-process event bus for same-binary subscribers
	eventBus := event.NewInMemoryEventBus(log)
	receivingService.SetEventPublisher(eventBus)
	discrepancyService.SetEventPublisher(eventBus)

	// Outbox processor republishes persisted events with retries
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			processorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			processorConfig.PollInterval = cfg.Event.PollInterval
		}
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Bucket counts cache. The service works without it, so a Redis outage
	// only costs the dashboard a recomputation.
	bucketCache, err := cache.NewRedisBucketCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, bucket counts will be computed per request", zap.Error(err))
	} else {
		defer func() {
			if err := bucketCache.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		receivingService.SetBucketCache(bucketCache)
		discrepancyService.SetBucketCache(bucketCache)

		// Deduplicate bus deliveries; the outbox processor republishes
		// events the services already pushed synchronously
		idempotencyStore := cache.NewRedisIdempotencyStoreWithClient(bucketCache.Client(), "")
		eventBus.SetIdempotencyStore(idempotencyStore, shared.DefaultIdempotencyConfig())

		log.Info("Redis bucket cache connected")
	}

	// Initialize HTTP handlers
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(receivingService, discrepancyService)
	systemHandler := handler.NewSystemHandler(db)
	outboxHandler := handler.NewOutboxHandler(outboxService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Tenant context is required on all API routes except health checks
	engine.Use(middleware.TenantMiddleware())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	supplyRoutes := router.NewDomainGroup("supply", "/supply")
	supplyRoutes.POST("/purchase-orders", purchaseOrderHandler.Create)
	supplyRoutes.GET("/purchase-orders", purchaseOrderHandler.List)
	supplyRoutes.GET("/purchase-orders/buckets", purchaseOrderHandler.Buckets)
	supplyRoutes.GET("/purchase-orders/buckets/counts", purchaseOrderHandler.BucketCounts)
	supplyRoutes.GET("/purchase-orders/:id", purchaseOrderHandler.GetByID)
	supplyRoutes.POST("/purchase-orders/:id/schedule", purchaseOrderHandler.Schedule)
	supplyRoutes.POST("/purchase-orders/:id/transit", purchaseOrderHandler.MarkInTransit)
	supplyRoutes.GET("/purchase-orders/:id/inspection-sheet", purchaseOrderHandler.InspectionSheet)
	supplyRoutes.POST("/purchase-orders/:id/receive", purchaseOrderHandler.SubmitInspection)
	supplyRoutes.GET("/purchase-orders/:id/discrepancies", purchaseOrderHandler.Discrepancies)
	supplyRoutes.POST("/purchase-orders/:id/discrepancies", purchaseOrderHandler.SubmitDiscrepancies)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/stats", outboxHandler.Stats)
	systemRoutes.GET("/outbox/dead-letters", outboxHandler.ListDeadLetters)
	systemRoutes.POST("/outbox/dead-letters/retry-all", outboxHandler.RetryAllDeadLetters)
	systemRoutes.GET("/outbox/entries/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/entries/:id/retry", outboxHandler.RetryDeadLetter)

	r.Register(supplyRoutes).Register(systemRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
