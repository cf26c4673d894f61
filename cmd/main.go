package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/config"
	"brand-domain-service/internal/events"
	"brand-domain-service/internal/handlers"
	"brand-domain-service/internal/models"
	"brand-domain-service/internal/repository"
	"brand-domain-service/internal/services"
	"brand-domain-service/internal/workers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load .env in development, ignore when absent
	_ = godotenv.Load()

	initLogging()

	log.Info().Msg("Starting brand-domain-service")

	cfg := config.NewConfig()

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := runMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient := initRedis(cfg)

	domainRepo := repository.NewDomainRepository(db)

	// Clients
	hostingClient := clients.NewHostingClient(&cfg.Provider)
	if hostingClient.Configured() {
		log.Info().Str("base_url", cfg.Provider.BaseURL).Msg("Hosting provider client configured")
	} else {
		log.Warn().Msg("Hosting provider not configured, registration and SSL will be simulated")
	}
	dohClient := clients.NewDoHClient(cfg.DNS.ResolverEndpoint)
	brandClient := clients.NewBrandClient(cfg)

	// NATS event publisher
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		eventPublisher, err = events.NewPublisher(cfg.NATS.URL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize NATS publisher, events will not be published")
			eventPublisher = nil
		}
	} else {
		log.Warn().Msg("NATS URL not configured, event publishing disabled")
	}

	// Services
	resolver := services.NewRequirementResolver(cfg, hostingClient)
	verifier := services.NewOwnershipVerifier(resolver, dohClient)
	sslReconciler := services.NewSSLReconciler(hostingClient)

	domainService := services.NewDomainService(
		cfg,
		domainRepo,
		resolver,
		verifier,
		sslReconciler,
		hostingClient,
		brandClient,
		redisClient,
		eventPublisher,
	)

	// Handlers
	domainHandlers := handlers.NewDomainHandlers(domainService)
	internalHandlers := handlers.NewInternalHandlers(domainService, db, redisClient)

	router := setupRouter(cfg, domainHandlers, internalHandlers)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startWorkers(ctx, cfg, domainRepo, domainService)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel context to stop workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	if redisClient != nil {
		redisClient.Close()
	}

	if eventPublisher != nil {
		eventPublisher.Close()
	}

	log.Info().Msg("Server exited")
}

func initLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Use JSON logging in production
	if os.Getenv("GIN_MODE") == "release" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default
	if os.Getenv("GIN_MODE") == "release" {
		gormLogger = logger.Default.LogMode(logger.Silent)
	} else {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func runMigrations(db *gorm.DB) error {
	log.Info().Msg("Running database migrations")

	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")

	return db.AutoMigrate(
		&models.Domain{},
		&models.DomainEvent{},
	)
}

func initRedis(cfg *config.Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse Redis URL, using defaults")
		opt = &redis.Options{
			Addr: fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis, caching disabled")
		return nil
	}

	log.Info().Msg("Connected to Redis")
	return client
}

func setupRouter(cfg *config.Config, domainHandlers *handlers.DomainHandlers, internalHandlers *handlers.InternalHandlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	// The service sits behind the API gateway, which handles auth and origin
	// restrictions. Requests carry no cookies so credentials stay off.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Brand-ID", "X-User-ID", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics endpoints
	router.GET("/health", internalHandlers.Health)
	router.GET("/ready", internalHandlers.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// DNS requirements (no auth, usable before a domain exists)
		dns := v1.Group("/dns")
		{
			dns.POST("/requirements", domainHandlers.GetRequirements)
		}

		// Domain routes (brand-scoped, authenticated at the gateway)
		domains := v1.Group("/domains")
		{
			domains.POST("", domainHandlers.CreateDomain)
			domains.GET("", domainHandlers.ListDomains)
			domains.GET("/:id", domainHandlers.GetDomain)
			domains.DELETE("/:id", domainHandlers.DeleteDomain)
			domains.POST("/:id/register", domainHandlers.RegisterDomain)
			domains.POST("/:id/verify", domainHandlers.VerifyDomain)
			domains.POST("/:id/ssl", domainHandlers.RequestSSL)
			domains.POST("/:id/primary", domainHandlers.SetPrimary)
			domains.GET("/:id/events", domainHandlers.GetEvents)
		}

		// Internal routes (service-to-service)
		internal := v1.Group("/internal")
		{
			internal.GET("/resolve", internalHandlers.ResolveDomain)
			internal.GET("/check", internalHandlers.CheckDomain)
		}
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func startWorkers(
	ctx context.Context,
	cfg *config.Config,
	repo *repository.DomainRepository,
	domainSvc *services.DomainService,
) {
	verificationWorker := workers.NewVerificationWorker(cfg, repo, domainSvc)
	go verificationWorker.Start(ctx)

	sslWorker := workers.NewSSLWorker(cfg, repo, domainSvc)
	go sslWorker.Start(ctx)

	cleanupWorker := workers.NewCleanupWorker(cfg, repo)
	go cleanupWorker.Start(ctx)

	log.Info().Msg("Background workers started")
}
