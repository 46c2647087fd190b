package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keepup/backend/internal/application/media"
	"github.com/keepup/backend/internal/application/publication"
	"github.com/keepup/backend/internal/infrastructure/auth"
	"github.com/keepup/backend/internal/infrastructure/catalogstore"
	"github.com/keepup/backend/internal/infrastructure/config"
	"github.com/keepup/backend/internal/infrastructure/logger"
	"github.com/keepup/backend/internal/infrastructure/notification"
	"github.com/keepup/backend/internal/infrastructure/persistence"
	"github.com/keepup/backend/internal/infrastructure/storage"
	"github.com/keepup/backend/internal/infrastructure/telemetry"
	"github.com/keepup/backend/internal/interfaces/http/handler"
	"github.com/keepup/backend/internal/interfaces/http/middleware"
	"github.com/keepup/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
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

	log.Info("Starting KeepUp Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx := context.Background()

	// Telemetry providers. Traces, metrics, and log export share one toggle;
	// when disabled every provider degrades to a no-op.
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Bridge zap into OTLP so application logs land next to traces
	if cfg.Telemetry.Enabled {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore)
	}

	// Continuous profiling ships to Pyroscope independently of OTLP
	if cfg.Telemetry.ProfilerEnabled {
		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:             true,
			ServerAddress:       cfg.Telemetry.ProfilerServerAddress,
			ApplicationName:     cfg.Telemetry.ServiceName,
			ProfileCPU:          true,
			ProfileAllocObjects: true,
			ProfileAllocSpace:   true,
			ProfileInuseObjects: true,
			ProfileInuseSpace:   true,
			ProfileGoroutines:   true,
		}, log)
		if err != nil {
			log.Warn("Failed to start profiler, continuing without it", zap.Error(err))
		} else {
			defer func() {
				if err := profiler.Stop(); err != nil {
					log.Error("Error stopping profiler", zap.Error(err))
				}
			}()
			if err := tracerProvider.EnableSpanProfiles(); err != nil {
				log.Warn("Failed to enable span profiles", zap.Error(err))
			}
		}
	}

	// Internal CRM store
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	internalDB, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to internal database", zap.Error(err))
	}
	defer func() {
		if err := internalDB.Close(); err != nil {
			log.Error("Error closing internal database", zap.Error(err))
		}
	}()
	log.Info("Internal database connected")

	// Public catalog store. A separate connection on purpose: there is no
	// shared transaction between the two databases.
	catalogDB, err := persistence.NewDatabaseWithLogger(&cfg.Catalog.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to catalog database", zap.Error(err))
	}
	defer func() {
		if err := catalogDB.Close(); err != nil {
			log.Error("Error closing catalog database", zap.Error(err))
		}
	}()
	log.Info("Catalog database connected")

	// Database observability for both stores
	if cfg.Telemetry.Enabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		dbTracing := telemetry.NewDBTracingPlugin(tracingCfg, log)
		if err := dbTracing.RegisterOtelGorm(internalDB.DB); err != nil {
			log.Warn("Failed to register internal DB tracing", zap.Error(err))
		}
		if err := dbTracing.RegisterOtelGorm(catalogDB.DB); err != nil {
			log.Warn("Failed to register catalog DB tracing", zap.Error(err))
		}

		dbMetrics, err := telemetry.RegisterDBMetrics(internalDB.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
		if err != nil {
			log.Warn("Failed to register DB metrics", zap.Error(err))
		} else if dbMetrics != nil {
			dbMetrics.StartPoolStatsCollection(rootCtx)
			defer dbMetrics.Stop()
		}
	}

	// Token blacklist: Redis when reachable, in-memory otherwise. Logout
	// revocation survives restarts only with Redis.
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
		log.Info("Redis token blacklist connected")
	}

	// Repositories over the internal store
	homeRepo := persistence.NewGormHomeRepository(internalDB.DB)
	communityRepo := persistence.NewGormCommunityRepository(internalDB.DB)
	floorPlanRepo := persistence.NewGormFloorPlanRepository(internalDB.DB)
	profileRepo := persistence.NewGormMarketingProfileRepository(internalDB.DB)
	companyRepo := persistence.NewGormCompanyRepository(internalDB.DB)

	// Public catalog writer
	catalogStore := catalogstore.NewGormStore(catalogDB.DB)

	// Media storage: S3 (or any S3-compatible endpoint) with a stub
	// fallback for credential-less development environments
	urlResolver := storage.NewURLResolver(&cfg.Storage)
	var objectStorage media.ObjectStorageService
	s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		log.Warn("Object storage unavailable, using stub storage", zap.Error(err))
		objectStorage = storage.NewStubObjectStorage()
	} else {
		bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Storage.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Could not ensure storage bucket exists", zap.Error(err),
				zap.String("bucket", s3Storage.GetBucket()))
		}
		cancelBucket()
		objectStorage = s3Storage
	}

	// Application services
	notifier := notification.NewLogNotifier(log)
	loader := publication.NewContextLoader(homeRepo, communityRepo, floorPlanRepo, profileRepo, companyRepo)
	builder := publication.NewBuilder(urlResolver)
	publicationService := publication.NewService(
		homeRepo, loader, builder, catalogStore, notifier, log,
		cfg.Publication.OperationTimeout,
	)

	mediaService := media.NewService(homeRepo, objectStorage)
	mediaCfg := media.DefaultServiceConfig()
	if cfg.Storage.PresignExpiration > 0 {
		mediaCfg.UploadURLExpiry = cfg.Storage.PresignExpiration
	}
	mediaService.SetConfig(mediaCfg)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Business metrics with periodic catalog footprint collection
	if cfg.Telemetry.Enabled {
		metricsProvider := persistence.NewGormListingMetricsProvider(internalDB.DB)
		publicationMetrics, err := telemetry.NewPublicationMetrics(telemetry.PublicationMetricsConfig{
			Meter:           meterProvider.Meter("keepup.publication"),
			Logger:          log,
			CatalogProvider: metricsProvider,
		})
		if err != nil {
			log.Warn("Failed to initialize publication metrics", zap.Error(err))
		} else {
			publicationMetrics.StartPeriodicCollection(rootCtx, metricsProvider, 5*time.Minute)
			defer publicationMetrics.Stop()
			publicationService.SetMetrics(publicationMetrics)
			mediaService.SetMetrics(publicationMetrics)
		}
	}

	// HTTP handlers
	publicationHandler := handler.NewPublicationHandler(publicationService, cfg.Publication.MappingAdminPath)
	mediaHandler := handler.NewMediaHandler(mediaService, cfg.Publication.MappingAdminPath)
	systemHandler := handler.NewSystemHandler(internalDB, catalogDB)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.HTTPMetricsWithMeter(
		meterProvider.Meter("keepup.http"),
		cfg.Telemetry.Enabled,
	))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   cfg.Telemetry.ProfilerEnabled,
		SkipPaths: []string{"/health", "/api/v1/health"},
	}))

	// Health endpoints carry no credentials: deployment probes and the
	// dashboard hit them before any auth context exists.
	public := engine.Group("/api/v1")
	systemHandler.RegisterRoutes(public)

	// Everything else requires a valid token, a company scope, and a
	// recognized role.
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: tokenBlacklist,
			Logger:         log,
		}),
		middleware.CompanyMiddlewareWithConfig(middleware.CompanyMiddlewareConfig{
			HeaderEnabled: true,
			Logger:        log,
		}),
		middleware.RequireAnyRole(
			auth.RoleUser,
			auth.RoleManager,
			auth.RoleCompanyAdmin,
			auth.RoleSuperAdmin,
		),
	)
	r.Register(publicationHandler).
		Register(mediaHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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
