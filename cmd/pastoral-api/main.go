package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/pastoral-familiar/pastoral-api/api/swagger"
	"github.com/pastoral-familiar/pastoral-api/internal/handler"
	internalmiddleware "github.com/pastoral-familiar/pastoral-api/internal/middleware"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/internal/repository"
	"github.com/pastoral-familiar/pastoral-api/internal/service"
	"github.com/pastoral-familiar/pastoral-api/pkg/backend"
	"github.com/pastoral-familiar/pastoral-api/pkg/cache"
	"github.com/pastoral-familiar/pastoral-api/pkg/config"
	"github.com/pastoral-familiar/pastoral-api/pkg/database"
	"github.com/pastoral-familiar/pastoral-api/pkg/export"
	"github.com/pastoral-familiar/pastoral-api/pkg/jobs"
	"github.com/pastoral-familiar/pastoral-api/pkg/logger"
	corsmiddleware "github.com/pastoral-familiar/pastoral-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pastoral-familiar/pastoral-api/pkg/middleware/requestid"
	"github.com/pastoral-familiar/pastoral-api/pkg/storage"
)

// @title Pastoral Familiar API
// @version 1.0.0
// @description Transport allocation for parish events and identity-challenge sign-in.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type auditTrail interface {
	Create(ctx context.Context, audit *models.PersistAudit) error
	ListByEvent(ctx context.Context, eventID string, limit int) ([]models.PersistAudit, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := cfg.Location()
	validate := validator.New()
	metrics := service.NewMetricsService()

	backendClient := backend.New(backend.Options{
		BaseURL:     cfg.Backend.BaseURL,
		APIKey:      cfg.Backend.APIKey,
		Timeout:     cfg.Backend.Timeout,
		ReadRetries: cfg.Backend.ReadRetries,
		Logger:      logr.Named("backend"),
	})
	postalClient := backend.New(backend.Options{
		BaseURL:     cfg.Postal.BaseURL,
		Timeout:     cfg.Postal.Timeout,
		ReadRetries: 1,
		Logger:      logr.Named("postal"),
	})

	elderRepo := repository.NewElderRepository(backendClient)
	memberRepo := repository.NewMemberRepository(backendClient)
	eventRepo := repository.NewEventRepository(backendClient)
	scheduleRepo := repository.NewScheduleRepository(backendClient)
	postalRepo := repository.NewPostalRepository(postalClient)

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	var (
		cacheBackend service.CacheRepository
		cacheRepo    *repository.CacheRepository
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheBackend = cacheRepo
		defer cacheRepo.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(cacheBackend, metrics, cfg.Postal.CacheTTL, logr, cacheBackend != nil)

	var audit auditTrail
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect audit database", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		audit = repository.NewAuditRepository(db)
	}

	allocationSvc := service.NewAllocationService(
		elderRepo, memberRepo, eventRepo, scheduleRepo,
		audit, metrics, validate, logr.Named("allocation"),
		service.AllocationConfig{PersistTimeout: cfg.Allocation.PersistTimeout},
	)
	persistQueue := jobs.NewQueue("schedule-persist", allocationSvc.HandlePersistJob, jobs.QueueConfig{
		Workers:         cfg.Allocation.PersistWorkers,
		BufferSize:      cfg.Allocation.PersistBuffer,
		NoRetry:         true,
		OnDrop:          allocationSvc.HandleDroppedPersist,
		ShutdownTimeout: cfg.Allocation.DrainTimeout,
		Logger:          logr.Named("persist"),
	})
	allocationSvc.UseDispatcher(persistQueue)
	persistQueue.Start(context.Background())

	sessionSvc := service.NewSessionService(service.SessionConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	var challengeStore service.ChallengeStore = service.NewMemoryChallengeStore()
	if cfg.Challenge.Store == config.ChallengeStoreRedis {
		if cacheRepo == nil {
			logr.Fatal("CHALLENGE_STORE=redis requires ENABLE_REDIS=true")
		}
		challengeStore = service.NewRedisChallengeStore(cacheRepo)
	}
	challengeSvc := service.NewChallengeService(memberRepo, challengeStore, sessionSvc, metrics, validate, logr.Named("challenge"),
		service.ChallengeConfig{TTL: cfg.Challenge.TTL, HashCost: cfg.Challenge.HashCost, Location: loc})

	eventSvc := service.NewEventService(eventRepo, allocationSvc, validate, logr.Named("events"), loc)
	manifestSvc := service.NewManifestService(
		allocationSvc,
		export.NewPDFExporter(),
		export.NewCSVExporter(';', true),
		storage.NewSignedURLSigner(cfg.Manifests.ShareSecret, cfg.Manifests.ShareTTL),
		logr.Named("manifests"),
		service.ManifestConfig{PublicBaseURL: cfg.PublicBaseURL, APIPrefix: cfg.APIPrefix, Location: loc},
	)
	elderSvc := service.NewElderService(elderRepo, validate, logr.Named("elders"))
	postalSvc := service.NewPostalService(postalRepo, cacheSvc, cfg.Postal.CacheTTL, logr.Named("postal"))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": backendClient.BaseURL()})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/stats", metricsHandler.Stats)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Allocation: handler.NewAllocationHandler(allocationSvc, audit),
		Manifest:   handler.NewManifestHandler(manifestSvc),
		Event:      handler.NewEventHandler(eventSvc),
		Challenge:  handler.NewChallengeHandler(challengeSvc),
		Elder:      handler.NewElderHandler(elderSvc),
		Postal:     handler.NewPostalHandler(postalSvc),
	}, internalmiddleware.JWT(sessionSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	persistQueue.Stop()
}
