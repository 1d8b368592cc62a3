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

	_ "github.com/jizzpi-arm/book-deposit-api/api/swagger"
	"github.com/jizzpi-arm/book-deposit-api/internal/certificate"
	"github.com/jizzpi-arm/book-deposit-api/internal/feed"
	"github.com/jizzpi-arm/book-deposit-api/internal/handler"
	"github.com/jizzpi-arm/book-deposit-api/internal/middleware"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	"github.com/jizzpi-arm/book-deposit-api/internal/repository"
	"github.com/jizzpi-arm/book-deposit-api/internal/service"
	"github.com/jizzpi-arm/book-deposit-api/pkg/cache"
	"github.com/jizzpi-arm/book-deposit-api/pkg/config"
	"github.com/jizzpi-arm/book-deposit-api/pkg/database"
	"github.com/jizzpi-arm/book-deposit-api/pkg/logger"
	corsmiddleware "github.com/jizzpi-arm/book-deposit-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jizzpi-arm/book-deposit-api/pkg/middleware/requestid"
	"github.com/jizzpi-arm/book-deposit-api/pkg/storage"
)

// @title ARM Book Deposit API
// @version 1.0.0
// @description Book submission, review and certificate verification service for the JizzPI information resource center
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API degrades without Redis: no cross-instance feed
		// fan-out and no stats caching.
		logr.Sugar().Warnw("redis unavailable, running degraded", "error", err)
		redisClient = nil
	}

	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}

	validate := validator.New()

	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var statsCache *repository.CacheRepository
	if redisClient != nil {
		statsCache = repository.NewCacheRepository(redisClient, logr)
	}

	broker := feed.NewBroker()
	feedSvc := service.NewFeedService(submissionRepo, broker, redisClient, logr)

	renderer := certificate.NewRenderer(certificate.Config{
		Institution: cfg.Documents.Institution,
		Ministry:    cfg.Documents.Ministry,
		BaseURL:     cfg.Verification.BaseURL,
		QRSize:      cfg.Verification.QRSize,
	})
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	documentSvc := service.NewDocumentService(submissionRepo, renderer, documentStore, signer, logr, service.DocumentConfig{
		DownloadPath:     cfg.APIPrefix + "/documents",
		PrerenderWorkers: cfg.Documents.PrerenderWorkers,
	})

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	var submissionCache service.StatsCache
	if statsCache != nil {
		submissionCache = statsCache
	}
	submissionSvc := service.NewSubmissionService(submissionRepo, auditRepo, feedSvc, submissionCache, documentSvc, validate, logr, service.SubmissionConfig{
		MaxBooks: cfg.Submissions.MaxBooks,
		StatsTTL: cfg.Stats.CacheTTL,
	})
	verificationSvc := service.NewVerificationService(submissionRepo, logr)
	exportSvc := service.NewExportService(submissionRepo, logr)
	metricsSvc := service.NewMetricsService(broker.Subscribers)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	documentSvc.Start(rootCtx)
	defer documentSvc.Stop()
	go feedSvc.Run(rootCtx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, exportSvc, feedSvc, metricsSvc)
	verifyHandler := handler.NewVerifyHandler(verificationSvc)
	certificateHandler := handler.NewCertificateHandler(documentSvc, metricsSvc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.GET("/verify", verifyHandler.Verify)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/submissions", submissionHandler.Create)
		api.GET("/documents/:token", certificateHandler.Download)

		admin := api.Group("")
		admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
		{
			admin.GET("/submissions", submissionHandler.List)
			admin.GET("/submissions/stats", submissionHandler.Stats)
			admin.GET("/submissions/export", submissionHandler.Export)
			admin.GET("/submissions/feed", submissionHandler.Feed)
			admin.GET("/submissions/:id", submissionHandler.Get)
			admin.PATCH("/submissions/:id/status", submissionHandler.UpdateStatus)
			admin.DELETE("/submissions/:id", submissionHandler.Delete)
			admin.GET("/submissions/:id/documents", certificateHandler.Documents)
		}
	}

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

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
