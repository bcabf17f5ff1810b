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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/survey-recon-api/api/swagger"
	"github.com/noah-isme/survey-recon-api/internal/handler"
	"github.com/noah-isme/survey-recon-api/internal/middleware"
	"github.com/noah-isme/survey-recon-api/internal/reconcile"
	"github.com/noah-isme/survey-recon-api/internal/repository"
	"github.com/noah-isme/survey-recon-api/internal/schema"
	"github.com/noah-isme/survey-recon-api/internal/service"
	"github.com/noah-isme/survey-recon-api/internal/validation"
	"github.com/noah-isme/survey-recon-api/pkg/cache"
	"github.com/noah-isme/survey-recon-api/pkg/config"
	"github.com/noah-isme/survey-recon-api/pkg/database"
	"github.com/noah-isme/survey-recon-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/survey-recon-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/survey-recon-api/pkg/middleware/requestid"
	"github.com/noah-isme/survey-recon-api/pkg/storage"
)

// @title Survey Reconciliation API
// @version 1.0.0
// @description Merges child assessment submissions from two upstream sources and validates them against task schemas.
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("postgres connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, result caching disabled", zap.Error(err))
		redisClient = nil
	}

	windows, err := reconcile.ParseGradeWindows(cfg.Merge.GradeWindows)
	if err != nil {
		logr.Fatal("invalid MERGE_GRADE_WINDOWS", zap.Error(err))
	}

	metrics := service.NewMetricsService()

	registry := schema.NewRegistry(schema.FileLoader{
		ManifestPath: cfg.Schema.ManifestPath,
		SchemaDir:    cfg.Schema.SchemaDir,
	}, logr)
	registry.SetLoadTimeout(cfg.Schema.LoadTimeout)
	registry.SetMetrics(metrics)
	registry.Init(ctx)

	resultCache := repository.NewResultCache(redisClient, logr)
	defer resultCache.Close() //nolint:errcheck
	submissionRepo := repository.NewSubmissionRepository(db)

	reconciler := reconcile.NewReconciler(reconcile.NewGradeResolver(windows), logr)
	reconciler.SetWarnLimits(cfg.Merge.CrossGradeWarnLimit, cfg.Merge.ConflictWarnLimit)
	reconcileSvc := service.NewReconcileService(submissionRepo, resultCache, reconciler, logr, service.ReconcileServiceConfig{
		CacheTTL: cfg.Validate.CacheTTL,
	})
	reconcileSvc.SetMetrics(metrics)

	engine := validation.NewEngine(validation.Defaults())
	validationSvc := service.NewValidationService(registry, reconcileSvc, engine, resultCache, logr, service.ValidationServiceConfig{
		CacheTTL: cfg.Validate.CacheTTL,
	})
	validationSvc.SetMetrics(metrics)

	submissionSvc := service.NewSubmissionService(submissionRepo, resultCache, nil, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("report storage unavailable", zap.Error(err))
		}
		reportSvc = service.NewReportService(validationSvc, reportStorage, nil, nil, logr, service.ReportServiceConfig{
			Enabled:         true,
			ResultTTL:       cfg.Reports.ResultTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
	} else {
		reportSvc = service.NewReportService(validationSvc, nil, nil, nil, logr, service.ReportServiceConfig{Enabled: false})
	}
	reportSvc.Start(ctx)
	defer reportSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	systemHandler := handler.NewSystemHandler(db, redisClient, metrics)
	r.GET("/health", systemHandler.Health)
	r.GET("/ready", systemHandler.Ready)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		validationHandler := handler.NewValidationHandler(validationSvc)
		api.POST("/validate", validationHandler.ValidateAdHoc)
		api.GET("/subjects/:subjectId/validation", validationHandler.ValidateSubject)

		reconcileHandler := handler.NewReconcileHandler(reconcileSvc)
		api.GET("/subjects/:subjectId/merged", reconcileHandler.MergeSubject)
		api.POST("/reconcile", reconcileHandler.Reconcile)

		submissionHandler := handler.NewSubmissionHandler(submissionSvc)
		api.POST("/submissions", submissionHandler.Ingest)
		api.GET("/submissions", submissionHandler.List)
		api.DELETE("/submissions/:id", submissionHandler.Delete)

		schemaHandler := handler.NewSchemaHandler(registry)
		api.GET("/tasks", schemaHandler.List)
		api.GET("/tasks/:taskId", schemaHandler.Get)

		reportHandler := handler.NewReportHandler(reportSvc)
		api.POST("/reports", reportHandler.Enqueue)
		api.GET("/reports/:id", reportHandler.Status)
		api.GET("/reports/:id/download", reportHandler.Download)

		api.GET("/status", systemHandler.Status)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
