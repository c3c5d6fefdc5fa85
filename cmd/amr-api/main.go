package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/modtrack/amr-api/api/swagger"
	"github.com/modtrack/amr-api/internal/handler"
	"github.com/modtrack/amr-api/internal/middleware"
	"github.com/modtrack/amr-api/internal/repository"
	"github.com/modtrack/amr-api/internal/service"
	"github.com/modtrack/amr-api/pkg/cache"
	"github.com/modtrack/amr-api/pkg/config"
	"github.com/modtrack/amr-api/pkg/database"
	"github.com/modtrack/amr-api/pkg/jobs"
	"github.com/modtrack/amr-api/pkg/logger"
	"github.com/modtrack/amr-api/pkg/mailer"
	corsmiddleware "github.com/modtrack/amr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/modtrack/amr-api/pkg/middleware/requestid"
	"github.com/modtrack/amr-api/pkg/storage"
)

// @title Annual Module Review API
// @version 1.0.0
// @description Module annual-review tracking and reporting service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("upload storage init failed", "dir", cfg.Uploads.StorageDir, "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("export storage init failed", "dir", cfg.Exports.StorageDir, "error", err)
	}

	moduleRepo := repository.NewModuleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)

	queryService := service.NewModuleQueryService(moduleRepo, reviewRepo, userRepo, logr)
	moduleService := service.NewModuleService(moduleRepo, userRepo, userRepo, logr)
	exportService := service.NewExportService(queryService, exportStore, logr)
	reviewService := service.NewReviewService(reviewRepo, moduleRepo, uploadStore, cacheService, logr)
	aggregationService := service.NewAggregationService(moduleRepo, reviewRepo, logr)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Modules:     moduleRepo,
		Reviews:     reviewRepo,
		Aggregation: aggregationService,
		Cache:       cacheService,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:    cfg.Dashboard.CacheTTL,
			DefaultYear: cfg.Dashboard.DefaultYear,
		},
	})

	var reminderService *service.ReminderService
	reminderQueue := jobs.NewQueue("reminders", func(ctx context.Context, job jobs.Job) error {
		return reminderService.HandleJob(ctx, job)
	}, jobs.QueueConfig{Workers: cfg.Reminders.Workers, Logger: logr})
	sender := mailer.NewSendGridSender(cfg.Reminders.SendGridKey, cfg.Reminders.FromName, cfg.Reminders.FromEmail)
	reminderService = service.NewReminderService(moduleRepo, reviewRepo, userRepo, reminderQueue, sender, metricsService, logr)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	if cfg.Reminders.Enabled {
		reminderQueue.Start(queueCtx)
		defer reminderQueue.Stop()
	}

	moduleHandler := handler.NewModuleHandler(queryService, moduleService, exportService)
	reviewHandler := handler.NewReviewHandler(reviewService, cfg.Uploads.MaxFileSizeBytes)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, aggregationService)
	reminderHandler := handler.NewReminderHandler(reminderService, dashboardService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/modules", moduleHandler.List)
		api.GET("/modules/export", moduleHandler.Export)
		api.GET("/modules/:id", moduleHandler.Get)
		api.GET("/modules/:id/reviews", reviewHandler.ListByModule)
		api.GET("/leads", moduleHandler.ListLeads)

		api.POST("/reviews", reviewHandler.Create)
		api.GET("/reviews/:id", reviewHandler.Get)
		api.PUT("/reviews/:id", reviewHandler.Update)
		api.PUT("/reviews/:id/attachments/:kind", reviewHandler.Attach)

		api.GET("/dashboard/summary", dashboardHandler.Summary)
		api.GET("/dashboard/overview", dashboardHandler.Overview)
		api.GET("/dashboard/good-practice-themes", dashboardHandler.GoodPracticeThemes)
		api.GET("/dashboard/enhancement-themes", dashboardHandler.EnhancementThemes)
		api.GET("/dashboard/review-status", dashboardHandler.ReviewStatus)

		api.POST("/reminders/run", reminderHandler.Run)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
