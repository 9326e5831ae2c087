package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bidworks/collab-api/internal/handler"
	"github.com/bidworks/collab-api/internal/middleware"
	"github.com/bidworks/collab-api/internal/remote"
	"github.com/bidworks/collab-api/internal/repository"
	"github.com/bidworks/collab-api/internal/service"
	syncpkg "github.com/bidworks/collab-api/internal/sync"
	"github.com/bidworks/collab-api/pkg/cache"
	"github.com/bidworks/collab-api/pkg/config"
	"github.com/bidworks/collab-api/pkg/database"
	"github.com/bidworks/collab-api/pkg/jobs"
	"github.com/bidworks/collab-api/pkg/logger"
	corsmiddleware "github.com/bidworks/collab-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bidworks/collab-api/pkg/middleware/requestid"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without snapshot cache", "error", err)
		redisClient = nil
	}

	draftRepo := repository.NewDraftRepository(db)
	queueRepo := repository.NewSyncQueueRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	remoteClient := remote.NewClient(cfg.Remote)
	draftingClient := remote.NewDraftingClient(cfg.Drafting)
	validationClient := remote.NewValidationClient(cfg.Validation)

	monitor := syncpkg.NewMonitor(remoteClient, cfg.Sync.ProbeInterval, cfg.Sync.ProbeTimeout, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	confirmQueue := jobs.NewQueue("remote-confirm", service.NewConfirmHandler(remoteClient, logr), jobs.QueueConfig{
		Workers:     cfg.Sync.ConfirmWorkers,
		MaxRetries:  cfg.Sync.ConfirmRetries,
		OnExhausted: service.NewExhaustedHook(queueRepo, logr),
		Logger:      logr,
	})
	confirmQueue.Start(ctx)
	defer confirmQueue.Stop()

	offlineSvc := service.NewOfflineService(draftRepo, queueRepo, nil, monitor, cacheRepo, logr)
	metricsSvc := service.NewMetricsService(offlineSvc.PendingChanges)

	reconciler := syncpkg.NewReconciler(draftRepo, queueRepo, remoteClient, monitor, cacheRepo, metricsSvc, logr, cfg.Sync.Interval)
	offlineSvc.SetControl(reconciler)

	collabSvc := service.NewCollaborationService(
		remoteClient, draftingClient, validationClient,
		assignmentRepo, queueRepo, confirmQueue, cacheRepo, offlineSvc,
		metricsSvc, validator.New(), logr, cfg.Sync.SnapshotTTL,
	)
	offlineSvc.SetAuthorizer(collabSvc)

	go monitor.Run(ctx)
	go reconciler.Run(ctx)

	collabHandler := handler.NewCollaborationHandler(collabSvc)
	offlineHandler := handler.NewOfflineHandler(offlineSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		entities := api.Group("/entities/:id")
		entities.GET("/collaboration", collabHandler.Load)
		entities.POST("/collaboration/refresh", collabHandler.Refresh)
		entities.PUT("/sections/:sectionId/content", collabHandler.UpdateSection)
		entities.POST("/sections/:sectionId/assignments", collabHandler.AssignUser)
		entities.DELETE("/sections/:sectionId/assignments/:userId", collabHandler.RemoveAssignment)
		entities.GET("/sections/:sectionId/comments", collabHandler.ListComments)
		entities.POST("/sections/:sectionId/draft", collabHandler.GenerateDraft)
		entities.POST("/comments", collabHandler.AddComment)
		entities.PUT("/comments/:commentId", collabHandler.UpdateComment)
		entities.DELETE("/comments/:commentId", collabHandler.DeleteComment)
		entities.PUT("/comments/:commentId/resolution", collabHandler.SetResolution)
		entities.POST("/validate", collabHandler.Validate)
		entities.GET("/activity", collabHandler.Activity)

		syncGroup := api.Group("/sync")
		syncGroup.GET("/status", offlineHandler.Status)
		syncGroup.POST("/force", offlineHandler.ForceSync)
		syncGroup.POST("/queue", offlineHandler.QueueAction)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
