package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/auth"
	"github.com/driftboard/backend/internal/cache"
	"github.com/driftboard/backend/internal/classify"
	"github.com/driftboard/backend/internal/config"
	"github.com/driftboard/backend/internal/engagement"
	feedpkg "github.com/driftboard/backend/internal/feed"
	"github.com/driftboard/backend/internal/handlers"
	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/metrics"
	"github.com/driftboard/backend/internal/middleware"
	"github.com/driftboard/backend/internal/profile"
	"github.com/driftboard/backend/internal/storage"
	"github.com/driftboard/backend/internal/store"
	"github.com/driftboard/backend/internal/telemetry"
)

const sessionIdleTimeout = 30 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("driftboard server starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	metrics.Initialize()

	// Tracing (optional)
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "driftboard-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TraceSampleRate,
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize tracing", err)
	}

	// Document store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	cancel()
	if err != nil {
		logger.FatalWithFields("Failed to connect to document store", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(shutdownCtx); err != nil {
			logger.ErrorWithFields("Store close failed", err)
		}
	}()

	// Redis social graph cache (optional; feed falls back to direct reads)
	var graph *cache.SocialGraphCache
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.WarnWithFields("Redis unavailable, social graph cache disabled", err)
	} else {
		defer redisClient.Close()
		graph = cache.NewSocialGraphCache(redisClient, st)
	}

	// Collaborators
	authService := auth.NewService(st, cfg.JWTSecret)
	engagementSvc := engagement.NewService(st, graphOrNil(graph))
	sessions := feedpkg.NewSessionManager(st)
	profiles := profile.NewCache(st)

	h := handlers.NewHandlers(st, st, sessions, profiles, engagementSvc, authService)

	if cfg.ClassifierURL != "" {
		h.SetClassifier(classify.NewRESTClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierTimeout))
	}
	if graph != nil {
		h.SetSocialGraph(graph)
	}

	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 uploader", err)
		}
		if err := uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.WarnWithFields("S3 bucket access failed, image uploads will fail", err)
		}
		h.SetUploader(uploader)
	}

	// Idle feed sessions are pruned in the background
	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessions.PruneIdle(sessionIdleTimeout); n > 0 {
					logger.Log.Debug("pruned idle feed sessions", zap.Int("count", n))
				}
			case <-pruneDone:
				return
			}
		}
	}()
	defer close(pruneDone)

	// Router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.TracingEnabled {
		r.Use(middleware.TracingMiddleware("driftboard-backend"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "driftboard-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
		}

		feed := api.Group("/feed")
		{
			feed.Use(h.AuthMiddleware())
			feed.GET("/global", h.GetGlobalFeed)
			feed.GET("/following", h.GetFollowingFeed)
		}

		posts := api.Group("/posts")
		{
			posts.Use(h.AuthMiddleware())
			posts.POST("", h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/pin", h.PinPost)
			posts.POST("/:id/react", h.ReactToPost)
			posts.POST("/:id/share", h.SharePost)
			posts.POST("/:id/comments", h.AddComment)
			posts.DELETE("/:id/comments/:commentId", h.DeleteComment)
		}

		users := api.Group("/users")
		{
			users.Use(h.AuthMiddleware())
			users.GET("/:id", h.GetUser)
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
		}

		me := api.Group("/me")
		{
			me.Use(h.AuthMiddleware())
			me.PUT("", h.UpdateMe)
			me.POST("/avatar", h.UploadAvatar)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shut down", err)
	}

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithFields("Tracer shutdown failed", err)
		}
	}

	logger.Log.Info("server exited")
}

// graphOrNil avoids a typed-nil interface when the cache is disabled.
func graphOrNil(g *cache.SocialGraphCache) engagement.GraphInvalidator {
	if g == nil {
		return nil
	}
	return g
}
