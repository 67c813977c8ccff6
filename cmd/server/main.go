// Package main runs the ClassPulse API server: REST + realtime polling
// WebSocket + ASR gateway, with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/classpulse/backend/config"
	"github.com/classpulse/backend/internal/asr"
	"github.com/classpulse/backend/internal/auth"
	"github.com/classpulse/backend/internal/cleanup"
	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/questions"
	"github.com/classpulse/backend/internal/realtime"
	"github.com/classpulse/backend/internal/reports"
	"github.com/classpulse/backend/internal/rooms"
	"github.com/classpulse/backend/internal/segments"
	"github.com/classpulse/backend/internal/sessionreports"
	"github.com/classpulse/backend/pkg/database"
	"github.com/classpulse/backend/pkg/queue"
	"github.com/classpulse/backend/pkg/redis"
	"github.com/classpulse/backend/pkg/response"
	"github.com/classpulse/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AudioBucket:          cfg.AWS.AudioBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, jobQueue, cfg.Server.FrontendURL, logger)

	// Rooms
	roomRepo := rooms.NewRepository(pool)
	roomHandler := rooms.NewHandler(roomRepo, authRepo, jobQueue, cfg.Server.FrontendURL, logger)

	// Polls
	pollRepo := polls.NewRepository(pool)
	pollHandler := polls.NewHandler(pollRepo, roomRepo)

	// Reports (votes + leaderboard)
	reportRepo := reports.NewRepository(pool)
	reportHandler := reports.NewHandler(reportRepo)

	// Session reports
	sessionRepo := sessionreports.NewRepository(pool)
	sessionGen := sessionreports.NewGenerator(roomRepo, reportRepo, pollRepo, authRepo, sessionRepo, logger)
	sessionHandler := sessionreports.NewHandler(sessionRepo)

	// Question generation (Gemini)
	questionRepo := questions.NewRepository(pool)
	var geminiSvc *questions.GeminiService
	var autoSvc *questions.AutoService
	if cfg.Gemini.APIKey != "" {
		geminiSvc, err = questions.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
			cfg.Gemini.ConcurrentReqs, logger)
		if err != nil {
			logger.Warn("question generation disabled", zap.Error(err))
		} else {
			defer geminiSvc.Close()
			autoSvc = questions.NewAutoService(geminiSvc, questionRepo, hub, logger)
		}
	} else {
		logger.Warn("question generation disabled: GEMINI_API_KEY not set")
	}

	// Transcript segments
	segmentRepo := segments.NewRepository(pool)
	segmentHandler := segments.NewHandler(segmentRepo, questionRepo, autoSvc, logger)
	questionHandler := questions.NewHandler(questionRepo, geminiSvc, segmentRepo,
		pollRepo, roomRepo, hub, logger)

	// ASR gateway
	archiveRepo := asr.NewArchiveRepository(pool)
	asrGateway := asr.NewGateway(asr.NewRegistry(), segmentRepo, archiveRepo,
		jobQueue, autoSvc, cfg.ASR.AudioDir, logger)
	recordingsHandler := asr.NewRecordingsHandler(archiveRepo, s3Client, logger)

	// Realtime session coordinator
	coordinator := realtime.NewCoordinator(hub, roomRepo, pollRepo, reportRepo,
		authRepo, sessionGen, logger)

	jwtValidate := func(token string) (uuid.UUID, string, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", "", err
		}
		return claims.UserID, claims.Email, claims.Role, nil
	}

	// Stale room sweep
	sweeper := cleanup.NewService(roomRepo, cfg.Cleanup.SweepSpec,
		time.Duration(cfg.Cleanup.StaleAfterMins)*time.Minute, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("cleanup sweep", zap.Error(err))
	}
	defer sweeper.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		// Rooms
		api.POST("/rooms", middleware.RequireRole(string(models.RoleHost)), roomHandler.Create)
		api.GET("/rooms/current", middleware.RequireRole(string(models.RoleHost)), roomHandler.Current)
		api.POST("/rooms/:id/invite", middleware.RequireRole(string(models.RoleHost)), roomHandler.Invite)
		api.GET("/rooms/:code", roomHandler.GetByCode)

		// Polls
		api.POST("/polls", middleware.RequireRole(string(models.RoleHost)), pollHandler.Create)
		api.GET("/polls", middleware.RequireRole(string(models.RoleHost)), pollHandler.List)

		// Leaderboard
		api.GET("/reports/leaderboard", reportHandler.Leaderboard)
		api.GET("/reports/leaderboard/:roomId", reportHandler.Leaderboard)

		// Session reports
		api.GET("/session-reports", sessionHandler.List)
		api.GET("/session-reports/:sessionId", sessionHandler.GetBySession)

		// Transcript segments
		api.POST("/segments/save", segmentHandler.Save)
		api.GET("/segments/last/:meetingId", segmentHandler.Last)
		api.GET("/segments/:meetingId", segmentHandler.List)
		api.GET("/segments/:meetingId/questions", segmentHandler.Questions)

		// Meetings: transcripts + AI question workflow (host only)
		meetings := api.Group("/meetings", middleware.RequireRole(string(models.RoleHost)))
		{
			meetings.GET("/:id/transcripts", questionHandler.Transcripts)
			meetings.POST("/:id/generate-questions", questionHandler.Generate)
			meetings.POST("/:id/summarize", questionHandler.Summarize)
			meetings.GET("/:id/questions", questionHandler.List)
			meetings.PUT("/:id/publish-questions", questionHandler.Publish)
			meetings.POST("/:id/launch-question", questionHandler.Launch)
			meetings.GET("/:id/recordings", recordingsHandler.List)
		}
	}

	// Realtime polling socket (token in query; no Authorization header)
	router.GET("/ws", realtime.ServeWs(hub, coordinator, logger, jwtValidate))

	// ASR audio/transcript socket (query-string identified, no JWT)
	router.GET("/ws/asr", asrGateway.Handle)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
