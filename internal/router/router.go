package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/handler"
	"github.com/stemsi/studyguide/internal/middleware"
	"github.com/stemsi/studyguide/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Study    *handler.StudyHandler
	Result   *handler.ResultHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background helpers such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli(middleware.DefaultBrotliMinLength))

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimitPerMinute, time.Minute)

	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(middleware.NoStore())
	{
		authAPI.POST("/guest", authLimiter.Middleware(), handlers.Auth.Guest)
		authAPI.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		authAPI.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)

		device := authAPI.Group("")
		device.Use(middleware.RequireDeviceJWT(auth), middleware.CheckDeviceSession(auth))
		device.GET("/me", handlers.Auth.Me)
		device.POST("/logout", handlers.Auth.Logout)
	}

	// ─── 2. Device Group (JWT + Active Session) ────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireDeviceJWT(auth),
		middleware.CheckDeviceSession(auth),
	)
	{
		api.GET("/categories", middleware.PrivateCache(5*time.Minute), handlers.Study.Categories)
		api.GET("/questions", handlers.Question.ListQuestions)
		api.GET("/questions/:id", handlers.Question.GetQuestion)

		api.GET("/bookmarks", handlers.Study.Bookmarks)
		api.POST("/bookmarks/toggle", handlers.Study.ToggleBookmark)
		api.GET("/progress/:question_id", handlers.Study.Progress)
		api.GET("/stats", handlers.Study.Stats)
		api.GET("/leaderboard", handlers.Study.Leaderboard)
		api.GET("/scenarios/history", handlers.Study.ScenarioHistory)
		api.POST("/reset-scores", handlers.Study.ResetScores)

		api.GET("/results", handlers.Result.ListResults)
		api.GET("/results/summary", handlers.Result.Summary)
	}

	// ─── 3. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireDeviceWSAuth(auth), middleware.CheckDeviceSession(auth))
	{
		ws.GET("/practice", handlers.WS.PracticeStream)
	}

	// ─── 4. Admin Group (JWT + Role) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireDeviceJWT(auth),
		middleware.CheckDeviceSession(auth),
		middleware.RequireAdmin(),
	)
	{
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)
		adminAPI.POST("/questions/cache/invalidate", handlers.Question.InvalidateCache)

		adminAPI.GET("/analytics", handlers.Study.Analytics)
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
