package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/hackeval/hackeval-api/internal/middleware"
	"github.com/hackeval/hackeval-api/internal/models"
	"github.com/hackeval/hackeval-api/internal/service"
)

// RouterConfig bundles everything route registration needs.
type RouterConfig struct {
	APIPrefix string

	Auth          *AuthHandler
	Users         *UserHandler
	Hackathons    *HackathonHandler
	Conversations *ConversationHandler
	Evaluations   *EvaluationHandler
	Metrics       *MetricsHandler

	AuthService *service.AuthService
	DB          *sqlx.DB
	Redis       *redis.Client
}

// RegisterRoutes mounts all API routes on the engine.
func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if cfg.DB != nil {
			if err := cfg.DB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		if cfg.Redis != nil {
			if err := cfg.Redis.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", cfg.Metrics.Prometheus)
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	requireAuth := middleware.JWT(cfg.AuthService)

	auth := api.Group("/auth")
	{
		auth.POST("/credentials", cfg.Auth.Login)
		auth.POST("/magic-link", cfg.Auth.RequestMagicLink)
		auth.GET("/magic-link/verify", cfg.Auth.VerifyMagicLink)
		auth.GET("/me", requireAuth, cfg.Auth.Me)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), cfg.Users.List)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), cfg.Users.Create)
		users.POST("/import", middleware.RequireRoles(models.RoleAdmin), cfg.Users.Import)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), cfg.Users.Get)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), cfg.Users.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), cfg.Users.Delete)
	}

	hackathons := api.Group("/hackathons", requireAuth)
	{
		hackathons.GET("", cfg.Hackathons.List)
		hackathons.GET("/:id", cfg.Hackathons.Get)
		hackathons.GET("/:id/tasks", cfg.Hackathons.Tasks)
		hackathons.POST("", middleware.RequireRoles(models.RoleAdmin), cfg.Hackathons.Create)
		hackathons.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), cfg.Hackathons.Update)
		hackathons.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), cfg.Hackathons.Delete)
	}

	conversations := api.Group("/conversations", requireAuth)
	{
		conversations.POST("", middleware.RequireRoles(models.RoleStudent), cfg.Conversations.Create)
		conversations.GET("", middleware.RequireRoles(models.RoleExaminer, models.RoleAdmin), cfg.Conversations.List)
		conversations.GET("/student/:id", middleware.RBAC(string(models.RoleExaminer), string(models.RoleAdmin), "SELF"), cfg.Conversations.ListByStudent)
		conversations.GET("/:id", cfg.Conversations.Get)
		conversations.POST("/:id/messages", middleware.RequireRoles(models.RoleStudent), cfg.Conversations.SendPrompt)
		conversations.POST("/:id/final-submission", middleware.RequireRoles(models.RoleStudent), cfg.Conversations.SubmitFinal)
	}

	evaluations := api.Group("/evaluations", requireAuth)
	{
		evaluations.POST("", middleware.RequireRoles(models.RoleExaminer), cfg.Evaluations.Create)
		evaluations.GET("", middleware.RequireRoles(models.RoleExaminer, models.RoleAdmin), cfg.Evaluations.ListMine)
		evaluations.GET("/export", middleware.RequireRoles(models.RoleExaminer, models.RoleAdmin), cfg.Evaluations.Export)
		evaluations.GET("/export/archived/:token", middleware.RequireRoles(models.RoleExaminer, models.RoleAdmin), cfg.Evaluations.DownloadArchived)
		evaluations.GET("/examiner/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), cfg.Evaluations.ListByExaminer)
		evaluations.GET("/student/:id", middleware.RBAC(string(models.RoleExaminer), string(models.RoleAdmin), "SELF"), cfg.Evaluations.ListByStudent)
	}

	if cfg.Metrics != nil {
		api.GET("/metrics/snapshot", requireAuth, middleware.RequireRoles(models.RoleAdmin), cfg.Metrics.Snapshot)
	}
}
