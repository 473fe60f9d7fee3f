package app

import (
	"time"

	"study_planner_backend/internal/middleware"
	"study_planner_backend/pkg/monitoring"
	"study_planner_backend/pkg/security"
	"study_planner_backend/pkg/tracing"

	_ "study_planner_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) setupRouter() *gin.Engine {
	gin.SetMode(a.Config.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(security.CORS(a.Config.CORS.AllowedOrigins))
	r.Use(security.Secure())
	if a.Config.RateLimit.MaxRequests > 0 {
		r.Use(security.RateLimiter(
			a.Config.RateLimit.MaxRequests,
			time.Duration(a.Config.RateLimit.WindowMinutes)*time.Minute,
		))
	}
	if a.Config.Tracing.Enabled {
		r.Use(tracing.GinMiddleware())
	}
	r.Use(monitoring.MetricsMiddleware())

	r.GET("/metrics", monitoring.PrometheusHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.GET("/health", a.HealthController.Health)

		api.POST("/register", a.AuthController.Register)
		api.POST("/login", a.AuthController.Login)

		api.POST("/plan", a.PlanController.GeneratePlan)
		api.GET("/plans", a.CalendarController.ListPlans)
		api.GET("/plans/:date", a.CalendarController.GetPlan)
		api.DELETE("/plans/:date", a.CalendarController.DeletePlan)

		api.POST("/feedback", a.CalendarController.SubmitFeedback)
		api.GET("/feedback", a.CalendarController.ListFeedback)
		api.GET("/feedback/:date", a.CalendarController.GetFeedback)

		deadlines := api.Group("/deadlines")
		{
			deadlines.POST("", a.DeadlineController.CreateDeadline)
			deadlines.GET("", a.DeadlineController.ListDeadlines)
			deadlines.GET("/statistics", a.DeadlineController.GetStatistics)
			deadlines.GET("/productivity", a.DeadlineController.GetProductivity)
			deadlines.GET("/urgent", a.DeadlineController.GetUrgent)
			deadlines.GET("/recommendations/:minutes", a.DeadlineController.GetRecommendations)
			deadlines.GET("/conflicts/:days", a.DeadlineController.GetConflicts)
			deadlines.GET("/:id", a.DeadlineController.GetDeadline)
			deadlines.DELETE("/:id", a.DeadlineController.DeleteDeadline)
			deadlines.PATCH("/:id/status/:status", a.DeadlineController.UpdateStatus)
			deadlines.GET("/:id/progress", a.DeadlineController.GetProgress)
			deadlines.GET("/:id/history", a.DeadlineController.GetHistory)
			deadlines.POST("/:id/history", a.DeadlineController.LinkTask)
		}

		auth := api.Group("")
		auth.Use(middleware.AuthMiddleware(a.Config))
		{
			auth.GET("/profile", a.AuthController.Profile)
			auth.GET("/user/profile", a.UserController.GetProfile)
			auth.PUT("/user/profile", a.UserController.UpdateProfile)
			auth.GET("/user/analytics", a.UserController.Analytics)
			auth.GET("/user/insights", a.UserController.Insights)

			auth.POST("/tracking/clock-in", a.UserController.ClockIn)
			auth.POST("/tracking/clock-out", a.UserController.ClockOut)
			auth.GET("/tracking/active", a.UserController.ActiveSession)
			auth.GET("/tracking/history", a.UserController.TrackingHistory)

			auth.POST("/export", a.CalendarController.Export)
		}
	}

	return r
}
