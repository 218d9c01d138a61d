package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timetable-planner/backend/config"
	"timetable-planner/backend/internal/api/handler"
	"timetable-planner/backend/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时生成接口不限流
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（按 X-Owner-ID 限定数据范围） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.OwnerScope())
	{
		// 课程目录（只读）
		courses := v1.Group("/courses")
		{
			courses.GET("", h.Course.Search)
			courses.GET("/:id", h.Course.Get)
			courses.GET("/:id/slots", h.Course.Slots)
		}

		// 方案生成模块
		generate := v1.Group("/generate")
		if cfg.RateLimit.Enabled {
			generate.Use(middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
		}
		{
			generate.GET("/courses", h.Generate.Courses)
			generate.POST("/suggest", h.Generate.Suggest)
			generate.POST("/more", h.Generate.More)
			generate.POST("/similar", h.Generate.Similar)
			generate.POST("/count", h.Generate.Count)
			generate.POST("/random", h.Generate.Random)
		}

		// 选课登记模块
		registrations := v1.Group("/registrations")
		{
			registrations.GET("", h.Registration.List)
			registrations.GET("/credits", h.Registration.Credits)
			registrations.POST("", h.Registration.Register)
			registrations.PUT("/:id", h.Registration.Update)
			registrations.DELETE("/:id", h.Registration.Delete)
			registrations.POST("/bulk-delete", h.Registration.BulkDelete)
			registrations.POST("/check-clash", h.Registration.CheckClash)
			registrations.POST("/check-clash-batch", h.Registration.CheckClashBatch)
			registrations.POST("/apply", h.Registration.Apply)
		}

		// 保存方案模块
		saved := v1.Group("/saved-timetables")
		{
			saved.POST("", h.SavedTimetable.Save)
			saved.GET("", h.SavedTimetable.List)
			saved.GET("/:id", h.SavedTimetable.Get)
			saved.DELETE("/:id", h.SavedTimetable.Delete)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/registrations", h.Export.ExportRegistrations)
		}
	}

	return r
}
