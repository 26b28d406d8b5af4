package router

import (
	"github.com/gin-gonic/gin"
	"github.com/user/watchwish/internal/handler"
	"github.com/user/watchwish/internal/metrics"
	"github.com/user/watchwish/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler, m *metrics.Metrics, appSecret string) {
	// 健康检查
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(appSecret))
	{
		// ==================== 目录 ====================
		api.GET("/movies", h.ListMovies)
		api.GET("/movies/:id", h.GetMovie)
		api.GET("/genres/:genre/movies", h.GenreMovies)

		// ==================== 推荐 ====================
		api.GET("/users/:id/recommendations", h.UserRecommendations)

		// ==================== 概念匹配 ====================
		api.POST("/concepts/analyze", h.AnalyzeConcept)
		api.POST("/concepts/report", h.ConceptReport)
	}

	// ==================== 需要登录 ====================
	authed := r.Group("/api")
	authed.Use(middleware.RequireAuth(appSecret))
	{
		authed.GET("/recommendations", h.MyRecommendations)
		authed.POST("/movies/:id/rate", h.RateMovie)
	}
}
