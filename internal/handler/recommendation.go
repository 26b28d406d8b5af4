package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/watchwish/internal/middleware"
	"github.com/user/watchwish/internal/utils"
)

// RateRequest 评分请求体
type RateRequest struct {
	Score *float64 `json:"score" binding:"required"`
}

// MyRecommendations GET /api/recommendations（需要登录）
func (h *Handler) MyRecommendations(c *gin.Context) {
	h.recommend(c, middleware.GetUserID(c)+h.Opts.WebUserOffset)
}

// UserRecommendations GET /api/users/:id/recommendations（数据集用户，不加偏移）
func (h *Handler) UserRecommendations(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	h.recommend(c, id)
}

func (h *Handler) recommend(c *gin.Context, userID int) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	recs, err := h.Recs.GetRecommendations(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, recs)
}

// RateMovie POST /api/movies/:id/rate（需要登录）
func (h *Handler) RateMovie(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return
	}

	userID := middleware.GetUserID(c) + h.Opts.WebUserOffset
	if err := h.Recs.RateMovie(c.Request.Context(), userID, id, *req.Score); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "评分成功", gin.H{"movie_id": id, "score": *req.Score})
}
