package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/watchwish/internal/utils"
)

// ConceptRequest 概念分析请求体
type ConceptRequest struct {
	Text string `json:"text"`
	TopN int    `json:"top_n"`
}

// AnalyzeConcept POST /api/concepts/analyze
func (h *Handler) AnalyzeConcept(c *gin.Context) {
	var req ConceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return
	}
	matches, err := h.Recs.AnalyzeConcept(c.Request.Context(), req.Text, req.TopN)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, matches)
}

// ConceptReport POST /api/concepts/report
func (h *Handler) ConceptReport(c *gin.Context) {
	var req ConceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return
	}
	report, err := h.Recs.ConceptReport(c.Request.Context(), req.Text, req.TopN)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, report)
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"concept_engine": h.Recs.ConceptState().String(),
	})
}
