package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/watchwish/internal/model"
	"github.com/user/watchwish/internal/service"
	"github.com/user/watchwish/internal/utils"
)

// Recommender 推荐相关能力（service.RecommendationService 实现）
type Recommender interface {
	GetRecommendations(ctx context.Context, userID, limit int) ([]model.ScoredMovie, error)
	RateMovie(ctx context.Context, userID, naturalID int, score float64) error
	AnalyzeConcept(ctx context.Context, text string, topN int) ([]model.ConceptMatch, error)
	ConceptReport(ctx context.Context, text string, topN int) (*model.ConceptReport, error)
	ConceptState() service.EngineState
}

// Catalog 目录浏览能力（service.CatalogService 实现）
type Catalog interface {
	GetMovie(ctx context.Context, naturalID int) (*model.Movie, error)
	ListMovies(ctx context.Context, filter model.MovieFilter, limit, skip int) ([]model.Movie, error)
	SearchMovies(ctx context.Context, query string, limit int) ([]model.Movie, error)
	MoviesByGenre(ctx context.Context, genre string, limit int) ([]model.Movie, error)
	CountMovies(ctx context.Context, filter model.MovieFilter) (int64, error)
}

// Options 处理器参数
type Options struct {
	// WebUserOffset 登录用户 ID 加上该偏移后作为评分/推荐的用户 ID，避免与离线数据集用户冲突
	WebUserOffset int
}

// Handler HTTP 处理器
type Handler struct {
	Recs    Recommender
	Catalog Catalog
	Opts    Options
}

// NewHandler 创建处理器
func NewHandler(recs Recommender, catalog Catalog, opts Options) *Handler {
	return &Handler{
		Recs:    recs,
		Catalog: catalog,
		Opts:    opts,
	}
}

// respondError 按错误分类返回状态码
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDependencyUnavailable):
		utils.ServiceUnavailable(c, "")
	default:
		utils.InternalServerError(c, "")
	}
}

// queryInt 读取整数查询参数，缺省返回 def
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		utils.BadRequest(c, key+" 必须是整数")
		return 0, false
	}
	return v, true
}

// paramID 读取路径中的正整数 ID
func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "无效的 ID")
		return 0, false
	}
	return id, true
}
