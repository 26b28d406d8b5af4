package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/user/watchwish/internal/metrics"
	"github.com/user/watchwish/internal/model"
	"github.com/user/watchwish/internal/utils"
	"golang.org/x/sync/singleflight"
)

// RecommendationOptions 推荐服务参数
type RecommendationOptions struct {
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
}

// RateInput 评分请求
type RateInput struct {
	UserID    int     `validate:"gt=0"`
	NaturalID int     `validate:"gt=0"`
	Score     float64 `validate:"gte=1,lte=5"`
}

// RecommendationService 推荐服务：按优先级选择策略，对外提供推荐、评分、概念分析
type RecommendationService struct {
	strategies []Strategy // 严格优先级，前一个有信号时不会调用后面的
	ratings    RatingStore
	catalog    CatalogStore
	concepts   *ConceptEngine
	opts       RecommendationOptions

	validate *validator.Validate
	cache    *cache.Cache
	sf       singleflight.Group
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewRecommendationService 创建推荐服务，预计算策略优先，冷启动兜底
func NewRecommendationService(
	recs RecommendationStore,
	ratings RatingStore,
	catalog CatalogStore,
	concepts *ConceptEngine,
	opts RecommendationOptions,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *RecommendationService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}

	return &RecommendationService{
		strategies: []Strategy{
			NewScoreAggregator(recs, catalog, logger),
			NewColdStartRanker(ratings, catalog, logger),
		},
		ratings:  ratings,
		catalog:  catalog,
		concepts: concepts,
		opts:     opts,
		validate: validator.New(),
		cache:    utils.NewResponseCache(opts.CacheTTL),
		metrics:  m,
		logger:   logger.With().Str("component", "recommendation").Logger(),
	}
}

// GetRecommendations 为用户推荐电影
// 有预计算数据时只用预计算结果，否则使用冷启动结果（可能为空）
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID, limit int) ([]model.ScoredMovie, error) {
	if userID <= 0 {
		return nil, invalid("user_id", "must be > 0")
	}
	limit = clampLimit(limit, s.opts.DefaultLimit, s.opts.MaxLimit)

	key := recCacheKey(userID, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.ScoredMovie), nil
	}

	// 同一用户的并发请求只计算一次，共享计算不随发起者的请求取消
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		start := time.Now()
		result, strategy, err := s.recommend(context.WithoutCancel(ctx), userID, limit)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveRecommendation(strategy, time.Since(start).Seconds())
		s.cache.Set(key, result, cache.DefaultExpiration)
		return result, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("获取推荐失败")
		return nil, err
	}
	return v.([]model.ScoredMovie), nil
}

func (s *RecommendationService) recommend(ctx context.Context, userID, limit int) ([]model.ScoredMovie, string, error) {
	for _, strategy := range s.strategies {
		result, err := strategy.Recommend(ctx, userID, limit)
		if err != nil {
			return nil, "", err
		}
		if result != nil {
			s.logger.Debug().
				Int("user_id", userID).
				Str("strategy", strategy.Name()).
				Int("count", len(result)).
				Msg("推荐完成")
			return result, strategy.Name(), nil
		}
	}
	return []model.ScoredMovie{}, "none", nil
}

// RateMovie 写入评分（同一用户同一电影后写覆盖），分数必须在 [1,5]
func (s *RecommendationService) RateMovie(ctx context.Context, userID, naturalID int, score float64) error {
	input := RateInput{UserID: userID, NaturalID: naturalID, Score: score}
	if err := s.validateInput(input); err != nil {
		s.metrics.IncRating("invalid")
		return err
	}

	movie, err := s.catalog.FindByNaturalID(ctx, naturalID)
	if err != nil {
		s.metrics.IncRating("error")
		return unavailable("find movie", err)
	}
	if movie == nil {
		s.metrics.IncRating("not_found")
		return fmt.Errorf("%w: movie %d", ErrNotFound, naturalID)
	}

	if err := s.ratings.Upsert(ctx, userID, naturalID, score); err != nil {
		s.metrics.IncRating("error")
		return unavailable("upsert rating", err)
	}

	s.invalidateUser(userID)
	s.metrics.IncRating("ok")
	s.logger.Info().
		Int("user_id", userID).
		Int("movie_id", naturalID).
		Float64("score", score).
		Msg("评分已保存")
	return nil
}

// AnalyzeConcept 自由文本概念匹配，拟合失败时返回空结果
func (s *RecommendationService) AnalyzeConcept(ctx context.Context, text string, topN int) ([]model.ConceptMatch, error) {
	return s.concepts.AnalyzeConcept(ctx, text, topN)
}

// ConceptReport 概念分析报告
func (s *RecommendationService) ConceptReport(ctx context.Context, text string, topN int) (*model.ConceptReport, error) {
	return s.concepts.Report(ctx, text, topN)
}

// ConceptState 概念引擎状态
func (s *RecommendationService) ConceptState() EngineState {
	return s.concepts.State()
}

func (s *RecommendationService) validateInput(input RateInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalid(fieldName(fe.Field()), constraintText(fe.Tag(), fe.Param()))
	}
	return invalid("input", err.Error())
}

// invalidateUser 评分后清除该用户所有 limit 的缓存
func (s *RecommendationService) invalidateUser(userID int) {
	prefix := fmt.Sprintf("recs:%d:", userID)
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}

func recCacheKey(userID, limit int) string {
	return fmt.Sprintf("recs:%d:%d", userID, limit)
}

func fieldName(field string) string {
	switch field {
	case "UserID":
		return "user_id"
	case "NaturalID":
		return "movie_id"
	case "Score":
		return "score"
	default:
		return strings.ToLower(field)
	}
}

func constraintText(tag, param string) string {
	switch tag {
	case "gt":
		return "must be > " + param
	case "gte":
		return "must be >= " + param
	case "lte":
		return "must be <= " + param
	default:
		return tag + " " + param
	}
}
