package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/user/watchwish/internal/model"
)

// LikedThreshold 评分 >= 该值视为喜欢
const LikedThreshold = 4.0

// ColdStartRanker 没有预计算数据时，按用户高分电影的类型重合度实时排序
//
// 复杂度 O(喜欢数 × 目录大小)，只适合中等规模目录。
type ColdStartRanker struct {
	ratings RatingStore
	catalog CatalogStore
	logger  zerolog.Logger
}

// NewColdStartRanker 创建冷启动排序器
func NewColdStartRanker(ratings RatingStore, catalog CatalogStore, logger zerolog.Logger) *ColdStartRanker {
	return &ColdStartRanker{
		ratings: ratings,
		catalog: catalog,
		logger:  logger.With().Str("strategy", model.StrategyColdStart).Logger(),
	}
}

// Name 策略名
func (r *ColdStartRanker) Name() string {
	return model.StrategyColdStart
}

// Rank 计算候选分数，按分数降序、ID 升序排列后截取 limit
func (r *ColdStartRanker) Rank(ctx context.Context, userID, limit int) ([]model.AggregatedScore, error) {
	ratings, err := r.ratings.AllForUser(ctx, userID)
	if err != nil {
		return nil, unavailable("load user ratings", err)
	}
	// 完全冷启动：没有任何信号
	if len(ratings) == 0 {
		return nil, nil
	}

	rated := make(map[int]struct{}, len(ratings))
	likedIDs := make([]int, 0, len(ratings))
	for _, rt := range ratings {
		rated[rt.NaturalID] = struct{}{}
		if rt.Score >= LikedThreshold {
			likedIDs = append(likedIDs, rt.NaturalID)
		}
	}
	// 弱信号：没有高分时把所有评过分的都当作喜欢
	if len(likedIDs) == 0 {
		for _, rt := range ratings {
			likedIDs = append(likedIDs, rt.NaturalID)
		}
	}

	likedMovies, err := r.catalog.FindByNaturalIDs(ctx, likedIDs)
	if err != nil {
		return nil, unavailable("resolve liked movies", err)
	}

	// 每部喜欢的电影单独计算重合度，多种口味各自贡献
	sources := make([]map[string]struct{}, 0, len(likedIDs))
	for _, id := range likedIDs {
		movie, ok := likedMovies[id]
		if !ok || movie == nil {
			continue
		}
		if genres := movie.GenreSet(); len(genres) > 0 {
			sources = append(sources, genres)
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}

	catalog, err := r.catalog.All(ctx, 0)
	if err != nil {
		return nil, unavailable("load catalog", err)
	}

	scores := make([]model.AggregatedScore, 0)
	for i := range catalog {
		candidate := &catalog[i]
		if _, seen := rated[candidate.NaturalID]; seen {
			continue
		}
		genres := candidate.GenreSet()
		if len(genres) == 0 {
			continue
		}

		agg := model.AggregatedScore{NaturalID: candidate.NaturalID}
		for _, src := range sources {
			if overlap := GenreOverlap(src, genres); overlap > 0 {
				agg.SummedScore += float64(overlap)
				agg.ContributingSources++
			}
		}
		if agg.SummedScore > 0 {
			scores = append(scores, agg)
		}
	}

	sortScores(scores)
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}

	r.logger.Debug().
		Int("user_id", userID).
		Int("ratings", len(ratings)).
		Int("liked", len(sources)).
		Int("candidates", len(catalog)).
		Int("scored", len(scores)).
		Msg("冷启动排序完成")
	return scores, nil
}

// Recommend 排序并解析为目录条目
func (r *ColdStartRanker) Recommend(ctx context.Context, userID, limit int) ([]model.ScoredMovie, error) {
	scores, err := r.Rank(ctx, userID, limit)
	if err != nil || len(scores) == 0 {
		return nil, err
	}
	return resolveScores(ctx, r.catalog, scores, model.StrategyColdStart)
}

// GenreOverlap 两个类型集合交集的大小
func GenreOverlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for g := range a {
		if _, ok := b[g]; ok {
			n++
		}
	}
	return n
}
