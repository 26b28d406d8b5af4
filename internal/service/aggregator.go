package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/user/watchwish/internal/model"
)

// Strategy 一种推荐候选来源（预计算 / 冷启动）
// Recommend 返回 nil 表示没有可用信号，调用方回退到下一个策略；
// 返回非 nil 切片（可能为空）表示该策略已接管本次请求
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, userID, limit int) ([]model.ScoredMovie, error)
}

// ScoreAggregator 合并同一用户的多个离线模型推荐列表
// 所有来源等权相加，不做置信度加权
type ScoreAggregator struct {
	recs    RecommendationStore
	catalog CatalogStore
	logger  zerolog.Logger
}

// NewScoreAggregator 创建聚合器
func NewScoreAggregator(recs RecommendationStore, catalog CatalogStore, logger zerolog.Logger) *ScoreAggregator {
	return &ScoreAggregator{
		recs:    recs,
		catalog: catalog,
		logger:  logger.With().Str("strategy", model.StrategyPrecomputed).Logger(),
	}
}

// Name 策略名
func (a *ScoreAggregator) Name() string {
	return model.StrategyPrecomputed
}

// Aggregate 读取并合并用户所有批次，按总分降序、ID 升序排列后截取 limit
// 没有批次时返回 nil（不是错误），调用方据此回退；有批次时返回非 nil 切片
func (a *ScoreAggregator) Aggregate(ctx context.Context, userID, limit int) ([]model.AggregatedScore, error) {
	batches, err := a.recs.BatchesForUser(ctx, userID)
	if err != nil {
		return nil, unavailable("load recommendation batches", err)
	}
	if len(batches) == 0 {
		return nil, nil
	}

	scores := MergeBatches(batches)
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}

	a.logger.Debug().
		Int("user_id", userID).
		Int("batches", len(batches)).
		Int("scored", len(scores)).
		Msg("合并预计算推荐")
	return scores, nil
}

// Recommend 合并后解析为目录条目，已下架的电影被丢弃，结果可能少于 limit
func (a *ScoreAggregator) Recommend(ctx context.Context, userID, limit int) ([]model.ScoredMovie, error) {
	scores, err := a.Aggregate(ctx, userID, limit)
	if err != nil || scores == nil {
		return nil, err
	}
	// 有批次但没有候选时同样视为已接管，不回退到冷启动
	if len(scores) == 0 {
		return []model.ScoredMovie{}, nil
	}
	return resolveScores(ctx, a.catalog, scores, model.StrategyPrecomputed)
}

// MergeBatches 纯合并逻辑：对每个 (naturalId, score) 累加分数与来源计数
// 与批次顺序无关
func MergeBatches(batches []model.RecommendationBatch) []model.AggregatedScore {
	byID := make(map[int]*model.AggregatedScore)
	for _, batch := range batches {
		for _, entry := range batch.Entries {
			agg, ok := byID[entry.NaturalID]
			if !ok {
				agg = &model.AggregatedScore{NaturalID: entry.NaturalID}
				byID[entry.NaturalID] = agg
			}
			agg.SummedScore += entry.Score
			agg.ContributingSources++
		}
	}

	scores := make([]model.AggregatedScore, 0, len(byID))
	for _, agg := range byID {
		scores = append(scores, *agg)
	}
	sortScores(scores)
	return scores
}

// sortScores 分数降序，相同分数按 naturalId 升序
func sortScores(scores []model.AggregatedScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].SummedScore != scores[j].SummedScore {
			return scores[i].SummedScore > scores[j].SummedScore
		}
		return scores[i].NaturalID < scores[j].NaturalID
	})
}

// resolveScores 一次批量查询把 ID 解析成电影，保持原有顺序
func resolveScores(ctx context.Context, catalog CatalogStore, scores []model.AggregatedScore, strategy string) ([]model.ScoredMovie, error) {
	ids := make([]int, len(scores))
	for i, s := range scores {
		ids[i] = s.NaturalID
	}

	movies, err := catalog.FindByNaturalIDs(ctx, ids)
	if err != nil {
		return nil, unavailable("resolve catalog entries", err)
	}

	result := make([]model.ScoredMovie, 0, len(scores))
	for _, s := range scores {
		movie, ok := movies[s.NaturalID]
		if !ok || movie == nil {
			continue
		}
		result = append(result, model.ScoredMovie{
			Movie:               *movie,
			RecommendationScore: s.SummedScore,
			Strategy:            strategy,
		})
	}
	return result, nil
}
