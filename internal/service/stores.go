package service

import (
	"context"

	"github.com/user/watchwish/internal/model"
)

// CatalogStore 电影目录（repository.MovieRepository 实现）
type CatalogStore interface {
	// FindByNaturalID 不存在时返回 nil, nil
	FindByNaturalID(ctx context.Context, naturalID int) (*model.Movie, error)
	// FindByNaturalIDs 批量查找，不存在的 ID 不出现在结果中
	FindByNaturalIDs(ctx context.Context, naturalIDs []int) (map[int]*model.Movie, error)
	FindMany(ctx context.Context, filter model.MovieFilter, limit, skip int) ([]model.Movie, error)
	SearchText(ctx context.Context, query string, limit int) ([]model.Movie, error)
	// All limit <= 0 表示全部
	All(ctx context.Context, limit int) ([]model.Movie, error)
	Count(ctx context.Context, filter model.MovieFilter) (int64, error)
}

// RatingStore 用户评分
type RatingStore interface {
	Upsert(ctx context.Context, userID, naturalID int, score float64) error
	AllForUser(ctx context.Context, userID int) ([]model.Rating, error)
}

// RecommendationStore 离线模型预计算的推荐
type RecommendationStore interface {
	BatchesForUser(ctx context.Context, userID int) ([]model.RecommendationBatch, error)
}
