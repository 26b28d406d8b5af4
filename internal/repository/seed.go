package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/user/watchwish/internal/model"
	"gorm.io/gorm"
)

// SeedStats 导入数量
type SeedStats struct {
	Movies  int
	Batches int
}

// Seed 导入电影目录与离线模型输出，按业务键覆盖已有记录
// 先写电影再写批次，遇到第一条错误即停止
func (r *Repositories) Seed(ctx context.Context, movies []model.Movie, batches []model.RecommendationBatch) (SeedStats, error) {
	var stats SeedStats
	for i := range movies {
		if movies[i].NaturalID <= 0 {
			return stats, fmt.Errorf("电影 #%d 缺少 movie_id", i)
		}
		if err := r.Movie.Upsert(ctx, &movies[i]); err != nil {
			return stats, fmt.Errorf("写入电影 %d 失败: %w", movies[i].NaturalID, err)
		}
		stats.Movies++
	}

	for i := range batches {
		b := &batches[i]
		if b.UserID <= 0 || b.SourceModel == "" {
			return stats, fmt.Errorf("推荐批次 #%d 缺少 user_id 或 model", i)
		}
		if err := r.Recommendation.Save(ctx, b); err != nil {
			return stats, fmt.Errorf("写入推荐 %d/%s 失败: %w", b.UserID, b.SourceModel, err)
		}
		stats.Batches++
	}
	return stats, nil
}

// ReadMovies 读取电影目录 JSON 数组
func ReadMovies(path string) ([]model.Movie, error) {
	var movies []model.Movie
	if err := readJSON(path, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// ReadBatches 读取离线推荐 JSON 数组，格式 [{"user_id":1,"model":"model1","recommendations":[{"movie_id":2,"score":4.1}]}]
func ReadBatches(path string) ([]model.RecommendationBatch, error) {
	var batches []model.RecommendationBatch
	if err := readJSON(path, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取连接池失败: %w", err)
	}
	return sqlDB.Close()
}
