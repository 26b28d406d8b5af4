package model

import (
	"time"
)

// 推荐来源策略
const (
	StrategyPrecomputed = "precomputed"
	StrategyColdStart   = "cold_start"
)

// RecEntry 离线模型输出的单条候选
type RecEntry struct {
	NaturalID int     `json:"movie_id"`
	Score     float64 `json:"score"`
}

// RecommendationBatch 某个离线模型为某个用户生成的推荐列表
// 对核心逻辑只读，(user_id, source_model) 唯一
type RecommendationBatch struct {
	ID          uint       `json:"-" db:"id" gorm:"primaryKey"`
	UserID      int        `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_source_model"`
	SourceModel string     `json:"model" db:"source_model" gorm:"uniqueIndex:idx_user_source_model"`
	Entries     []RecEntry `json:"recommendations" gorm:"-"`
	EntriesJSON []byte     `json:"-" db:"entries" gorm:"column:entries;type:jsonb"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// TableName 表名
func (RecommendationBatch) TableName() string {
	return "user_recommendations"
}

// AggregatedScore 多个来源合并后的分数（仅请求内使用，不持久化）
type AggregatedScore struct {
	NaturalID           int
	SummedScore         float64
	ContributingSources int
}

// ScoredMovie 带推荐分数的电影
type ScoredMovie struct {
	Movie
	RecommendationScore float64 `json:"recommendation_score"`
	Strategy            string  `json:"strategy"`
}
