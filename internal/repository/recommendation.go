package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/user/watchwish/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecommendationRepository 离线模型写入的预计算推荐，entries 以 jsonb 存储
type RecommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// BatchesForUser 用户所有来源模型的推荐批次
func (r *RecommendationRepository) BatchesForUser(ctx context.Context, userID int) ([]model.RecommendationBatch, error) {
	var batches []model.RecommendationBatch
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("source_model ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}

	for i := range batches {
		entries, err := DecodeEntries(batches[i].EntriesJSON)
		if err != nil {
			return nil, fmt.Errorf("decode batch %d/%s: %w", userID, batches[i].SourceModel, err)
		}
		batches[i].Entries = entries
	}
	return batches, nil
}

// Save 写入批次，(user_id, source_model) 已存在时覆盖
func (r *RecommendationRepository) Save(ctx context.Context, batch *model.RecommendationBatch) error {
	raw, err := EncodeEntries(batch.Entries)
	if err != nil {
		return err
	}
	batch.EntriesJSON = raw
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_model"}},
		DoUpdates: clause.AssignmentColumns([]string{"entries", "created_at"}),
	}).Create(batch).Error
}

// EncodeEntries 序列化候选列表，nil 写成空数组
func EncodeEntries(entries []model.RecEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.RecEntry{}
	}
	return json.Marshal(entries)
}

// DecodeEntries 反序列化候选列表，空值视为没有候选
func DecodeEntries(raw []byte) ([]model.RecEntry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []model.RecEntry{}, nil
	}
	var entries []model.RecEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
