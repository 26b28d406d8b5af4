package repository

import (
	"context"
	"time"

	"github.com/user/watchwish/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert 同一用户同一电影只保留一条评分，后写覆盖
func (r *RatingRepository) Upsert(ctx context.Context, userID, naturalID int, score float64) error {
	now := time.Now()
	rating := &model.Rating{
		UserID:    userID,
		NaturalID: naturalID,
		Score:     score,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(rating).Error
}

// AllForUser 用户的全部评分
func (r *RatingRepository) AllForUser(ctx context.Context, userID int) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("movie_id ASC").
		Find(&ratings).Error
	return ratings, err
}
