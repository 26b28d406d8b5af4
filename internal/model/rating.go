package model

import (
	"time"
)

// 评分取值范围
const (
	MinRatingScore = 1.0
	MaxRatingScore = 5.0
)

// Rating 用户评分，(user_id, movie_id) 唯一，后写覆盖先写
type Rating struct {
	ID        uint      `json:"-" db:"id" gorm:"primaryKey"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_movie_rating"`
	NaturalID int       `json:"movie_id" db:"movie_id" gorm:"column:movie_id;uniqueIndex:idx_user_movie_rating"`
	Score     float64   `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName 表名
func (Rating) TableName() string {
	return "user_ratings"
}
