package model

import (
	"strings"
	"time"
)

// GenreDelimiter 类型字段分隔符（MovieLens 格式，如 "Action|Sci-Fi"）
const GenreDelimiter = "|"

// Movie 电影目录条目
// NaturalID 是业务 ID（MovieLens movieId），与存储自增 ID 无关
type Movie struct {
	ID          uint      `json:"-" db:"id" gorm:"primaryKey"`
	NaturalID   int       `json:"movie_id" db:"movie_id" gorm:"column:movie_id;uniqueIndex"`
	Title       string    `json:"title" db:"title" gorm:"index"`
	Genres      string    `json:"genres" db:"genres"`
	Budget      int64     `json:"budget" db:"budget"`
	Revenue     int64     `json:"revenue" db:"revenue"`
	VoteAverage float64   `json:"vote_average" db:"vote_average" gorm:"index"`
	Description string    `json:"description" db:"description"`
	PosterURL   string    `json:"poster_url" db:"poster_url"`
	ReleaseYear int       `json:"release_year,omitempty" db:"release_year"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName 表名
func (Movie) TableName() string {
	return "movies"
}

// GenreTags 按原始顺序解析类型标签
func (m *Movie) GenreTags() []string {
	return ParseGenres(m.Genres)
}

// GenreSet 归一化后的类型集合，用于重合度计算
func (m *Movie) GenreSet() map[string]struct{} {
	tags := m.GenreTags()
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[strings.ToLower(tag)] = struct{}{}
	}
	return set
}

// ParseGenres 解析 "|" 分隔的类型字符串，空值返回空切片
func ParseGenres(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	parts := strings.Split(raw, GenreDelimiter)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MovieFilter 目录查询条件
type MovieFilter struct {
	Genre          string
	MinVoteAverage float64
	ExcludeIDs     []int
}
