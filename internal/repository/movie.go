package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/user/watchwish/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// genreMatchSQL 在 "|" 分隔的类型字段中精确匹配一个类型（忽略大小写和两侧空格）
const genreMatchSQL = `? = ANY(regexp_split_to_array(lower(genres), '\s*\|\s*'))`

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// FindByNaturalID 根据业务 ID 查找电影，不存在时返回 nil, nil
func (r *MovieRepository) FindByNaturalID(ctx context.Context, naturalID int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).Where("movie_id = ?", naturalID).First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movie, nil
}

// FindByNaturalIDs 一次查询解析多个业务 ID，不存在的 ID 不出现在结果中
func (r *MovieRepository) FindByNaturalIDs(ctx context.Context, naturalIDs []int) (map[int]*model.Movie, error) {
	result := make(map[int]*model.Movie, len(naturalIDs))
	if len(naturalIDs) == 0 {
		return result, nil
	}

	var movies []model.Movie
	err := r.db.WithContext(ctx).
		Where("movie_id = ANY(?)", pq.Array(int64s(naturalIDs))).
		Find(&movies).Error
	if err != nil {
		return nil, err
	}

	for i := range movies {
		result[movies[i].NaturalID] = &movies[i]
	}
	return result, nil
}

// FindMany 按条件分页查询，评分高的在前
func (r *MovieRepository) FindMany(ctx context.Context, filter model.MovieFilter, limit, skip int) ([]model.Movie, error) {
	var movies []model.Movie
	query := applyFilter(r.db.WithContext(ctx).Model(&model.Movie{}), filter).
		Order("vote_average DESC").
		Order("movie_id ASC").
		Offset(skip)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&movies).Error
	return movies, err
}

// SearchText 标题、简介、类型模糊搜索（不区分大小写）
func (r *MovieRepository) SearchText(ctx context.Context, query string, limit int) ([]model.Movie, error) {
	var movies []model.Movie
	pattern := "%" + escapeLike(query) + "%"
	q := r.db.WithContext(ctx).
		Where("title ILIKE ? OR description ILIKE ? OR genres ILIKE ?", pattern, pattern, pattern).
		Order("vote_average DESC").
		Order("movie_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movies).Error
	return movies, err
}

// All 按业务 ID 顺序返回目录快照，limit <= 0 表示全部
func (r *MovieRepository) All(ctx context.Context, limit int) ([]model.Movie, error) {
	var movies []model.Movie
	q := r.db.WithContext(ctx).Order("movie_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movies).Error
	return movies, err
}

// Count 满足条件的电影数量
func (r *MovieRepository) Count(ctx context.Context, filter model.MovieFilter) (int64, error) {
	var count int64
	err := applyFilter(r.db.WithContext(ctx).Model(&model.Movie{}), filter).Count(&count).Error
	return count, err
}

// Upsert 创建或更新电影（按业务 ID）
func (r *MovieRepository) Upsert(ctx context.Context, movie *model.Movie) error {
	movie.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "genres", "budget", "revenue", "vote_average",
			"description", "poster_url", "release_year", "updated_at",
		}),
	}).Create(movie).Error
}

func applyFilter(q *gorm.DB, filter model.MovieFilter) *gorm.DB {
	if genre := strings.ToLower(strings.TrimSpace(filter.Genre)); genre != "" {
		q = q.Where(genreMatchSQL, genre)
	}
	if filter.MinVoteAverage > 0 {
		q = q.Where("vote_average >= ?", filter.MinVoteAverage)
	}
	if len(filter.ExcludeIDs) > 0 {
		q = q.Where("NOT (movie_id = ANY(?))", pq.Array(int64s(filter.ExcludeIDs)))
	}
	return q
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// pq.Array 不支持 []int，转成 []int64
func int64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
