package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/watchwish/internal/model"
)

// CatalogService 电影目录浏览（只读）
type CatalogService struct {
	catalog      CatalogStore
	defaultLimit int
	maxLimit     int
}

// NewCatalogService 创建目录服务
func NewCatalogService(catalog CatalogStore, defaultLimit, maxLimit int) *CatalogService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &CatalogService{
		catalog:      catalog,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// GetMovie 按业务 ID 获取电影，不存在返回 ErrNotFound
func (s *CatalogService) GetMovie(ctx context.Context, naturalID int) (*model.Movie, error) {
	if naturalID <= 0 {
		return nil, invalid("movie_id", "must be > 0")
	}
	movie, err := s.catalog.FindByNaturalID(ctx, naturalID)
	if err != nil {
		return nil, unavailable("find movie", err)
	}
	if movie == nil {
		return nil, fmt.Errorf("%w: movie %d", ErrNotFound, naturalID)
	}
	return movie, nil
}

// ListMovies 分页列出电影
func (s *CatalogService) ListMovies(ctx context.Context, filter model.MovieFilter, limit, skip int) ([]model.Movie, error) {
	if skip < 0 {
		return nil, invalid("skip", "must be >= 0")
	}
	limit = clampLimit(limit, s.defaultLimit, s.maxLimit)

	movies, err := s.catalog.FindMany(ctx, filter, limit, skip)
	if err != nil {
		return nil, unavailable("list movies", err)
	}
	return nonNil(movies), nil
}

// SearchMovies 标题/简介/类型模糊搜索，空关键词返回空结果
func (s *CatalogService) SearchMovies(ctx context.Context, query string, limit int) ([]model.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Movie{}, nil
	}
	limit = clampLimit(limit, s.defaultLimit, s.maxLimit)

	movies, err := s.catalog.SearchText(ctx, query, limit)
	if err != nil {
		return nil, unavailable("search movies", err)
	}
	return nonNil(movies), nil
}

// MoviesByGenre 某类型下评分最高的电影
func (s *CatalogService) MoviesByGenre(ctx context.Context, genre string, limit int) ([]model.Movie, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil, invalid("genre", "must not be empty")
	}
	return s.ListMovies(ctx, model.MovieFilter{Genre: genre}, limit, 0)
}

// CountMovies 满足条件的电影数量
func (s *CatalogService) CountMovies(ctx context.Context, filter model.MovieFilter) (int64, error) {
	n, err := s.catalog.Count(ctx, filter)
	if err != nil {
		return 0, unavailable("count movies", err)
	}
	return n, nil
}

func nonNil(movies []model.Movie) []model.Movie {
	if movies == nil {
		return []model.Movie{}
	}
	return movies
}
