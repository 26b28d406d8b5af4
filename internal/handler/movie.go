package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/watchwish/internal/model"
	"github.com/user/watchwish/internal/utils"
)

// ListMovies GET /api/movies?q=&genre=&min_vote=&limit=&skip=
func (h *Handler) ListMovies(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	if q := c.Query("q"); q != "" {
		movies, err := h.Catalog.SearchMovies(c.Request.Context(), q, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.Success(c, gin.H{"items": movies, "total": len(movies)})
		return
	}

	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return
	}
	filter := model.MovieFilter{Genre: c.Query("genre")}
	if raw := c.Query("min_vote"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.BadRequest(c, "min_vote 必须是数字")
			return
		}
		filter.MinVoteAverage = v
	}

	movies, err := h.Catalog.ListMovies(c.Request.Context(), filter, limit, skip)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.Catalog.CountMovies(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"items": movies, "total": total})
}

// GetMovie GET /api/movies/:id
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	movie, err := h.Catalog.GetMovie(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, movie)
}

// GenreMovies GET /api/genres/:genre/movies 某类型下评分最高的电影
func (h *Handler) GenreMovies(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	movies, err := h.Catalog.MoviesByGenre(c.Request.Context(), c.Param("genre"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, movies)
}
