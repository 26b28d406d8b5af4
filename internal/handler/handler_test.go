package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/watchwish/internal/handler"
	"github.com/user/watchwish/internal/metrics"
	"github.com/user/watchwish/internal/middleware"
	"github.com/user/watchwish/internal/model"
	"github.com/user/watchwish/internal/router"
	"github.com/user/watchwish/internal/service"
)

const secret = "handler-test-secret"

type stubRecommender struct {
	recsErr  error
	rateErr  error
	gotUser  int
	gotLimit int
	rated    []string
	concepts []model.ConceptMatch
	gotTopN  int
	state    service.EngineState
}

func (s *stubRecommender) GetRecommendations(_ context.Context, userID, limit int) ([]model.ScoredMovie, error) {
	s.gotUser, s.gotLimit = userID, limit
	if s.recsErr != nil {
		return nil, s.recsErr
	}
	return []model.ScoredMovie{{
		Movie:               model.Movie{NaturalID: 42, Title: "Answer"},
		RecommendationScore: 4.5,
		Strategy:            model.StrategyPrecomputed,
	}}, nil
}

func (s *stubRecommender) RateMovie(_ context.Context, userID, naturalID int, score float64) error {
	if s.rateErr != nil {
		return s.rateErr
	}
	s.rated = append(s.rated, fmt.Sprintf("%d:%d:%g", userID, naturalID, score))
	return nil
}

func (s *stubRecommender) AnalyzeConcept(_ context.Context, _ string, topN int) ([]model.ConceptMatch, error) {
	s.gotTopN = topN
	return s.concepts, nil
}

func (s *stubRecommender) ConceptReport(_ context.Context, _ string, _ int) (*model.ConceptReport, error) {
	return service.BuildReport(s.concepts), nil
}

func (s *stubRecommender) ConceptState() service.EngineState {
	return s.state
}

type stubCatalog struct {
	err error
}

func (c *stubCatalog) GetMovie(_ context.Context, id int) (*model.Movie, error) {
	if c.err != nil {
		return nil, c.err
	}
	if id != 42 {
		return nil, fmt.Errorf("%w: movie %d", service.ErrNotFound, id)
	}
	return &model.Movie{NaturalID: 42, Title: "Answer"}, nil
}

func (c *stubCatalog) ListMovies(_ context.Context, _ model.MovieFilter, _, _ int) ([]model.Movie, error) {
	return []model.Movie{{NaturalID: 1}, {NaturalID: 2}}, c.err
}

func (c *stubCatalog) SearchMovies(_ context.Context, _ string, _ int) ([]model.Movie, error) {
	return []model.Movie{{NaturalID: 3}}, c.err
}

func (c *stubCatalog) MoviesByGenre(_ context.Context, _ string, _ int) ([]model.Movie, error) {
	return []model.Movie{{NaturalID: 4}}, c.err
}

func (c *stubCatalog) CountMovies(_ context.Context, _ model.MovieFilter) (int64, error) {
	return 2, c.err
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func setup(recs *stubRecommender, catalog *stubCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewHandler(recs, catalog, handler.Options{WebUserOffset: 1_000_000})
	router.RegisterRoutes(r, h, metrics.New(), secret)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func token(t *testing.T, userID int) string {
	t.Helper()
	tok, err := middleware.GenerateToken(userID, "user", secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestUserRecommendations(t *testing.T) {
	recs := &stubRecommender{}
	r := setup(recs, &stubCatalog{})

	w, env := do(t, r, http.MethodGet, "/api/users/17/recommendations?limit=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 17, recs.gotUser)
	assert.Equal(t, 5, recs.gotLimit)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.EqualValues(t, 42, items[0]["movie_id"])
	assert.EqualValues(t, 4.5, items[0]["recommendation_score"])
	assert.Equal(t, "precomputed", items[0]["strategy"])
}

func TestMyRecommendationsAppliesOffset(t *testing.T) {
	recs := &stubRecommender{}
	r := setup(recs, &stubCatalog{})

	w, _ := do(t, r, http.MethodGet, "/api/recommendations", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/recommendations", "", token(t, 8))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1_000_008, recs.gotUser)
	assert.Equal(t, 0, recs.gotLimit)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "user_id", Constraint: "must be > 0"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: movie 1", service.ErrNotFound), http.StatusNotFound},
		{"store down", fmt.Errorf("%w: load: boom", service.ErrDependencyUnavailable), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setup(&stubRecommender{recsErr: tt.err}, &stubCatalog{})
			w, env := do(t, r, http.MethodGet, "/api/users/3/recommendations", "", "")
			assert.Equal(t, tt.want, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.want, env.Code)
		})
	}
}

func TestBadParameters(t *testing.T) {
	r := setup(&stubRecommender{}, &stubCatalog{})

	w, _ := do(t, r, http.MethodGet, "/api/users/abc/recommendations", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/users/3/recommendations?limit=ten", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/movies?min_vote=high", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateMovie(t *testing.T) {
	recs := &stubRecommender{}
	r := setup(recs, &stubCatalog{})
	tok := token(t, 2)

	w, _ := do(t, r, http.MethodPost, "/api/movies/42/rate", `{"score":4.5}`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1000002:42:4.5"}, recs.rated)

	w, _ = do(t, r, http.MethodPost, "/api/movies/42/rate", `{}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing score")

	w, _ = do(t, r, http.MethodPost, "/api/movies/42/rate", `{"score":4}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	recs.rateErr = &service.ValidationError{Field: "score", Constraint: "must be <= 5"}
	w, env := do(t, r, http.MethodPost, "/api/movies/42/rate", `{"score":6}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "score must be <= 5")
}

func TestMovies(t *testing.T) {
	r := setup(&stubRecommender{}, &stubCatalog{})

	w, env := do(t, r, http.MethodGet, "/api/movies/42", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"title":"Answer"`)

	w, _ = do(t, r, http.MethodGet, "/api/movies/7", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/movies?genre=Drama&limit=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":2`)

	w, env = do(t, r, http.MethodGet, "/api/movies?q=matrix", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"movie_id":3`)

	w, env = do(t, r, http.MethodGet, "/api/genres/Horror/movies", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"movie_id":4`)
}

func TestConcepts(t *testing.T) {
	recs := &stubRecommender{concepts: []model.ConceptMatch{{
		Movie:             model.Movie{NaturalID: 9, Title: "Vault Job", Genres: "Crime"},
		Similarity:        0.51234,
		SimilarityPercent: 51.2,
	}}}
	r := setup(recs, &stubCatalog{})

	w, env := do(t, r, http.MethodPost, "/api/concepts/analyze", `{"text":"a heist","top_n":3}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, recs.gotTopN)
	assert.Contains(t, string(env.Data), `"similarity_percent":51.2`)
	assert.NotContains(t, string(env.Data), "0.51234")

	w, env = do(t, r, http.MethodPost, "/api/concepts/report", `{"text":"a heist"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"predicted_genre":"Crime"`)

	w, _ = do(t, r, http.MethodPost, "/api/concepts/analyze", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := setup(&stubRecommender{state: service.StateReady}, &stubCatalog{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","concept_engine":"ready"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
