package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/user/watchwish/internal/model"
)

// fakeCatalog 内存目录，记录调用次数
type fakeCatalog struct {
	mu       sync.Mutex
	movies   map[int]model.Movie
	err      error
	allCalls int
	idCalls  int
}

func newFakeCatalog(movies ...model.Movie) *fakeCatalog {
	c := &fakeCatalog{movies: make(map[int]model.Movie)}
	for _, m := range movies {
		c.movies[m.NaturalID] = m
	}
	return c
}

func (c *fakeCatalog) remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.movies, id)
}

func (c *fakeCatalog) sorted() []model.Movie {
	out := make([]model.Movie, 0, len(c.movies))
	for _, m := range c.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NaturalID < out[j].NaturalID })
	return out
}

func (c *fakeCatalog) FindByNaturalID(_ context.Context, id int) (*model.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idCalls++
	if c.err != nil {
		return nil, c.err
	}
	m, ok := c.movies[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (c *fakeCatalog) FindByNaturalIDs(_ context.Context, ids []int) (map[int]*model.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idCalls++
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[int]*model.Movie, len(ids))
	for _, id := range ids {
		if m, ok := c.movies[id]; ok {
			m := m
			out[id] = &m
		}
	}
	return out, nil
}

func (c *fakeCatalog) FindMany(_ context.Context, filter model.MovieFilter, limit, skip int) ([]model.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []model.Movie
	for _, m := range c.sorted() {
		if filter.Genre != "" {
			if _, ok := m.GenreSet()[strings.ToLower(filter.Genre)]; !ok {
				continue
			}
		}
		if m.VoteAverage < filter.MinVoteAverage {
			continue
		}
		out = append(out, m)
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) SearchText(_ context.Context, query string, limit int) ([]model.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	q := strings.ToLower(query)
	var out []model.Movie
	for _, m := range c.sorted() {
		if strings.Contains(strings.ToLower(m.Title), q) || strings.Contains(strings.ToLower(m.Description), q) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) All(_ context.Context, limit int) ([]model.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allCalls++
	if c.err != nil {
		return nil, c.err
	}
	out := c.sorted()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) Count(_ context.Context, _ model.MovieFilter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return int64(len(c.movies)), nil
}

func (c *fakeCatalog) allCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allCalls
}

// fakeRatings 内存评分，按 (user, movie) 覆盖写
type fakeRatings struct {
	mu          sync.Mutex
	ratings     map[[2]int]model.Rating
	err         error
	readCalls   int
	upsertCalls int
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: make(map[[2]int]model.Rating)}
}

func (r *fakeRatings) Upsert(_ context.Context, userID, naturalID int, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.err != nil {
		return r.err
	}
	r.ratings[[2]int{userID, naturalID}] = model.Rating{UserID: userID, NaturalID: naturalID, Score: score}
	return nil
}

func (r *fakeRatings) AllForUser(_ context.Context, userID int) ([]model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readCalls++
	if r.err != nil {
		return nil, r.err
	}
	var out []model.Rating
	for key, rating := range r.ratings {
		if key[0] == userID {
			out = append(out, rating)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NaturalID < out[j].NaturalID })
	return out, nil
}

func (r *fakeRatings) forUser(userID int) []model.Rating {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Rating
	for key, rating := range r.ratings {
		if key[0] == userID {
			out = append(out, rating)
		}
	}
	return out
}

// fakeRecs 内存预计算推荐
type fakeRecs struct {
	mu      sync.Mutex
	batches map[int][]model.RecommendationBatch
	err     error
	calls   int
}

func newFakeRecs() *fakeRecs {
	return &fakeRecs{batches: make(map[int][]model.RecommendationBatch)}
}

func (r *fakeRecs) add(userID int, source string, entries ...model.RecEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[userID] = append(r.batches[userID], model.RecommendationBatch{
		UserID:      userID,
		SourceModel: source,
		Entries:     entries,
	})
}

func (r *fakeRecs) BatchesForUser(ctx context.Context, userID int) ([]model.RecommendationBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.batches[userID], nil
}

func movie(id int, title, genres string) model.Movie {
	return model.Movie{NaturalID: id, Title: title, Genres: genres}
}
