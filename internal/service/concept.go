package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/watchwish/internal/metrics"
	"github.com/user/watchwish/internal/model"
	"github.com/user/watchwish/internal/textsim"
	"github.com/user/watchwish/internal/utils"
)

// SimilarityFloor 相似度 <= 该值视为噪音
const SimilarityFloor = 0.01

// EngineState 概念引擎生命周期
type EngineState int32

const (
	StateUninitialized EngineState = iota
	StateFitting
	StateReady
	StateFitFailed
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateFitting:
		return "fitting"
	case StateReady:
		return "ready"
	case StateFitFailed:
		return "fit_failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ConceptOptions 概念引擎参数
type ConceptOptions struct {
	Vectorizer    textsim.Config
	SnapshotLimit int // 拟合时最多加载多少部电影，<=0 表示全部
	DefaultTopN   int
	MaxTopN       int
	CacheSize     int
	CacheTTL      time.Duration
}

// DefaultConceptOptions 默认参数
func DefaultConceptOptions() ConceptOptions {
	return ConceptOptions{
		Vectorizer:  textsim.DefaultConfig(),
		DefaultTopN: 5,
		MaxTopN:     100,
		CacheSize:   512,
		CacheTTL:    30 * time.Minute,
	}
}

// conceptIndex 拟合结果，发布后只读
type conceptIndex struct {
	vectorizer *textsim.Vectorizer
	matrix     *textsim.Matrix
	naturalIDs []int // 与矩阵行对齐
}

// ConceptEngine 自由文本 -> 最相似的目录条目（TF-IDF + 余弦相似度）
//
// 拟合只发生一次：mu 保证并发的首个请求不会重复拟合，
// 拟合完成后索引通过 atomic.Pointer 发布，查询路径不加锁。
type ConceptEngine struct {
	catalog CatalogStore
	opts    ConceptOptions
	cache   *utils.LRUCache[[]model.SimilarityResult]
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu    sync.Mutex
	state atomic.Int32
	index atomic.Pointer[conceptIndex]
}

// NewConceptEngine 创建概念引擎，此时尚未拟合
func NewConceptEngine(catalog CatalogStore, opts ConceptOptions, m *metrics.Metrics, logger zerolog.Logger) *ConceptEngine {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 5
	}
	if opts.MaxTopN < opts.DefaultTopN {
		opts.MaxTopN = opts.DefaultTopN
	}
	return &ConceptEngine{
		catalog: catalog,
		opts:    opts,
		cache:   utils.NewLRUCache[[]model.SimilarityResult](opts.CacheSize, opts.CacheTTL),
		metrics: m,
		logger:  logger.With().Str("component", "concept").Logger(),
	}
}

// State 当前状态
func (e *ConceptEngine) State() EngineState {
	return EngineState(e.state.Load())
}

// Warmup 启动时预先拟合；失败时返回错误，引擎进入 FitFailed
func (e *ConceptEngine) Warmup(ctx context.Context) error {
	_, err := e.ensureFitted(ctx)
	return err
}

// ensureFitted 返回已发布的索引，必要时同步拟合
func (e *ConceptEngine) ensureFitted(ctx context.Context) (*conceptIndex, error) {
	if idx := e.index.Load(); idx != nil {
		return idx, nil
	}
	if e.State() == StateFitFailed {
		return nil, errFitFailed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 等锁期间可能已由其他请求完成
	if idx := e.index.Load(); idx != nil {
		return idx, nil
	}
	if e.State() == StateFitFailed {
		return nil, errFitFailed
	}

	e.state.Store(int32(StateFitting))
	start := time.Now()
	idx, err := e.fit(ctx)
	if err != nil {
		// 调用方取消不算拟合失败，下个请求重试
		if ctx.Err() != nil {
			e.state.Store(int32(StateUninitialized))
			return nil, ctx.Err()
		}
		e.state.Store(int32(StateFitFailed))
		e.logger.Error().Err(err).Msg("概念引擎拟合失败")
		return nil, err
	}

	e.index.Store(idx)
	e.state.Store(int32(StateReady))

	elapsed := time.Since(start)
	e.metrics.ObserveConceptFit(elapsed.Seconds(), idx.vectorizer.VocabularySize())
	e.logger.Info().
		Int("documents", idx.matrix.Len()).
		Int("vocabulary", idx.vectorizer.VocabularySize()).
		Dur("elapsed", elapsed).
		Msg("概念引擎就绪")
	return idx, nil
}

var errFitFailed = errors.New("concept engine fit failed")

func (e *ConceptEngine) fit(ctx context.Context) (*conceptIndex, error) {
	movies, err := e.catalog.All(ctx, e.opts.SnapshotLimit)
	if err != nil {
		return nil, unavailable("load catalog snapshot", err)
	}
	if len(movies) == 0 {
		return nil, textsim.ErrEmptyCorpus
	}

	docs := make([]string, len(movies))
	ids := make([]int, len(movies))
	for i := range movies {
		docs[i] = textsim.Soup(movies[i].Title, movies[i].Description, movies[i].GenreTags())
		ids[i] = movies[i].NaturalID
	}

	vectorizer := textsim.NewVectorizer(e.opts.Vectorizer)
	rows, err := vectorizer.FitTransform(docs)
	if err != nil {
		return nil, err
	}

	return &conceptIndex{
		vectorizer: vectorizer,
		matrix:     &textsim.Matrix{Rows: rows, Dims: vectorizer.VocabularySize()},
		naturalIDs: ids,
	}, nil
}

// Rank 返回相似度排序后的 (naturalId, similarity)，引擎不可用时返回空
func (e *ConceptEngine) Rank(ctx context.Context, text string, topN int) ([]model.SimilarityResult, error) {
	query := strings.TrimSpace(textsim.Normalize(text))
	if query == "" {
		return nil, nil
	}
	topN = clampLimit(topN, e.opts.DefaultTopN, e.opts.MaxTopN)

	idx, err := e.ensureFitted(ctx)
	if err != nil {
		// 概念分析是辅助功能，拟合失败降级为空结果
		e.metrics.IncConceptQuery("unavailable")
		return nil, nil
	}

	key := fmt.Sprintf("%d:%s", topN, query)
	if cached, ok := e.cache.Get(key); ok {
		e.metrics.IncConceptQuery("cache_hit")
		return cached, nil
	}

	vec, err := idx.vectorizer.Transform(query)
	if err != nil {
		return nil, err
	}

	hits := idx.matrix.TopN(vec, topN, SimilarityFloor)
	results := make([]model.SimilarityResult, len(hits))
	for i, h := range hits {
		results[i] = model.SimilarityResult{
			NaturalID:  idx.naturalIDs[h.Index],
			Similarity: h.Similarity,
		}
	}

	e.cache.Set(key, results)
	if len(results) == 0 {
		e.metrics.IncConceptQuery("empty")
	} else {
		e.metrics.IncConceptQuery("ok")
	}
	return results, nil
}

// AnalyzeConcept 文本 -> 最相似的电影，相似度以百分比（一位小数）返回
// 目录条目在读取时重新解析，已删除的条目被丢弃
func (e *ConceptEngine) AnalyzeConcept(ctx context.Context, text string, topN int) ([]model.ConceptMatch, error) {
	results, err := e.Rank(ctx, text, topN)
	if err != nil || len(results) == 0 {
		return []model.ConceptMatch{}, err
	}

	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.NaturalID
	}
	movies, err := e.catalog.FindByNaturalIDs(ctx, ids)
	if err != nil {
		return nil, unavailable("resolve concept matches", err)
	}

	matches := make([]model.ConceptMatch, 0, len(results))
	for _, r := range results {
		movie, ok := movies[r.NaturalID]
		if !ok || movie == nil {
			continue
		}
		matches = append(matches, model.ConceptMatch{
			Movie:             *movie,
			Similarity:        r.Similarity,
			SimilarityPercent: SimilarityPercent(r.Similarity),
		})
	}
	return matches, nil
}

// SimilarityPercent 0-1 相似度 -> 0-100 百分比，保留一位小数
func SimilarityPercent(sim float64) float64 {
	return math.Round(sim*1000) / 10
}

// clampLimit <=0 取默认值，超过上限截断
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}
