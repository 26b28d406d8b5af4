// Package textsim 实现 TF-IDF 文本向量化与余弦相似度。
//
// 参数语义对齐 scikit-learn 的 TfidfVectorizer：
// 平滑 idf = ln((1+n)/(1+df)) + 1，原始词频，L2 归一化，
// 先去停用词再组合 n-gram，max_features 按语料总词频截取。
package textsim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrEmptyCorpus  = errors.New("textsim: empty corpus")
	ErrNoTerms      = errors.New("textsim: no terms remain after pruning")
	ErrInvalidRange = errors.New("textsim: max_df corresponds to fewer documents than min_df")
	ErrNotFitted    = errors.New("textsim: vectorizer not fitted")
)

// Config 向量化参数
type Config struct {
	MaxFeatures int     // 词表上限，<=0 表示不限制
	MinDF       int     // 至少出现在多少篇文档中
	MaxDF       float64 // 最多出现在多少比例的文档中 (0,1]
	NGramMin    int
	NGramMax    int
	StopWords   map[string]struct{}
}

// DefaultConfig 默认参数：5000 词、英文停用词、1-2 gram、min_df=2、max_df=0.8
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 5000,
		MinDF:       2,
		MaxDF:       0.8,
		NGramMin:    1,
		NGramMax:    2,
		StopWords:   EnglishStopWords,
	}
}

// Vector L2 归一化后的稀疏向量，Indices 升序
type Vector struct {
	Indices []int
	Values  []float64
}

// IsZero 是否为零向量
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// Vectorizer TF-IDF 向量化器，Fit 之后只读，可并发调用 Transform
type Vectorizer struct {
	cfg   Config
	vocab map[string]int
	terms []string
	idf   []float64
}

// NewVectorizer 创建向量化器
func NewVectorizer(cfg Config) *Vectorizer {
	if cfg.NGramMin <= 0 {
		cfg.NGramMin = 1
	}
	if cfg.NGramMax < cfg.NGramMin {
		cfg.NGramMax = cfg.NGramMin
	}
	if cfg.MinDF <= 0 {
		cfg.MinDF = 1
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = 1
	}
	return &Vectorizer{cfg: cfg}
}

// Analyze 文本 -> 词项序列（小写、分词、去停用词、n-gram）
func (v *Vectorizer) Analyze(text string) []string {
	tokens := Tokenize(text)
	if len(v.cfg.StopWords) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := v.cfg.StopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if v.cfg.NGramMax == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(v.cfg.NGramMax-v.cfg.NGramMin+1))
	for n := v.cfg.NGramMin; n <= v.cfg.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				terms = append(terms, tokens[i])
				continue
			}
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// FitTransform 在语料上拟合词表与 idf，并返回每篇文档的向量（与输入顺序对齐）
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	n := len(docs)
	if n == 0 {
		return nil, ErrEmptyCorpus
	}

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	total := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, term := range v.Analyze(doc) {
			tf[term]++
		}
		for term, c := range tf {
			df[term]++
			total[term] += c
		}
		counts[i] = tf
	}

	maxDocs := v.cfg.MaxDF * float64(n)
	if maxDocs < float64(v.cfg.MinDF) {
		return nil, fmt.Errorf("%w (n=%d)", ErrInvalidRange, n)
	}

	kept := make([]string, 0, len(df))
	for term, d := range df {
		if d >= v.cfg.MinDF && float64(d) <= maxDocs {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoTerms
	}

	// 超过上限时按总词频截取，词频相同按字典序
	sort.Strings(kept)
	if v.cfg.MaxFeatures > 0 && len(kept) > v.cfg.MaxFeatures {
		sort.SliceStable(kept, func(i, j int) bool {
			return total[kept[i]] > total[kept[j]]
		})
		kept = kept[:v.cfg.MaxFeatures]
		sort.Strings(kept)
	}

	v.terms = kept
	v.vocab = make(map[string]int, len(kept))
	v.idf = make([]float64, len(kept))
	for i, term := range kept {
		v.vocab[term] = i
		v.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make([]Vector, n)
	for i, tf := range counts {
		vectors[i] = v.weigh(tf)
	}
	return vectors, nil
}

// Transform 使用已拟合的词表把文本转成向量，词表外的词被忽略
func (v *Vectorizer) Transform(text string) (Vector, error) {
	if v.vocab == nil {
		return Vector{}, ErrNotFitted
	}
	tf := make(map[string]int)
	for _, term := range v.Analyze(text) {
		tf[term]++
	}
	return v.weigh(tf), nil
}

// VocabularySize 词表大小
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Terms 词表（按索引）
func (v *Vectorizer) Terms() []string {
	return v.terms
}

func (v *Vectorizer) weigh(tf map[string]int) Vector {
	vec := Vector{
		Indices: make([]int, 0, len(tf)),
		Values:  make([]float64, 0, len(tf)),
	}
	for term := range tf {
		if idx, ok := v.vocab[term]; ok {
			vec.Indices = append(vec.Indices, idx)
		}
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, idx := range vec.Indices {
		w := float64(tf[v.terms[idx]]) * v.idf[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm == 0 {
		return Vector{}
	}
	norm = math.Sqrt(norm)
	for i := range vec.Values {
		vec.Values[i] /= norm
	}
	return vec
}
