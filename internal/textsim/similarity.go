package textsim

import (
	"math"
	"sort"
)

// Cosine 余弦相似度
func Cosine(a, b Vector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}

	var dot, normA, normB float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	for _, x := range a.Values {
		normA += x * x
	}
	for _, x := range b.Values {
		normB += x * x
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Hit 相似度排序结果，Index 为矩阵行号
type Hit struct {
	Index      int
	Similarity float64
}

// Matrix 文档-词项矩阵，行与拟合时的文档顺序对齐
type Matrix struct {
	Rows []Vector
	Dims int
}

// Len 行数
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// Similarities 查询向量与每一行的余弦相似度
func (m *Matrix) Similarities(query Vector) []float64 {
	sims := make([]float64, len(m.Rows))
	if query.IsZero() {
		return sims
	}

	// 行向量已 L2 归一化，展开查询向量后逐行点积即可
	dense := make([]float64, m.Dims)
	var qnorm float64
	for k, idx := range query.Indices {
		dense[idx] = query.Values[k]
		qnorm += query.Values[k] * query.Values[k]
	}
	qnorm = math.Sqrt(qnorm)

	for r, row := range m.Rows {
		var dot, rnorm float64
		for k, idx := range row.Indices {
			dot += dense[idx] * row.Values[k]
			rnorm += row.Values[k] * row.Values[k]
		}
		if dot == 0 || rnorm == 0 {
			continue
		}
		sims[r] = dot / (qnorm * math.Sqrt(rnorm))
	}
	return sims
}

// TopN 取相似度最高的 n 行，相似度 <= floor 的被丢弃；相同分数按行号升序
func (m *Matrix) TopN(query Vector, n int, floor float64) []Hit {
	sims := m.Similarities(query)
	hits := make([]Hit, 0, len(sims))
	for i, s := range sims {
		hits = append(hits, Hit{Index: i, Similarity: s})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}

	out := hits[:0]
	for _, h := range hits {
		if h.Similarity > floor {
			out = append(out, h)
		}
	}
	return out
}
