package model

// ConceptMatch 概念相似度匹配结果
type ConceptMatch struct {
	Movie
	Similarity        float64 `json:"-"`
	SimilarityPercent float64 `json:"similarity_percent"`
}

// ConceptReport 概念分析报告：相似影片 + 基于相似影片的粗略预估
type ConceptReport struct {
	PredictedGenre string         `json:"predicted_genre"`
	EstRevenue     float64        `json:"est_revenue"`
	EstBudget      float64        `json:"est_budget"`
	EstROI         float64        `json:"est_roi"`
	Risk           string         `json:"risk"`
	Viability      float64        `json:"viability"`
	AudienceMatch  float64        `json:"audience_match"`
	SimilarFilms   []ConceptMatch `json:"similar_films"`
}

// SimilarityResult 单次概念查询的排序结果（仅请求内使用）
type SimilarityResult struct {
	NaturalID  int
	Similarity float64
}
