package service

import (
	"context"
	"math"
	"sort"

	"github.com/user/watchwish/internal/model"
)

// 风险等级
const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskUnknown = "Unknown"
)

// Report 在相似影片的基础上做粗略的商业预估
// 没有匹配时返回空报告，不返回错误
func (e *ConceptEngine) Report(ctx context.Context, text string, topN int) (*model.ConceptReport, error) {
	matches, err := e.AnalyzeConcept(ctx, text, topN)
	if err != nil {
		return nil, err
	}
	return BuildReport(matches), nil
}

// BuildReport 按相似度加权汇总匹配影片
func BuildReport(matches []model.ConceptMatch) *model.ConceptReport {
	report := &model.ConceptReport{
		Risk:         RiskUnknown,
		SimilarFilms: matches,
	}
	if len(matches) == 0 {
		report.SimilarFilms = []model.ConceptMatch{}
		return report
	}

	report.PredictedGenre = predictGenre(matches)
	report.EstRevenue = weightedMean(matches, func(m *model.Movie) float64 { return float64(m.Revenue) })
	report.EstBudget = weightedMean(matches, func(m *model.Movie) float64 { return float64(m.Budget) })
	if report.EstRevenue > 0 && report.EstBudget > 0 {
		report.EstROI = round1(report.EstRevenue / report.EstBudget)
		report.Risk = riskTier(report.EstROI)
	}

	report.AudienceMatch = matches[0].SimilarityPercent
	for _, m := range matches[1:] {
		if m.SimilarityPercent > report.AudienceMatch {
			report.AudienceMatch = m.SimilarityPercent
		}
	}

	report.Viability = report.AudienceMatch
	var votes float64
	var voted int
	for _, m := range matches {
		if m.VoteAverage > 0 {
			votes += m.VoteAverage
			voted++
		}
	}
	if voted > 0 {
		quality := votes / float64(voted) * 10
		report.Viability = 0.7*quality + 0.3*report.AudienceMatch
	}
	report.Viability = round1(math.Max(0, math.Min(100, report.Viability)))
	return report
}

func predictGenre(matches []model.ConceptMatch) string {
	votes := make(map[string]float64)
	for _, m := range matches {
		for _, g := range m.GenreTags() {
			votes[g] += m.Similarity
		}
	}
	if len(votes) == 0 {
		return ""
	}

	genres := make([]string, 0, len(votes))
	for g := range votes {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if votes[genres[i]] != votes[genres[j]] {
			return votes[genres[i]] > votes[genres[j]]
		}
		return genres[i] < genres[j]
	})
	return genres[0]
}

// weightedMean 只统计取值为正的影片，全部缺失时返回 0
func weightedMean(matches []model.ConceptMatch, value func(*model.Movie) float64) float64 {
	var sum, weight float64
	for i := range matches {
		v := value(&matches[i].Movie)
		if v <= 0 {
			continue
		}
		w := matches[i].Similarity
		if w <= 0 {
			w = SimilarityFloor
		}
		sum += v * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return math.Round(sum / weight)
}

func riskTier(roi float64) string {
	switch {
	case roi >= 3:
		return RiskLow
	case roi >= 1.5:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
