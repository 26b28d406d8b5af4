// Package metrics 暴露推荐服务的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "watchwish"

// Metrics 指标集合，nil 接收者上的方法均为空操作，方便测试直接传 nil
type Metrics struct {
	registry *prometheus.Registry

	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	ratings               *prometheus.CounterVec
	conceptQueries        *prometheus.CounterVec
	conceptFitSeconds     prometheus.Histogram
	conceptVocabulary     prometheus.Gauge
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
}

// New 在独立 registry 上注册所有指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		recommendations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation responses by serving strategy",
		}, []string{"strategy"}),
		recommendationLatency: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_latency_seconds",
			Help:      "Latency of getRecommendations",
			Buckets:   prometheus.DefBuckets,
		}),
		ratings: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_total",
			Help:      "Rating submissions by result",
		}, []string{"result"}),
		conceptQueries: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concept_queries_total",
			Help:      "Concept similarity queries by result",
		}, []string{"result"}),
		conceptFitSeconds: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "concept_fit_seconds",
			Help:      "Duration of the concept engine fit",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		conceptVocabulary: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concept_vocabulary_size",
			Help:      "Number of terms in the fitted concept vocabulary",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRecommendation(strategy string, seconds float64) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(strategy).Inc()
	m.recommendationLatency.Observe(seconds)
}

func (m *Metrics) IncRating(result string) {
	if m == nil {
		return
	}
	m.ratings.WithLabelValues(result).Inc()
}

func (m *Metrics) IncConceptQuery(result string) {
	if m == nil {
		return
	}
	m.conceptQueries.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveConceptFit(seconds float64, vocabulary int) {
	if m == nil {
		return
	}
	m.conceptFitSeconds.Observe(seconds)
	m.conceptVocabulary.Set(float64(vocabulary))
}

func (m *Metrics) ObserveHTTP(path, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, status).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(seconds)
}
