// Package metrics はPrometheus形式のアプリケーションメトリクスを提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はHTTPリクエストと上流Spotify API呼び出しの統計を収集する。
// middleware.StatusRecorderとspotify.MetricsRecorderの両方を満たす。
type Collector struct {
	registry *prometheus.Registry

	httpResponses    *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	dailyAssignments prometheus.Counter
}

// NewCollector は専用レジストリ付きのCollectorを生成する。
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		httpResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunedeck_http_responses_total",
				Help: "Total HTTP responses served, by status code class.",
			},
			[]string{"code"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunedeck_spotify_requests_total",
				Help: "Total requests to the Spotify Web API, by endpoint and status code.",
			},
			[]string{"endpoint", "code"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunedeck_spotify_request_duration_seconds",
				Help:    "Duration of Spotify Web API requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		dailyAssignments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunedeck_daily_assignments_created_total",
				Help: "Total daily card assignment batches persisted.",
			},
		),
	}

	registry.MustRegister(
		c.httpResponses,
		c.upstreamRequests,
		c.upstreamDuration,
		c.dailyAssignments,
	)

	return c
}

// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpResponses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamRequest はSpotify API呼び出しの結果を記録する。
func (c *Collector) RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordDailyAssignment はデイリーカード割り当ての新規作成を記録する。
func (c *Collector) RecordDailyAssignment() {
	c.dailyAssignments.Inc()
}

// Handler は/metricsエンドポイント用のHTTPハンドラを返す。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
