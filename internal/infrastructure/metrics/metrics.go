// Package metrics 定義服務的 Prometheus 指標
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal 依路由與狀態碼統計請求數
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "myfridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration 請求耗時
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "myfridge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// RecipeMatchResults 每次比對回傳的食譜數量
	RecipeMatchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "myfridge_recipe_match_results",
			Help:    "Number of recipes returned per match request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// DetectionRequests 依結果統計辨識請求
	// outcome: "success", "error", "rejected"
	DetectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "myfridge_detection_requests_total",
			Help: "Total number of food detection requests",
		},
		[]string{"outcome"},
	)

	// DetectionDuration 外部辨識模型耗時
	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "myfridge_detection_duration_seconds",
			Help:    "Duration of calls to the detection model",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// DetectionCacheLookups 辨識結果快取查詢
	// result: "hit", "miss"
	DetectionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "myfridge_detection_cache_lookups_total",
			Help: "Detection result cache lookups",
		},
		[]string{"result"},
	)

	// DetectionQueueLength 排隊中的辨識工作
	DetectionQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "myfridge_detection_queue_length",
			Help: "Number of detection jobs waiting in the queue",
		},
	)

	// DetectorBreakerState 辨識服務斷路器狀態 (0=closed, 1=half-open, 2=open)
	DetectorBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "myfridge_detector_breaker_state",
			Help: "Circuit breaker state of the detection model client",
		},
	)

	// DetectorBreakerTransitions 斷路器狀態轉換次數
	DetectorBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "myfridge_detector_breaker_transitions_total",
			Help: "Circuit breaker state transitions of the detection model client",
		},
		[]string{"from", "to"},
	)
)
