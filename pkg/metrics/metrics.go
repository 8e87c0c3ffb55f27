package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP 请求指标
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of requests",
		},
		[]string{"service", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// 外部依赖调用指标
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of calls to external collaborators",
		},
		[]string{"upstream", "operation", "status"},
	)

	// 消息队列指标
	KafkaMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_total",
			Help: "Total number of Kafka messages",
		},
		[]string{"service", "topic", "status"},
	)

	// 业务指标
	MintAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mint_attempts_total",
			Help: "Total number of mint workflow attempts by outcome",
		},
		[]string{"flow", "outcome"},
	)

	MintStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mint_stage_duration_seconds",
			Help:    "Time spent in each mint stage",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	PinnedContentCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinned_content_cache_total",
			Help: "Pinned content reads by cache result",
		},
		[]string{"result"},
	)
)

func init() {
	// 注册所有指标
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		UpstreamRequestsTotal,
		KafkaMessagesTotal,
		MintAttemptsTotal,
		MintStageDuration,
		PinnedContentCacheHits,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer 启动独立的 metrics HTTP 服务器
func StartMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			panic("failed to start metrics server: " + err.Error())
		}
	}()
}

// RecordRequest 记录请求指标的助手函数
func RecordRequest(service, method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(service, method, status).Inc()
	RequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordUpstream counts one call to an external collaborator.
func RecordUpstream(upstream, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(upstream, operation, status).Inc()
}

// RecordStage observes how long a mint stage took.
func RecordStage(stage string, duration time.Duration) {
	MintStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordCacheLookup counts a pinned-content cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PinnedContentCacheHits.WithLabelValues(result).Inc()
}
