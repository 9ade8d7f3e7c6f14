package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Chunking metrics
	ChunksEmitted  *prometheus.CounterVec
	ChunkItems     prometheus.Histogram
	TokensActive   prometheus.Gauge
	TokensIssued   prometheus.Counter
	TokensResumed  prometheus.Counter
	TokensRejected prometheus.Counter

	// Write pipeline metrics
	WriteBytes    prometheus.Histogram
	WriteRetries  prometheus.Counter
	WriteFailures prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// New creates and registers all metrics on a dedicated registry.
func New() (*Metrics, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsgate_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fsgate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ResponseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fsgate_http_response_size_bytes",
			Help:    "HTTP response sizes; the chunking budget keeps these bounded",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		}, []string{"path"}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsgate_tool_calls_total",
			Help: "Tool executions by tool ID and status",
		}, []string{"tool", "status"}),
		ToolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fsgate_tool_duration_seconds",
			Help:    "Tool execution latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		ChunksEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsgate_chunks_emitted_total",
			Help: "Chunks emitted by operation kind and completeness",
		}, []string{"operation", "has_more"}),
		ChunkItems: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fsgate_chunk_items",
			Help:    "Items per emitted chunk",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		TokensActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fsgate_continuation_tokens_active",
			Help: "Live continuation tokens in the store",
		}),
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "fsgate_continuation_tokens_issued_total",
			Help: "Continuation tokens generated",
		}),
		TokensResumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fsgate_continuation_tokens_resumed_total",
			Help: "Successful resumptions",
		}),
		TokensRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "fsgate_continuation_tokens_rejected_total",
			Help: "Resumptions rejected for kind/target mismatch or expiry",
		}),
		WriteBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fsgate_write_bytes",
			Help:    "Payload sizes of committed writes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		WriteRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "fsgate_write_retries_total",
			Help: "Write attempts beyond the first",
		}),
		WriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fsgate_write_failures_total",
			Help: "Writes that exhausted their retry budget or failed verification",
		}),
		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fsgate_uptime_seconds",
			Help: "Seconds since process start",
		}),
		startTime: time.Now(),
	}

	return m, registry
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if respSize > 0 {
		m.ResponseSize.WithLabelValues(path).Observe(float64(respSize))
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordChunk records one emitted chunk.
func (m *Metrics) RecordChunk(operation string, items int, hasMore bool) {
	if m == nil {
		return
	}
	more := "false"
	if hasMore {
		more = "true"
	}
	m.ChunksEmitted.WithLabelValues(operation, more).Inc()
	m.ChunkItems.Observe(float64(items))
}

// RecordTokens updates token-store counters.
func (m *Metrics) RecordTokens(active int) {
	if m == nil {
		return
	}
	m.TokensActive.Set(float64(active))
}

// RecordTokenIssued counts a newly generated continuation token.
func (m *Metrics) RecordTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

// RecordTokenResumed counts a successful resumption.
func (m *Metrics) RecordTokenResumed() {
	if m == nil {
		return
	}
	m.TokensResumed.Inc()
}

// RecordTokenRejected counts a rejected resumption.
func (m *Metrics) RecordTokenRejected() {
	if m == nil {
		return
	}
	m.TokensRejected.Inc()
}

// RecordWrite records a committed write.
func (m *Metrics) RecordWrite(bytes int64, retries int) {
	if m == nil {
		return
	}
	m.WriteBytes.Observe(float64(bytes))
	if retries > 0 {
		m.WriteRetries.Add(float64(retries))
	}
}

// RecordWriteFailure records a failed write.
func (m *Metrics) RecordWriteFailure() {
	if m == nil {
		return
	}
	m.WriteFailures.Inc()
}
