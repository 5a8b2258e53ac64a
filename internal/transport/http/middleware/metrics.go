package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	reqTotal *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics 注册到传入的 registry（测试里每个 engine 用独立 registry）
func NewMetrics(reg prometheus.Registerer, subsystem string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reqTotal: f.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: "http_requests_total", Help: "Count of HTTP requests"},
			[]string{"path", "method", "status"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			}, []string{"path", "method"},
		),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Subsystem: subsystem, Name: "http_requests_in_flight", Help: "Requests currently being served",
		}),
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		c.Next()

		// 未匹配路由统一归为一个 label，避免路径爆炸
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.reqTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
