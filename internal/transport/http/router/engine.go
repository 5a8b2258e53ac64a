package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/core/config"
	mdw "go-gin-gorm-users/internal/transport/http/middleware"
)

type Options struct {
	Name           string // metrics subsystem，例如 "api" / "admin"
	BasePath       string
	Limits         config.Limits
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Redis          *redis.Client        // 非 nil 时每 IP 限流走 redis 固定窗口
	Metrics        *prometheus.Registry // nil 时新建
}

// NewRegistryWithRuntime 带 Go / 进程指标的 registry
func NewRegistryWithRuntime() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newEngine 两个入口共用的中间件链与兜底路由
func newEngine(l *zap.Logger, o Options) *gin.Engine {
	if o.Metrics == nil {
		o.Metrics = NewRegistryWithRuntime()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(l),
		mdw.NewMetrics(o.Metrics, o.Name).Handler(),
		cors.Default(),
		mdw.ErrorHandler(l),
		mdw.Recovery(l),
	)
	if o.Limits.RPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(o.Limits.RPS), o.Limits.Burst))
	}
	if o.Limits.PerIPRPS > 0 {
		if o.Redis != nil {
			window := time.Duration(o.Limits.PerIPWindowSec) * time.Second
			if window <= 0 {
				window = time.Second
			}
			limit := int64(o.Limits.PerIPRPS * window.Seconds())
			r.Use(mdw.RateLimitWindow(mdw.RedisCounter{RDB: o.Redis}, max(limit, 1), window, l))
		} else {
			r.Use(mdw.RateLimitPerIP(rate.Limit(o.Limits.PerIPRPS), o.Limits.PerIPBurst))
		}
	}
	if o.Limits.MaxConcurrent > 0 {
		r.Use(mdw.ConcurrencyLimit(o.Limits.MaxConcurrent))
	}
	r.Use(
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.RequestTimeout),
	)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperr.NotFound("route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		_ = c.Error(apperr.New(http.StatusMethodNotAllowed, "method not allowed"))
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Metrics, promhttp.HandlerOpts{})))

	return r
}
