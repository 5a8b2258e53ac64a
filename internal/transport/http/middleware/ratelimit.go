package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-gorm-users/internal/core/apperr"
)

func tooMany(c *gin.Context, retryAfter time.Duration) {
	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int((retryAfter+time.Second-1)/time.Second)))
	}
	abortWith(c, apperr.New(http.StatusTooManyRequests, "too many requests"))
}

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		tooMany(c, time.Second)
	}
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// 空闲超过 ipIdleTTL 的桶在下一次清扫时删除
const ipIdleTTL = 3 * time.Minute

// RateLimitPerIP 单进程内每 IP 令牌桶
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*ipBucket)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for k, b := range buckets {
				if now.Sub(b.seen) > ipIdleTTL {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &ipBucket{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.AllowN(now, 1)
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		tooMany(c, time.Second)
	}
}

// WindowCounter 固定窗口计数：返回 key 在本窗口内的累计次数
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter 多实例共享计数（INCR + EXPIRE 同一事务）
type RedisCounter struct{ RDB *redis.Client }

func (r RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// 计数后端的单次调用上限，超时按放行处理
const counterTimeout = 200 * time.Millisecond

// RateLimitWindow 每 IP 固定窗口限流；计数后端不可用时放行（fail open）
func RateLimitWindow(cnt WindowCounter, limit int64, window time.Duration, l *zap.Logger) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	return func(c *gin.Context) {
		now := time.Now()
		slot := now.UnixNano() / int64(window)
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), slot)

		ctx, cancel := context.WithTimeout(c.Request.Context(), counterTimeout)
		n, err := cnt.Incr(ctx, key, window)
		cancel()
		if err != nil {
			l.Warn("rate limit backend unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(limit-n, 0), 10))
		if n > limit {
			next := time.Unix(0, (slot+1)*int64(window))
			tooMany(c, next.Sub(now))
			return
		}
		c.Next()
	}
}
