package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/core/auth"
	"go-gin-gorm-users/internal/core/logger"
	mdw "go-gin-gorm-users/internal/transport/http/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors"`
}

func newEngine(l *zap.Logger, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mdw.RequestID(), mdw.ErrorHandler(l), mdw.Recovery(l))
	r.Use(mw...)
	return r
}

func do(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func get(path string) *http.Request { return httptest.NewRequest(http.MethodGet, path, nil) }

func TestErrorHandler_TypedAndUnknownErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := newEngine(zap.New(core))
	r.GET("/typed", func(c *gin.Context) { _ = c.Error(apperr.NotFound("user not found")) })
	r.GET("/raw", func(c *gin.Context) { _ = c.Error(errors.New("disk on fire")) })

	w, env := do(r, get("/typed"))
	if w.Code != http.StatusNotFound || env.Status != "error" || env.Message != "user not found" {
		t.Fatalf("typed: %d %+v", w.Code, env)
	}
	if logs.Len() != 0 {
		t.Fatalf("4xx should not be logged as error")
	}

	w, env = do(r, get("/raw"))
	if w.Code != http.StatusInternalServerError || env.Message != "internal server error" {
		t.Fatalf("raw: %d %+v", w.Code, env)
	}
	if !json.Valid(w.Body.Bytes()) {
		t.Fatalf("body not JSON: %q", w.Body.String())
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Fatalf("expected 5xx to be logged once, got %d", logs.Len())
	}
}

func TestRecovery_PanicBecomesEnvelope(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := newEngine(zap.New(core))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w, env := do(r, get("/boom"))
	if w.Code != http.StatusInternalServerError || env.Status != "error" || env.Message != "internal server error" {
		t.Fatalf("panic: %d %+v", w.Code, env)
	}
	if logs.Len() == 0 {
		t.Fatal("panic not logged")
	}
}

func TestRequestID_EchoAndContext(t *testing.T) {
	var fromCtx string
	r := newEngine(zap.NewNop())
	r.GET("/x", func(c *gin.Context) {
		fromCtx = logger.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := get("/x")
	req.Header.Set(mdw.KeyRequestID, "abc-123")
	w, _ := do(r, req)
	if got := w.Header().Get(mdw.KeyRequestID); got != "abc-123" || fromCtx != "abc-123" {
		t.Fatalf("header %q ctx %q", got, fromCtx)
	}

	w, _ = do(r, get("/x"))
	if got := w.Header().Get(mdw.KeyRequestID); len(got) != 36 || got != fromCtx {
		t.Fatalf("generated id %q ctx %q", got, fromCtx)
	}
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("s"), Issuer: "test", TTL: time.Hour}
	userTok, _ := j.Issue("u-1", "a@example.com", auth.RoleUser)
	adminTok, _ := j.Issue("u-2", "root@example.com", auth.RoleAdmin)

	r := newEngine(zap.NewNop())
	r.GET("/me", mdw.AuthJWT(j, ""), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(mdw.KeyUserID)) })
	r.GET("/admin", mdw.AuthJWT(j, auth.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	withTok := func(path, tok string) *http.Request {
		req := get(path)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		return req
	}

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"no token", withTok("/me", ""), http.StatusUnauthorized},
		{"bad token", withTok("/me", "nope"), http.StatusUnauthorized},
		{"user ok", withTok("/me", userTok), http.StatusOK},
		{"user on admin route", withTok("/admin", userTok), http.StatusForbidden},
		{"admin ok", withTok("/admin", adminTok), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(r, tc.req)
			if w.Code != tc.code {
				t.Fatalf("got %d want %d (%s)", w.Code, tc.code, w.Body.String())
			}
		})
	}

	w, _ := do(r, withTok("/me", userTok))
	if w.Body.String() != "u-1" {
		t.Fatalf("userId not set: %q", w.Body.String())
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	r := newEngine(zap.NewNop(), mdw.RateLimit(0.0001, 1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w, _ := do(r, get("/x")); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w, env := do(r, get("/x"))
	if w.Code != http.StatusTooManyRequests || env.Message != "too many requests" {
		t.Fatalf("second request: %d %+v", w.Code, env)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
}

func TestRateLimitPerIP_SeparatesClients(t *testing.T) {
	r := newEngine(zap.NewNop(), mdw.RateLimitPerIP(0.0001, 1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) *http.Request {
		req := get("/x")
		req.RemoteAddr = ip + ":5555"
		return req
	}
	if w, _ := do(r, from("10.0.0.1")); w.Code != http.StatusOK {
		t.Fatalf("a#1: %d", w.Code)
	}
	if w, _ := do(r, from("10.0.0.1")); w.Code != http.StatusTooManyRequests {
		t.Fatalf("a#2: %d", w.Code)
	}
	if w, _ := do(r, from("10.0.0.2")); w.Code != http.StatusOK {
		t.Fatalf("b#1: %d", w.Code)
	}
}

type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n[key]++
	return m.n[key], nil
}

func TestRateLimitWindow(t *testing.T) {
	r := newEngine(zap.NewNop(), mdw.RateLimitWindow(&memCounter{n: map[string]int64{}}, 2, time.Hour, zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w, _ := do(r, get("/x")); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w, _ := do(r, get("/x"))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("third request: %d remaining=%q", w.Code, w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitWindow_RedisDownFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	core, logs := observer.New(zap.WarnLevel)
	r := newEngine(zap.NewNop(), mdw.RateLimitWindow(mdw.RedisCounter{RDB: rdb}, 1, time.Hour, zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w, _ := do(r, get("/x")); w.Code != http.StatusOK {
			t.Fatalf("request %d should pass while redis is down: %d", i, w.Code)
		}
	}
	if logs.Len() == 0 {
		t.Fatal("expected a warning about the backend")
	}
}

func TestConcurrencyLimit_ClientGoneIs503(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	r := newEngine(zap.NewNop(), mdw.ConcurrencyLimit(1))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() {
		w, _ := do(r, get("/slow"))
		done <- w.Code
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w, env := do(r, get("/slow").WithContext(ctx))
	if w.Code != http.StatusServiceUnavailable || env.Message != "server busy" {
		t.Fatalf("queued request: %d %+v", w.Code, env)
	}

	close(release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
}

func TestTimeout_Returns504(t *testing.T) {
	r := newEngine(zap.NewNop(), mdw.Timeout(20*time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w, env := do(r, get("/slow"))
	if w.Code != http.StatusGatewayTimeout || env.Message != "request timeout" {
		t.Fatalf("got %d %+v", w.Code, env)
	}
}

func TestMetrics_CountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := mdw.NewMetrics(reg, "test")
	r := newEngine(zap.NewNop(), m.Handler())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, get("/users/1"))
	do(r, get("/users/2"))
	do(r, get("/nowhere"))

	n, err := testutil.GatherAndCount(reg, "test_http_requests_total")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 label sets (route + unmatched), got %d, %v", n, err)
	}
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newEngine(zap.NewNop(), mdw.AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, get("/x?token=abc&name=bob"))
	entries := logs.FilterMessage("HTTP").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log, got %d", len(entries))
	}
	q, ok := entries[0].ContextMap()["query"].(map[string][]string)
	if !ok {
		t.Fatalf("query field missing: %+v", entries[0].ContextMap())
	}
	if q["token"][0] != "****" || q["name"][0] != "bob" {
		t.Fatalf("masking wrong: %v", q)
	}
}
