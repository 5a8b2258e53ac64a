package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-users/internal/app"
	"go-gin-gorm-users/internal/core/config"
	"go-gin-gorm-users/internal/transport/http/router"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("APP_JWT_SECRET", "test-secret")
	t.Setenv("APP_DB_DSN", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("APP_AUTH_BCRYPTCOST", "4")
	cfg, err := config.Parse("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNew_WiresAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Redis != nil {
		t.Fatal("redis should be nil when not configured")
	}

	r := router.NewAPIEngine(a.Log, a.RouterOptions("api"), a.Registry)
	body := `{"username":"alice","email":"a@example.com","password":"secret1","firstName":"Ann","lastName":"Lee"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create through wired app: %d %s", w.Code, w.Body.String())
	}
}

func TestNew_RedisDownIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if a.Redis != nil {
		t.Fatal("unreachable redis should be skipped")
	}
}

func TestNew_BadDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"
	if _, err := app.New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
