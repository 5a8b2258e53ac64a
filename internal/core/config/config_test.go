package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"go-gin-gorm-users/internal/core/config"
)

const sample = `
app:
  name: users
  http:
    port: 9090
    basePath: /v2
jwt:
  secret: test-secret
auth:
  adminEmails: ["root@example.com"]
db:
  driver: postgres
  dsn: postgres://localhost/users
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestParse_FileAndDefaults(t *testing.T) {
	c, err := config.Parse(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.App.Name != "users" || c.App.HTTP.Port != 9090 || c.App.HTTP.BasePath != "/v2" {
		t.Fatalf("file values not applied: %+v", c.App)
	}
	if c.DB.Driver != "postgres" {
		t.Fatalf("db.driver = %q", c.DB.Driver)
	}
	if len(c.Auth.AdminEmails) != 1 || c.Auth.AdminEmails[0] != "root@example.com" {
		t.Fatalf("adminEmails = %v", c.Auth.AdminEmails)
	}
	// defaults
	if c.App.HTTP.ReadTimeoutSec != 5 || c.Auth.BcryptCost != 10 || c.Limits.MaxConcurrent != 300 {
		t.Fatalf("defaults missing: %+v %+v %+v", c.App.HTTP, c.Auth, c.Limits)
	}
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("APP_DB_DSN", "postgres://db.internal/users")
	t.Setenv("APP_LOG_LEVEL", "debug")

	c, err := config.Parse(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.DB.DSN != "postgres://db.internal/users" {
		t.Fatalf("db.dsn = %q", c.DB.DSN)
	}
	if c.Log.Level != "debug" {
		t.Fatalf("log.level = %q", c.Log.Level)
	}
}

func TestParse_RequiresJWTSecret(t *testing.T) {
	if _, err := config.Parse(writeConfig(t, "app:\n  name: x\n")); err == nil {
		t.Fatal("expected error without jwt.secret")
	}
}

func TestParse_MissingFile(t *testing.T) {
	if _, err := config.Parse(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
