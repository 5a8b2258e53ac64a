// Package dbtest 测试用 sqlite 库（t.TempDir 下的独立文件，已迁移 users 表）
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"go-gin-gorm-users/internal/core/database"
	"go-gin-gorm-users/internal/feature/user"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&user.UserModel{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
