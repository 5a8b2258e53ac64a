// Package app 两个入口（api / admin）共用的依赖装配
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-gorm-users/internal/core/auth"
	"go-gin-gorm-users/internal/core/config"
	"go-gin-gorm-users/internal/core/database"
	"go-gin-gorm-users/internal/core/logger"
	"go-gin-gorm-users/internal/core/validate"
	"go-gin-gorm-users/internal/feature/user"
	"go-gin-gorm-users/internal/repo"
	"go-gin-gorm-users/internal/service"
	"go-gin-gorm-users/internal/transport/http/handler"
	"go-gin-gorm-users/internal/transport/http/router"
	"go-gin-gorm-users/pkg/utils"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Redis    *redis.Client // 未配置时为 nil
	JWT      *auth.JWTer
	Registry *router.Registry

	closers []func()
}

// NewLogger 按配置构建 zap，并接管标准库 log 与 gin 的输出
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	var (
		l       *zap.Logger
		cleanup func()
	)
	if cfg.Log.File.Enable {
		l, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		})
	} else {
		l, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	undo := logger.RedirectStdLog(l, zapcore.InfoLevel)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(l, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(l, zapcore.ErrorLevel)

	return l, func() { undo(); cleanup() }
}

// New 打开 DB（可选迁移）、可选 redis，组装 repo → service → handler
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: l}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		SlowThreshold:      time.Duration(cfg.DB.SlowThresholdMs) * time.Millisecond,
		Logger:             l,
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() {
		if err := database.Close(db); err != nil {
			l.Warn("db close", zap.Error(err))
		}
	})
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&user.UserModel{}); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}

	// redis 只用于共享限流；连不上不影响启动
	if cfg.Redis.Addr != "" {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rdb, err := database.NewRedis(pctx, database.RedisOpts{
			Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
		})
		cancel()
		if err != nil {
			l.Warn("redis unavailable, per-IP limit stays in memory", zap.Error(err))
		} else {
			a.Redis = rdb
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			l.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	hasher := utils.BcryptHasher{Cost: cfg.Auth.BcryptCost}
	userSvc := service.NewUserService(repo.NewUserRepo(db, hasher), hasher, l)

	v := validate.New()
	user.RegisterSchemas(v)

	a.Registry = router.NewRegistry()
	a.Registry.Register(handler.NewUserHandler(userSvc, a.JWT, v, cfg.Auth.AdminEmails))

	return a, nil
}

// RouterOptions name 为 metrics subsystem
func (a *App) RouterOptions(name string) router.Options {
	h := a.Cfg.App.HTTP
	return router.Options{
		Name:           name,
		BasePath:       h.BasePath,
		Limits:         a.Cfg.Limits,
		RequestTimeout: time.Duration(h.RequestTimeoutSec) * time.Second,
		MaxBodyBytes:   h.MaxBodyBytes,
		Redis:          a.Redis,
	}
}

// Close 逆序释放资源；在 HTTP server 排空之后调用
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
