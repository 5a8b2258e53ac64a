package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-gin-gorm-users/internal/core/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

type Opts struct {
	Driver             string // postgres / mysql / sqlite
	DSN                string
	Username           string // 仅 mysql：覆盖 DSN 中的用户名
	Password           string // 仅 mysql：覆盖 DSN 中的密码
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	SlowThreshold      time.Duration
	Logger             *zap.Logger
}

func NewGorm(o Opts) (*gorm.DB, error) {
	l := o.Logger
	if l == nil {
		l = zap.NewNop()
	}

	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn, err := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, fmt.Errorf("mysql dsn: %w", err)
		}
		l.Info("mysql dsn", zap.String("dsn", maskMySQLDSN(dsn)))
		dial = mysql.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(o.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.NewGormLogger(l, logger.ParseGormLevel(o.LogLevel), o.SlowThreshold),
		TranslateError: true, // 唯一键冲突 → gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}
	db = db.Session(&gorm.Session{
		PrepareStmt:            true, // 预编译缓存
		SkipDefaultTransaction: true, // 单语句写入不需要隐式事务
	})
	return db, nil
}

// Close 关闭底层连接池（进程退出时调用一次）
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// normalizeMySQLDSN 接受 go-sql-driver DSN 或 mysql:// / jdbc:mysql:// URL，
// 统一输出 go-sql-driver 语法，并补上 parseTime / charset。
func normalizeMySQLDSN(input, userOverride, passOverride string) (string, error) {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")

	var (
		cfg *gomysql.Config
		err error
	)
	if strings.HasPrefix(in, "mysql://") {
		cfg, err = mysqlConfigFromURL(in)
	} else {
		cfg, err = gomysql.ParseDSN(in)
	}
	if err != nil {
		return "", err
	}

	if userOverride != "" {
		cfg.User = userOverride
	}
	if passOverride != "" {
		cfg.Passwd = passOverride
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok && !strings.Contains(in, "charset=") {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// Navicat / JDBC 风格参数适配
func mysqlConfigFromURL(raw string) (*gomysql.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	q := u.Query()
	if v := q.Get("user"); v != "" {
		cfg.User = v
	}
	if v := q.Get("password"); v != "" {
		cfg.Passwd = v
	}
	if ce := q.Get("characterEncoding"); ce != "" && q.Get("charset") == "" {
		q.Set("charset", ce)
	}
	if v := strings.ToLower(q.Get("useSSL")); v != "" {
		switch v {
		case "true", "1":
			cfg.TLSConfig = "true"
		case "skip-verify", "preferred":
			cfg.TLSConfig = v
		default:
			cfg.TLSConfig = "false"
		}
	}
	if tz := q.Get("serverTimezone"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Loc = loc
		}
	}
	for _, k := range []string{"user", "password", "characterEncoding", "useUnicode",
		"zeroDateTimeBehavior", "useSSL", "serverTimezone", "parseTime"} {
		q.Del(k)
	}

	cfg.Params = map[string]string{}
	for k := range q {
		cfg.Params[k] = q.Get(k)
	}
	return cfg, nil
}

func maskMySQLDSN(dsn string) string {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "****"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "****"
	}
	return cfg.FormatDSN()
}
