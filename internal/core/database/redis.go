package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisOpts struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis 建连并 PING；失败时关闭客户端
func NewRedis(ctx context.Context, o RedisOpts) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", o.Addr, err)
	}
	return rdb, nil
}
