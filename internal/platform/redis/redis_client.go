// Package redis は市場キャッシュとセッションストアで共有する任意のRedisクライアントを生成します。
package redis

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options はNewRedisClientの設定です。
type Options struct {
	Host     string
	Port     string
	Password string
}

// NewRedisClient はRedisに接続し、PINGで接続を確認します。
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	port := opts.Port
	if port == "" {
		port = "6379"
	}
	addr := net.JoinHostPort(opts.Host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
