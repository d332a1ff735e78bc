// Package db はローカルレコードバックエンドが使うリレーショナルデータベースを開きます。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config はリレーショナルデータベースの設定です。
type Config struct {
	Driver string // "sqlite" または "postgres"
	DSN    string // sqliteはファイルパス、postgresは接続文字列
}

// Opener はDSNでgorm接続を開きます。実DBなしでリトライ処理をテストするために使います。
type Opener func(dsn string) (*gorm.DB, error)

const retryInterval = 3 * time.Second

var gormConfig = &gorm.Config{
	Logger:         logger.Default.LogMode(logger.Warn),
	TranslateError: true,
}

// Open は設定されたデータベースに接続します。Postgresはコンテナの起動順に備えて最大1分間リトライし、
// sqliteはローカルファイルなので1回だけ開きます。
func Open(cfg Config) (*gorm.DB, error) {
	switch cfg.Driver {
	case "", "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DSN), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", cfg.DSN, err)
		}
		slog.Info("using sqlite database", "path", cfg.DSN)
		return db, nil
	case "postgres":
		return ConnectWithRetry(cfg.DSN, 60*time.Second, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig)
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// ConnectWithRetry はopenが成功するかtimeoutが経過するまで呼び出します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}
