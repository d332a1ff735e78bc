package di

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	authhandler "qrupees/internal/feature/auth/transport/handler"
	authusecase "qrupees/internal/feature/auth/usecase"
	markethandler "qrupees/internal/feature/market/transport/handler"
	"qrupees/internal/platform/config"
	jwtmw "qrupees/internal/platform/jwt"
	"qrupees/internal/platform/metrics"
	infraredis "qrupees/internal/platform/redis"
)

// App は設定から組み立てた長寿命のコンポーネントをすべて保持します。
type App struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	Market   markethandler.MarketUsecase
	Auth     authhandler.AuthUsecase
	Admin    *authusecase.AdminUsecase
	Tokens   *jwtmw.Generator
	Sessions authusecase.SessionRepository
	Records  *RecordStores

	rdb *redis.Client
}

// Options は配線の一部を差し替えます。ゼロ値では実際のスプレッドシート
// バックエンドを使います。
type Options struct {
	OpenRemote RemoteOpener
}

// New はcfgからアプリケーションを組み立てます。
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	m := metrics.New("qrupees")

	var rdb *redis.Client
	if cfg.RedisConfigured() {
		client, err := infraredis.NewRedisClient(ctx, infraredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			slog.Warn("Redis unavailable, using in-process cache and sessions", "error", err)
		} else {
			rdb = client
		}
	}

	openRemote := opts.OpenRemote
	if openRemote == nil {
		openRemote = GoogleSheetsOpener(cfg)
	}
	records, err := NewRecordStores(ctx, cfg, openRemote)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		slog.Warn("JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	}
	tokens := jwtmw.NewGenerator(secret, cfg.Auth.TokenTTL)
	sessions := NewSessionRepository(rdb)

	client := NewSourceClient(cfg, m)
	return &App{
		Config:   cfg,
		Metrics:  m,
		Market:   NewMarket(cfg, client, NewCacheStore(rdb), m),
		Auth:     authusecase.NewAuthUsecase(records.Accounts, records.Registrations, sessions, tokens, cfg.Auth.TokenTTL, m),
		Admin:    authusecase.NewAdminUsecase(records.Registrations, m),
		Tokens:   tokens,
		Sessions: sessions,
		Records:  records,
		rdb:      rdb,
	}, nil
}

// Close はデータベースとRedisの接続を解放します。
func (a *App) Close() error {
	var errs []error
	if err := a.Records.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
