// Package di はアプリケーションコンポーネントを生成する依存性注入のファクトリーを提供します。
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"qrupees/internal/feature/market/domain/entity"
	"qrupees/internal/feature/market/normalize"
	markethandler "qrupees/internal/feature/market/transport/handler"
	"qrupees/internal/feature/market/usecase"
	"qrupees/internal/platform/cache"
	"qrupees/internal/platform/config"
	"qrupees/internal/platform/externalapi/nepse"
	infrahttp "qrupees/internal/platform/http"
	"qrupees/internal/platform/metrics"
	"qrupees/internal/shared/ratelimiter"
)

// NewSourceClient はHTTPクライアントとリクエスト間隔の設定を含む取引所クライアントを生成します。
func NewSourceClient(cfg *config.Config, m *metrics.Metrics) *nepse.Client {
	endpoints := make(map[string]nepse.Endpoint, len(cfg.Market.Resources))
	for name, ep := range cfg.Market.Resources {
		endpoints[name] = nepse.Endpoint{Path: ep.Path, Format: ep.Format}
	}
	httpClient := infrahttp.NewHTTPClient(infrahttp.Options{
		Timeout:            cfg.Market.Timeout,
		InsecureSkipVerify: cfg.SkipTLSVerify(),
	})

	var observe nepse.Observer
	if m != nil {
		observe = m.ObserveFetch
	}
	client := nepse.NewClient(nepse.Config{
		BaseURL:      cfg.Market.BaseURL,
		UserAgent:    cfg.Market.UserAgent,
		HistoryLimit: cfg.Market.HistoryLimit,
		Endpoints:    endpoints,
	}, httpClient, observe)
	if cfg.Market.RequestsPerMinute > 0 {
		client.WithLimiter(ratelimiter.NewRateLimiter(cfg.Market.RequestsPerMinute, time.Minute))
	}
	return client
}

// NewCacheStore はRedisクライアントがあればRedisのストアを、なければプロセス内のストアを返します。
func NewCacheStore(rdb *redis.Client) cache.Store {
	if rdb != nil {
		return cache.NewRedisStore(rdb)
	}
	return cache.NewMemoryStore(nil)
}

// NewMarket は取得・正規化・キャッシュを市場ユースケースに配線します。
func NewMarket(cfg *config.Config, client usecase.SourceClient, store cache.Store, m *metrics.Metrics) markethandler.MarketUsecase {
	var observe cache.Observer
	if m != nil {
		observe = m.ObserveCache
	}
	n := normalize.New(normalize.Options{Container: cfg.Market.HistoryContainer})
	return usecase.NewMarketUsecase(
		client,
		n,
		cache.NewFreshness[entity.MarketSnapshot](store, cfg.Market.CacheTTL, "market", observe),
		cache.NewFreshness[entity.Directory](store, cfg.Market.CacheTTL, "market", observe),
	)
}
