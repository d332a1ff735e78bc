package usecase

import (
	"context"

	"qrupees/internal/feature/market/domain/entity"
)

// SourceClient は取引所サイトから生のペイロードを取得します。1回の呼び出しで1回だけ試行し、
// 失敗は*domain.FetchErrorとして報告します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type SourceClient interface {
	Fetch(ctx context.Context, res entity.Resource) (*entity.RawPayload, error)
}

// Normalizer は生のペイロードをドメインの値に変換します。不正なペイロードは
// *domain.ParseErrorを返します。
type Normalizer interface {
	Snapshot(p *entity.RawPayload) (entity.MarketSnapshot, error)
	History(p *entity.RawPayload) (entity.HistorySeries, error)
	Directory(p *entity.RawPayload) (entity.Directory, error)
}

// Cache は値の種別ごとに鮮度ウィンドウの間メモ化します。
type Cache[T any] interface {
	GetOrFetch(ctx context.Context, kind string, fetch func(context.Context) (T, error)) (T, error)
	Invalidate(ctx context.Context, kind string)
}
