package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"qrupees/internal/feature/market/domain/entity"
)

const (
	// DefaultHistoryWindow は開始日なしでHistoryを呼んだ場合の期間です。
	DefaultHistoryWindow = 365 * 24 * time.Hour
	// OpenThreshold はこの銘柄数を超えると市場が開いているとみなす閾値です。
	OpenThreshold = 10
	// DefaultTopN はnが0以下の場合のMoversとGainersの件数です。
	DefaultTopN = 5
	// MaxTopN はMoversとGainersの上限件数です。
	MaxTopN = 100
)

// Summary はスナップショットの概要です。元データに該当列がない場合、合計はnullになります。
type Summary struct {
	Open          bool
	Listed        int
	TotalTurnover decimal.NullDecimal
	TotalVolume   null.Int
	CapturedAt    time.Time
}

// marketUsecase は取得・正規化・キャッシュを結び付けます。
type marketUsecase struct {
	client     SourceClient
	normalizer Normalizer
	snapshots  Cache[entity.MarketSnapshot]
	companies  Cache[entity.Directory]
	now        func() time.Time
}

// NewMarketUsecase はmarketUsecaseの新しいインスタンスを生成します。
func NewMarketUsecase(client SourceClient, normalizer Normalizer, snapshots Cache[entity.MarketSnapshot], companies Cache[entity.Directory]) *marketUsecase {
	return &marketUsecase{
		client:     client,
		normalizer: normalizer,
		snapshots:  snapshots,
		companies:  companies,
		now:        time.Now,
	}
}

// Snapshot は本日の価格を返します。鮮度ウィンドウ内はキャッシュから返します。
// 取得や解析の失敗、および空のテーブルはErrMarketUnavailableとして報告します。
func (u *marketUsecase) Snapshot(ctx context.Context) (entity.MarketSnapshot, error) {
	snap, err := u.snapshots.GetOrFetch(ctx, entity.DailyPrices.String(), u.fetchSnapshot)
	if err != nil {
		return entity.MarketSnapshot{}, err
	}
	if snap.IsEmpty() {
		return entity.MarketSnapshot{}, ErrMarketUnavailable
	}
	return snap, nil
}

func (u *marketUsecase) fetchSnapshot(ctx context.Context) (entity.MarketSnapshot, error) {
	p, err := u.client.Fetch(ctx, entity.Resource{Kind: entity.DailyPrices})
	if err != nil {
		slog.Warn("daily prices fetch failed", "error", err)
		return entity.MarketSnapshot{}, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
	}
	snap, err := u.normalizer.Snapshot(p)
	if err != nil {
		slog.Warn("daily prices payload unreadable", "format", p.Format, "error", err)
		return entity.MarketSnapshot{}, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
	}
	slog.Info("daily prices fetched", "instruments", len(snap.Instruments), "format", p.Format)
	return snap, nil
}

// Refresh はキャッシュ済みのスナップショットと企業一覧を破棄します。
func (u *marketUsecase) Refresh(ctx context.Context) {
	u.snapshots.Invalidate(ctx, entity.DailyPrices.String())
	u.companies.Invalidate(ctx, entity.Companies.String())
}

// Summary は市場の状態、銘柄数、合計を返します。
func (u *marketUsecase) Summary(ctx context.Context) (Summary, error) {
	snap, err := u.Snapshot(ctx)
	if err != nil {
		return Summary{}, err
	}
	return summarize(snap), nil
}

func summarize(snap entity.MarketSnapshot) Summary {
	s := Summary{
		Open:       len(snap.Instruments) > OpenThreshold,
		Listed:     len(snap.Instruments),
		CapturedAt: snap.CapturedAt,
	}
	if snap.HasTurnover {
		total := decimal.Zero
		for _, in := range snap.Instruments {
			if in.Turnover.Valid {
				total = total.Add(in.Turnover.Decimal)
			}
		}
		s.TotalTurnover = decimal.NewNullDecimal(total)
	}
	if snap.HasVolume {
		var total int64
		for _, in := range snap.Instruments {
			if in.Volume.Valid {
				total += in.Volume.Int64
			}
		}
		s.TotalVolume = null.IntFrom(total)
	}
	return s
}

// Movers は売買代金の大きい順にn銘柄を返します。売買代金がない銘柄は末尾に並びます。
func (u *marketUsecase) Movers(ctx context.Context, n int) ([]entity.PricedInstrument, error) {
	snap, err := u.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return topBy(snap.Instruments, n, func(in entity.PricedInstrument) decimal.NullDecimal { return in.Turnover }, true), nil
}

// Gainers は値上がり幅の大きい順にn銘柄を返します。変化額がない銘柄は除外します。
func (u *marketUsecase) Gainers(ctx context.Context, n int) ([]entity.PricedInstrument, error) {
	snap, err := u.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return topBy(snap.Instruments, n, func(in entity.PricedInstrument) decimal.NullDecimal { return in.Change }, false), nil
}

func topBy(in []entity.PricedInstrument, n int, key func(entity.PricedInstrument) decimal.NullDecimal, keepNull bool) []entity.PricedInstrument {
	if n <= 0 {
		n = DefaultTopN
	}
	if n > MaxTopN {
		n = MaxTopN
	}
	out := make([]entity.PricedInstrument, 0, len(in))
	for _, x := range in {
		if keepNull || key(x).Valid {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Decimal.GreaterThan(b.Decimal)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Companies は上場企業一覧を返します。スナップショットと同様にキャッシュされます。
func (u *marketUsecase) Companies(ctx context.Context) (entity.Directory, error) {
	dir, err := u.companies.GetOrFetch(ctx, entity.Companies.String(), u.fetchCompanies)
	if err != nil {
		return entity.Directory{}, err
	}
	if dir.IsEmpty() {
		return entity.Directory{}, ErrMarketUnavailable
	}
	return dir, nil
}

func (u *marketUsecase) fetchCompanies(ctx context.Context) (entity.Directory, error) {
	p, err := u.client.Fetch(ctx, entity.Resource{Kind: entity.Companies})
	if err != nil {
		slog.Warn("company directory fetch failed", "error", err)
		return entity.Directory{}, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
	}
	dir, err := u.normalizer.Directory(p)
	if err != nil {
		slog.Warn("company directory unreadable", "format", p.Format, "error", err)
		return entity.Directory{}, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
	}
	return dir, nil
}

// History はsymbolのstartからendまで（両端含む）の日足を返します。
// endがゼロなら本日、startがゼロならendのDefaultHistoryWindow前を使います。
// 履歴はキャッシュしません。
func (u *marketUsecase) History(ctx context.Context, symbol string, start, end time.Time) (entity.HistorySeries, error) {
	if end.IsZero() {
		end = u.now()
	}
	if start.IsZero() {
		start = end.Add(-DefaultHistoryWindow)
	}
	if end.Before(start) {
		return entity.HistorySeries{}, ErrInvalidRange
	}

	dir, err := u.Companies(ctx)
	if err != nil {
		return entity.HistorySeries{}, err
	}
	company, ok := dir.Lookup(symbol)
	if !ok {
		return entity.HistorySeries{}, ErrSymbolNotFound
	}
	if !company.InstrumentID.Valid {
		return entity.HistorySeries{}, ErrNoInstrumentID
	}

	p, err := u.client.Fetch(ctx, entity.Resource{
		Kind:         entity.History,
		InstrumentID: company.InstrumentID.String,
		Start:        start,
		End:          end,
	})
	if err != nil {
		slog.Warn("history fetch failed", "symbol", company.Symbol, "error", err)
		return entity.HistorySeries{}, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
	}
	series, err := u.normalizer.History(p)
	if err != nil {
		slog.Warn("history payload unreadable", "symbol", company.Symbol, "error", err)
		return entity.HistorySeries{}, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
	}
	return series, nil
}
