package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrupees/internal/feature/market/domain"
	"qrupees/internal/feature/market/domain/entity"
	"qrupees/internal/feature/market/normalize"
	"qrupees/internal/feature/market/usecase"
	"qrupees/internal/platform/cache"
)

// mockSourceClient はSourceClientのモック実装です。
type mockSourceClient struct {
	FetchFunc func(ctx context.Context, res entity.Resource) (*entity.RawPayload, error)
	calls     atomic.Int32
}

func (m *mockSourceClient) Fetch(ctx context.Context, res entity.Resource) (*entity.RawPayload, error) {
	m.calls.Add(1)
	return m.FetchFunc(ctx, res)
}

const pricesCSV = "Symbol,LTP,Point Change,Qty,Turnover\n" +
	"NABIL,1200,10,100,120000\n" +
	"ADBL,450,-5,1000,450000\n" +
	"NICA,800,25,50,40000\n" +
	"HDL,1500,,10,\n"

const directoryCSV = "sn,name,symbol\n1,Nabil Bank,NABIL\n2,Agricultural Development Bank,ADBL\n"

func csvPayload(res entity.Resource, body string) *entity.RawPayload {
	return &entity.RawPayload{Resource: res, Format: normalize.FormatCSV, Body: []byte(body), FetchedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// marketAPI はこのテストで使うメソッドの集合です。
type marketAPI interface {
	Snapshot(ctx context.Context) (entity.MarketSnapshot, error)
	Refresh(ctx context.Context)
	Summary(ctx context.Context) (usecase.Summary, error)
	Movers(ctx context.Context, n int) ([]entity.PricedInstrument, error)
	Gainers(ctx context.Context, n int) ([]entity.PricedInstrument, error)
	Companies(ctx context.Context) (entity.Directory, error)
	History(ctx context.Context, symbol string, start, end time.Time) (entity.HistorySeries, error)
	Portfolio(ctx context.Context, text string) (usecase.Valuation, error)
}

func newUsecase(client usecase.SourceClient) marketAPI {
	store := cache.NewMemoryStore(nil)
	return usecase.NewMarketUsecase(
		client,
		normalize.New(normalize.Options{}),
		cache.NewFreshness[entity.MarketSnapshot](store, time.Minute, "test", nil),
		cache.NewFreshness[entity.Directory](store, time.Minute, "test", nil),
	)
}

func pricesClient(body string) *mockSourceClient {
	return &mockSourceClient{FetchFunc: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
		switch res.Kind {
		case entity.DailyPrices:
			return csvPayload(res, body), nil
		case entity.Companies:
			return csvPayload(res, directoryCSV), nil
		default:
			return nil, fmt.Errorf("unexpected resource %s", res.Kind)
		}
	}}
}

func TestSnapshot_SingleFetchWithinWindow(t *testing.T) {
	client := pricesClient(pricesCSV)
	uc := newUsecase(client)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := uc.Snapshot(context.Background())
			assert.NoError(t, err)
			assert.Len(t, snap.Instruments, 4)
		}()
	}
	wg.Wait()

	_, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.calls.Load())

	uc.Refresh(context.Background())
	_, err = uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestSnapshot_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		fetch func(ctx context.Context, res entity.Resource) (*entity.RawPayload, error)
	}{
		{
			name: "upstream error",
			fetch: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
				return nil, &domain.FetchError{Resource: res.Kind.String(), StatusCode: 502, Cause: errors.New("bad gateway")}
			},
		},
		{
			name: "unreadable payload",
			fetch: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
				return &entity.RawPayload{Resource: res, Format: normalize.FormatHTML, Body: []byte("<p>down for maintenance</p>")}, nil
			},
		},
		{
			name: "no rows",
			fetch: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
				return csvPayload(res, "Symbol,LTP\n"), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSourceClient{FetchFunc: tt.fetch}
			uc := newUsecase(client)

			_, err := uc.Snapshot(context.Background())
			assert.ErrorIs(t, err, usecase.ErrMarketUnavailable)

			// 失敗はキャッシュされない
			_, err = uc.Snapshot(context.Background())
			assert.ErrorIs(t, err, usecase.ErrMarketUnavailable)
			assert.Equal(t, int32(2), client.calls.Load())
		})
	}
}

func TestSnapshot_FetchErrorPreserved(t *testing.T) {
	client := &mockSourceClient{FetchFunc: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
		return nil, &domain.FetchError{Resource: res.Kind.String(), Cause: errors.New("timeout")}
	}}

	_, err := newUsecase(client).Snapshot(context.Background())

	var fetchErr *domain.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestSummary(t *testing.T) {
	t.Run("totals", func(t *testing.T) {
		s, err := newUsecase(pricesClient(pricesCSV)).Summary(context.Background())
		require.NoError(t, err)

		assert.False(t, s.Open)
		assert.Equal(t, 4, s.Listed)
		require.True(t, s.TotalTurnover.Valid)
		assert.Equal(t, "610000", s.TotalTurnover.Decimal.String())
		assert.Equal(t, int64(1160), s.TotalVolume.Int64)
		assert.True(t, s.TotalVolume.Valid)
	})

	t.Run("open with more than ten instruments and no totals", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("Symbol,LTP\n")
		for i := 0; i < 11; i++ {
			fmt.Fprintf(&b, "SYM%d,%d\n", i, 100+i)
		}
		s, err := newUsecase(pricesClient(b.String())).Summary(context.Background())
		require.NoError(t, err)

		assert.True(t, s.Open)
		assert.Equal(t, 11, s.Listed)
		assert.False(t, s.TotalTurnover.Valid)
		assert.False(t, s.TotalVolume.Valid)
	})
}

func symbols(in []entity.PricedInstrument) []string {
	out := make([]string, len(in))
	for i, x := range in {
		out[i] = x.Symbol
	}
	return out
}

func TestMoversAndGainers(t *testing.T) {
	uc := newUsecase(pricesClient(pricesCSV))
	ctx := context.Background()

	movers, err := uc.Movers(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADBL", "NABIL", "NICA", "HDL"}, symbols(movers))

	movers, err = uc.Movers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADBL", "NABIL"}, symbols(movers))

	gainers, err := uc.Gainers(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"NICA", "NABIL", "ADBL"}, symbols(gainers))
}

func TestCompanies(t *testing.T) {
	client := pricesClient(pricesCSV)
	uc := newUsecase(client)

	dir, err := uc.Companies(context.Background())
	require.NoError(t, err)
	assert.Len(t, dir.Companies, 2)

	_, err = uc.Companies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestHistory(t *testing.T) {
	const dirHTML = `<table><tr><th>#</th><th>Name</th><th>Symbol</th></tr>
<tr><td>1</td><td>Nabil Bank</td><td>NABIL</td><td><a href="/company/detail/131">x</a></td></tr>
<tr><td>2</td><td>No Link</td><td>NOLINK</td></tr></table>`
	const historyJSON = `{"hydra:member":[{"businessDate":"2025-01-02","closingPrice":1210},{"businessDate":"2025-01-01","closingPrice":1200}]}`

	var got entity.Resource
	client := &mockSourceClient{FetchFunc: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
		switch res.Kind {
		case entity.Companies:
			return &entity.RawPayload{Resource: res, Format: normalize.FormatHTML, Body: []byte(dirHTML)}, nil
		case entity.History:
			got = res
			return &entity.RawPayload{Resource: res, Format: normalize.FormatJSON, Body: []byte(historyJSON)}, nil
		}
		return nil, errors.New("unexpected")
	}}
	uc := newUsecase(client)
	ctx := context.Background()
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("resolves instrument id and default window", func(t *testing.T) {
		series, err := uc.History(ctx, "nabil", time.Time{}, end)
		require.NoError(t, err)

		require.Len(t, series.Bars, 2)
		assert.Equal(t, "1200", series.Bars[0].ClosingPrice.String())
		assert.Equal(t, "131", got.InstrumentID)
		assert.Equal(t, end, got.End)
		assert.Equal(t, end.Add(-usecase.DefaultHistoryWindow), got.Start)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := uc.History(ctx, "XYZ", time.Time{}, end)
		assert.ErrorIs(t, err, usecase.ErrSymbolNotFound)
	})

	t.Run("no instrument id", func(t *testing.T) {
		_, err := uc.History(ctx, "NOLINK", time.Time{}, end)
		assert.ErrorIs(t, err, usecase.ErrNoInstrumentID)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := uc.History(ctx, "NABIL", end, end.AddDate(0, 0, -1))
		assert.ErrorIs(t, err, usecase.ErrInvalidRange)
	})
}

func TestHistory_UpstreamFailure(t *testing.T) {
	const dirHTML = `<table><tr><th>#</th><th>Name</th><th>Symbol</th></tr>
<tr><td>1</td><td>Nabil Bank</td><td>NABIL</td><td><a href="/company/detail/131">x</a></td></tr></table>`
	client := &mockSourceClient{FetchFunc: func(_ context.Context, res entity.Resource) (*entity.RawPayload, error) {
		if res.Kind == entity.Companies {
			return &entity.RawPayload{Resource: res, Format: normalize.FormatHTML, Body: []byte(dirHTML)}, nil
		}
		return nil, &domain.FetchError{Resource: res.Kind.String(), StatusCode: 500, Cause: errors.New("server error")}
	}}

	_, err := newUsecase(client).History(context.Background(), "NABIL", time.Time{}, time.Time{})

	assert.ErrorIs(t, err, usecase.ErrMarketUnavailable)
	var fetchErr *domain.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 500, fetchErr.StatusCode)
}
