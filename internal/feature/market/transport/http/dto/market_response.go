// Package dto はmarketエンドポイントのレスポンスボディを定義します。
package dto

import (
	"time"

	"github.com/guregu/null/v6"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"qrupees/internal/feature/market/domain/entity"
	"qrupees/internal/feature/market/usecase"
)

// ErrorResponse はmarketの全エラーのボディです。
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// InstrumentResponse は価格付きの1銘柄です。精度を保つため数値は文字列で出力し、
// 値がない場合はnullになります。
type InstrumentResponse struct {
	Symbol      string              `json:"symbol"`
	CompanyName string              `json:"company_name,omitempty"`
	LastPrice   decimal.NullDecimal `json:"last_price"`
	Change      decimal.NullDecimal `json:"change"`
	Volume      null.Int            `json:"volume"`
	Turnover    decimal.NullDecimal `json:"turnover"`
}

// SnapshotResponse はGET /market/snapshotのボディです。
type SnapshotResponse struct {
	CapturedAt  time.Time            `json:"captured_at"`
	Instruments []InstrumentResponse `json:"instruments"`
}

// SummaryResponse はGET /market/summaryのボディです。
type SummaryResponse struct {
	Open          bool                `json:"open"`
	Listed        int                 `json:"listed"`
	TotalTurnover decimal.NullDecimal `json:"total_turnover"`
	TotalVolume   null.Int            `json:"total_volume"`
	CapturedAt    time.Time           `json:"captured_at"`
}

// CompanyResponse は企業一覧の1件です。
type CompanyResponse struct {
	Symbol       string      `json:"symbol"`
	Name         string      `json:"name"`
	InstrumentID null.String `json:"instrument_id"`
}

// BarResponse は1日分の履歴です。
type BarResponse struct {
	Date   openapi_types.Date `json:"date"`
	Close  decimal.Decimal    `json:"close"`
	Volume null.Int           `json:"volume"`
}

// HistoryResponse はGET /market/history/:symbolのボディです。
type HistoryResponse struct {
	Symbol string             `json:"symbol"`
	Start  openapi_types.Date `json:"start"`
	End    openapi_types.Date `json:"end"`
	Bars   []BarResponse      `json:"bars"`
}

// PortfolioRequest はPOST /portfolio/simulateのボディです。Holdingsには
// 1行に1つの"SYMBOL:shares"を書きます。
type PortfolioRequest struct {
	Holdings string `json:"holdings" binding:"required"`
}

// PositionResponse は評価済みの保有銘柄1件です。
type PositionResponse struct {
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Value      decimal.Decimal `json:"value"`
	Allocation decimal.Decimal `json:"allocation_pct"`
}

// PortfolioResponse はPOST /portfolio/simulateのレスポンスボディです。
type PortfolioResponse struct {
	Positions  []PositionResponse `json:"positions"`
	Total      decimal.Decimal    `json:"total"`
	Unmatched  []string           `json:"unmatched"`
	CapturedAt time.Time          `json:"captured_at"`
}

// NewInstrumentResponses は銘柄を出力用に変換します。
func NewInstrumentResponses(in []entity.PricedInstrument) []InstrumentResponse {
	out := make([]InstrumentResponse, 0, len(in))
	for _, x := range in {
		out = append(out, InstrumentResponse{
			Symbol:      x.Symbol,
			CompanyName: x.CompanyName,
			LastPrice:   x.LastPrice,
			Change:      x.Change,
			Volume:      x.Volume,
			Turnover:    x.Turnover,
		})
	}
	return out
}

// NewSummaryResponse は概要を出力用に変換します。
func NewSummaryResponse(s usecase.Summary) SummaryResponse {
	return SummaryResponse{
		Open:          s.Open,
		Listed:        s.Listed,
		TotalTurnover: s.TotalTurnover,
		TotalVolume:   s.TotalVolume,
		CapturedAt:    s.CapturedAt,
	}
}

// NewCompanyResponses は企業一覧を出力用に変換します。
func NewCompanyResponses(d entity.Directory) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(d.Companies))
	for _, c := range d.Companies {
		out = append(out, CompanyResponse{Symbol: c.Symbol, Name: c.Name, InstrumentID: c.InstrumentID})
	}
	return out
}

// NewHistoryResponse は日足系列を出力用に変換します。
func NewHistoryResponse(symbol string, start, end time.Time, s entity.HistorySeries) HistoryResponse {
	out := HistoryResponse{
		Symbol: symbol,
		Start:  openapi_types.Date{Time: start},
		End:    openapi_types.Date{Time: end},
		Bars:   make([]BarResponse, 0, len(s.Bars)),
	}
	for _, b := range s.Bars {
		out.Bars = append(out.Bars, BarResponse{
			Date:   openapi_types.Date{Time: b.BusinessDate},
			Close:  b.ClosingPrice,
			Volume: b.Volume,
		})
	}
	return out
}

// NewPortfolioResponse は評価結果を出力用に変換します。
func NewPortfolioResponse(v usecase.Valuation) PortfolioResponse {
	out := PortfolioResponse{
		Positions:  make([]PositionResponse, 0, len(v.Positions)),
		Total:      v.Total,
		Unmatched:  v.Unmatched,
		CapturedAt: v.CapturedAt,
	}
	if out.Unmatched == nil {
		out.Unmatched = []string{}
	}
	for _, p := range v.Positions {
		out.Positions = append(out.Positions, PositionResponse{
			Symbol:     p.Symbol,
			Shares:     p.Shares,
			Price:      p.Price,
			Value:      p.Value,
			Allocation: p.Allocation,
		})
	}
	return out
}
