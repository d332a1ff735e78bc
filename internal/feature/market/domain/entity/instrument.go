// Package entity はmarketフィーチャーのドメインエンティティを定義します。
package entity

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// PricedInstrument は日次価格スナップショットの1行です。解決または解析できなかった
// フィールドはnullです。
type PricedInstrument struct {
	Symbol      string              `json:"symbol"`
	CompanyName string              `json:"company_name,omitempty"`
	LastPrice   decimal.NullDecimal `json:"last_price"`
	Change      decimal.NullDecimal `json:"change"`
	Volume      null.Int            `json:"volume"`
	Turnover    decimal.NullDecimal `json:"turnover"`
}

// MarketSnapshot は1回の取得時点の銘柄の集合です。空のスナップショットは
// 市場データが取得できなかったことを意味します。
type MarketSnapshot struct {
	Instruments []PricedInstrument `json:"instruments"`
	CapturedAt  time.Time          `json:"captured_at"`
	// HasVolume と HasTurnover は元データにその列があったかを記録します。
	HasVolume   bool `json:"has_volume"`
	HasTurnover bool `json:"has_turnover"`
}

// IsEmpty はスナップショットに銘柄がないかを返します。
func (s MarketSnapshot) IsEmpty() bool {
	return len(s.Instruments) == 0
}
