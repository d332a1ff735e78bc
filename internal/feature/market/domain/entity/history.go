package entity

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// HistoricalBar は銘柄の1取引日分です。
type HistoricalBar struct {
	InstrumentID string          `json:"instrument_id"`
	BusinessDate time.Time       `json:"business_date"`
	ClosingPrice decimal.Decimal `json:"closing_price"`
	Volume       null.Int        `json:"volume"`
}

// HistorySeries はBusinessDateの昇順に並び、日付ごとに最大1件の日足系列です。
type HistorySeries struct {
	Bars []HistoricalBar `json:"bars"`
}

// IsEmpty は系列に日足がないかを返します。
func (h HistorySeries) IsEmpty() bool {
	return len(h.Bars) == 0
}
