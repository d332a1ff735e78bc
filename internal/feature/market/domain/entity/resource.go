package entity

import "time"

// ResourceKind は上流のエンドポイントを識別します。
type ResourceKind int

const (
	Companies ResourceKind = iota + 1
	DailyPrices
	History
)

// String は種別の設定名を返します。
func (k ResourceKind) String() string {
	switch k {
	case Companies:
		return "companies"
	case DailyPrices:
		return "daily_prices"
	case History:
		return "history"
	default:
		return "unknown"
	}
}

// Resource は上流リクエスト1件です。Instrumentと期間はHistoryでのみ使います。
type Resource struct {
	Kind         ResourceKind
	InstrumentID string
	Start        time.Time
	End          time.Time
}

// RawPayload はペイロード形式（"html"、"csv"、"json"）を付けた上流のレスポンスボディです。
type RawPayload struct {
	Resource  Resource
	Format    string
	Body      []byte
	FetchedAt time.Time
}
