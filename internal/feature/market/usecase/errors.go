// Package usecase は市場データパイプライン（取得・正規化・キャッシュ）と、
// スナップショットから作る集計を実装します。
package usecase

import "errors"

var (
	// ErrMarketUnavailable は上流に到達できない、ペイロードを読めない、または行がない場合に返されます。
	// 呼び出し元は再試行できます。
	ErrMarketUnavailable = errors.New("market data unavailable")

	// ErrSymbolNotFound は銘柄が企業一覧にない場合に返されます。
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrNoInstrumentID は上場企業に銘柄IDがない場合に返されます。
	ErrNoInstrumentID = errors.New("instrument id unavailable for symbol")

	// ErrInvalidRange は履歴の期間の終了が開始より前の場合に返されます。
	ErrInvalidRange = errors.New("end date is before start date")

	// ErrNoHoldings は保有銘柄テキストに解析できる行がない場合に返されます。
	ErrNoHoldings = errors.New("no valid holdings")
)
