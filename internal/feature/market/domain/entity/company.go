package entity

import (
	"strings"

	"github.com/guregu/null/v6"
)

// Company は取引所の企業一覧にある上場銘柄1件です。一覧の行に使えるリンクが
// なかった場合、InstrumentIDはnullです。
type Company struct {
	Symbol       string      `json:"symbol"`
	Name         string      `json:"name"`
	InstrumentID null.String `json:"instrument_id"`
}

// Directory は上場企業の一覧です。
type Directory struct {
	Companies []Company `json:"companies"`
}

// IsEmpty は一覧に企業がないかを返します。
func (d Directory) IsEmpty() bool {
	return len(d.Companies) == 0
}

// Lookup は大文字小文字を区別せずに銘柄で企業を探します。
func (d Directory) Lookup(symbol string) (Company, bool) {
	for _, c := range d.Companies {
		if strings.EqualFold(c.Symbol, symbol) {
			return c, true
		}
	}
	return Company{}, false
}
