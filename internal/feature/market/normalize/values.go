package normalize

import (
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

var numberCleaner = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "Rs.", "", "Rs", "", "%", "")

// parseDecimal は桁区切りと空白を除去して小数を解析します。
// 解析できないか空の場合はnullになります。
func parseDecimal(s string) decimal.NullDecimal {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	// 会計表記の負数
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	if s == "" || s == "-" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseInt は件数を解析します。小数部は切り捨てます。
func parseInt(s string) null.Int {
	d := parseDecimal(s)
	if !d.Valid {
		return null.Int{}
	}
	return null.IntFrom(d.Decimal.IntPart())
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// parseDate は営業日を解析し、UTCの0時に切り捨てます。
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
