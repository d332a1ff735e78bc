// Package normalize は緩く構造化された取引所のペイロード（HTMLテーブル、CSVエクスポート、
// JSONドキュメント）を市場エンティティに変換します。列見出しはソースごとに異なるため、
// 各フィールドは見出しエイリアスの順序付きリストで特定します。
package normalize

import "strings"

// Field は意味上の列です。
type Field int

const (
	FieldSymbol Field = iota + 1
	FieldCompanyName
	FieldPrice
	FieldChange
	FieldVolume
	FieldTurnover
	FieldBusinessDate
)

func (f Field) String() string {
	switch f {
	case FieldSymbol:
		return "symbol"
	case FieldCompanyName:
		return "company_name"
	case FieldPrice:
		return "price"
	case FieldChange:
		return "change"
	case FieldVolume:
		return "volume"
	case FieldTurnover:
		return "turnover"
	case FieldBusinessDate:
		return "business_date"
	default:
		return "unknown"
	}
}

// Alias は受け付ける見出しパターン1つです。パターンは小文字で、見出しは
// 小文字化と空白の圧縮をしてから照合します。
type Alias struct {
	Pattern  string
	Contains bool
}

// Exact はpatternと等しい見出しに一致します。
func Exact(pattern string) Alias { return Alias{Pattern: pattern} }

// Contains はpatternを含む見出しに一致します。
func Contains(pattern string) Alias { return Alias{Pattern: pattern, Contains: true} }

func (a Alias) match(header string) bool {
	if a.Contains {
		return strings.Contains(header, a.Pattern)
	}
	return header == a.Pattern
}

// FieldSpec は1フィールドのエイリアスを優先順に並べたものです。
type FieldSpec struct {
	Field   Field
	Aliases []Alias
}

// Schema はFieldSpecの順序付きリストです。先のフィールドから見出しを割り当て、
// 1つの見出しは最大1フィールドにしか割り当てられません。
type Schema []FieldSpec

// SnapshotSchema は日次価格テーブルを解決します。
var SnapshotSchema = Schema{
	{FieldSymbol, []Alias{Contains("symbol"), Exact("traded companies"), Exact("company")}},
	{FieldCompanyName, []Alias{Exact("company name"), Exact("security name"), Exact("name"), Contains("company")}},
	{FieldPrice, []Alias{Exact("ltp"), Exact("last traded price"), Exact("lasttradedprice"), Exact("closing price"), Exact("close price"), Exact("close")}},
	{FieldChange, []Alias{Contains("difference"), Exact("point change"), Exact("change"), Exact("diff"), Contains("change")}},
	{FieldVolume, []Alias{Contains("quantity"), Contains("volume"), Contains("shares"), Exact("qty"), Exact("vol")}},
	{FieldTurnover, []Alias{Contains("amount"), Contains("turnover")}},
	{FieldBusinessDate, []Alias{Exact("business date"), Exact("businessdate"), Exact("date")}},
}

// HistorySchema は取引履歴レコードを解決します。
var HistorySchema = Schema{
	{FieldBusinessDate, []Alias{Exact("businessdate"), Exact("business date"), Exact("date")}},
	{FieldPrice, []Alias{
		Exact("closingprice"), Exact("closeprice"), Exact("closing price"), Exact("close price"),
		Exact("ltp"), Exact("lasttradedprice"), Exact("close"),
	}},
	{FieldVolume, []Alias{
		Exact("totaltradedquantity"), Exact("totaltradequantity"), Contains("quantity"), Contains("volume"), Exact("qty"),
	}},
}

// normalizeHeader はhを小文字化し、連続する空白を1つにまとめます。
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// Resolve は各フィールドを割り当てた見出しのインデックスに対応付けます。
// 一致する見出しがないフィールドは結果に含まれません。
func (s Schema) Resolve(headers []string) map[Field]int {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}
	claimed := make([]bool, len(headers))
	out := make(map[Field]int, len(s))

	for _, fs := range s {
	aliases:
		for _, a := range fs.Aliases {
			for i, h := range norm {
				if !claimed[i] && h != "" && a.match(h) {
					claimed[i] = true
					out[fs.Field] = i
					break aliases
				}
			}
		}
	}
	return out
}
