package normalize

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"qrupees/internal/feature/market/domain"
)

// table は見出し行と、トリム済みセル文字列のデータ行です。
type table struct {
	headers []string
	rows    [][]string
}

func (t table) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// readHTMLTable はHTMLドキュメントの最初の<table>を読み取ります。見出しはthセルから、
// thがない場合は最初の行から取ります。
func readHTMLTable(body []byte) (table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return table{}, &domain.ParseError{Format: "html", Cause: err}
	}
	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return table{}, &domain.ParseError{Format: "html", Cause: errors.New("no table found")}
	}

	var t table
	trs := tbl.Find("tr")
	headerRow := -1
	trs.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		ths := tr.Find("th")
		if ths.Length() == 0 {
			return true
		}
		ths.Each(func(_ int, th *goquery.Selection) {
			t.headers = append(t.headers, cellText(th))
		})
		headerRow = i
		return false
	})

	trs.Each(func(i int, tr *goquery.Selection) {
		if i == headerRow {
			return
		}
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		row := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			row = append(row, cellText(td))
		})
		if t.headers == nil {
			t.headers = row
			return
		}
		t.rows = append(t.rows, row)
	})

	if len(t.headers) == 0 {
		return table{}, &domain.ParseError{Format: "html", Cause: errors.New("table has no header row")}
	}
	return t, nil
}

// readCSV は最初のレコードを見出しとするCSVドキュメントを読み取ります。
func readCSV(body []byte) (table, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(body))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table{}, &domain.ParseError{Format: "csv", Cause: errors.New("empty document")}
	}
	if err != nil {
		return table{}, &domain.ParseError{Format: "csv", Cause: err}
	}

	t := table{headers: trimAll(header)}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, &domain.ParseError{Format: "csv", Cause: err}
		}
		t.rows = append(t.rows, trimAll(rec))
	}
	return t, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// readJSONRecords はオブジェクトの列を読み取ります。ドキュメント自体か、containerの
// 配列のどちらかです。containerキーのないオブジェクトの場合foundはfalseです。
func readJSONRecords(body []byte, container string) (records []map[string]any, found bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, false, &domain.ParseError{Format: "json", Cause: err}
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		raw, ok := v[container]
		if !ok {
			return nil, false, nil
		}
		arr, ok := raw.([]any)
		if !ok {
			return nil, true, &domain.ParseError{Format: "json", Cause: fmt.Errorf("%q is not an array", container)}
		}
		items = arr
	default:
		return nil, false, &domain.ParseError{Format: "json", Cause: errors.New("document is neither an object nor an array")}
	}

	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			records = append(records, obj)
		}
	}
	return records, true, nil
}

// jsonTable はレコードをテーブルに平坦化します。エイリアス解決を決定的にするため、
// 見出しはキーの和集合をソートしたものです。
func jsonTable(records []map[string]any) table {
	keys := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(keys))
	for k := range keys {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	t := table{headers: headers}
	for _, r := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = jsonCell(r[h])
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func jsonCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
