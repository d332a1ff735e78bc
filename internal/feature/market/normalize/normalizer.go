package normalize

import (
	"bytes"
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/guregu/null/v6"

	"qrupees/internal/feature/market/domain"
	"qrupees/internal/feature/market/domain/entity"
	"qrupees/internal/feature/market/usecase"
)

// ペイロード形式
const (
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// DefaultContainer は履歴レコードを保持するJSONキーです。
const DefaultContainer = "hydra:member"

// Options はNormalizerの設定です。ゼロ値はデフォルトを意味します。
type Options struct {
	SnapshotSchema Schema
	HistorySchema  Schema
	Container      string
}

// Normalizer は生のペイロードを市場エンティティに変換します。
type Normalizer struct {
	snapshot  Schema
	history   Schema
	container string
}

var _ usecase.Normalizer = (*Normalizer)(nil)

// New はNormalizerを生成します。
func New(opts Options) *Normalizer {
	n := &Normalizer{snapshot: opts.SnapshotSchema, history: opts.HistorySchema, container: opts.Container}
	if n.snapshot == nil {
		n.snapshot = SnapshotSchema
	}
	if n.history == nil {
		n.history = HistorySchema
	}
	if n.container == "" {
		n.container = DefaultContainer
	}
	return n
}

func (n *Normalizer) table(p *entity.RawPayload) (table, error) {
	switch p.Format {
	case FormatHTML:
		return readHTMLTable(p.Body)
	case FormatCSV:
		return readCSV(p.Body)
	case FormatJSON:
		records, _, err := readJSONRecords(p.Body, n.container)
		if err != nil {
			return table{}, err
		}
		return jsonTable(records), nil
	default:
		return table{}, &domain.ParseError{Format: p.Format, Cause: errors.New("unsupported payload format")}
	}
}

// Snapshot は日次価格テーブルを読み取ります。解決できた値が1つもない行は除外し、
// 残りの行は欠損または解析不能なフィールドをnullのまま保持します。
func (n *Normalizer) Snapshot(p *entity.RawPayload) (entity.MarketSnapshot, error) {
	snap := entity.MarketSnapshot{CapturedAt: p.FetchedAt}
	t, err := n.table(p)
	if err != nil {
		return snap, err
	}

	cols := n.snapshot.Resolve(t.headers)
	idx := func(f Field) int {
		if i, ok := cols[f]; ok {
			return i
		}
		return -1
	}
	symbolIdx, nameIdx := idx(FieldSymbol), idx(FieldCompanyName)
	priceIdx, changeIdx := idx(FieldPrice), idx(FieldChange)
	volumeIdx, turnoverIdx := idx(FieldVolume), idx(FieldTurnover)
	snap.HasVolume = volumeIdx >= 0
	snap.HasTurnover = turnoverIdx >= 0

	for _, row := range t.rows {
		inst := entity.PricedInstrument{
			Symbol:      t.cell(row, symbolIdx),
			CompanyName: t.cell(row, nameIdx),
			LastPrice:   parseDecimal(t.cell(row, priceIdx)),
			Change:      parseDecimal(t.cell(row, changeIdx)),
			Volume:      parseInt(t.cell(row, volumeIdx)),
			Turnover:    parseDecimal(t.cell(row, turnoverIdx)),
		}
		if hasAnyField(inst) {
			snap.Instruments = append(snap.Instruments, inst)
		}
	}
	return snap, nil
}

func hasAnyField(i entity.PricedInstrument) bool {
	return i.Symbol != "" || i.CompanyName != "" || i.LastPrice.Valid || i.Change.Valid || i.Volume.Valid || i.Turnover.Valid
}

// History は取引履歴を読み取ります。containerキーのないJSONドキュメントは空の系列です。
// 日付または価格のない日足は読み飛ばし、同じ日付が複数ある場合は最初の1件だけを残します。
func (n *Normalizer) History(p *entity.RawPayload) (entity.HistorySeries, error) {
	var t table
	if p.Format == FormatJSON {
		records, found, err := readJSONRecords(p.Body, n.container)
		if err != nil {
			return entity.HistorySeries{}, err
		}
		if !found {
			return entity.HistorySeries{}, nil
		}
		t = jsonTable(records)
	} else {
		var err error
		if t, err = n.table(p); err != nil {
			return entity.HistorySeries{}, err
		}
	}

	cols := n.history.Resolve(t.headers)
	dateIdx, okDate := cols[FieldBusinessDate]
	priceIdx, okPrice := cols[FieldPrice]
	if !okDate || !okPrice {
		return entity.HistorySeries{}, nil
	}
	volumeIdx, okVolume := cols[FieldVolume]
	if !okVolume {
		volumeIdx = -1
	}

	seen := map[time.Time]bool{}
	var bars []entity.HistoricalBar
	for _, row := range t.rows {
		date, ok := parseDate(t.cell(row, dateIdx))
		if !ok || seen[date] {
			continue
		}
		price := parseDecimal(t.cell(row, priceIdx))
		if !price.Valid {
			continue
		}
		seen[date] = true
		bars = append(bars, entity.HistoricalBar{
			InstrumentID: p.Resource.InstrumentID,
			BusinessDate: date,
			ClosingPrice: price.Decimal,
			Volume:       parseInt(t.cell(row, volumeIdx)),
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].BusinessDate.Before(bars[j].BusinessDate) })
	return entity.HistorySeries{Bars: bars}, nil
}

// Directory は企業一覧を読み取ります。見出し行は読み飛ばし、2番目と3番目のセルが
// 企業名と銘柄で、銘柄IDは行の最初のリンクの最後のパス要素です。
func (n *Normalizer) Directory(p *entity.RawPayload) (entity.Directory, error) {
	switch p.Format {
	case FormatHTML:
		return htmlDirectory(p.Body)
	case FormatCSV:
		t, err := readCSV(p.Body)
		if err != nil {
			return entity.Directory{}, err
		}
		var dir entity.Directory
		for _, row := range t.rows {
			if c, ok := directoryRow(row, ""); ok {
				dir.Companies = append(dir.Companies, c)
			}
		}
		return dir, nil
	default:
		return entity.Directory{}, &domain.ParseError{Format: p.Format, Cause: errors.New("unsupported directory format")}
	}
}

func htmlDirectory(body []byte) (entity.Directory, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return entity.Directory{}, &domain.ParseError{Format: FormatHTML, Cause: err}
	}
	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return entity.Directory{}, &domain.ParseError{Format: FormatHTML, Cause: errors.New("no table found")}
	}

	var dir entity.Directory
	tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cellText(td))
		})
		href, _ := tr.Find("a[href]").First().Attr("href")
		if c, ok := directoryRow(cells, href); ok {
			dir.Companies = append(dir.Companies, c)
		}
	})
	return dir, nil
}

func directoryRow(cells []string, href string) (entity.Company, bool) {
	if len(cells) < 3 {
		return entity.Company{}, false
	}
	c := entity.Company{Name: cells[1], Symbol: cells[2]}
	if c.Name == "" && c.Symbol == "" {
		return entity.Company{}, false
	}
	if id := instrumentID(href); id != "" {
		c.InstrumentID = null.StringFrom(id)
	}
	return c, true
}

// instrumentID はリンク先の最後のパス要素を返します。
func instrumentID(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	p := href
	if u, err := url.Parse(href); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	seg := path.Base(p)
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}
