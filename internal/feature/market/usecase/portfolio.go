package usecase

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"qrupees/internal/feature/market/domain/entity"
)

// Holding は解析済みの"SYMBOL:shares"の1行です。
type Holding struct {
	Symbol string
	Shares int64
}

// Position はスナップショットの最終価格で評価した保有銘柄です。
type Position struct {
	Symbol     string
	Shares     int64
	Price      decimal.Decimal
	Value      decimal.Decimal
	Allocation decimal.Decimal // ポートフォリオ評価額に対する割合（%）
}

// Valuation はポートフォリオシミュレーションの結果です。Unmatchedには
// スナップショットに価格のない保有銘柄が入ります。
type Valuation struct {
	Positions  []Position
	Total      decimal.Decimal
	Unmatched  []string
	CapturedAt time.Time
}

// ParseHoldings は1行に1つの"SYMBOL:shares"を読み取ります。コロンがない行や
// 株数が数値でない行は読み飛ばし、同じ銘柄が複数ある場合は最後の株数を使います。
func ParseHoldings(text string) ([]Holding, error) {
	var out []Holding
	index := map[string]int{}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		sym, shares, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		sym = strings.TrimSpace(sym)
		n, err := strconv.ParseInt(strings.TrimSpace(shares), 10, 64)
		if sym == "" || err != nil || n <= 0 {
			continue
		}
		key := strings.ToUpper(sym)
		if i, seen := index[key]; seen {
			out[i].Shares = n
			continue
		}
		index[key] = len(out)
		out = append(out, Holding{Symbol: sym, Shares: n})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoHoldings
	}
	return out, nil
}

// Portfolio はtextの保有銘柄を現在のスナップショットで評価します。
func (u *marketUsecase) Portfolio(ctx context.Context, text string) (Valuation, error) {
	holdings, err := ParseHoldings(text)
	if err != nil {
		return Valuation{}, err
	}
	snap, err := u.Snapshot(ctx)
	if err != nil {
		return Valuation{}, err
	}
	return value(holdings, snap), nil
}

func value(holdings []Holding, snap entity.MarketSnapshot) Valuation {
	prices := make(map[string]decimal.Decimal, len(snap.Instruments))
	for _, in := range snap.Instruments {
		key := strings.ToUpper(in.Symbol)
		if _, dup := prices[key]; dup || !in.LastPrice.Valid || key == "" {
			continue
		}
		prices[key] = in.LastPrice.Decimal
	}

	v := Valuation{Total: decimal.Zero, CapturedAt: snap.CapturedAt}
	for _, h := range holdings {
		price, ok := prices[strings.ToUpper(h.Symbol)]
		if !ok {
			v.Unmatched = append(v.Unmatched, h.Symbol)
			continue
		}
		val := price.Mul(decimal.NewFromInt(h.Shares))
		v.Positions = append(v.Positions, Position{Symbol: h.Symbol, Shares: h.Shares, Price: price, Value: val})
		v.Total = v.Total.Add(val)
	}
	if v.Total.IsPositive() {
		hundred := decimal.NewFromInt(100)
		for i := range v.Positions {
			v.Positions[i].Allocation = v.Positions[i].Value.Div(v.Total).Mul(hundred).Round(2)
		}
	}
	return v
}
