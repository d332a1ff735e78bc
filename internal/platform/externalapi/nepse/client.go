package nepse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"qrupees/internal/feature/market/domain"
	"qrupees/internal/feature/market/domain/entity"
	"qrupees/internal/feature/market/usecase"
)

const (
	dateLayout = "2006-01-02"
	// maxBodyBytes はレスポンスの読み込み上限です。
	maxBodyBytes = 16 << 20
)

// Client は取引所サイトから生のペイロードを取得します。1回の呼び出しでリクエストは1回だけです。
type Client struct {
	cfg     Config
	client  *http.Client
	observe Observer
	limiter Limiter
	now     func() time.Time
}

// Limiter は外部リクエストの間隔を調整します。
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client はusecase.SourceClientを実装します。
var _ usecase.SourceClient = (*Client)(nil)

// NewClient はClientを生成します。clientはタイムアウトとTLS設定を持ち、observeはnilでも構いません。
func NewClient(cfg Config, client *http.Client, observe Observer) *Client {
	if observe == nil {
		observe = func(string, string, time.Duration) {}
	}
	return &Client{cfg: cfg, client: client, observe: observe, now: time.Now}
}

// WithLimiter は各Fetchがリクエスト送信前にlで待機するようにします。
func (c *Client) WithLimiter(l Limiter) *Client {
	c.limiter = l
	return c
}

// Fetch はリソースを取得し、設定されたペイロード形式を付けてボディを返します。
func (c *Client) Fetch(ctx context.Context, res entity.Resource) (*entity.RawPayload, error) {
	name := res.Kind.String()
	ep, ok := c.cfg.Endpoints[name]
	if !ok {
		return nil, &domain.FetchError{Resource: name, Cause: errors.New("no endpoint configured")}
	}

	u, err := c.buildURL(ep, res)
	if err != nil {
		return nil, &domain.FetchError{Resource: name, Cause: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.FetchError{Resource: name, Cause: err}
		}
	}

	start := c.now()
	body, err := c.get(ctx, name, u)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.observe(name, "error", elapsed)
		slog.Warn("upstream fetch failed", "resource", name, "url", u, "error", err, "elapsed", elapsed)
		return nil, err
	}
	c.observe(name, "ok", elapsed)
	slog.Debug("upstream fetch", "resource", name, "bytes", len(body), "elapsed", elapsed)

	return &entity.RawPayload{Resource: res, Format: ep.Format, Body: body, FetchedAt: start}, nil
}

func (c *Client) buildURL(ep Endpoint, res entity.Resource) (string, error) {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + ep.Path
	if res.Kind != entity.History {
		return u, nil
	}
	if res.InstrumentID == "" {
		return "", errors.New("history requires an instrument id")
	}

	q := url.Values{}
	q.Set("stockId", res.InstrumentID)
	q.Set("startDate", res.Start.Format(dateLayout))
	q.Set("endDate", res.End.Format(dateLayout))
	if c.cfg.HistoryLimit > 0 {
		q.Set("_limit", strconv.Itoa(c.cfg.HistoryLimit))
	}
	return u + "?" + q.Encode(), nil
}

func (c *Client) get(ctx context.Context, name, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &domain.FetchError{Resource: name, Cause: err}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Resource: name, Cause: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// コネクション再利用のため読み切る
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &domain.FetchError{Resource: name, StatusCode: resp.StatusCode, Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.FetchError{Resource: name, Cause: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
