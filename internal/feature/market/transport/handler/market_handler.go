// Package handler はmarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"qrupees/internal/feature/market/domain/entity"
	"qrupees/internal/feature/market/transport/http/dto"
	"qrupees/internal/feature/market/usecase"
)

const dateLayout = "2006-01-02"

// MarketUsecase はMarketHandlerが使う市場操作を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type MarketUsecase interface {
	Snapshot(ctx context.Context) (entity.MarketSnapshot, error)
	Refresh(ctx context.Context)
	Summary(ctx context.Context) (usecase.Summary, error)
	Movers(ctx context.Context, n int) ([]entity.PricedInstrument, error)
	Gainers(ctx context.Context, n int) ([]entity.PricedInstrument, error)
	Companies(ctx context.Context) (entity.Directory, error)
	History(ctx context.Context, symbol string, start, end time.Time) (entity.HistorySeries, error)
	Portfolio(ctx context.Context, text string) (usecase.Valuation, error)
}

// MarketHandler は市場データを提供します。
type MarketHandler struct {
	uc  MarketUsecase
	now func() time.Time
}

// NewMarketHandler はMarketHandlerの新しいインスタンスを生成します。
func NewMarketHandler(uc MarketUsecase) *MarketHandler {
	return &MarketHandler{uc: uc, now: time.Now}
}

// Snapshot はGET /market/snapshotを処理します。
func (h *MarketHandler) Snapshot(c *gin.Context) {
	snap, err := h.uc.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, "snapshot", err)
		return
	}
	c.JSON(http.StatusOK, dto.SnapshotResponse{
		CapturedAt:  snap.CapturedAt,
		Instruments: dto.NewInstrumentResponses(snap.Instruments),
	})
}

// Summary はGET /market/summaryを処理します。
func (h *MarketHandler) Summary(c *gin.Context) {
	s, err := h.uc.Summary(c.Request.Context())
	if err != nil {
		writeError(c, "summary", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSummaryResponse(s))
}

// Refresh はPOST /market/refreshを処理します。次の読み取りで再取得されます。
func (h *MarketHandler) Refresh(c *gin.Context) {
	h.uc.Refresh(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Movers はGET /market/movers?limit=5を処理します。
func (h *MarketHandler) Movers(c *gin.Context) {
	// 不正な値は0となり、usecase側でデフォルト値に変換される
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	out, err := h.uc.Movers(c.Request.Context(), n)
	if err != nil {
		writeError(c, "movers", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInstrumentResponses(out))
}

// Gainers はGET /market/gainers?limit=10を処理します。
func (h *MarketHandler) Gainers(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	out, err := h.uc.Gainers(c.Request.Context(), n)
	if err != nil {
		writeError(c, "gainers", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInstrumentResponses(out))
}

// Companies はGET /market/companiesを処理します。
func (h *MarketHandler) Companies(c *gin.Context) {
	dir, err := h.uc.Companies(c.Request.Context())
	if err != nil {
		writeError(c, "companies", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCompanyResponses(dir))
}

// History はGET /market/history/:symbol?start=YYYY-MM-DD&end=YYYY-MM-DDを処理します。
// 期間のデフォルトは本日までの1年間です。
func (h *MarketHandler) History(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))

	end := h.now().UTC().Truncate(24 * time.Hour)
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "end must be YYYY-MM-DD"})
			return
		}
		end = t
	}
	start := end.Add(-usecase.DefaultHistoryWindow)
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start must be YYYY-MM-DD"})
			return
		}
		start = t
	}

	series, err := h.uc.History(c.Request.Context(), symbol, start, end)
	if err != nil {
		writeError(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryResponse(symbol, start, end, series))
}

// Portfolio はPOST /portfolio/simulateを処理します。
func (h *MarketHandler) Portfolio(c *gin.Context) {
	var req dto.PortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	v, err := h.uc.Portfolio(c.Request.Context(), req.Holdings)
	if err != nil {
		writeError(c, "portfolio", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortfolioResponse(v))
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrMarketUnavailable):
		slog.Warn("market data unavailable", "op", op, "error", err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "market data unavailable", Retryable: true})
	case errors.Is(err, usecase.ErrSymbolNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "symbol not found"})
	case errors.Is(err, usecase.ErrNoInstrumentID):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "instrument id unavailable for symbol"})
	case errors.Is(err, usecase.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "end date is before start date"})
	case errors.Is(err, usecase.ErrNoHoldings):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "no valid holdings"})
	default:
		slog.Error("market request failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}
