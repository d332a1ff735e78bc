// Package router はHTTPルーティングを組み立てます。
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "qrupees/internal/feature/auth/transport/handler"
	markethandler "qrupees/internal/feature/market/transport/handler"
	platformhandler "qrupees/internal/platform/http/handler"
	jwtmw "qrupees/internal/platform/jwt"
)

// Deps はルーターが必要とするハンドラーとミドルウェアの依存です。
type Deps struct {
	Auth     *authhandler.AuthHandler
	Market   *markethandler.MarketHandler
	Tokens   jwtmw.TokenParser
	Sessions jwtmw.SessionFinder
	Metrics  http.Handler
	Storage  string // /healthz で返すレコードバックエンド名

	// AllowedOrigins はCORSで許可するオリジンです。空の場合は全オリジンを許可します。
	AllowedOrigins []string
}

// NewRouter はginエンジンを生成します。
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// ブラウザ UI からのアクセス用
	r.Use(corsMiddleware(d.AllowedOrigins))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health(d.Storage))
	r.HEAD("/healthz", platformhandler.Health(d.Storage))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	// 公開ページ（市場サマリーと売買代金上位）
	r.GET("/market/summary", d.Market.Summary)
	r.GET("/market/movers", d.Market.Movers)
	r.POST("/market/refresh", d.Market.Refresh)
	// 新規トレーダー登録（承認待ち）
	r.POST("/register", d.Auth.Register)
	// ログイン（JWT 発行）
	r.POST("/login", d.Auth.Login)

	// 認証必須のルート（ダッシュボード）
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(d.Tokens, d.Sessions))
	{
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", d.Auth.Me)
		auth.GET("/market/snapshot", d.Market.Snapshot)
		auth.GET("/market/gainers", d.Market.Gainers)
		auth.GET("/market/companies", d.Market.Companies)
		auth.GET("/market/history/:symbol", d.Market.History)
		auth.POST("/portfolio/simulate", d.Market.Portfolio)
	}

	// 管理者のみ
	admin := auth.Group("/admin")
	admin.Use(jwtmw.RequireAdmin())
	{
		admin.GET("/registrations/pending", d.Auth.PendingRegistrations)
		admin.POST("/registrations/:id/approve", d.Auth.ApproveRegistration)
	}

	return r
}

// corsMiddleware はoriginsが空ならデフォルト設定、それ以外は指定オリジンのみ許可します。
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
