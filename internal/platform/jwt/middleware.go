package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/usecase"
)

// ContextSession は*entity.Sessionを保持するginコンテキストのキーです。
const ContextSession = "session"

// TokenParser はBearerトークンを検証します。
type TokenParser interface {
	ParseToken(tokenStr string) (*Claims, error)
}

// SessionFinder はセッションIDからセッションを取得します。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*entity.Session, error)
}

// AuthRequired はBearerトークンを検証してセッションを読み込み、
// 認証済みセッションのみアクセスを許可するGinミドルウェアを返します。
func AuthRequired(tokens TokenParser, sessions SessionFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.ParseToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sess, err := sessions.FindByID(c.Request.Context(), claims.SessionID)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		if err != nil {
			slog.Error("session lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !sess.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// RequireAdmin は管理者権限のないセッションを拒否します。AuthRequiredの後に適用する必要があります。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok || !sess.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// SessionFromContext はAuthRequiredが格納したセッションを返します。
func SessionFromContext(c *gin.Context) (*entity.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*entity.Session)
	return sess, ok && sess != nil
}
