// Package handler はプラットフォームレベルのHTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health は/healthzのハンドラーを返します。storageは起動時に選ばれたレコードバックエンド
// （"local" または "remote"）で、UIが登録情報の永続性を表示するのに使います。
func Health(storage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": storage})
		}
	}
}
