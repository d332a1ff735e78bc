package entity

import "time"

// Session はリクエストハンドラーに渡されるログインごとの認可コンテキストです。
// Authenticatedのログインでのみ作成され、ログアウトで削除されます。
type Session struct {
	ID            string    `json:"id"`
	AccountID     uint      `json:"account_id"`
	Email         string    `json:"email"`
	IsAdmin       bool      `json:"is_admin"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
}
