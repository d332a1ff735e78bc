package dto

import (
	"time"

	"qrupees/internal/feature/auth/domain/entity"
)

// ErrorResponse はバリデーション以外の全エラーのボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse は最初に拒否された登録フィールドを返します。
type ValidationErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse は単純な応答です。
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse は認証されたログインに対して返されます。
type LoginResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

// SessionResponse は呼び出し元のセッションを表します。
type SessionResponse struct {
	AccountID uint      `json:"account_id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingRegistrationResponse は承認キューの1件です。
type PendingRegistrationResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// NewSessionResponse はセッションを出力用に変換します。
func NewSessionResponse(s *entity.Session) SessionResponse {
	return SessionResponse{AccountID: s.AccountID, Email: s.Email, IsAdmin: s.IsAdmin, CreatedAt: s.CreatedAt}
}

// NewPendingResponses は承認キューを出力用に変換します。
func NewPendingResponses(items []entity.PendingRegistration) []PendingRegistrationResponse {
	out := make([]PendingRegistrationResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PendingRegistrationResponse{ID: p.RegistrationID, Email: p.Email, FullName: p.FullName})
	}
	return out
}
