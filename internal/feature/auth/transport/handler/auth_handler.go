// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qrupees/internal/feature/auth/domain"
	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/transport/http/dto"
	"qrupees/internal/feature/auth/usecase"
	jwtmw "qrupees/internal/platform/jwt"
)

// AuthUsecase はAuthHandlerが使うアカウント操作を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Register(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// AdminUsecase は承認キューの操作を定義します。
type AdminUsecase interface {
	ListPending(ctx context.Context, actor *entity.Session) ([]entity.PendingRegistration, error)
	Approve(ctx context.Context, actor *entity.Session, registrationID uint) error
}

// AuthHandler は登録・ログイン・ログアウト・管理のリクエストを処理します。
type AuthHandler struct {
	auth  AuthUsecase
	admin AdminUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase, admin AdminUsecase) *AuthHandler {
	return &AuthHandler{auth: auth, admin: admin}
}

// Register はPOST /registerを処理します。
// - バリデーションエラー時は最初に拒否されたフィールドとともに400を返却
// - メールアドレスが登録済みの場合は409を返却
// - 登録が保存され承認待ちになった場合は201を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req usecase.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register request malformed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	err := h.auth.Register(c.Request.Context(), req)
	var verr *domain.ValidationError
	switch {
	case err == nil:
		slog.Info("registration accepted", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusCreated, dto.MessageResponse{Message: "registration submitted, awaiting approval"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Error: "validation failed", Field: verr.Field, Message: verr.Message})
	case errors.Is(err, usecase.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "email already registered"})
	default:
		writeStoreError(c, "register", err)
	}
}

// Login はPOST /loginを処理します。
// - 未登録のメールアドレスまたはパスワード誤りの場合は401を返却
// - 登録が承認待ちの間は403を返却
// - 認証成功時はBearerトークン付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeStoreError(c, "login", err)
		return
	}

	switch res.Outcome {
	case usecase.Authenticated:
		slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusOK, dto.LoginResponse{Token: res.Token, Session: dto.NewSessionResponse(res.Session)})
	case usecase.PendingApproval:
		slog.Info("login pending approval", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "registration pending approval"})
	default:
		// メールアドレスとパスワードのどちらが誤りかは公開しない
		slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password"})
	}
}

// Logout はPOST /logoutを処理します。
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := jwtmw.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), sess.ID); err != nil {
		slog.Error("logout failed", "error", err, "session_id", sess.ID)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// Me はGET /meを処理します。
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := jwtmw.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(sess))
}

// PendingRegistrations はGET /admin/registrations/pendingを処理します。
func (h *AuthHandler) PendingRegistrations(c *gin.Context) {
	sess, _ := jwtmw.SessionFromContext(c)
	items, err := h.admin.ListPending(c.Request.Context(), sess)
	if err != nil {
		writeStoreError(c, "list pending", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPendingResponses(items))
}

// ApproveRegistration はPOST /admin/registrations/:id/approveを処理します。
func (h *AuthHandler) ApproveRegistration(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid registration id"})
		return
	}

	sess, _ := jwtmw.SessionFromContext(c)
	err = h.admin.Approve(c.Request.Context(), sess, uint(id))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.MessageResponse{Message: "approved"})
	case errors.Is(err, usecase.ErrRegistrationNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "registration not found"})
	default:
		writeStoreError(c, "approve", err)
	}
}

func writeStoreError(c *gin.Context, op string, err error) {
	if errors.Is(err, usecase.ErrForbidden) {
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"})
		return
	}
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		slog.Error("record store failure", "op", op, "backend", storeErr.Backend, "error", err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "record store unavailable"})
		return
	}
	slog.Error("request failed", "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
}
