package jwtmw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/usecase"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockSessionFinder struct {
	FindByIDFunc func(ctx context.Context, id string) (*entity.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, usecase.ErrSessionNotFound
}

func sessionsWith(sessions ...*entity.Session) *mockSessionFinder {
	return &mockSessionFinder{
		FindByIDFunc: func(_ context.Context, id string) (*entity.Session, error) {
			for _, s := range sessions {
				if s.ID == id {
					return s, nil
				}
			}
			return nil, usecase.ErrSessionNotFound
		},
	}
}

func newRouter(gen *Generator, sessions SessionFinder, admin bool) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthRequired(gen, sessions)}
	if admin {
		handlers = append(handlers, RequireAdmin())
	}
	handlers = append(handlers, func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": sess.Email})
	})
	r.GET("/", handlers...)
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestAuthRequired_MissingBearerToken はBearerトークンがない場合やプレフィックスが不正な場合に401が返されることを検証します。
func TestAuthRequired_MissingBearerToken(t *testing.T) {
	r := newRouter(NewGenerator("secret", time.Hour), sessionsWith(), false)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "bearer token123", "Bearertoken123"} {
		w := doGet(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.JSONEq(t, `{"error":"missing bearer token"}`, w.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	gen := NewGenerator("secret", time.Hour)
	trader := &entity.Session{ID: "t1", AccountID: 7, Email: "trader@example.com", Authenticated: true}
	admin := &entity.Session{ID: "a1", AccountID: 1, Email: "admin@qrupees.com", IsAdmin: true, Authenticated: true}
	loggedOut := &entity.Session{ID: "gone", AccountID: 9, Authenticated: true}

	token := func(s *entity.Session) string {
		tok, err := gen.GenerateToken(s)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name           string
		header         string
		admin          bool
		expectedStatus int
		expectedBody   string
	}{
		{"valid session", token(trader), false, http.StatusOK, `{"email":"trader@example.com"}`},
		{"garbage token", "Bearer nope", false, http.StatusUnauthorized, `{"error":"invalid token"}`},
		{"logged out session", token(loggedOut), false, http.StatusUnauthorized, `{"error":"session expired"}`},
		{"admin route as trader", token(trader), true, http.StatusForbidden, `{"error":"forbidden"}`},
		{"admin route as admin", token(admin), true, http.StatusOK, `{"email":"admin@qrupees.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(gen, sessionsWith(trader, admin), tt.admin)

			w := doGet(r, tt.header)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestAuthRequired_StoreFailure(t *testing.T) {
	gen := NewGenerator("secret", time.Hour)
	tok, err := gen.GenerateToken(&entity.Session{ID: "x"})
	require.NoError(t, err)
	sessions := &mockSessionFinder{
		FindByIDFunc: func(context.Context, string) (*entity.Session, error) { return nil, errors.New("redis down") },
	}

	w := doGet(newRouter(gen, sessions, false), "Bearer "+tok)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
