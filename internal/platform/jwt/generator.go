// Package jwtmw はセッショントークンを発行し、それをセッションに解決するginミドルウェアを提供します。
package jwtmw

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qrupees/internal/feature/auth/domain/entity"
)

// Claims はトークンのペイロードです。セッションIDが正であり、他のフィールドは参考情報です。
type Claims struct {
	SessionID string `json:"sid"`
	Admin     bool   `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// Generator はHS256のセッショントークンの署名と検証を行います。
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator は指定されたシークレットと有効期限でJWT生成器を生成します。
func NewGenerator(secret string, expiration time.Duration) *Generator {
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken はセッションを参照する署名済みトークンを生成します。
func (g *Generator) GenerateToken(s *entity.Session) (string, error) {
	if s == nil || s.ID == "" {
		return "", errors.New("session id is required")
	}
	now := g.now()
	claims := Claims{
		SessionID: s.ID,
		Admin:     s.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatUint(uint64(s.AccountID), 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if g.expiration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(g.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken は署名と有効期限を検証し、クレームを返します。
func (g *Generator) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
