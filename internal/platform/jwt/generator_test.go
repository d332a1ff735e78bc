package jwtmw

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrupees/internal/feature/auth/domain/entity"
)

// TestGenerator_RoundTrip は生成したトークンが検証を通り、セッションIDとクレームが復元されることを検証します。
func TestGenerator_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *entity.Session
	}{
		{"trader", &entity.Session{ID: "s-1", AccountID: 7, Authenticated: true}},
		{"admin", &entity.Session{ID: "s-2", AccountID: 1, IsAdmin: true, Authenticated: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator("my-secret-key", time.Hour)
			token, err := gen.GenerateToken(tt.session)
			require.NoError(t, err)

			claims, err := gen.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.session.ID, claims.SessionID)
			assert.Equal(t, tt.session.IsAdmin, claims.Admin)
			sub, err := claims.GetSubject()
			require.NoError(t, err)
			assert.Equal(t, strconv.FormatUint(uint64(tt.session.AccountID), 10), sub)
		})
	}
}

// TestGenerator_Rejects は期限切れ・別シークレット・none署名のトークンが拒否されることを検証します。
func TestGenerator_Rejects(t *testing.T) {
	t.Parallel()

	sess := &entity.Session{ID: "s-1", AccountID: 7, Authenticated: true}
	gen := NewGenerator("right-secret", time.Hour)

	expired := NewGenerator("right-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, err := expired.GenerateToken(sess)
	require.NoError(t, err)

	wrongToken, err := NewGenerator("wrong-secret", time.Hour).GenerateToken(sess)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "s-1"})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSID := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{})
	noSIDToken, err := noSID.SignedString([]byte("right-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expiredToken,
		"wrong secret": wrongToken,
		"none alg":     noneToken,
		"missing sid":  noSIDToken,
		"garbage":      "not.a.token",
	} {
		_, err := gen.ParseToken(token)
		assert.Error(t, err, name)
	}
}

func TestGenerator_RequiresSessionID(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator("s", time.Hour).GenerateToken(&entity.Session{})
	assert.Error(t, err)
}
