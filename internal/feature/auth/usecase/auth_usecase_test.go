package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"qrupees/internal/feature/auth/domain"
	"qrupees/internal/feature/auth/domain/entity"
)

func TestAuthUsecase_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		var createdHash string
		var profile entity.Profile
		accounts := &mockAccountStore{
			CreateFunc: func(_ context.Context, email, hash string, isAdmin bool) (uint, error) {
				assert.Equal(t, "sita@example.com", email)
				assert.False(t, isAdmin)
				createdHash = hash
				return 42, nil
			},
		}
		regs := &mockRegistrationStore{
			CreateFunc: func(_ context.Context, accountID uint, p entity.Profile) error {
				assert.Equal(t, uint(42), accountID)
				profile = p
				return nil
			},
		}
		rec := &countingRecorder{}
		uc := NewAuthUsecase(accounts, regs, newMemSessions(), &mockTokenIssuer{}, 0, rec)

		err := uc.Register(context.Background(), validInput())

		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(createdHash), []byte("password123")))
		assert.Equal(t, "Sita Sharma", profile.FullName)
		assert.Equal(t, 1, rec.registered)
	})

	t.Run("validation failure touches no store", func(t *testing.T) {
		accounts := &mockAccountStore{
			FindByEmailFunc: func(context.Context, string) (*entity.Account, error) {
				t.Fatal("account store must not be read")
				return nil, nil
			},
			CreateFunc: func(context.Context, string, string, bool) (uint, error) {
				t.Fatal("account store must not be written")
				return 0, nil
			},
		}
		regs := &mockRegistrationStore{
			CreateFunc: func(context.Context, uint, entity.Profile) error {
				t.Fatal("registration store must not be written")
				return nil
			},
		}
		uc := NewAuthUsecase(accounts, regs, newMemSessions(), &mockTokenIssuer{}, 0, nil)

		in := validInput()
		in.AboutYourself = words(151)
		err := uc.Register(context.Background(), in)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "about_yourself", verr.Field)
	})

	t.Run("duplicate email", func(t *testing.T) {
		accounts := accountsWith(&entity.Account{ID: 3, Email: "sita@example.com"})
		accounts.CreateFunc = func(context.Context, string, string, bool) (uint, error) {
			t.Fatal("duplicate must not be created")
			return 0, nil
		}
		uc := NewAuthUsecase(accounts, &mockRegistrationStore{}, newMemSessions(), &mockTokenIssuer{}, 0, nil)

		err := uc.Register(context.Background(), validInput())

		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	})

	t.Run("registration write failure", func(t *testing.T) {
		storeErr := errors.New("quota exceeded")
		regs := &mockRegistrationStore{
			CreateFunc: func(context.Context, uint, entity.Profile) error { return storeErr },
		}
		uc := NewAuthUsecase(&mockAccountStore{}, regs, newMemSessions(), &mockTokenIssuer{}, 0, nil)

		err := uc.Register(context.Background(), validInput())

		assert.ErrorIs(t, err, storeErr)
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	hash := hashFor(t, "password123")
	trader := &entity.Account{ID: 7, Email: "trader@example.com", PasswordHash: hash}

	t.Run("approved trader gets a session", func(t *testing.T) {
		regs := &mockRegistrationStore{
			ApprovalFunc: func(context.Context, uint) (bool, bool, error) { return true, true, nil },
		}
		sessions := newMemSessions()
		tokens := &mockTokenIssuer{
			GenerateTokenFunc: func(s *entity.Session) (string, error) { return "token-" + s.ID, nil },
		}
		rec := &countingRecorder{}
		uc := NewAuthUsecase(accountsWith(trader), regs, sessions, tokens, 0, rec)

		res, err := uc.Login(context.Background(), " trader@example.com ", "password123")

		require.NoError(t, err)
		assert.Equal(t, Authenticated, res.Outcome)
		require.NotNil(t, res.Session)
		assert.Equal(t, "token-"+res.Session.ID, res.Token)
		assert.True(t, res.Session.Authenticated)
		assert.Equal(t, trader.ID, res.Session.AccountID)
		assert.Equal(t, 1, rec.logins["authenticated"])

		stored, err := uc.Session(context.Background(), res.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, trader.Email, stored.Email)
	})

	t.Run("pending trader gets no session", func(t *testing.T) {
		sessions := newMemSessions()
		uc := NewAuthUsecase(accountsWith(trader), &mockRegistrationStore{}, sessions, &mockTokenIssuer{}, 0, nil)

		res, err := uc.Login(context.Background(), trader.Email, "password123")

		require.NoError(t, err)
		assert.Equal(t, PendingApproval, res.Outcome)
		assert.Nil(t, res.Session)
		assert.Empty(t, res.Token)
		assert.Empty(t, sessions.data)
	})

	t.Run("token failure removes the session", func(t *testing.T) {
		regs := &mockRegistrationStore{
			ApprovalFunc: func(context.Context, uint) (bool, bool, error) { return true, true, nil },
		}
		sessions := newMemSessions()
		tokens := &mockTokenIssuer{
			GenerateTokenFunc: func(*entity.Session) (string, error) { return "", errors.New("signing failed") },
		}
		uc := NewAuthUsecase(accountsWith(trader), regs, sessions, tokens, 0, nil)

		_, err := uc.Login(context.Background(), trader.Email, "password123")

		assert.Error(t, err)
		assert.Empty(t, sessions.data)
	})
}

func TestAuthUsecase_Logout(t *testing.T) {
	sessions := newMemSessions()
	require.NoError(t, sessions.Create(context.Background(), &entity.Session{ID: "s1", Authenticated: true}, 0))
	uc := NewAuthUsecase(&mockAccountStore{}, &mockRegistrationStore{}, sessions, &mockTokenIssuer{}, 0, nil)

	require.NoError(t, uc.Logout(context.Background(), "s1"))
	_, err := uc.Session(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// 2回目のログアウトも問題ない
	assert.NoError(t, uc.Logout(context.Background(), "s1"))
}
