package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrupees/internal/feature/auth/domain/entity"
)

var adminSession = &entity.Session{ID: "a", AccountID: 1, Email: "admin@qrupees.com", IsAdmin: true, Authenticated: true}

func TestAdminUsecase_Approve(t *testing.T) {
	t.Run("idempotent approval", func(t *testing.T) {
		approved := map[uint]bool{5: false}
		regs := &mockRegistrationStore{
			ApproveFunc: func(_ context.Context, id uint) error {
				if _, ok := approved[id]; !ok {
					return ErrRegistrationNotFound
				}
				approved[id] = true
				return nil
			},
		}
		rec := &countingRecorder{}
		uc := NewAdminUsecase(regs, rec)

		require.NoError(t, uc.Approve(context.Background(), adminSession, 5))
		require.NoError(t, uc.Approve(context.Background(), adminSession, 5))

		assert.True(t, approved[5])
		assert.Equal(t, 2, rec.approved)
	})

	t.Run("unknown registration", func(t *testing.T) {
		regs := &mockRegistrationStore{
			ApproveFunc: func(context.Context, uint) error { return ErrRegistrationNotFound },
		}
		err := NewAdminUsecase(regs, nil).Approve(context.Background(), adminSession, 99)
		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		regs := &mockRegistrationStore{
			ApproveFunc: func(context.Context, uint) error {
				t.Fatal("store must not be written")
				return nil
			},
		}
		trader := &entity.Session{ID: "t", AccountID: 2, Authenticated: true}
		err := NewAdminUsecase(regs, nil).Approve(context.Background(), trader, 5)
		assert.ErrorIs(t, err, ErrForbidden)

		err = NewAdminUsecase(regs, nil).Approve(context.Background(), nil, 5)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestAdminUsecase_ListPending(t *testing.T) {
	want := []entity.PendingRegistration{{RegistrationID: 5, Email: "t@example.com", FullName: "T"}}
	regs := &mockRegistrationStore{
		ListPendingFunc: func(context.Context) ([]entity.PendingRegistration, error) { return want, nil },
	}
	uc := NewAdminUsecase(regs, nil)

	got, err := uc.ListPending(context.Background(), adminSession)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = uc.ListPending(context.Background(), &entity.Session{Authenticated: true})
	assert.ErrorIs(t, err, ErrForbidden)
}
