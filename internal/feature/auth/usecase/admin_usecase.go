package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"qrupees/internal/feature/auth/domain/entity"
)

// AdminUsecase は管理者の承認キューを扱います。
type AdminUsecase struct {
	registrations RegistrationStore
	recorder      Recorder
}

// NewAdminUsecase はAdminUsecaseを生成します。recorderはnilでも構いません。
func NewAdminUsecase(registrations RegistrationStore, recorder Recorder) *AdminUsecase {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &AdminUsecase{registrations: registrations, recorder: recorder}
}

// ListPending は承認待ちの登録を返します。
func (u *AdminUsecase) ListPending(ctx context.Context, actor *entity.Session) ([]entity.PendingRegistration, error) {
	if !isAdmin(actor) {
		return nil, ErrForbidden
	}
	return u.registrations.ListPending(ctx)
}

// Approve は登録を承認済みにします。冪等です。
func (u *AdminUsecase) Approve(ctx context.Context, actor *entity.Session, registrationID uint) error {
	if !isAdmin(actor) {
		return ErrForbidden
	}
	if err := u.registrations.Approve(ctx, registrationID); err != nil {
		return fmt.Errorf("approve registration %d: %w", registrationID, err)
	}
	u.recorder.Approved()
	slog.Info("registration approved", "registration_id", registrationID, "by", actor.Email)
	return nil
}

func isAdmin(s *entity.Session) bool {
	return s != nil && s.Authenticated && s.IsAdmin
}
