// Package adapters はauthフィーチャーのレコードバックエンドを提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"qrupees/internal/feature/auth/domain"
	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/usecase"
)

const (
	backendLocal = "local"
	// unknownEmail はアカウント行が存在しない登録に表示されます。
	unknownEmail = "Unknown"
)

// pgUniqueViolation は一意制約違反を表すPostgresのSQLSTATEです。
const pgUniqueViolation = "23505"

// accountGorm はusecase.AccountStoreのリレーショナル実装です。
type accountGorm struct {
	db *gorm.DB
}

// registrationGorm はusecase.RegistrationStoreのリレーショナル実装です。
type registrationGorm struct {
	db *gorm.DB
}

// コンパイル時のインターフェースチェック
var (
	_ usecase.AccountStore      = (*accountGorm)(nil)
	_ usecase.RegistrationStore = (*registrationGorm)(nil)
)

// Migrate はusersテーブルとregistrationsテーブルを作成または更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userModel{}, &registrationModel{}); err != nil {
		return localErr("migrate", err)
	}
	return nil
}

// NewAccountGorm はdbを使うAccountStoreを生成します。
func NewAccountGorm(db *gorm.DB) *accountGorm {
	return &accountGorm{db: db}
}

// NewRegistrationGorm はdbを使うRegistrationStoreを生成します。
func NewRegistrationGorm(db *gorm.DB) *registrationGorm {
	return &registrationGorm{db: db}
}

// FindByEmail は一致する行がない場合usecase.ErrAccountNotFoundを返します。
func (r *accountGorm) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrAccountNotFound
		}
		return nil, localErr("find account", err)
	}
	return m.toEntity(), nil
}

// Create はアカウントを挿入します。メールアドレスが重複する場合は既存の行を変更せず、
// そのIDを返します。
func (r *accountGorm) Create(ctx context.Context, email, passwordHash string, isAdmin bool) (uint, error) {
	m := userModel{Email: email, Password: passwordHash, IsAdmin: isAdmin}
	err := r.db.WithContext(ctx).Create(&m).Error
	if err == nil {
		return m.ID, nil
	}
	if !isUniqueViolation(err) {
		return 0, localErr("create account", err)
	}
	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// Approval はアカウントの登録の承認フラグを返します。
func (r *registrationGorm) Approval(ctx context.Context, accountID uint) (bool, bool, error) {
	var m registrationModel
	err := r.db.WithContext(ctx).Select("approved").Where("user_id = ?", accountID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, localErr("find registration", err)
	}
	return m.Approved, true, nil
}

// Create は未承認の登録を挿入します。
func (r *registrationGorm) Create(ctx context.Context, accountID uint, profile entity.Profile) error {
	if err := r.db.WithContext(ctx).Create(newRegistrationModel(accountID, profile)).Error; err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrEmailAlreadyRegistered
		}
		return localErr("create registration", err)
	}
	return nil
}

// ListPending は未承認の登録をID順に返します。
func (r *registrationGorm) ListPending(ctx context.Context) ([]entity.PendingRegistration, error) {
	var rows []struct {
		ID       uint
		Email    string
		FullName string
	}
	err := r.db.WithContext(ctx).
		Table("registrations").
		Select("registrations.id AS id, COALESCE(users.email, ?) AS email, registrations.full_name AS full_name", unknownEmail).
		Joins("LEFT JOIN users ON users.id = registrations.user_id").
		Where("registrations.approved = ?", false).
		Order("registrations.id").
		Scan(&rows).Error
	if err != nil {
		return nil, localErr("list pending", err)
	}

	out := make([]entity.PendingRegistration, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.PendingRegistration{RegistrationID: row.ID, Email: row.Email, FullName: row.FullName})
	}
	return out, nil
}

// Approve は承認フラグを立てます。2回承認しても何も変わりません。
func (r *registrationGorm) Approve(ctx context.Context, registrationID uint) error {
	res := r.db.WithContext(ctx).Model(&registrationModel{}).
		Where("id = ?", registrationID).
		Update("approved", true)
	if res.Error != nil {
		return localErr("approve", res.Error)
	}
	// フラグが既に立っていても一致した行は数えられる
	if res.RowsAffected == 0 {
		return usecase.ErrRegistrationNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func localErr(op string, err error) error {
	return &domain.StoreError{Backend: backendLocal, Op: op, Err: err}
}
