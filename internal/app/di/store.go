package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authadapters "qrupees/internal/feature/auth/adapters"
	"qrupees/internal/feature/auth/usecase"
	"qrupees/internal/platform/config"
	"qrupees/internal/platform/db"
)

// /healthz で返すレコードバックエンド名
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

const remoteBootTimeout = 15 * time.Second

// RemoteOpener は共有スプレッドシートのバックエンドに接続します。
type RemoteOpener func(ctx context.Context) (usecase.AccountStore, usecase.RegistrationStore, error)

// RecordStores は起動時に選択されたアカウントと登録のバックエンドです。
type RecordStores struct {
	Accounts      usecase.AccountStore
	Registrations usecase.RegistrationStore
	Backend       string
	close         func() error
}

// Close はローカルデータベースを開いていれば解放します。
func (s *RecordStores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// GoogleSheetsOpener は設定されたスプレッドシート用のRemoteOpenerを返します。
func GoogleSheetsOpener(cfg *config.Config) RemoteOpener {
	return func(ctx context.Context) (usecase.AccountStore, usecase.RegistrationStore, error) {
		api, err := authadapters.NewGoogleSheets(ctx, authadapters.SheetsOptions{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsJSON: cfg.Sheets.CredentialsJSON,
			CredentialsFile: cfg.Sheets.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		accounts, registrations, err := authadapters.OpenRemote(ctx, api)
		if err != nil {
			return nil, nil, err
		}
		return accounts, registrations, nil
	}
}

// NewRecordStores はレコードバックエンドを選択します。スプレッドシートが設定されていて
// 到達できればそれを使い、そうでなければローカルデータベースを開きます。
// 管理者アカウントは選択されたバックエンドに作成されます。
func NewRecordStores(ctx context.Context, cfg *config.Config, openRemote RemoteOpener) (*RecordStores, error) {
	stores, err := selectBackend(ctx, cfg, openRemote)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.AdminPassword == config.DefaultAdminPassword {
		slog.Warn("ADMIN_PASSWORD is not set; the administrator uses the default password")
	}
	if err := usecase.EnsureAdmin(ctx, stores.Accounts, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("ensure administrator: %w", err)
	}
	return stores, nil
}

func selectBackend(ctx context.Context, cfg *config.Config, openRemote RemoteOpener) (*RecordStores, error) {
	if cfg.RemoteStoreConfigured() && openRemote != nil {
		rctx, cancel := context.WithTimeout(ctx, remoteBootTimeout)
		accounts, registrations, err := openRemote(rctx)
		cancel()
		if err == nil {
			slog.Info("record backend selected", "backend", BackendRemote)
			return &RecordStores{Accounts: accounts, Registrations: registrations, Backend: BackendRemote}, nil
		}
		slog.Warn("remote record store unreachable, falling back to local database", "error", err)
	}
	return openLocal(cfg)
}

func openLocal(cfg *config.Config) (*RecordStores, error) {
	gdb, err := db.Open(db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := authadapters.Migrate(gdb); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), sqlDB.Close())
	}
	slog.Info("record backend selected", "backend", BackendLocal, "driver", cfg.Database.Driver)
	return &RecordStores{
		Accounts:      authadapters.NewAccountGorm(gdb),
		Registrations: authadapters.NewRegistrationGorm(gdb),
		Backend:       BackendLocal,
		close:         sqlDB.Close,
	}, nil
}
