package adapters

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/guregu/null/v6"

	"qrupees/internal/feature/auth/domain"
	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/usecase"
)

const (
	backendRemote = "remote"

	usersSheet         = "Users"
	registrationsSheet = "Registrations"
)

var usersHeader = []string{"id", "email", "password", "is_admin"}

var registrationsHeader = []string{
	"id", "user_id", "full_name", "phone", "address", "city", "state", "zip_code",
	"country", "highest_degree", "field_of_study", "university", "graduation_year",
	"certifications", "trading_duration", "trading_style", "markets", "specializations",
	"current_occupation", "company", "years_of_experience", "linkedin", "about_yourself",
	"goals", "references", "consent", "approved",
}

// sheetsBackend はリモートストアが共有するワークシートクライアントを保持します。
// 書き込みを直列化し、プロセス内でmax(id)+1が一意になるようにします。
type sheetsBackend struct {
	api sheetAPI
	mu  sync.Mutex
}

// accountSheets はusecase.AccountStoreのスプレッドシート実装です。
type accountSheets struct{ b *sheetsBackend }

// registrationSheets はusecase.RegistrationStoreのスプレッドシート実装です。
type registrationSheets struct{ b *sheetsBackend }

var (
	_ usecase.AccountStore      = (*accountSheets)(nil)
	_ usecase.RegistrationStore = (*registrationSheets)(nil)
)

// OpenRemote はスプレッドシートに到達できることを確認し、不足しているワークシートを作成して
// 2つのストアを返します。
func OpenRemote(ctx context.Context, api sheetAPI) (*accountSheets, *registrationSheets, error) {
	if err := api.EnsureSheet(ctx, usersSheet, usersHeader); err != nil {
		return nil, nil, remoteErr("open "+usersSheet, err)
	}
	if err := api.EnsureSheet(ctx, registrationsSheet, registrationsHeader); err != nil {
		return nil, nil, remoteErr("open "+registrationsSheet, err)
	}
	b := &sheetsBackend{api: api}
	return &accountSheets{b: b}, &registrationSheets{b: b}, nil
}

// record はヘッダー名をキーとするワークシートのデータ行です。
type record struct {
	row    int // 1始まりのシート行番号
	fields map[string]string
}

func (r record) str(key string) string { return r.fields[key] }

func (r record) id(key string) uint {
	n, _ := strconv.ParseFloat(r.fields[key], 64)
	return uint(n)
}

func (r record) flag(key string) bool {
	switch strings.ToLower(r.fields[key]) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (b *sheetsBackend) records(ctx context.Context, sheet string) ([]record, error) {
	values, err := b.api.Read(ctx, sheet)
	if err != nil {
		return nil, remoteErr("read "+sheet, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(h))
	}
	out := make([]record, 0, len(values)-1)
	for i, row := range values[1:] {
		fields := make(map[string]string, len(header))
		for j, name := range header {
			if j < len(row) && row[j] != nil {
				fields[name] = strings.TrimSpace(fmt.Sprint(row[j]))
			}
		}
		out = append(out, record{row: i + 2, fields: fields})
	}
	return out, nil
}

func nextID(recs []record) uint {
	var highest uint
	for _, r := range recs {
		if id := r.id("id"); id > highest {
			highest = id
		}
	}
	return highest + 1
}

func (s *accountSheets) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	recs, err := s.b.records(ctx, usersSheet)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.str("email") == email {
			return &entity.Account{ID: r.id("id"), Email: email, PasswordHash: r.str("password"), IsAdmin: r.flag("is_admin")}, nil
		}
	}
	return nil, usecase.ErrAccountNotFound
}

// Create はアカウント行を追加します。メールアドレスが重複する場合は既存のIDを返します。
func (s *accountSheets) Create(ctx context.Context, email, passwordHash string, isAdmin bool) (uint, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	recs, err := s.b.records(ctx, usersSheet)
	if err != nil {
		return 0, err
	}
	for _, r := range recs {
		if r.str("email") == email {
			return r.id("id"), nil
		}
	}

	id := nextID(recs)
	if err := s.b.api.Append(ctx, usersSheet, []interface{}{id, email, passwordHash, boolCell(isAdmin)}); err != nil {
		return 0, remoteErr("append "+usersSheet, err)
	}
	return id, nil
}

func (s *registrationSheets) Approval(ctx context.Context, accountID uint) (bool, bool, error) {
	recs, err := s.b.records(ctx, registrationsSheet)
	if err != nil {
		return false, false, err
	}
	for _, r := range recs {
		if r.id("user_id") == accountID {
			return r.flag("approved"), true, nil
		}
	}
	return false, false, nil
}

func (s *registrationSheets) Create(ctx context.Context, accountID uint, p entity.Profile) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	recs, err := s.b.records(ctx, registrationsSheet)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.id("user_id") == accountID {
			return usecase.ErrEmailAlreadyRegistered
		}
	}

	row := []interface{}{
		nextID(recs), accountID, p.FullName, p.Phone, p.Address, p.City, p.State, p.ZipCode,
		p.Country, p.HighestDegree, p.FieldOfStudy, p.University, nullIntCell(p.GraduationYear),
		p.Certifications, p.TradingDuration, p.TradingStyle, p.Markets, p.Specializations,
		p.CurrentOccupation, p.Company, p.YearsOfExperience, p.LinkedIn, p.AboutYourself,
		p.Goals, p.References, boolCell(p.Consent), 0,
	}
	if err := s.b.api.Append(ctx, registrationsSheet, row); err != nil {
		return remoteErr("append "+registrationsSheet, err)
	}
	return nil
}

func (s *registrationSheets) ListPending(ctx context.Context) ([]entity.PendingRegistration, error) {
	regs, err := s.b.records(ctx, registrationsSheet)
	if err != nil {
		return nil, err
	}
	users, err := s.b.records(ctx, usersSheet)
	if err != nil {
		return nil, err
	}
	emails := make(map[uint]string, len(users))
	for _, u := range users {
		emails[u.id("id")] = u.str("email")
	}

	out := []entity.PendingRegistration{}
	for _, r := range regs {
		if r.flag("approved") {
			continue
		}
		email, ok := emails[r.id("user_id")]
		if !ok {
			email = unknownEmail
		}
		out = append(out, entity.PendingRegistration{RegistrationID: r.id("id"), Email: email, FullName: r.str("full_name")})
	}
	return out, nil
}

// Approve は登録行の承認セルを書き込みます。
func (s *registrationSheets) Approve(ctx context.Context, registrationID uint) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	recs, err := s.b.records(ctx, registrationsSheet)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.id("id") != registrationID {
			continue
		}
		if r.flag("approved") {
			return nil
		}
		cell := columnName(approvedColumn) + strconv.Itoa(r.row)
		if err := s.b.api.UpdateCell(ctx, registrationsSheet, cell, 1); err != nil {
			return remoteErr("approve", err)
		}
		return nil
	}
	return usecase.ErrRegistrationNotFound
}

// approvedColumn は承認フラグの列番号（1始まり）です。
var approvedColumn = len(registrationsHeader)

// columnName は1始まりの列番号をスプレッドシートの列名に変換します（27 -> AA）。
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func boolCell(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullIntCell(v null.Int) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Int64
}

func remoteErr(op string, err error) error {
	return &domain.StoreError{Backend: backendRemote, Op: op, Err: err}
}
