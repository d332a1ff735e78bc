package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrupees/internal/feature/auth/domain"
	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/usecase"
)

// fakeSheets はインメモリのsheetAPIです。APIが未フォーマット値を返すのと同様に、
// 数値はfloat64で保持します。
type fakeSheets struct {
	sheets  map[string][][]interface{}
	updates []string
	err     error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{sheets: map[string][][]interface{}{}}
}

func (f *fakeSheets) Read(_ context.Context, sheet string) ([][]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sheets[sheet], nil
}

func (f *fakeSheets) Append(_ context.Context, sheet string, row []interface{}) error {
	if f.err != nil {
		return f.err
	}
	stored := make([]interface{}, len(row))
	for i, v := range row {
		switch n := v.(type) {
		case int:
			stored[i] = float64(n)
		case uint:
			stored[i] = float64(n)
		case int64:
			stored[i] = float64(n)
		default:
			stored[i] = v
		}
	}
	f.sheets[sheet] = append(f.sheets[sheet], stored)
	return nil
}

func (f *fakeSheets) UpdateCell(_ context.Context, sheet, cell string, value interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, sheet+"!"+cell)
	col := strings.TrimRight(cell, "0123456789")
	rowNum, err := strconv.Atoi(strings.TrimPrefix(cell, col))
	if err != nil {
		return err
	}
	idx := 0
	for _, c := range col {
		idx = idx*26 + int(c-'A'+1)
	}
	row := f.sheets[sheet][rowNum-1]
	for len(row) < idx {
		row = append(row, "")
	}
	row[idx-1] = fmt.Sprint(value)
	f.sheets[sheet][rowNum-1] = row
	return nil
}

func (f *fakeSheets) EnsureSheet(ctx context.Context, sheet string, header []string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.sheets[sheet]; ok {
		return nil
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return f.Append(ctx, sheet, row)
}

func openFake(t *testing.T) (*fakeSheets, *accountSheets, *registrationSheets) {
	t.Helper()
	api := newFakeSheets()
	accounts, regs, err := OpenRemote(context.Background(), api)
	require.NoError(t, err)
	return api, accounts, regs
}

func TestOpenRemote_CreatesWorksheets(t *testing.T) {
	api, _, _ := openFake(t)

	require.Len(t, api.sheets[usersSheet], 1)
	assert.Equal(t, "is_admin", api.sheets[usersSheet][0][3])
	require.Len(t, api.sheets[registrationsSheet], 1)
	assert.Len(t, api.sheets[registrationsSheet][0], 27)
	assert.Equal(t, "approved", api.sheets[registrationsSheet][0][26])
}

func TestOpenRemote_Unreachable(t *testing.T) {
	api := newFakeSheets()
	api.err = errors.New("403 forbidden")

	_, _, err := OpenRemote(context.Background(), api)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "remote", storeErr.Backend)
}

func TestAccountSheets_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	_, accounts, _ := openFake(t)

	id1, err := accounts.Create(ctx, "admin@qrupees.com", "$2a$hash", true)
	require.NoError(t, err)
	id2, err := accounts.Create(ctx, "trader@example.com", "$2a$other", false)
	require.NoError(t, err)
	assert.Equal(t, uint(1), id1)
	assert.Equal(t, uint(2), id2)

	dup, err := accounts.Create(ctx, "admin@qrupees.com", "ignored", false)
	require.NoError(t, err)
	assert.Equal(t, id1, dup)

	got, err := accounts.FindByEmail(ctx, "admin@qrupees.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.Account{ID: 1, Email: "admin@qrupees.com", PasswordHash: "$2a$hash", IsAdmin: true}, got)

	_, err = accounts.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, usecase.ErrAccountNotFound)
}

func TestAccountSheets_IDsFollowHighestRow(t *testing.T) {
	ctx := context.Background()
	api, accounts, _ := openFake(t)
	// 手動で削除された行は欠番になる
	api.sheets[usersSheet] = append(api.sheets[usersSheet], []interface{}{float64(5), "old@example.com", "h", float64(0)})

	id, err := accounts.Create(ctx, "new@example.com", "h", false)

	require.NoError(t, err)
	assert.Equal(t, uint(6), id)
}

func TestRegistrationSheets_Lifecycle(t *testing.T) {
	ctx := context.Background()
	api, accounts, regs := openFake(t)

	accountID, err := accounts.Create(ctx, "sita@example.com", "h", false)
	require.NoError(t, err)

	require.NoError(t, regs.Create(ctx, accountID, entity.Profile{
		FullName:       "Sita Sharma",
		GraduationYear: null.IntFrom(2018),
		Consent:        true,
	}))
	assert.ErrorIs(t, regs.Create(ctx, accountID, entity.Profile{}), usecase.ErrEmailAlreadyRegistered)

	approved, found, err := regs.Approval(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, approved)

	pending, err := regs.ListPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.PendingRegistration{{RegistrationID: 1, Email: "sita@example.com", FullName: "Sita Sharma"}}, pending)

	require.NoError(t, regs.Approve(ctx, 1))
	require.NoError(t, regs.Approve(ctx, 1))
	assert.Equal(t, []string{"Registrations!AA2"}, api.updates, "second approval must not write")

	approved, _, err = regs.Approval(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, approved)

	pending, err = regs.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, regs.Approve(ctx, 42), usecase.ErrRegistrationNotFound)
}

func TestRegistrationSheets_UnknownAccountEmail(t *testing.T) {
	ctx := context.Background()
	_, _, regs := openFake(t)

	require.NoError(t, regs.Create(ctx, 9, entity.Profile{FullName: "Orphan"}))

	pending, err := regs.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Unknown", pending[0].Email)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(1))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
	assert.Equal(t, "AZ", columnName(52))
	assert.Equal(t, "BA", columnName(53))
}
