package adapters

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// sheetAPI はリモートバックエンドが使うスプレッドシートサービスの一部です。
// 値は先頭行をヘッダーとして返されます。
type sheetAPI interface {
	Read(ctx context.Context, sheet string) ([][]interface{}, error)
	Append(ctx context.Context, sheet string, row []interface{}) error
	UpdateCell(ctx context.Context, sheet, cell string, value interface{}) error
	EnsureSheet(ctx context.Context, sheet string, header []string) error
}

// SheetsOptions はGoogle Sheetsクライアントの設定です。
type SheetsOptions struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// googleSheets はSheets v4 APIによるsheetAPIの実装です。
type googleSheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

var _ sheetAPI = (*googleSheets)(nil)

// NewGoogleSheets はサービスアカウントの認証情報でSheetsクライアントを生成します。
func NewGoogleSheets(ctx context.Context, opts SheetsOptions) (*googleSheets, error) {
	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case opts.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	default:
		return nil, fmt.Errorf("sheets: no credentials configured")
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &googleSheets{svc: svc, spreadsheetID: opts.SpreadsheetID}, nil
}

func (g *googleSheets) Read(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, sheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleSheets) Append(ctx context.Context, sheet string, row []interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, sheet, &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (g *googleSheets) UpdateCell(ctx context.Context, sheet, cell string, value interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, sheet+"!"+cell, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// EnsureSheet はワークシートがなければヘッダー行付きで作成します。
func (g *googleSheets) EnsureSheet(ctx context.Context, sheet string, header []string) error {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return err
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return nil
		}
	}

	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: sheet,
					GridProperties: &sheets.GridProperties{
						RowCount:    1000,
						ColumnCount: int64(len(header)),
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return err
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return g.Append(ctx, sheet, row)
}
