// Package google implements the ledger mirror on the Google Sheets API
// using service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"budgettracker/internal/log"
	ports "budgettracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.Ledger = (*Client)(nil)

// Config selects the spreadsheet and credentials. Exactly one of
// CredentialsJSON and CredentialsFile is needed.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	mu      sync.Mutex
	sheetID *int64
}

// New creates a Sheets client authenticated as a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	credentials, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger)
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func readCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// a1 builds an A1 range on the ledger sheet, quoting the sheet name.
func (c *Client) a1(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheetName, "'", "''"), cells)
}

// findRow returns the 1-based row holding id in column A, or 0. It also
// reports whether the sheet is empty.
func (c *Client) findRow(ctx context.Context, id int64) (row int, empty bool, err error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read ids: %w", err)
	}
	want := strconv.FormatInt(id, 10)
	for i, cells := range resp.Values {
		if len(cells) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cells[0])) == want {
			return i + 1, false, nil
		}
	}
	return 0, len(resp.Values) == 0, nil
}

// Upsert rewrites the row of the transaction, appending it when missing.
func (c *Client) Upsert(ctx context.Context, r ports.LedgerRow) error {
	row, empty, err := c.findRow(ctx, r.ID)
	if err != nil {
		return err
	}

	if row > 0 {
		rng := c.a1(fmt.Sprintf("A%d:G%d", row, row))
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng,
			&gsheet.ValueRange{Values: [][]any{r.Values()}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Ledger row updated", log.FieldTransactionID, r.ID, log.FieldSheetsRow, row)
		return nil
	}

	values := [][]any{r.Values()}
	if empty {
		values = append([][]any{ports.Header}, values...)
	}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.a1("A:G"),
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append transaction %d: %w", r.ID, err)
	}
	c.logger.DebugContext(ctx, "Ledger row appended", log.FieldTransactionID, r.ID)
	return nil
}

// Remove deletes the row of transaction id. Unknown ids are ignored.
func (c *Client) Remove(ctx context.Context, id int64) error {
	row, _, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
					// sheetId and startIndex may legitimately be 0.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	c.logger.DebugContext(ctx, "Ledger row removed", log.FieldTransactionID, id, log.FieldSheetsRow, row)
	return nil
}

// lookupSheetID resolves the numeric id of the ledger tab once.
func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
