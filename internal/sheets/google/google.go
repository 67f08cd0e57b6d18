package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var (
	_ ports.JournalWriter = (*Journal)(nil)
	_ ports.JournalReader = (*Journal)(nil)
)

// Journal appends transaction events to a sheet of a Google spreadsheet.
type Journal struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewJournal creates a journal authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewJournal(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Journal, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Journal{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// EnsureHeader writes the header row when the first row of the sheet is empty.
func (j *Journal) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:%s1", j.sheetName, lastColumn())
	resp, err := j.svc.Spreadsheets.Values.Get(j.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{toValues(ports.Header)}}
	if _, err := j.svc.Spreadsheets.Values.Update(j.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header to %s: %w", j.sheetName, err)
	}
	return nil
}

// AppendEvent appends one row after the last non-empty row and returns its range.
func (j *Journal) AppendEvent(ctx context.Context, ev core.TransactionEvent) (string, error) {
	rng := fmt.Sprintf("%s!A:%s", j.sheetName, lastColumn())
	vr := &gsheet.ValueRange{Values: [][]any{toValues(ports.Row(ev))}}

	resp, err := j.svc.Spreadsheets.Values.Append(j.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", j.sheetName, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// Rows reads every journal row below the header.
func (j *Journal) Rows(ctx context.Context) ([][]string, error) {
	rng := fmt.Sprintf("%s!A2:%s", j.sheetName, lastColumn())
	resp, err := j.svc.Spreadsheets.Values.Get(j.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cols := toStrings(row)
		if len(cols) == 0 {
			continue
		}
		out = append(out, cols)
	}
	return out, nil
}

func lastColumn() string {
	return string(rune('A' + len(ports.Header) - 1))
}

func toValues(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
