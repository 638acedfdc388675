// Package google stores the ledger in a Google Sheets worksheet, one expense per row.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pengeluaran/internal/cache"
	"pengeluaran/internal/ledger"
)

const (
	DefaultSheetName = "Expenses"
	DefaultCacheTTL  = 30 * time.Second

	rowsCacheKey = "rows"
	lastColumn   = "G"
)

var ErrIndexOutOfRange = errors.New("row index out of range")

// Config selects the spreadsheet and the credentials used to reach it.
// Service account credentials take precedence over OAuth client credentials.
type Config struct {
	SpreadsheetID string
	SheetName     string

	ServiceAccountJSON string
	ServiceAccountFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string

	CacheTTL time.Duration
}

// Store is a ledger.Store backed by one worksheet. Row 1 is the header;
// ledger index i lives on sheet row i+2.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	mu          sync.Mutex
	headerReady bool
	sheetID     *int64

	rows *cache.LRUCache[[]ledger.Row]
}

var (
	_ ledger.Store       = (*Store)(nil)
	_ ledger.FreshLister = (*Store)(nil)
)

// New builds a Sheets service from cfg credentials and wraps it in a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, cfg.CacheTTL), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, cacheTTL time.Duration) *Store {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Store{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rows:          cache.NewLRUCache[[]ledger.Row](1, cacheTTL),
	}
}

// RowCache exposes the listing cache so it can be registered for cleanup.
func (s *Store) RowCache() *cache.LRUCache[[]ledger.Row] { return s.rows }

// newSheetsService initializes a Sheets Service from service account or OAuth credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	saJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	saFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if saJSON == "" && saFile == "" && cfg.OAuthClientJSON == "" && cfg.OAuthClientFile == "" {
		saFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case saJSON != "" || saFile != "":
		creds := []byte(saJSON)
		if saJSON == "" {
			b, err := os.ReadFile(saFile)
			if err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
			creds = b
		}
		slog.InfoContext(ctx, "Using service account credentials for Google Sheets", "from_file", saJSON == "")
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))

	case cfg.OAuthClientJSON != "" || cfg.OAuthClientFile != "":
		client, err := oauthClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth client credentials for Google Sheets")
		return gsheet.NewService(ctx, goption.WithHTTPClient(client))

	default:
		return nil, errors.New("missing Google credentials (service account or OAuth client + token)")
	}
}

func oauthClient(ctx context.Context, cfg Config) (*http.Client, error) {
	clientJSON, err := jsonOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	oc, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := jsonOrFile(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	tok, err := DecodeToken(tokenJSON)
	if err != nil {
		return nil, err
	}

	// The token source refreshes through the pooled transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return oc.Client(ctx, tok), nil
}

func jsonOrFile(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("neither inline JSON nor file given")
	}
	return os.ReadFile(path)
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// Append implements ledger.Store
func (s *Store) Append(ctx context.Context, row ledger.Row) (int, error) {
	if err := s.ensureHeader(ctx); err != nil {
		return 0, err
	}

	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	// RAW keeps timestamps and amounts as the exact text the codec expects.
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.a1("A:"+lastColumn),
		&gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	s.rows.Delete(rowsCacheKey)
	if err != nil {
		return 0, fmt.Errorf("append to sheet %s: %w", s.sheetName, err)
	}

	var updated string
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	sheetRow, err := firstRowOf(updated)
	if err != nil {
		return 0, fmt.Errorf("resolve appended row: %w", err)
	}

	slog.InfoContext(ctx, "Row appended to Google Sheets", "sheet", s.sheetName, "range", updated)
	return sheetRow - 2, nil
}

// ListAll implements ledger.Store
func (s *Store) ListAll(ctx context.Context) ([]ledger.Row, error) {
	if cached, ok := s.rows.Get(rowsCacheKey); ok {
		return cloneRows(cached), nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A:"+lastColumn)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.sheetName, err)
	}

	var out []ledger.Row
	for i, r := range resp.Values {
		if i == 0 {
			continue // header
		}
		out = append(out, ledger.Row(toStrings(r)))
	}
	s.rows.Set(rowsCacheKey, out)
	return cloneRows(out), nil
}

// ListFresh drops the cached listing and reads the sheet. Rows can be edited
// by hand between calls, so positions handed to Delete come from here.
func (s *Store) ListFresh(ctx context.Context) ([]ledger.Row, error) {
	s.rows.Delete(rowsCacheKey)
	return s.ListAll(ctx)
}

// Delete implements ledger.Store
func (s *Store) Delete(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(index) + 1, // skip header; zero-based, end exclusive
			EndIndex:   int64(index) + 2,
		}},
	}}}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	s.rows.Delete(rowsCacheKey)
	if err != nil {
		return fmt.Errorf("delete sheet row %d: %w", index+2, err)
	}

	slog.InfoContext(ctx, "Row deleted from Google Sheets", "sheet", s.sheetName, "row_index", index)
	return nil
}

// Ping checks the spreadsheet is reachable; used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return err
}

// ensureHeader writes and bolds the header row when the sheet has none.
func (s *Store) ensureHeader(ctx context.Context) error {
	s.mu.Lock()
	ready := s.headerReady
	s.mu.Unlock()
	if ready {
		return nil
	}

	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A1:"+lastColumn+"1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		header := make([]any, len(ledger.Header))
		for i, h := range ledger.Header {
			header[i] = h
		}
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.a1("A1:"+lastColumn+"1"),
			&gsheet.ValueRange{Values: [][]any{header}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := s.boldHeader(ctx, sheetID); err != nil {
			// Formatting is cosmetic.
			slog.WarnContext(ctx, "Failed to format header row", "sheet", s.sheetName, "error", err)
		}
		slog.InfoContext(ctx, "Header row created", "sheet", s.sheetName)
	}

	s.mu.Lock()
	s.headerReady = true
	s.mu.Unlock()
	return nil
}

func (s *Store) boldHeader(ctx context.Context, sheetID int64) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		RepeatCell: &gsheet.RepeatCellRequest{
			Range: &gsheet.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
			Cell: &gsheet.CellData{UserEnteredFormat: &gsheet.CellFormat{
				TextFormat: &gsheet.TextFormat{Bold: true},
			}},
			Fields: "userEnteredFormat.textFormat.bold",
		},
	}}}
	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}

// resolveSheetID finds the numeric id of the worksheet, creating the worksheet when missing.
func (s *Store) resolveSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	if s.sheetID != nil {
		id := *s.sheetID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	var id int64
	found := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			id, found = sh.Properties.SheetId, true
			break
		}
	}
	if !found {
		resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: s.sheetName},
			}}},
		}).Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("create sheet %s: %w", s.sheetName, err)
		}
		if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
			return 0, fmt.Errorf("create sheet %s: empty reply", s.sheetName)
		}
		id = resp.Replies[0].AddSheet.Properties.SheetId
		slog.InfoContext(ctx, "Worksheet created", "sheet", s.sheetName, "sheet_id", id)
	}

	s.mu.Lock()
	s.sheetID = &id
	s.mu.Unlock()
	return id, nil
}

func (s *Store) a1(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.sheetName, "'", "''"), cells)
}

var rowNumberPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// firstRowOf extracts the first row number of an A1 range like "Expenses!A5:G5".
func firstRowOf(a1 string) (int, error) {
	m := rowNumberPattern.FindStringSubmatch(a1)
	if m == nil {
		return 0, fmt.Errorf("no row number in range %q", a1)
	}
	return strconv.Atoi(m[1])
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func cloneRows(in []ledger.Row) []ledger.Row {
	out := make([]ledger.Row, len(in))
	for i, r := range in {
		out[i] = append(ledger.Row(nil), r...)
	}
	return out
}
