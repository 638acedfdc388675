package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pengeluaran/internal/ledger"
)

// fakeSheets emulates the few Sheets endpoints the store calls.
type fakeSheets struct {
	mu        sync.Mutex
	rows      [][]string
	reads     int
	deletes   []int64
	boldCalls int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, q := range req.Requests {
			if q.DeleteDimension != nil {
				start, end := q.DeleteDimension.Range.StartIndex, q.DeleteDimension.Range.EndIndex
				f.deletes = append(f.deletes, start)
				f.rows = append(f.rows[:start], f.rows[end:]...)
			}
			if q.RepeatCell != nil {
				f.boldCalls++
			}
		}
		writeJSON(w, map[string]any{"spreadsheetId": "sid"})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		for _, row := range vr.Values {
			f.rows = append(f.rows, toStrings(row))
		}
		n := len(f.rows)
		writeJSON(w, map[string]any{"updates": map[string]any{"updatedRange": fmt.Sprintf("'Expenses'!A%d:G%d", n, n)}})

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		header := toStrings(vr.Values[0])
		if len(f.rows) == 0 {
			f.rows = append(f.rows, header)
		} else {
			f.rows[0] = header
		}
		writeJSON(w, map[string]any{})

	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		var values [][]string
		if strings.HasSuffix(path, "A1:G1") {
			if len(f.rows) > 0 {
				values = f.rows[:1]
			}
		} else {
			f.reads++
			values = f.rows
		}
		writeJSON(w, map[string]any{"values": values})

	case r.Method == http.MethodGet:
		writeJSON(w, map[string]any{
			"spreadsheetId": "sid",
			"sheets":        []any{map[string]any{"properties": map[string]any{"sheetId": 7, "title": "Expenses"}}},
		})

	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sid", "", ttl), fake
}

func sample(item string) ledger.Row {
	return ledger.Row{"2024-03-15 10:00:00", "1", "Budi", "25000", item, "", "🍔 Makanan"}
}

func TestAppendCreatesHeaderAndReturnsIndex(t *testing.T) {
	s, fake := newTestStore(t, time.Minute)
	ctx := context.Background()

	for i, item := range []string{"nasi", "bakso"} {
		idx, err := s.Append(ctx, sample(item))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if idx != i {
			t.Fatalf("append %s: index %d, want %d", item, idx, i)
		}
	}

	if len(fake.rows) != 3 || fake.rows[0][0] != "Timestamp" || fake.rows[0][6] != "Category" {
		t.Fatalf("header not written: %v", fake.rows)
	}
	if fake.boldCalls != 1 {
		t.Fatalf("expected header formatting once, got %d", fake.boldCalls)
	}

	rows, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[1][ledger.ColItem] != "bakso" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestListAllUsesCacheUntilWrite(t *testing.T) {
	s, fake := newTestStore(t, time.Minute)
	ctx := context.Background()

	if _, err := s.Append(ctx, sample("nasi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.ListAll(ctx)
	s.ListAll(ctx)
	if fake.reads != 1 {
		t.Fatalf("expected one sheet read, got %d", fake.reads)
	}

	if _, err := s.Append(ctx, sample("soto")); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows, _ := s.ListAll(ctx)
	if fake.reads != 2 || len(rows) != 2 {
		t.Fatalf("write should invalidate cache: reads=%d rows=%d", fake.reads, len(rows))
	}

	rows[0][0] = "mutated"
	again, _ := s.ListAll(ctx)
	if again[0][0] == "mutated" {
		t.Fatalf("cached rows leaked to caller")
	}
}

func TestDeleteRemovesSheetRow(t *testing.T) {
	s, fake := newTestStore(t, time.Minute)
	ctx := context.Background()

	for _, item := range []string{"nasi", "bakso", "soto"} {
		if _, err := s.Append(ctx, sample(item)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.deletes) != 1 || fake.deletes[0] != 2 {
		t.Fatalf("expected grid row 2 deleted, got %v", fake.deletes)
	}

	rows, _ := s.ListAll(ctx)
	if len(rows) != 2 || rows[0][ledger.ColItem] != "nasi" || rows[1][ledger.ColItem] != "soto" {
		t.Fatalf("unexpected rows after delete: %v", rows)
	}

	if err := s.Delete(ctx, -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestDeleteLastReadsLiveSheet(t *testing.T) {
	s, fake := newTestStore(t, time.Minute)
	ctx := context.Background()

	mine := sample("nasi")
	theirs := ledger.Row{"2024-03-15 11:00:00", "2", "Sari", "15000", "bakso", "", "🍔 Makanan"}
	for _, r := range []ledger.Row{mine, theirs} {
		if _, err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if rows, _ := s.ListAll(ctx); len(rows) != 2 {
		t.Fatalf("expected warm cache with 2 rows, got %d", len(rows))
	}

	// Someone removes owner 1's row directly in the spreadsheet.
	fake.mu.Lock()
	fake.rows = append(fake.rows[:1], fake.rows[2:]...)
	fake.mu.Unlock()

	e := ledger.NewEngine(s, ledger.WithLocation(time.UTC))
	if _, err := e.DeleteLast(ctx, "1"); !errors.Is(err, ledger.ErrNoEntry) {
		t.Fatalf("expected no entry for owner 1, got %v", err)
	}
	if len(fake.deletes) != 0 {
		t.Fatalf("no sheet row should be deleted, got %v", fake.deletes)
	}
	if len(fake.rows) != 2 || fake.rows[1][ledger.ColOwnerID] != "2" {
		t.Fatalf("owner 2's row must survive: %v", fake.rows)
	}
}

func TestListFreshBypassesCache(t *testing.T) {
	s, fake := newTestStore(t, time.Minute)
	ctx := context.Background()

	if _, err := s.Append(ctx, sample("nasi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.ListAll(ctx)
	s.ListFresh(ctx)
	if fake.reads != 2 {
		t.Fatalf("ListFresh should read the sheet, reads=%d", fake.reads)
	}
	s.ListAll(ctx)
	if fake.reads != 2 {
		t.Fatalf("ListFresh should refill the cache, reads=%d", fake.reads)
	}
}

func TestFirstRowOf(t *testing.T) {
	cases := map[string]int{
		"'Expenses'!A5:G5":  5,
		"Expenses!A12:G12":  12,
		"'My Sheet'!A2":     2,
	}
	for in, want := range cases {
		got, err := firstRowOf(in)
		if err != nil || got != want {
			t.Fatalf("firstRowOf(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := firstRowOf("bogus"); err == nil {
		t.Fatalf("expected error for range without row")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without spreadsheet id")
	}
}

func TestNewRejectsBadOAuthClient(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sid",
		OAuthClientJSON: "invalid-json",
		OAuthTokenJSON:  `{"access_token":"x"}`,
	})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := jsonOrFile("", path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := DecodeToken(b)
	if err != nil || got.RefreshToken != "r" {
		t.Fatalf("decode: %+v %v", got, err)
	}

	if _, err := DecodeToken([]byte(`{}`)); err == nil {
		t.Fatalf("empty token should be rejected")
	}
}
