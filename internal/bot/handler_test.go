package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pengeluaran/internal/core"
	"pengeluaran/internal/ledger"
	"pengeluaran/internal/ledger/memory"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	docs     []tgbotapi.DocumentConfig
	actions  []string
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		f.messages = append(f.messages, v)
	case tgbotapi.DocumentConfig:
		f.docs = append(f.docs, v)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := c.(tgbotapi.ChatActionConfig); ok {
		f.actions = append(f.actions, a.Action)
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	if len(f.messages) == 0 {
		t.Fatalf("no reply sent")
	}
	return f.messages[len(f.messages)-1].Text
}

var wib = time.FixedZone("WIB", 7*3600)

func setup(t *testing.T, rows ...ledger.Row) (*Handler, *fakeSender, *memory.Store) {
	t.Helper()
	store := memory.New(rows...)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, wib)
	engine := ledger.NewEngine(store,
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithLocation(wib))
	sender := &fakeSender{}
	return NewHandler(sender, engine, nil), sender, store
}

func update(userID int64, name, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			From:      &tgbotapi.User{ID: userID, FirstName: name},
			Chat:      &tgbotapi.Chat{ID: 500},
			Text:      text,
		},
	}
}

func TestHandleExpenseRecordsAndReplies(t *testing.T) {
	h, sender, store := setup(t)
	ctx := context.Background()

	if err := h.HandleUpdate(ctx, update(42, "Budi", "25k naspad rendang - tambah telur")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored row, got %d", store.Len())
	}
	rows, _ := store.ListAll(ctx)
	if rows[0][ledger.ColOwnerID] != "42" || rows[0][ledger.ColOwnerName] != "Budi" || rows[0][ledger.ColAmount] != "25000" {
		t.Fatalf("unexpected row: %v", rows[0])
	}

	reply := sender.last(t)
	for _, want := range []string{"Pengeluaran tercatat", "Rp 25.000", "naspad rendang", "tambah telur", "🍔 Makanan", "Total hari ini: <b>Rp 25.000</b> (1 transaksi)"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("reply missing %q:\n%s", want, reply)
		}
	}
	msg := sender.messages[0]
	if msg.ParseMode != tgbotapi.ModeHTML || msg.ReplyToMessageID != 10 {
		t.Fatalf("reply not HTML threaded: %+v", msg)
	}
	if len(sender.actions) == 0 || sender.actions[0] != tgbotapi.ChatTyping {
		t.Fatalf("expected typing action, got %v", sender.actions)
	}
}

func TestHandleExpenseRunningTotalPerOwner(t *testing.T) {
	h, sender, _ := setup(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, update(1, "Ani", "10k kopi"))
	h.HandleUpdate(ctx, update(2, "Budi", "99k pizza"))
	h.HandleUpdate(ctx, update(1, "Ani", "5k roti"))

	if reply := sender.last(t); !strings.Contains(reply, "Rp 15.000</b> (2 transaksi)") {
		t.Fatalf("running total should be scoped to the sender:\n%s", reply)
	}
}

func TestHandleExpenseEscapesHTML(t *testing.T) {
	h, sender, _ := setup(t)
	h.HandleUpdate(context.Background(), update(1, "<Ani>", "10k <b>kopi</b>"))
	reply := sender.last(t)
	if strings.Contains(reply, "<b>kopi</b>") || !strings.Contains(reply, "&lt;b&gt;kopi&lt;/b&gt;") {
		t.Fatalf("user text not escaped:\n%s", reply)
	}
}

func TestHandleUnparsable(t *testing.T) {
	h, sender, store := setup(t)
	h.HandleUpdate(context.Background(), update(1, "Ani", "halo bot"))
	if store.Len() != 0 {
		t.Fatalf("nothing should be stored")
	}
	if !strings.Contains(sender.last(t), "Format tidak dikenali") {
		t.Fatalf("expected guidance message, got %q", sender.last(t))
	}
}

func TestSummaryCommands(t *testing.T) {
	h, sender, _ := setup(t,
		ledger.Row{"2024-03-15 08:00:00", "1", "Ani", "1000", "kopi", "", string(core.Minuman)},
		ledger.Row{"2024-03-15 09:00:00", "1", "Ani", "3000", "nasi", "pedas", string(core.Makanan)},
		ledger.Row{"2024-03-15 09:30:00", "2", "Budi", "7000", "grab", "", string(core.Transportasi)},
		ledger.Row{"2024-01-02 09:00:00", "1", "Ani", "6000", "bakso", "", string(core.Makanan)},
	)
	ctx := context.Background()

	h.HandleUpdate(ctx, update(1, "Ani", "/today"))
	today := sender.last(t)
	for _, want := range []string{"Pengeluaran Hari Ini", "Rp 4.000", "Transaksi: <b>2</b>", "🍔 Makanan: Rp 3.000 (75%)", "☕ Minuman: Rp 1.000 (25%)", "<i>(pedas)</i>", "[2024-03-15]"} {
		if !strings.Contains(today, want) {
			t.Fatalf("today summary missing %q:\n%s", want, today)
		}
	}
	if strings.Contains(today, "grab") {
		t.Fatalf("other owners leaked into summary")
	}

	h.HandleUpdate(ctx, update(1, "Ani", "/q1@pengeluaran_bot"))
	if q1 := sender.last(t); !strings.Contains(q1, "Pengeluaran Q1 (Jan-Mar)") || !strings.Contains(q1, "Rp 10.000") {
		t.Fatalf("unexpected q1 summary:\n%s", q1)
	}

	h.HandleUpdate(ctx, update(1, "Ani", "/Q2"))
	if q2 := sender.last(t); !strings.Contains(q2, "📭 <b>Pengeluaran Q2 (Apr-Jun)</b>") || !strings.Contains(q2, "Belum ada pengeluaran tercatat.") {
		t.Fatalf("expected empty q2 notice:\n%s", q2)
	}
}

func TestSummaryShowsOlderCount(t *testing.T) {
	var rows []ledger.Row
	for i := 0; i < 7; i++ {
		rows = append(rows, ledger.Row{"2024-03-15 08:00:00", "1", "Ani", "1000", "kopi", "", string(core.Minuman)})
	}
	h, sender, _ := setup(t, rows...)
	h.HandleUpdate(context.Background(), update(1, "Ani", "/month"))
	if !strings.Contains(sender.last(t), "...dan 2 transaksi lainnya") {
		t.Fatalf("missing older count:\n%s", sender.last(t))
	}
}

func TestDeleteCommand(t *testing.T) {
	h, sender, store := setup(t,
		ledger.Row{"2024-03-15 08:00:00", "1", "Ani", "1000", "kopi", "", string(core.Minuman)},
		ledger.Row{"2024-03-15 09:00:00", "2", "Budi", "7000", "grab", "", string(core.Transportasi)},
	)
	ctx := context.Background()

	h.HandleUpdate(ctx, update(1, "Ani", "/delete"))
	if reply := sender.last(t); !strings.Contains(reply, "Entri terakhir dihapus") || !strings.Contains(reply, "kopi") {
		t.Fatalf("unexpected delete reply:\n%s", reply)
	}
	if store.Len() != 1 {
		t.Fatalf("expected Budi's row to remain")
	}

	h.HandleUpdate(ctx, update(1, "Ani", "/delete"))
	if reply := sender.last(t); reply != msgNothingToDelete {
		t.Fatalf("expected nothing-to-delete notice, got %q", reply)
	}
}

func TestReportCommands(t *testing.T) {
	h, sender, _ := setup(t,
		ledger.Row{"2024-03-15 08:00:00", "1", "Ani", "1000", "kopi", "", string(core.Minuman)},
	)
	ctx := context.Background()

	if err := h.HandleUpdate(ctx, update(1, "Ani", "/report")); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := h.HandleUpdate(ctx, update(1, "Ani", "/export")); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(sender.docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(sender.docs))
	}
	pdf := sender.docs[0]
	if !strings.Contains(pdf.Caption, "Laporan Pengeluaran — Maret 2024") || !strings.Contains(pdf.Caption, "Rp 1.000") {
		t.Fatalf("unexpected caption: %q", pdf.Caption)
	}
	if f, ok := pdf.File.(tgbotapi.FileBytes); !ok || f.Name != "Laporan_Ani_2024_03.pdf" || len(f.Bytes) == 0 {
		t.Fatalf("unexpected pdf file: %#v", pdf.File)
	}
	if f, ok := sender.docs[1].File.(tgbotapi.FileBytes); !ok || f.Name != "Laporan_Ani_2024_03.xlsx" {
		t.Fatalf("unexpected xlsx file: %#v", sender.docs[1].File)
	}
	if !containsAction(sender.actions, tgbotapi.ChatUploadDocument) {
		t.Fatalf("expected upload_document action, got %v", sender.actions)
	}

	h.HandleUpdate(ctx, update(3, "Citra", "/report"))
	if reply := sender.last(t); !strings.Contains(reply, "Tidak ada data pengeluaran untuk <b>Maret 2024</b>") {
		t.Fatalf("expected no-data reply, got %q", reply)
	}
}

func containsAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func TestStaticCommands(t *testing.T) {
	h, sender, _ := setup(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, update(1, "Ani", "/start"))
	if !strings.Contains(sender.last(t), "Halo, Ani!") {
		t.Fatalf("unexpected start reply: %q", sender.last(t))
	}
	h.HandleUpdate(ctx, update(1, "", "/start"))
	if !strings.Contains(sender.last(t), "Halo, kamu!") {
		t.Fatalf("unexpected anonymous start reply: %q", sender.last(t))
	}
	h.HandleUpdate(ctx, update(1, "Ani", "/help"))
	if sender.last(t) != helpText {
		t.Fatalf("unexpected help reply")
	}
	h.HandleUpdate(ctx, update(1, "Ani", "/unknown"))
	if sender.last(t) != msgUnknownCommand {
		t.Fatalf("unexpected reply for unknown command")
	}
}

func TestIgnoresNonText(t *testing.T) {
	h, sender, _ := setup(t)
	if err := h.HandleUpdate(context.Background(), tgbotapi.Update{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upd := update(1, "Ani", "")
	h.HandleUpdate(context.Background(), upd)
	if len(sender.messages) != 0 {
		t.Fatalf("non-text updates must be ignored")
	}
}

type failingLedger struct {
	Ledger
	err error
}

func (f failingLedger) Now() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, wib) }
func (f failingLedger) Record(context.Context, core.Draft, string, string) (core.Expense, int, error) {
	return core.Expense{}, 0, f.err
}
func (f failingLedger) Today(context.Context, string) ([]core.Expense, error) { return nil, f.err }
func (f failingLedger) DeleteLast(context.Context, string) (core.Expense, error) {
	return core.Expense{}, f.err
}

func TestBackendFailuresGiveShortNotice(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender, failingLedger{err: errors.New("sheet unavailable")}, nil)
	ctx := context.Background()

	h.HandleUpdate(ctx, update(1, "Ani", "10k kopi"))
	if sender.last(t) != msgSaveFailed {
		t.Fatalf("expected save failure notice, got %q", sender.last(t))
	}
	h.HandleUpdate(ctx, update(1, "Ani", "/today"))
	if sender.last(t) != msgQueryFailed {
		t.Fatalf("expected query failure notice, got %q", sender.last(t))
	}
	h.HandleUpdate(ctx, update(1, "Ani", "/delete"))
	if sender.last(t) != msgDeleteFailed {
		t.Fatalf("expected delete failure notice, got %q", sender.last(t))
	}
}

func TestSendFailureIsReturned(t *testing.T) {
	h, sender, _ := setup(t)
	sender.sendErr = errors.New("telegram down")
	if err := h.HandleUpdate(context.Background(), update(1, "Ani", "/help")); err == nil {
		t.Fatalf("expected send error")
	}
}

func TestCommandOf(t *testing.T) {
	cases := map[string]string{
		"/today":             "today",
		"/Today@my_bot":      "today",
		"/q3 extra words":    "q3",
		"/":                  "",
	}
	for in, want := range cases {
		if got := commandOf(in); got != want {
			t.Fatalf("commandOf(%q) = %q, want %q", in, got, want)
		}
	}
}
