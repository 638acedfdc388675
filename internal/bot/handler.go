// Package bot is the Telegram surface of the ledger: it routes commands and
// free-text expense entries to the query engine and replies in HTML.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pengeluaran/internal/core"
	"pengeluaran/internal/ledger"
	applog "pengeluaran/internal/log"
	"pengeluaran/internal/parser"
	"pengeluaran/internal/report"
	"pengeluaran/internal/summary"
)

// Sender is the part of *tgbotapi.BotAPI used for replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Ledger is the part of *ledger.Engine the bot needs.
type Ledger interface {
	Now() time.Time
	Today(ctx context.Context, owner string) ([]core.Expense, error)
	ThisWeek(ctx context.Context, owner string) ([]core.Expense, error)
	ThisMonth(ctx context.Context, owner string) ([]core.Expense, error)
	Quarter(ctx context.Context, n int, owner string) ([]core.Expense, error)
	ThisYear(ctx context.Context, owner string) ([]core.Expense, error)
	Record(ctx context.Context, d core.Draft, ownerID, ownerName string) (core.Expense, int, error)
	DeleteLast(ctx context.Context, owner string) (core.Expense, error)
}

var _ Ledger = (*ledger.Engine)(nil)

// Handler processes one update at a time.
type Handler struct {
	sender Sender
	ledger Ledger
	logger *applog.Logger
	events *applog.StructuredLogger
}

func NewHandler(sender Sender, l Ledger, logger *applog.Logger) *Handler {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentBot)
	return &Handler{
		sender: sender,
		ledger: l,
		logger: logger,
		events: applog.NewStructuredLogger(logger),
	}
}

// request carries the sender identity of one incoming message.
type request struct {
	chatID    int64
	messageID int
	ownerID   string
	ownerName string
	firstName string
	text      string
}

// HandleUpdate dispatches a single update. Only non-empty text messages are
// handled; everything else is ignored. The returned error reports a failed
// reply, never a business outcome.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	m := upd.Message
	if m == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
		return nil
	}

	req := request{chatID: m.Chat.ID, messageID: m.MessageID, text: m.Text, ownerName: "User"}
	if m.From != nil {
		req.ownerID = strconv.FormatInt(m.From.ID, 10)
		req.firstName = m.From.FirstName
		if m.From.FirstName != "" {
			req.ownerName = m.From.FirstName
		}
	} else {
		req.ownerID = strconv.FormatInt(m.Chat.ID, 10)
	}

	if !strings.HasPrefix(m.Text, "/") {
		return h.handleExpense(ctx, req)
	}

	cmd := commandOf(m.Text)
	err := h.dispatch(ctx, cmd, req)
	h.events.LogCommand(ctx, req.ownerID, req.chatID, cmd, err)
	return err
}

func (h *Handler) dispatch(ctx context.Context, cmd string, req request) error {
	switch cmd {
	case "start":
		name := req.firstName
		if name == "" {
			name = "kamu"
		}
		return h.reply(req, startText(name))
	case "help":
		return h.reply(req, helpText)
	case "today":
		return h.summarize(ctx, req, TitleToday, h.ledger.Today)
	case "week":
		return h.summarize(ctx, req, TitleWeek, h.ledger.ThisWeek)
	case "month":
		return h.summarize(ctx, req, TitleMonth, h.ledger.ThisMonth)
	case "year":
		return h.summarize(ctx, req, TitleYear, h.ledger.ThisYear)
	case "q1", "q2", "q3", "q4":
		n := int(cmd[1] - '0')
		title := "Pengeluaran " + quarterLabels[n]
		return h.summarize(ctx, req, title, func(ctx context.Context, owner string) ([]core.Expense, error) {
			return h.ledger.Quarter(ctx, n, owner)
		})
	case "report":
		return h.sendReport(ctx, req, reportPDF)
	case "export":
		return h.sendReport(ctx, req, reportXLSX)
	case "delete":
		return h.deleteLast(ctx, req)
	default:
		return h.reply(req, msgUnknownCommand)
	}
}

// commandOf returns the lowercased command name of text without the slash
// and without an @botname suffix.
func commandOf(text string) string {
	first := strings.Fields(text)[0]
	first = strings.TrimPrefix(first, "/")
	if at := strings.IndexByte(first, '@'); at >= 0 {
		first = first[:at]
	}
	return strings.ToLower(first)
}

func (h *Handler) handleExpense(ctx context.Context, req request) error {
	h.chatAction(req.chatID, tgbotapi.ChatTyping)

	draft, err := parser.Parse(req.text)
	if err != nil {
		h.logger.DebugContext(ctx, "Unparsable message", applog.FieldOwnerID, req.ownerID)
		return h.reply(req, msgUnparsable)
	}

	rec, idx, err := h.ledger.Record(ctx, draft, req.ownerID, req.ownerName)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to record expense",
			applog.NewFields().WithOperation(applog.OpRecord).WithOwner(req.ownerID, req.chatID).WithError(err).ToSlice()...)
		return h.reply(req, msgSaveFailed)
	}
	h.events.LogExpenseRecorded(ctx, req.ownerID, rec.Item, rec.Amount, string(rec.Category), idx)

	var todayTotal int64
	today, err := h.ledger.Today(ctx, req.ownerID)
	if err != nil {
		// The entry is stored; fall back to showing just this one.
		h.logger.WarnContext(ctx, "Failed to load today's total", applog.FieldError, err)
		today = []core.Expense{rec}
	}
	for _, e := range today {
		todayTotal += e.Amount
	}
	return h.reply(req, recordedText(rec, todayTotal, len(today)))
}

func (h *Handler) summarize(ctx context.Context, req request, title string, query func(context.Context, string) ([]core.Expense, error)) error {
	h.chatAction(req.chatID, tgbotapi.ChatTyping)

	records, err := query(ctx, req.ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Ledger query failed",
			applog.NewFields().WithOperation(applog.OpQuery).WithOwner(req.ownerID, req.chatID).WithError(err).ToSlice()...)
		return h.reply(req, msgQueryFailed)
	}
	return h.reply(req, formatSummary(summary.Summarize(records, title)))
}

func (h *Handler) deleteLast(ctx context.Context, req request) error {
	h.chatAction(req.chatID, tgbotapi.ChatTyping)

	rec, err := h.ledger.DeleteLast(ctx, req.ownerID)
	switch {
	case errors.Is(err, ledger.ErrNoEntry):
		return h.reply(req, msgNothingToDelete)
	case err != nil:
		h.logger.ErrorContext(ctx, "Failed to delete last entry",
			applog.NewFields().WithOperation(applog.OpDelete).WithOwner(req.ownerID, req.chatID).WithError(err).ToSlice()...)
		return h.reply(req, msgDeleteFailed)
	}
	h.logger.InfoContext(ctx, "Last entry deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithOwner(req.ownerID, req.chatID).ToSlice()...)
	return h.reply(req, deletedText(rec))
}

type reportKind struct {
	title  string
	ext    string
	op     string
	render func(records []core.Expense, label string, at time.Time) ([]byte, error)
}

var (
	reportPDF = reportKind{
		title: "Laporan Pengeluaran", ext: "pdf", op: applog.OpReport,
		render: report.PDF,
	}
	reportXLSX = reportKind{
		title: "Data Pengeluaran", ext: "xlsx", op: applog.OpExport,
		render: func(records []core.Expense, label string, _ time.Time) ([]byte, error) {
			return report.XLSX(records, label)
		},
	}
)

func (h *Handler) sendReport(ctx context.Context, req request, kind reportKind) error {
	h.chatAction(req.chatID, tgbotapi.ChatTyping)

	now := h.ledger.Now()
	period := report.PeriodLabel(now)
	records, err := h.ledger.ThisMonth(ctx, req.ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Ledger query failed",
			applog.NewFields().WithOperation(kind.op).WithOwner(req.ownerID, req.chatID).WithError(err).ToSlice()...)
		return h.reply(req, msgReportFailed)
	}
	if len(records) == 0 {
		return h.reply(req, noReportDataText(period))
	}

	h.chatAction(req.chatID, tgbotapi.ChatUploadDocument)
	data, err := kind.render(records, fmt.Sprintf("Periode: %s — %s", period, req.ownerName), now)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to render report",
			applog.NewFields().WithOperation(kind.op).WithOwner(req.ownerID, req.chatID).WithError(err).ToSlice()...)
		return h.reply(req, msgReportFailed)
	}

	doc := tgbotapi.NewDocument(req.chatID, tgbotapi.FileBytes{
		Name:  report.FileName(req.ownerName, now, kind.ext),
		Bytes: data,
	})
	doc.Caption = reportCaption(kind.title, period, req.ownerName, summary.Summarize(records, period))
	doc.ParseMode = tgbotapi.ModeHTML
	doc.ReplyToMessageID = req.messageID
	if _, err := h.sender.Send(doc); err != nil {
		return fmt.Errorf("send %s report: %w", kind.ext, err)
	}
	h.logger.InfoContext(ctx, "Report sent",
		applog.NewFields().WithOperation(kind.op).WithOwner(req.ownerID, req.chatID).ToSlice()...)
	return nil
}

func (h *Handler) reply(req request, text string) error {
	msg := tgbotapi.NewMessage(req.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = req.messageID
	msg.DisableWebPagePreview = true
	if _, err := h.sender.Send(msg); err != nil {
		return fmt.Errorf("send reply to chat %d: %w", req.chatID, err)
	}
	return nil
}

// chatAction shows a typing or uploading indicator. Failures only matter for logs.
func (h *Handler) chatAction(chatID int64, action string) {
	if _, err := h.sender.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		h.logger.Debug("Chat action failed", applog.FieldChatID, chatID, applog.FieldError, err)
	}
}
