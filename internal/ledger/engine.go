package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pengeluaran/internal/core"
)

// ErrNoEntry is returned by DeleteLast when no row qualifies.
var ErrNoEntry = errors.New("no entry to delete")

// Engine answers range queries over a Store and performs the two mutations
// the chat surface offers: record and delete-most-recent.
//
// Engine holds no mutable state of its own. Concurrent DeleteLast calls for
// the same owner race on the store's ordering.
type Engine struct {
	store  Store
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for canonical ranges and record stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used to read stored timestamps and build ranges.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger used for skipped rows and mutations.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock in the engine location.
func (e *Engine) Now() time.Time { return e.now().In(e.loc) }

// Location returns the zone stored timestamps are read in.
func (e *Engine) Location() *time.Location { return e.loc }

// Query returns every decodable record stamped within [start, end], in
// ledger order. An empty owner matches all owners. Malformed rows are
// skipped; only store failures are returned.
func (e *Engine) Query(ctx context.Context, start, end time.Time, owner string) ([]core.Expense, error) {
	rows, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	r := Range{Start: start, End: end}
	var out []core.Expense
	skipped := 0
	for i, row := range rows {
		rec, err := DecodeRow(row, e.loc)
		if err != nil {
			skipped++
			e.logger.DebugContext(ctx, "Skipping malformed ledger row", "row_index", i, "error", err)
			continue
		}
		if owner != "" && rec.OwnerID != owner {
			continue
		}
		if r.Contains(rec.Timestamp) {
			out = append(out, rec)
		}
	}
	if skipped > 0 {
		e.logger.InfoContext(ctx, "Ledger query skipped malformed rows", "skipped", skipped, "rows", len(rows))
	}
	return out, nil
}

// QueryRange is Query over a Range.
func (e *Engine) QueryRange(ctx context.Context, r Range, owner string) ([]core.Expense, error) {
	return e.Query(ctx, r.Start, r.End, owner)
}

func (e *Engine) Today(ctx context.Context, owner string) ([]core.Expense, error) {
	return e.QueryRange(ctx, TodayRange(e.Now()), owner)
}

func (e *Engine) ThisWeek(ctx context.Context, owner string) ([]core.Expense, error) {
	return e.QueryRange(ctx, WeekRange(e.Now()), owner)
}

func (e *Engine) ThisMonth(ctx context.Context, owner string) ([]core.Expense, error) {
	return e.QueryRange(ctx, MonthRange(e.Now()), owner)
}

// Quarter returns quarter n of the current year. Any n outside 1-4 yields
// an empty result and no error.
func (e *Engine) Quarter(ctx context.Context, n int, owner string) ([]core.Expense, error) {
	r, ok := QuarterRange(e.Now(), n)
	if !ok {
		return nil, nil
	}
	return e.QueryRange(ctx, r, owner)
}

func (e *Engine) ThisYear(ctx context.Context, owner string) ([]core.Expense, error) {
	return e.QueryRange(ctx, YearRange(e.Now()), owner)
}

// Record stamps a parsed draft with the current time and owner, then appends it.
func (e *Engine) Record(ctx context.Context, d core.Draft, ownerID, ownerName string) (core.Expense, int, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, 0, fmt.Errorf("invalid draft: %w", err)
	}
	// Stored timestamps carry whole seconds only.
	rec := d.Enrich(e.Now().Truncate(time.Second), ownerID, ownerName)
	if err := rec.Validate(); err != nil {
		return core.Expense{}, 0, fmt.Errorf("invalid expense: %w", err)
	}

	idx, err := e.store.Append(ctx, EncodeRow(rec))
	if err != nil {
		return core.Expense{}, 0, fmt.Errorf("append row: %w", err)
	}
	e.logger.DebugContext(ctx, "Ledger row appended",
		"owner_id", ownerID, "amount", rec.Amount, "category", string(rec.Category), "row_index", idx)
	return rec, idx, nil
}

// DeleteLast removes the most recent decodable row, restricted to owner when
// owner is non-empty, and returns the removed record. Rows of other owners
// are never touched.
func (e *Engine) DeleteLast(ctx context.Context, owner string) (core.Expense, error) {
	rows, err := ListFresh(ctx, e.store)
	if err != nil {
		return core.Expense{}, fmt.Errorf("list ledger: %w", err)
	}

	for i := len(rows) - 1; i >= 0; i-- {
		rec, err := DecodeRow(rows[i], e.loc)
		if err != nil {
			continue
		}
		if owner != "" && rec.OwnerID != owner {
			continue
		}
		if err := e.store.Delete(ctx, i); err != nil {
			return core.Expense{}, fmt.Errorf("delete row %d: %w", i, err)
		}
		e.logger.InfoContext(ctx, "Ledger row deleted", "owner_id", owner, "row_index", i)
		return rec, nil
	}
	return core.Expense{}, ErrNoEntry
}
