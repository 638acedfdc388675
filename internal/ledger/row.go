package ledger

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pengeluaran/internal/core"
)

var (
	ErrShortRow     = errors.New("row has too few fields")
	ErrBadTimestamp = errors.New("row timestamp is malformed")
	ErrBadAmount    = errors.New("row amount is malformed")
)

// EncodeRow renders an expense as a ledger row. An absent description is stored as "".
func EncodeRow(e core.Expense) Row {
	return Row{
		e.StampedAt(),
		e.OwnerID,
		e.OwnerName,
		strconv.FormatInt(e.Amount, 10),
		e.Item,
		e.Desc(),
		string(e.Category),
	}
}

// DecodeRow parses a stored row, reading the timestamp in loc.
// Extra trailing fields are ignored.
func DecodeRow(row Row, loc *time.Location) (core.Expense, error) {
	if len(row) < RowWidth {
		return core.Expense{}, fmt.Errorf("%w: got %d, want %d", ErrShortRow, len(row), RowWidth)
	}
	if loc == nil {
		loc = time.Local
	}

	ts, err := time.ParseInLocation(core.TimestampLayout, strings.TrimSpace(row[ColTimestamp]), loc)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %q", ErrBadTimestamp, row[ColTimestamp])
	}

	amount, err := decodeAmount(row[ColAmount])
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Timestamp: ts,
		OwnerID:   strings.TrimSpace(row[ColOwnerID]),
		OwnerName: row[ColOwnerName],
		Amount:    amount,
		Item:      row[ColItem],
		Category:  core.Category(strings.TrimSpace(row[ColCategory])),
	}
	if desc := row[ColDescription]; desc != "" {
		e.Description = &desc
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("invalid row: %w", err)
	}
	return e, nil
}

// decodeAmount accepts plain integers and, for rows edited by hand in a
// spreadsheet, decimal numbers which are truncated.
func decodeAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrBadAmount, s)
	}
	return int64(f), nil
}
