package ledger

import (
	"errors"
	"testing"
	"time"

	"pengeluaran/internal/core"
)

func TestEncodeDecodeRow(t *testing.T) {
	desc := "tambah telur"
	e := core.Expense{
		Timestamp:   at(2024, 3, 15, 10, 30, 5, 0),
		OwnerID:     "42",
		OwnerName:   "Budi",
		Amount:      25000,
		Item:        "naspad",
		Description: &desc,
		Category:    core.Makanan,
	}
	row := EncodeRow(e)
	if len(row) != RowWidth || row[ColTimestamp] != "2024-03-15 10:30:05" || row[ColAmount] != "25000" {
		t.Fatalf("unexpected row: %v", row)
	}

	got, err := DecodeRow(row, wib)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Timestamp.Equal(e.Timestamp) || got.OwnerID != "42" || got.Amount != 25000 || got.Desc() != desc || got.Category != core.Makanan {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeRowAbsentDescription(t *testing.T) {
	row := Row{"2024-03-15 10:30:05", "1", "Ani", "5000", "kopi", "", "☕ Minuman"}
	got, err := DecodeRow(row, wib)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Description != nil {
		t.Fatalf("empty cell should decode as absent description")
	}
}

func TestDecodeRowTruncatesDecimalAmount(t *testing.T) {
	row := Row{"2024-03-15 10:30:05", "1", "Ani", "25000.0", "kopi", "", "☕ Minuman"}
	got, err := DecodeRow(row, wib)
	if err != nil || got.Amount != 25000 {
		t.Fatalf("expected 25000, got %d err=%v", got.Amount, err)
	}
}

func TestDecodeRowRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		row  Row
		want error
	}{
		{"short", Row{"2024-03-15 10:30:05", "1", "Ani", "5000", "kopi"}, ErrShortRow},
		{"timestamp", Row{"15/03/2024", "1", "Ani", "5000", "kopi", "", "☕ Minuman"}, ErrBadTimestamp},
		{"amount", Row{"2024-03-15 10:30:05", "1", "Ani", "lima", "kopi", "", "☕ Minuman"}, ErrBadAmount},
		{"zero amount", Row{"2024-03-15 10:30:05", "1", "Ani", "0", "kopi", "", "☕ Minuman"}, core.ErrInvalidAmount},
		{"huge amount", Row{"2024-03-15 10:30:05", "1", "Ani", "9000000000000000000", "kopi", "", "☕ Minuman"}, core.ErrInvalidAmount},
		{"empty item", Row{"2024-03-15 10:30:05", "1", "Ani", "5000", " ", "", "☕ Minuman"}, core.ErrEmptyItem},
		{"category", Row{"2024-03-15 10:30:05", "1", "Ani", "5000", "kopi", "", "Drinks"}, core.ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeRow(tc.row, wib); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecodeRowUsesLocation(t *testing.T) {
	row := Row{"2024-03-15 00:00:00", "1", "Ani", "5000", "kopi", "", "☕ Minuman"}
	got, err := DecodeRow(row, wib)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Timestamp.Equal(time.Date(2024, 3, 14, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp not read in location: %v", got.Timestamp)
	}
}
