package core

import (
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the fixed textual encoding of an expense timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	Makanan      Category = "🍔 Makanan"
	Minuman      Category = "☕ Minuman"
	Transportasi Category = "🚗 Transportasi"
	Belanja      Category = "🛒 Belanja"
	Kesehatan    Category = "🏥 Kesehatan"
	Hiburan      Category = "🎮 Hiburan"
	Utilitas     Category = "💡 Utilitas"
	Lainnya      Category = "📦 Lainnya" // catch-all
)

type (
	// Category is one label of the closed category set.
	Category string

	// Draft is an expense before owner and timestamp enrichment.
	Draft struct {
		Amount      int64
		Item        string
		Description *string // nil when the message carried no description
		Category    Category
	}

	// Expense is a ledger entry.
	Expense struct {
		Timestamp   time.Time
		OwnerID     string
		OwnerName   string
		Amount      int64
		Item        string
		Description *string
		Category    Category
	}
)

// MaxAmount is the largest amount one entry may carry (Rp 1 quadrillion).
// It keeps ledger totals far from int64 overflow.
const MaxAmount int64 = 1_000_000_000_000_000

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyItem       = errors.New("empty item")
	ErrInvalidCategory = errors.New("invalid category")
	ErrZeroTimestamp   = errors.New("timestamp cannot be zero")
)

var categories = []Category{Makanan, Minuman, Transportasi, Belanja, Kesehatan, Hiburan, Utilitas, Lainnya}

// Categories returns every category in declaration order, catch-all last.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

func (d Draft) Validate() error {
	if d.Amount <= 0 || d.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Item) == "" {
		return ErrEmptyItem
	}
	if !d.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Enrich turns a draft into an expense owned by the given sender.
func (d Draft) Enrich(at time.Time, ownerID, ownerName string) Expense {
	return Expense{
		Timestamp:   at,
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		Amount:      d.Amount,
		Item:        d.Item,
		Description: d.Description,
		Category:    d.Category,
	}
}

func (e Expense) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if e.Amount <= 0 || e.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Item) == "" {
		return ErrEmptyItem
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// StampedAt renders the timestamp in TimestampLayout.
func (e Expense) StampedAt() string {
	return e.Timestamp.Format(TimestampLayout)
}

// Desc returns the description or "" when absent.
func (e Expense) Desc() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}

// HasDescription reports whether a non-empty description is present.
func (e Expense) HasDescription() bool {
	return e.Description != nil && *e.Description != ""
}
