// Package memory is an in-process ledger backend for development and tests.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"pengeluaran/internal/ledger"
)

var ErrIndexOutOfRange = errors.New("row index out of range")

type Store struct {
	mu   sync.Mutex
	rows []ledger.Row
}

func New(rows ...ledger.Row) *Store {
	s := &Store{}
	for _, r := range rows {
		s.rows = append(s.rows, cloneRow(r))
	}
	return s
}

// NewFromFile seeds the store from a CSV file laid out like ledger.Header.
// A missing file yields an empty store. A first line equal to the header is dropped.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return New(rows...), nil
}

func readRows(r io.Reader) ([]ledger.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows are kept and skipped at query time
	cr.Comment = '#'

	var out []ledger.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(out) == 0 && isHeader(rec) {
			continue
		}
		out = append(out, ledger.Row(rec))
	}
	return out, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(rec[0]), ledger.Header[0])
}

// Append stores a copy of row and returns its index.
func (s *Store) Append(_ context.Context, row ledger.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, cloneRow(row))
	return len(s.rows) - 1, nil
}

// ListAll returns copies of every row in insertion order.
func (s *Store) ListAll(_ context.Context) ([]ledger.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Row, len(s.rows))
	for i, r := range s.rows {
		out[i] = cloneRow(r)
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.rows) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.rows = append(s.rows[:index], s.rows[index+1:]...)
	return nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func cloneRow(r ledger.Row) ledger.Row {
	return append(ledger.Row(nil), r...)
}
