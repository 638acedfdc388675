// Package ledger holds the append-only expense log: the store port, the
// positional row codec and the query engine that answers range questions.
package ledger

import "context"

// Row is one stored ledger line in Header column order.
type Row []string

// Header is the column layout of every ledger backend.
var Header = Row{"Timestamp", "OwnerID", "OwnerName", "Amount", "Item", "Description", "Category"}

// Column positions inside a Row.
const (
	ColTimestamp = iota
	ColOwnerID
	ColOwnerName
	ColAmount
	ColItem
	ColDescription
	ColCategory

	// RowWidth is the number of fields a decodable row must carry.
	RowWidth
)

// Store is the outbound port every ledger backend implements.
//
// Indexes are 0-based positions of data rows in the order ListAll returns
// them; the header, if the backend keeps one, is never counted.
type Store interface {
	// Append adds a row at the end and returns its index.
	Append(ctx context.Context, row Row) (int, error)
	// ListAll returns every data row in insertion order.
	ListAll(ctx context.Context) ([]Row, error)
	// Delete removes the row at index.
	Delete(ctx context.Context, index int) error
}

// FreshLister is implemented by stores whose ListAll may serve a cached
// listing. ListFresh always reads the backing rows.
type FreshLister interface {
	ListFresh(ctx context.Context) ([]Row, error)
}

// ListFresh lists s from its backing rows. Callers that pick an index to
// Delete use it so the position matches the live ledger.
func ListFresh(ctx context.Context, s Store) ([]Row, error) {
	if f, ok := s.(FreshLister); ok {
		return f.ListFresh(ctx)
	}
	return s.ListAll(ctx)
}
