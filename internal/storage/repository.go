package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pengeluaran/internal/ledger"

	_ "modernc.org/sqlite"
)

var (
	ErrIndexOutOfRange = errors.New("row index out of range")
	ErrRowWidth        = errors.New("row does not match ledger layout")
)

// SQLiteRepository is a ledger.Store backed by a single SQLite table.
// Columns are stored as text so that the row codec applies the same
// tolerance rules as for spreadsheet rows.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection keeps index lookups and deletes consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.Store
func (r *SQLiteRepository) Append(ctx context.Context, row ledger.Row) (int, error) {
	if len(row) != ledger.RowWidth {
		return 0, fmt.Errorf("%w: got %d fields", ErrRowWidth, len(row))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_rows (timestamp, owner_id, owner_name, amount, item, description, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row[ledger.ColTimestamp], row[ledger.ColOwnerID], row[ledger.ColOwnerName],
		row[ledger.ColAmount], row[ledger.ColItem], row[ledger.ColDescription], row[ledger.ColCategory])
	if err != nil {
		return 0, fmt.Errorf("insert ledger row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	var index int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) - 1 FROM ledger_rows WHERE id <= ?`, id).Scan(&index); err != nil {
		return 0, fmt.Errorf("resolve row index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Ledger row saved to SQLite", "id", id, "row_index", index)
	return index, nil
}

// ListAll implements ledger.Store
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]ledger.Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT timestamp, owner_id, owner_name, amount, item, description, category
		FROM ledger_rows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query ledger rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.Row
	for rows.Next() {
		row := make(ledger.Row, ledger.RowWidth)
		if err := rows.Scan(&row[0], &row[1], &row[2], &row[3], &row[4], &row[5], &row[6]); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return out, nil
}

// Delete implements ledger.Store
func (r *SQLiteRepository) Delete(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM ledger_rows
		WHERE id = (SELECT id FROM ledger_rows ORDER BY id LIMIT 1 OFFSET ?)`, index)
	if err != nil {
		return fmt.Errorf("delete ledger row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	slog.InfoContext(ctx, "Ledger row deleted from SQLite", "row_index", index)
	return nil
}

// Count returns the number of stored rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_rows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger rows: %w", err)
	}
	return n, nil
}

// Ping checks the database connection; used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
