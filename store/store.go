// Package store persists tabular data into a single-file SQLite database.
// Each table carries at most one unique index; inserts that collide with it
// are dropped.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/aluiziolira/go-snax/models"
)

var (
	// ErrTableExists is returned when creating a table whose name is taken.
	ErrTableExists = errors.New("store: table already exists")
	// ErrNotImplemented marks extension points with no behavior yet.
	ErrNotImplemented = errors.New("store: not implemented")
)

// Store wraps one connection to the database file.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite file at path, creating it if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection.
func (s *Store) Close() error { return s.db.Close() }

// TableExists reports whether table is present.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", table, err)
	}
	return n > 0, nil
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+quoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CreateTableFromRows creates table with the columns of data and inserts
// every row in one transaction. Column types are inferred from the values;
// empty cells become NULL. An existing table is never modified.
func (s *Store) CreateTableFromRows(ctx context.Context, table string, data *models.Table) (int, error) {
	if len(data.Columns) == 0 {
		return 0, fmt.Errorf("create %s: no columns", table)
	}
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("create %s: %w", table, ErrTableExists)
	}

	types := inferColumnTypes(data)
	defs := make([]string, len(data.Columns))
	quoted := make([]string, len(data.Columns))
	for i, c := range data.Columns {
		quoted[i] = quoteIdent(c)
		defs[i] = quoted[i] + " " + types[c]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(table)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(table)+` (`+strings.Join(quoted, ", ")+`) VALUES (`+placeholders(len(quoted))+`)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range data.Rows {
		args := make([]any, len(data.Columns))
		for j, c := range data.Columns {
			args[j] = typedValue(row[c], types[c])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d into %s: %w", i, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return data.Len(), nil
}

// EnsureUniqueIndex creates a unique index on table(column) unless one named
// index already exists. It fails when existing rows already collide.
func (s *Store) EnsureUniqueIndex(ctx context.Context, table, index, column string) error {
	q := `CREATE UNIQUE INDEX IF NOT EXISTS ` + quoteIdent(index) + ` ON ` + quoteIdent(table) + `(` + quoteIdent(column) + `)`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create index %s on %s(%s): %w", index, table, column, err)
	}
	return nil
}

// UniqueOn reports whether table has a unique index covering exactly column.
func (s *Store) UniqueOn(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_index_list(?) WHERE "unique" = 1`, table)
	if err != nil {
		return false, fmt.Errorf("list indexes of %s: %w", table, err)
	}
	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan index of %s: %w", table, err)
		}
		indexes = append(indexes, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("list indexes of %s: %w", table, err)
	}

	// The connection pool holds one connection, so index_info is queried
	// only after the index_list rows are closed.
	for _, index := range indexes {
		var (
			n    int
			name sql.NullString
		)
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1), MAX(name) FROM pragma_index_info(?)`, index).Scan(&n, &name)
		if err != nil {
			return false, fmt.Errorf("inspect index %s: %w", index, err)
		}
		if n == 1 && name.Valid && name.String == column {
			return true, nil
		}
	}
	return false, nil
}

// ApplyTransactionToPerson will join a person's card transactions against the
// products table to build a purchase history.
func (s *Store) ApplyTransactionToPerson(ctx context.Context, personID, transactionID string) error {
	return ErrNotImplemented
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

// inferColumnTypes picks INTEGER when every non-empty value parses as an
// integer, REAL when every one parses as a number, and TEXT otherwise.
func inferColumnTypes(data *models.Table) map[string]string {
	types := make(map[string]string, len(data.Columns))
	for _, c := range data.Columns {
		isInt, isReal, seen := true, true, false
		for _, row := range data.Rows {
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
			}
			if !isInt && !isReal {
				break
			}
		}
		switch {
		case !seen:
			types[c] = "TEXT"
		case isInt:
			types[c] = "INTEGER"
		case isReal:
			types[c] = "REAL"
		default:
			types[c] = "TEXT"
		}
	}
	return types
}

func typedValue(v, typ string) any {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	switch typ {
	case "INTEGER":
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n
		}
	case "REAL":
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return v
}
