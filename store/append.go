package store

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-snax/models"
)

// AppendStats reports the outcome of one AppendRows call.
type AppendStats struct {
	Inserted int
	Skipped  int
}

// Appender inserts projected rows into an existing table, skipping any row
// whose key collides with the table's unique index.
type Appender struct {
	store     *Store
	cacheSize int
}

// NewAppender returns an appender that remembers up to cacheSize keys per
// call so repeated keys within one source skip the database round trip. The
// cache is only consulted when the key column carries a unique index.
func NewAppender(s *Store, cacheSize int) *Appender {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &Appender{store: s, cacheSize: cacheSize}
}

// AppendRows inserts columns of every row of data into table with
// INSERT ... ON CONFLICT DO NOTHING. key must be one of columns.
func (a *Appender) AppendRows(ctx context.Context, table string, data *models.Table, key string, columns []string) (AppendStats, error) {
	var stats AppendStats

	keyPos := -1
	for i, c := range columns {
		if !data.HasColumn(c) {
			return stats, fmt.Errorf("append to %s: source has no %q column", table, c)
		}
		if c == key {
			keyPos = i
		}
	}
	if keyPos < 0 {
		return stats, fmt.Errorf("append to %s: key %q not in projection", table, key)
	}

	// Without a unique index on key every row is inserted, so repeated keys
	// may only be short-circuited when the index exists.
	unique, err := a.store.UniqueOn(ctx, table, key)
	if err != nil {
		return stats, err
	}
	var seen *lru.Cache[string, struct{}]
	if unique {
		if seen, err = lru.New[string, struct{}](a.cacheSize); err != nil {
			return stats, fmt.Errorf("dedupe cache: %w", err)
		}
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}

	tx, err := a.store.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(table)+` (`+strings.Join(quoted, ", ")+`) VALUES (`+placeholders(len(quoted))+`) ON CONFLICT DO NOTHING`)
	if err != nil {
		return stats, fmt.Errorf("prepare append to %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range data.Rows {
		k := strings.TrimSpace(row[key])
		if seen != nil && k != "" && seen.Contains(k) {
			stats.Skipped++
			continue
		}

		args := make([]any, len(columns))
		for j, c := range columns {
			args[j] = nullable(row[c])
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return stats, fmt.Errorf("append row %d to %s: %w", i, table, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			stats.Skipped++
		} else {
			stats.Inserted++
		}
		if seen != nil && k != "" {
			seen.Add(k, struct{}{})
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit append to %s: %w", table, err)
	}
	return stats, nil
}

func nullable(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
