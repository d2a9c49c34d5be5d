// Package loader moves scraped and person files into the SQLite store.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-snax/config"
	"github.com/aluiziolira/go-snax/pipeline"
	"github.com/aluiziolira/go-snax/store"
)

// Loader runs the table loading sequence against one store.
type Loader struct {
	cfg      *config.LoaderConfig
	store    *store.Store
	appender *store.Appender
	logger   *slog.Logger
}

// New returns a loader over an open store.
func New(cfg *config.LoaderConfig, s *store.Store) *Loader {
	return &Loader{
		cfg:      cfg,
		store:    s,
		appender: store.NewAppender(s, cfg.DedupeCacheSize),
		logger:   slog.Default().With(slog.String("db", cfg.DBPath)),
	}
}

// LoadTable creates table from the file at path. A missing file or an
// existing table is reported and skipped. The row count afterwards is
// logged and returned.
func (l *Loader) LoadTable(ctx context.Context, path, table string) (int, error) {
	if err := l.create(ctx, path, table); err != nil {
		attrs := []any{slog.String("file", path), slog.String("table", table), slog.Any("error", err)}
		if errors.Is(err, store.ErrTableExists) {
			l.logger.Warn("table exists, file not imported", attrs...)
		} else {
			l.logger.Error("file not imported", attrs...)
		}
	}
	return l.count(ctx, table)
}

func (l *Loader) create(ctx context.Context, path, table string) error {
	data, err := pipeline.ReadTable(path)
	if err != nil {
		return err
	}
	n, err := l.store.CreateTableFromRows(ctx, table, data)
	if err != nil {
		return err
	}
	l.logger.Info("table created", slog.String("table", table), slog.Int("rows", n))
	return nil
}

// Index asserts a unique index on table(column), logging any failure.
func (l *Loader) Index(ctx context.Context, table, index, column string) bool {
	if err := l.store.EnsureUniqueIndex(ctx, table, index, column); err != nil {
		l.logger.Error("index creation failed",
			slog.String("table", table),
			slog.String("index", index),
			slog.Any("error", err),
		)
		return false
	}
	l.logger.Debug("index ready", slog.String("table", table), slog.String("index", index))
	return true
}

// Append adds the configured columns of the file at path to table.
func (l *Loader) Append(ctx context.Context, path, table string) (store.AppendStats, error) {
	data, err := pipeline.ReadTable(path)
	if err != nil {
		return store.AppendStats{}, err
	}
	stats, err := l.appender.AppendRows(ctx, table, data, l.cfg.ProductKey, l.cfg.AppendColumns)
	if err != nil {
		return stats, err
	}
	l.logger.Info("rows appended",
		slog.String("file", path),
		slog.String("table", table),
		slog.Int("inserted", stats.Inserted),
		slog.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (l *Loader) count(ctx context.Context, table string) (int, error) {
	n, err := l.store.Count(ctx, table)
	if err != nil {
		return 0, err
	}
	l.logger.Info("records currently in table", slog.String("table", table), slog.Int("count", n))
	return n, nil
}

// Run executes the full sequence: products, their index, the incremental
// file, then persons and their index.
func (l *Loader) Run(ctx context.Context) error {
	cfg := l.cfg

	if _, err := l.LoadTable(ctx, cfg.ProductFile, cfg.ProductTable); err != nil {
		l.logger.Error("counting products", slog.Any("error", err))
	}
	l.Index(ctx, cfg.ProductTable, cfg.ProductIndex, cfg.ProductKey)

	if cfg.MoreFile != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.Append(ctx, cfg.MoreFile, cfg.ProductTable); err != nil {
			return fmt.Errorf("append %s: %w", cfg.MoreFile, err)
		}
		if _, err := l.count(ctx, cfg.ProductTable); err != nil {
			l.logger.Error("counting products", slog.Any("error", err))
		}
	}

	if cfg.PersonFile != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.LoadTable(ctx, cfg.PersonFile, cfg.PersonTable); err != nil {
			l.logger.Error("counting persons", slog.Any("error", err))
		}
		l.Index(ctx, cfg.PersonTable, cfg.PersonIndex, cfg.PersonKey)
	}
	return ctx.Err()
}
