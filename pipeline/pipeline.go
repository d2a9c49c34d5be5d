// Package pipeline runs the crawl stages in order and persists their output.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-snax/config"
	"github.com/aluiziolira/go-snax/models"
	"github.com/aluiziolira/go-snax/parser"
	"github.com/aluiziolira/go-snax/scraper"
)

const (
	linksPrefix    = "linx_"
	productsPrefix = "snax_"

	// StampLayout is the ISO-8601 timestamp embedded in output file names.
	StampLayout = "2006-01-02T15:04:05"
)

// Mode selects which stages run. The zero value runs everything.
type Mode struct {
	Links    bool
	Products bool
}

func (m Mode) collect() bool { return m.Links || !m.Products }
func (m Mode) extract() bool { return m.Products || !m.Links }

// Runner executes link collection, field extraction and description
// resolution sequentially.
type Runner struct {
	cfg     *config.Config
	scraper *scraper.Scraper
	now     func() time.Time
}

// NewRunner builds a runner around s.
func NewRunner(cfg *config.Config, s *scraper.Scraper) *Runner {
	return &Runner{cfg: cfg, scraper: s, now: time.Now}
}

// Run executes the stages selected by mode. Output files are written only
// when a stage completes; a cancelled or failed extraction leaves no products
// file behind.
func (r *Runner) Run(ctx context.Context, mode Mode) (*models.RunResult, error) {
	start := r.now()
	stamp := start.Format(StampLayout)
	logger := slog.Default().With(slog.String("run_id", r.scraper.RunID))

	var (
		links        []string
		linksFile    string
		productsFile string
		productCount int
		err          error
	)

	if mode.collect() {
		links, err = r.scraper.CollectAll(ctx, r.cfg.Categories)
		if err != nil {
			return r.result(start, links, linksFile, productsFile, productCount), fmt.Errorf("collect links: %w", err)
		}
		linksFile = filepath.Join(r.cfg.OutputDir, linksPrefix+stamp+".csv")
		w, err := NewCSVWriter(linksFile)
		if err != nil {
			return nil, err
		}
		if err := WriteTable(w, models.LinksTable(links)); err != nil {
			return nil, fmt.Errorf("write links file: %w", err)
		}
		logger.Info("links written", slog.Int("links", len(links)), slog.String("file", linksFile))
	}

	if mode.extract() {
		if !mode.collect() {
			source, err := LatestLinksFile(r.cfg.OutputDir)
			if err != nil {
				return nil, err
			}
			if links, err = ReadLinks(source); err != nil {
				return nil, err
			}
			logger.Info("links loaded", slog.Int("links", len(links)), slog.String("file", source))
		}

		products, err := r.scraper.ExtractAll(ctx, links, r.cfg.Fields)
		if err != nil {
			return r.result(start, links, linksFile, productsFile, len(products)), fmt.Errorf("extract fields: %w", err)
		}
		productCount = len(products)

		table := models.ProductsTable(products, r.cfg.Fields)
		r.resolveDescriptions(table, logger)

		w, path, err := CreateWriter(r.cfg.OutputFormat, filepath.Join(r.cfg.OutputDir, productsPrefix+stamp))
		if err != nil {
			return nil, err
		}
		if err := WriteTable(w, table); err != nil {
			return nil, fmt.Errorf("write products file: %w", err)
		}
		productsFile = path
		logger.Info("products written", slog.Int("products", productCount), slog.String("file", productsFile))
	}

	return r.result(start, links, linksFile, productsFile, productCount), nil
}

func (r *Runner) resolveDescriptions(t *models.Table, logger *slog.Logger) {
	candidates := r.cfg.DescriptionCandidates
	if !t.HasColumn(candidates[0]) || !t.HasColumn(candidates[1]) {
		logger.Warn("description candidates not configured, skipping resolution",
			slog.String("first", candidates[0]),
			slog.String("second", candidates[1]),
		)
		return
	}
	parser.ResolveDescriptions(t, candidates, r.cfg.DescriptionColumn, parser.CompareFor(r.cfg.DescriptionCompare))
}

func (r *Runner) result(start time.Time, links []string, linksFile, productsFile string, products int) *models.RunResult {
	res := r.scraper.Result()
	res.StartTime = start
	res.EndTime = r.now()
	res.LinkCount = len(links)
	res.ProductCount = products
	res.LinksFile = linksFile
	res.ProductsFile = productsFile
	return res
}
