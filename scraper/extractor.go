package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-snax/models"
	"github.com/aluiziolira/go-snax/parser"
)

// ExtractAll fetches every link and extracts the configured fields into one
// product per link. A fetch failure that survives the retry policy aborts the
// run and returns the products gathered so far.
func (s *Scraper) ExtractAll(ctx context.Context, links []string, specs []models.FieldSpec) ([]*models.Product, error) {
	s.logger.Info("requesting product details",
		slog.Int("products", len(links)),
		slog.Int("fields", len(specs)),
		slog.Int("total", len(links)*len(specs)),
	)

	products := make([]*models.Product, 0, len(links))
	for i, link := range links {
		doc, err := Retry(ctx, s.retry, func() (*goquery.Document, error) {
			return s.fetch(ctx, link, phaseProduct)
		})
		if err != nil {
			return products, fmt.Errorf("fetch product %s: %w", link, err)
		}

		products = append(products, s.extractProduct(link, doc.Selection, specs))
		s.Metrics.IncProducts()

		if every := s.cfg.ProgressEvery; every > 0 && (i+1)%every == 0 {
			s.logger.Info("extraction progress",
				slog.Int("done", i+1),
				slog.Int("total", len(links)),
			)
		}
	}
	return products, nil
}

func (s *Scraper) extractProduct(link string, root *goquery.Selection, specs []models.FieldSpec) *models.Product {
	p := &models.Product{
		Link:   link,
		Fields: make(map[string]string, len(specs)),
	}
	for _, spec := range specs {
		value, found := parser.ExtractField(root, spec)
		if !found {
			s.logger.Warn("field not found",
				slog.String("field", spec.Value),
				slog.String("url", link),
			)
			s.missingFields[spec.Value]++
			s.Metrics.IncMissing(spec.Value)
		}
		p.Fields[spec.Column()] = value
	}
	return p
}
