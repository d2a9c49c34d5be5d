package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-snax/models"
	"github.com/aluiziolira/go-snax/parser"
)

// ListingURL joins base, category, page marker and page number.
func ListingURL(base string, category models.Category, marker string, page int) string {
	c := string(category)
	if strings.HasSuffix(base, "/") && strings.HasPrefix(c, "/") {
		base = strings.TrimSuffix(base, "/")
	}
	return base + c + marker + strconv.Itoa(page)
}

// CollectCategory walks the category listing from page 1 until a page has no
// matching product anchors. Links are returned in discovery order and may
// repeat.
func (s *Scraper) CollectCategory(ctx context.Context, category models.Category) ([]string, error) {
	name := path.Base(strings.TrimRight(string(category), "/"))
	var links []string

	for page := 1; ; page++ {
		if s.cfg.MaxPages > 0 && page > s.cfg.MaxPages {
			s.logger.Warn("max pages reached before an empty listing page",
				slog.String("category", name),
				slog.Int("max_pages", s.cfg.MaxPages),
			)
			break
		}

		pageURL := ListingURL(s.cfg.BaseURL, category, s.cfg.PageMarker, page)
		doc, err := s.fetch(ctx, pageURL, phaseListing)
		if err != nil {
			return links, fmt.Errorf("fetch listing %s: %w", pageURL, err)
		}

		found := parser.ExtractLinks(doc.Selection, s.cfg.LinkSelector, doc.Url)
		if len(found) == 0 {
			s.logger.Info("category links retrieved",
				slog.String("category", name),
				slog.Int("links", len(links)),
				slog.Int("pages", page-1),
			)
			break
		}
		links = append(links, found...)
		s.Metrics.AddLinks(len(found))
	}

	return links, nil
}

// CollectAll collects every category in order and de-duplicates across the
// combined set, keeping the first occurrence of each link.
func (s *Scraper) CollectAll(ctx context.Context, categories []models.Category) ([]string, error) {
	s.logger.Info("finding links", slog.Int("categories", len(categories)))

	var all []string
	for _, category := range categories {
		links, err := s.CollectCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		all = append(all, links...)
	}
	return Dedupe(all), nil
}

// Dedupe drops repeated links, keeping first-seen order.
func Dedupe(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}
