package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/aluiziolira/go-snax/config"
	"github.com/aluiziolira/go-snax/models"
)

const (
	phaseListing = "listing"
	phaseProduct = "product"
)

// Scraper wraps a synchronous colly collector. Every fetch blocks until the
// response is parsed; there is no parallelism.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	transport *contextTransport
	retry     RetryPolicy
	logger    *slog.Logger
	Metrics   *Metrics
	RunID     string

	requestCount  int
	retryCount    int
	errorsByType  map[string]int
	missingFields map[string]int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	runID := uuid.NewString()
	s := &Scraper{
		cfg:           cfg,
		collector:     collector,
		logger:        slog.Default().With(slog.String("run_id", runID)),
		Metrics:       NewMetrics(),
		RunID:         runID,
		errorsByType:  make(map[string]int),
		missingFields: make(map[string]int),
	}
	s.SetTransport(base)
	s.retry = PolicyFromConfig(cfg)
	s.retry.OnRetry = s.onRetry
	s.configureHandlers()
	return s, nil
}

// SetTransport replaces the HTTP transport of the underlying collector.
func (s *Scraper) SetTransport(rt http.RoundTripper) {
	s.transport = &contextTransport{base: rt}
	s.collector.WithTransport(s.transport)
}

func (s *Scraper) configureHandlers() {
	s.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put("status", r.StatusCode)
		r.Ctx.Put("body", r.Body)
		if r.StatusCode >= http.StatusBadRequest {
			s.logger.Error("non-200 response",
				slog.Int("status", r.StatusCode),
				slog.String("url", r.Request.URL.String()),
			)
			s.recordError(classifyError(nil, r.StatusCode))
		}
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put("status", r.StatusCode)
		}
	})
}

// fetch issues one GET and parses the body. HTTP error statuses are parsed
// like any other page; only transport failures are returned.
func (s *Scraper) fetch(ctx context.Context, pageURL, phase string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.requestCount++
	s.Metrics.IncRequest(phase)
	if s.requestCount%50 == 0 {
		s.logger.Debug("scraper request progress",
			slog.Int("requests", s.requestCount),
			slog.String("url", pageURL),
		)
	}

	cctx := colly.NewContext()
	start := time.Now()
	s.transport.ctx = ctx
	err := s.collector.Request(http.MethodGet, pageURL, nil, cctx, nil)
	s.transport.ctx = nil
	s.Metrics.ObserveDuration(time.Since(start))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		status, _ := cctx.GetAny("status").(int)
		classified := classifyError(err, status)
		s.recordError(classified)
		s.logger.Error("request error",
			slog.String("url", pageURL),
			slog.String("phase", phase),
			slog.String("category", errorTypeLabel(classified)),
			slog.Any("error", err),
		)
		return nil, classified
	}

	body, _ := cctx.GetAny("body").([]byte)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}

func (s *Scraper) recordError(err error) {
	if err == nil {
		return
	}
	label := errorTypeLabel(err)
	s.errorsByType[label]++
	s.Metrics.IncError(label)
}

func (s *Scraper) onRetry(attempt int, delay time.Duration, err error) {
	s.retryCount++
	s.Metrics.IncRetries()
	s.logger.Warn("retrying request",
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
		slog.Any("error", err),
	)
}

// Result snapshots the counters of this scraper.
func (s *Scraper) Result() *models.RunResult {
	errs := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		errs[k] = v
	}
	missing := make(map[string]int, len(s.missingFields))
	for k, v := range s.missingFields {
		missing[k] = v
	}
	return &models.RunResult{
		RunID:         s.RunID,
		RequestCount:  s.requestCount,
		RetryCount:    s.retryCount,
		ErrorsByType:  errs,
		MissingFields: missing,
	}
}
