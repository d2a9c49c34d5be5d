package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-snax/config"
	"github.com/aluiziolira/go-snax/models"
	"github.com/aluiziolira/go-snax/scraper"
)

const testBase = "http://example.test"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = testBase
	cfg.Categories = []models.Category{"/cat/a"}
	cfg.OutputDir = t.TempDir()
	cfg.RetryBackoff = 0
	cfg.Fields = []models.FieldSpec{
		{Mode: models.ModeSingle, Tag: "h1", Attr: "id", Value: "name"},
		{Mode: models.ModeMulti, Tag: "div", Attr: "id", Value: "13"},
		{Mode: models.ModeMulti, Tag: "div", Attr: "id", Value: "14"},
	}
	return cfg
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func listingPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, href := range hrefs {
		fmt.Fprintf(&b, "<a class=\"product_name_link product_view_gtm\" href=%q>p</a>", href)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func productPage(name, d13, d14 string) string {
	return fmt.Sprintf("<html><body><h1 id=\"name\">%s</h1><div id=\"13\">%s</div><div id=\"14\">%s</div></body></html>", name, d13, d14)
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *httpmock.MockTransport) {
	t.Helper()
	s, err := scraper.NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	transport := httpmock.NewMockTransport()
	s.SetTransport(transport)

	r := NewRunner(cfg, s)
	r.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return r, transport
}

func registerSite(transport *httpmock.MockTransport) {
	transport.RegisterResponderWithQuery("GET", testBase+"/cat/a", "pageNo=1",
		htmlResponder(listingPage(testBase+"/p/1", testBase+"/p/2")))
	transport.RegisterResponderWithQuery("GET", testBase+"/cat/a", "pageNo=2",
		htmlResponder(listingPage(testBase+"/p/2")))
	transport.RegisterResponderWithQuery("GET", testBase+"/cat/a", "pageNo=3",
		htmlResponder(listingPage()))
	transport.RegisterResponder("GET", testBase+"/p/1",
		htmlResponder(productPage("One", "pdf", "A long description of one")))
	transport.RegisterResponder("GET", testBase+"/p/2",
		htmlResponder(productPage("Two", "Another long description", "")))
}

func TestRunnerFullRun(t *testing.T) {
	cfg := testConfig(t)
	r, transport := newTestRunner(t, cfg)
	registerSite(transport)

	result, err := r.Run(context.Background(), Mode{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.LinkCount != 2 || result.ProductCount != 2 {
		t.Fatalf("links=%d products=%d, want 2/2", result.LinkCount, result.ProductCount)
	}
	wantLinks := filepath.Join(cfg.OutputDir, "linx_2024-05-06T07:08:09.csv")
	if result.LinksFile != wantLinks {
		t.Fatalf("links file=%q, want %q", result.LinksFile, wantLinks)
	}

	links, err := ReadLinks(result.LinksFile)
	if err != nil {
		t.Fatalf("read links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links=%v", links)
	}

	products, err := ReadTable(result.ProductsFile)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	wantCols := []string{models.LinkColumn, "name", "long_description"}
	if strings.Join(products.Columns, ",") != strings.Join(wantCols, ",") {
		t.Fatalf("columns=%v, want %v", products.Columns, wantCols)
	}
	if got := products.Rows[0]["long_description"]; got != "A long description of one " {
		t.Fatalf("row 0 description=%q", got)
	}
	if got := products.Rows[1]["long_description"]; got != "Another long description " {
		t.Fatalf("row 1 description=%q", got)
	}
}

func TestRunnerLinksOnly(t *testing.T) {
	cfg := testConfig(t)
	r, transport := newTestRunner(t, cfg)
	registerSite(transport)

	result, err := r.Run(context.Background(), Mode{Links: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProductsFile != "" {
		t.Fatalf("links-only run wrote products file %q", result.ProductsFile)
	}
	if got := transport.GetTotalCallCount(); got != 3 {
		t.Fatalf("fetches=%d, want 3 listing pages", got)
	}
}

func TestRunnerProductsFromLatestLinksFile(t *testing.T) {
	cfg := testConfig(t)
	r, transport := newTestRunner(t, cfg)
	registerSite(transport)

	old := filepath.Join(cfg.OutputDir, "linx_2020-01-01T00:00:00.csv")
	latest := filepath.Join(cfg.OutputDir, "linx_2024-01-01T00:00:00.csv")
	if err := os.WriteFile(old, []byte("product_link\n"+testBase+"/p/2\n"), 0o644); err != nil {
		t.Fatalf("write old links: %v", err)
	}
	if err := os.WriteFile(latest, []byte("product_link\n"+testBase+"/p/1\n"), 0o644); err != nil {
		t.Fatalf("write latest links: %v", err)
	}

	result, err := r.Run(context.Background(), Mode{Products: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProductCount != 1 {
		t.Fatalf("products=%d, want 1", result.ProductCount)
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("fetches=%d, want only the product page", got)
	}

	products, err := ReadTable(result.ProductsFile)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	if products.Rows[0]["name"] != "One" {
		t.Fatalf("row=%v", products.Rows[0])
	}
}

func TestRunnerProductsWithoutLinksFile(t *testing.T) {
	cfg := testConfig(t)
	r, _ := newTestRunner(t, cfg)

	if _, err := r.Run(context.Background(), Mode{Products: true}); !errors.Is(err, ErrNoLinksFile) {
		t.Fatalf("expected ErrNoLinksFile, got %v", err)
	}
}

func TestRunnerFailedExtractionWritesNoProducts(t *testing.T) {
	cfg := testConfig(t)
	r, transport := newTestRunner(t, cfg)
	registerSite(transport)
	transport.RegisterResponder("GET", testBase+"/p/2", httpmock.NewErrorResponder(syscall.ECONNRESET))

	result, err := r.Run(context.Background(), Mode{})
	if err == nil {
		t.Fatalf("expected extraction failure")
	}
	if result == nil || result.LinksFile == "" {
		t.Fatalf("links file should survive a failed extraction")
	}
	matches, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "snax_*"))
	if len(matches) != 0 {
		t.Fatalf("unexpected products files: %v", matches)
	}
}

func TestRunnerJSONFormat(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = "json"
	r, transport := newTestRunner(t, cfg)
	registerSite(transport)

	result, err := r.Run(context.Background(), Mode{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasSuffix(result.ProductsFile, ".jsonl") {
		t.Fatalf("products file=%q, want .jsonl", result.ProductsFile)
	}
	if !strings.HasSuffix(result.LinksFile, ".csv") {
		t.Fatalf("links file=%q, want .csv", result.LinksFile)
	}
}
