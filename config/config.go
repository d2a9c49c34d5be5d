package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/aluiziolira/go-snax/models"
)

// Description comparison modes.
const (
	CompareLength        = "length"
	CompareLexicographic = "lexicographic"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL      string
	Categories   []models.Category
	PageMarker   string
	LinkSelector models.FieldSpec
	Fields       []models.FieldSpec

	// MaxPages caps pages per category. Zero keeps empty-page termination as
	// the only stop condition.
	MaxPages        int
	Timeout         time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	RetryMultiplier float64
	RetryBackoffMax time.Duration

	DescriptionCandidates [2]string
	DescriptionColumn     string
	DescriptionCompare    string

	OutputDir     string
	OutputFormat  string // csv, json, or dual
	UserAgent     string
	ProgressEvery int
	Verbose       bool
	MetricsAddr   string
	TargetsFile   string
}

// DefaultConfig returns defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://www.boots.com",
		Categories: []models.Category{
			"/health-pharmacy/vitamins-supplements",
			"/health-pharmacy/medicines-treatments",
		},
		PageMarker: "?pageNo=",
		LinkSelector: models.FieldSpec{
			Mode:  models.ModeMulti,
			Tag:   "a",
			Attr:  "class",
			Value: "product_name_link product_view_gtm",
		},
		Fields: []models.FieldSpec{
			{Mode: models.ModeSingle, Tag: "span", Attr: "class", Value: "productid"},
			{Mode: models.ModeSingle, Tag: "h1", Attr: "id", Value: "name"},
			{Mode: models.ModeSingle, Tag: "div", Attr: "id", Value: "PDP_productPrice"},
			{Mode: models.ModeMulti, Tag: "div", Attr: "class", Value: "details"},
			{Mode: models.ModeMulti, Tag: "div", Attr: "id", Value: "13"},
			{Mode: models.ModeMulti, Tag: "div", Attr: "id", Value: "14"},
		},
		MaxPages:              0,
		Timeout:               30 * time.Second,
		RetryAttempts:         3,
		RetryBackoff:          10 * time.Second,
		RetryMultiplier:       10,
		RetryBackoffMax:       0,
		DescriptionCandidates: [2]string{"13", "14"},
		DescriptionColumn:     "long_description",
		DescriptionCompare:    CompareLength,
		OutputDir:             "output",
		OutputFormat:          "csv",
		UserAgent:             "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		ProgressEvery:         25,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	if c.PageMarker == "" {
		return fmt.Errorf("page marker cannot be empty")
	}
	if err := validateSpec(c.LinkSelector); err != nil {
		return fmt.Errorf("link selector: %w", err)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("at least one field spec is required")
	}
	for i, f := range c.Fields {
		if err := validateSpec(f); err != nil {
			return fmt.Errorf("field spec %d: %w", i, err)
		}
	}

	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry attempts must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("retry multiplier must be at least 1")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}

	if c.DescriptionCandidates[0] == "" || c.DescriptionCandidates[1] == "" {
		return fmt.Errorf("description candidates cannot be empty")
	}
	if c.DescriptionColumn == "" {
		return fmt.Errorf("description column cannot be empty")
	}
	if slices.Contains(c.DescriptionCandidates[:], c.DescriptionColumn) {
		return fmt.Errorf("description column %q must differ from its candidates", c.DescriptionColumn)
	}
	if c.DescriptionCompare != CompareLength && c.DescriptionCompare != CompareLexicographic {
		return fmt.Errorf("description compare must be length or lexicographic")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress interval cannot be negative")
	}

	return nil
}

func validateSpec(f models.FieldSpec) error {
	if f.Mode != models.ModeSingle && f.Mode != models.ModeMulti {
		return fmt.Errorf("mode must be single or multi, got %q", f.Mode)
	}
	if f.Tag == "" || f.Attr == "" || f.Value == "" {
		return fmt.Errorf("tag, attr and value are required")
	}
	return nil
}

// LoaderConfig holds the table loading configuration.
type LoaderConfig struct {
	DBPath string

	ProductFile   string
	MoreFile      string
	ProductTable  string
	ProductIndex  string
	ProductKey    string
	AppendColumns []string

	PersonFile  string
	PersonTable string
	PersonIndex string
	PersonKey   string

	DedupeCacheSize int
	Verbose         bool
}

// DefaultLoaderConfig returns defaults matching the proof-of-concept files.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		DBPath:          "snax.db",
		ProductFile:     "scrape_PoC.csv",
		MoreFile:        "more.csv",
		ProductTable:    "products",
		ProductIndex:    "product_index",
		ProductKey:      "productid",
		AppendColumns:   []string{"productid", "name", "PDP_productPrice"},
		PersonFile:      "person_PoC.csv",
		PersonTable:     "persons",
		PersonIndex:     "person_index",
		PersonKey:       "alspacid",
		DedupeCacheSize: 4096,
	}
}

// Validate ensures all loader values are set.
func (c *LoaderConfig) Validate() error {
	required := map[string]string{
		"db path":       c.DBPath,
		"product file":  c.ProductFile,
		"product table": c.ProductTable,
		"product index": c.ProductIndex,
		"product key":   c.ProductKey,
		"person table":  c.PersonTable,
		"person index":  c.PersonIndex,
		"person key":    c.PersonKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	if len(c.AppendColumns) == 0 {
		return fmt.Errorf("append columns cannot be empty")
	}
	if !slices.Contains(c.AppendColumns, c.ProductKey) {
		return fmt.Errorf("append columns must include the product key %q", c.ProductKey)
	}
	if c.DedupeCacheSize <= 0 {
		return fmt.Errorf("dedupe cache size must be positive")
	}
	return nil
}
