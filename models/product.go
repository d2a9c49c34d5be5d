// Package models defines data structures for the scraper and loader.
package models

import "time"

// Category is a listing path segment appended to the base URL.
type Category string

// ExtractMode selects how a field is read from a product page.
type ExtractMode string

const (
	// ModeSingle takes the first matching node.
	ModeSingle ExtractMode = "single"
	// ModeMulti concatenates every matching node.
	ModeMulti ExtractMode = "multi"
)

// FieldSpec describes one named field on a product page. Value is both the
// attribute value to match and the output column name.
type FieldSpec struct {
	Mode  ExtractMode `json:"mode"`
	Tag   string      `json:"tag"`
	Attr  string      `json:"attr"`
	Value string      `json:"value"`
}

// Column returns the output column the field is written to.
func (f FieldSpec) Column() string {
	return f.Value
}

// Product is one extracted row keyed by its detail-page link.
type Product struct {
	Link   string            `json:"product_link"`
	Fields map[string]string `json:"fields"`
}

// RunResult holds the overall result of one crawl run.
type RunResult struct {
	RunID         string
	StartTime     time.Time
	EndTime       time.Time
	LinkCount     int
	ProductCount  int
	MissingFields map[string]int
	RequestCount  int
	RetryCount    int
	ErrorsByType  map[string]int
	LinksFile     string
	ProductsFile  string
}
