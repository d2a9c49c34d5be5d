package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aluiziolira/go-snax/models"
)

// Targets is the site-specific part of the configuration: where to crawl and
// what to pull out of each product page.
type Targets struct {
	BaseURL      string             `json:"base_url"`
	Categories   []models.Category  `json:"categories"`
	PageMarker   string             `json:"page_marker,omitempty"`
	LinkSelector *models.FieldSpec  `json:"link_selector,omitempty"`
	Fields       []models.FieldSpec `json:"fields"`
}

// LoadTargets reads a JSON targets file.
func LoadTargets(path string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets %s: %w", path, err)
	}
	var t Targets
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode targets %s: %w", path, err)
	}
	return &t, nil
}

// Apply copies every non-empty target value onto cfg.
func (t *Targets) Apply(cfg *Config) {
	if t.BaseURL != "" {
		cfg.BaseURL = t.BaseURL
	}
	if len(t.Categories) > 0 {
		cfg.Categories = t.Categories
	}
	if t.PageMarker != "" {
		cfg.PageMarker = t.PageMarker
	}
	if t.LinkSelector != nil {
		cfg.LinkSelector = *t.LinkSelector
	}
	if len(t.Fields) > 0 {
		cfg.Fields = t.Fields
	}
}
