package pipeline

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-snax/models"
)

// DualWriter outputs to both CSV and JSON lines files.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
}

// NewDualWriter creates a new dual writer for both CSV and JSON output.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}

	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write writes the table to both CSV and JSON formats.
func (dw *DualWriter) Write(t *models.Table) error {
	if err := dw.csvWriter.Write(t); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	if err := dw.jsonWriter.Write(t); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}
	return nil
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	var errs []error
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("CSV close failed: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("JSON close failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.csvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("CSV validation failed: %w", err))
	}
	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("JSON validation failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}

// CreateWriter opens a writer for format. base has no extension; the CSV file
// gets .csv and the JSON lines file .jsonl. It returns the primary path.
func CreateWriter(format, base string) (OutputWriter, string, error) {
	base = strings.TrimSuffix(base, ".csv")
	csvPath := base + ".csv"
	jsonPath := base + ".jsonl"

	switch format {
	case "json":
		w, err := NewJSONWriter(jsonPath)
		return w, jsonPath, err
	case "csv":
		w, err := NewCSVWriter(csvPath)
		return w, csvPath, err
	case "dual":
		w, err := NewDualWriter(csvPath, jsonPath)
		return w, csvPath, err
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
}
