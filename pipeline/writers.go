package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-snax/models"
)

// OutputWriter defines the interface for tabular output.
type OutputWriter interface {
	Write(t *models.Table) error
	Close() error
	Validate() error
}

// CSVWriter writes a table to CSV, header first.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	header bool
}

// NewCSVWriter creates filename and its directory.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: csv.NewWriter(f),
	}, nil
}

// Write appends the rows of t. The header is written on the first call only.
func (cw *CSVWriter) Write(t *models.Table) error {
	if !cw.header {
		if err := cw.writer.Write(t.Columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		cw.header = true
	}
	for i := range t.Rows {
		if err := cw.writer.Write(t.Record(i)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON objects, one per row.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends the rows of t in JSONL format. Every column is present in
// every object.
func (jw *JSONWriter) Write(t *models.Table) error {
	for _, row := range t.Rows {
		obj := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			obj[c] = row[c]
		}
		if err := jw.encoder.Encode(obj); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

// WriteTable writes the whole table, validates the output when the table
// has rows, and closes w.
func WriteTable(w OutputWriter, t *models.Table) error {
	if err := w.Write(t); err != nil {
		w.Close()
		return err
	}
	if t.Len() > 0 {
		if err := w.Validate(); err != nil {
			w.Close()
			return fmt.Errorf("validate output: %w", err)
		}
	}
	return w.Close()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
