package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aluiziolira/go-snax/models"
)

func sampleTable() *models.Table {
	t := models.NewTable(models.LinkColumn, "name", "PDP_productPrice")
	t.Append(map[string]string{models.LinkColumn: "http://example.test/p/1", "name": "Vitamin C", "PDP_productPrice": "£4.99"})
	t.Append(map[string]string{models.LinkColumn: "http://example.test/p/2", "name": "Zinc, \"high\" strength"})
	return t
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "snax.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write(sampleTable()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if records[0][0] != models.LinkColumn || records[0][2] != "PDP_productPrice" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[2][1] != "Zinc, \"high\" strength" || records[2][2] != "" {
		t.Fatalf("unexpected row: %v", records[2])
	}
}

func TestCSVWriterHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	for _, link := range []string{"a", "b"} {
		if err := writer.Write(models.LinksTable([]string{link})); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	links, err := ReadLinks(path)
	if err != nil {
		t.Fatalf("read links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links=%v, want [a b]", links)
	}
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snax.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := WriteTable(writer, sampleTable()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var rows []map[string]string
	for scanner.Scan() {
		var decoded map[string]string
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		rows = append(rows, decoded)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("json lines=%d, want 2", len(rows))
	}
	if price, ok := rows[1]["PDP_productPrice"]; !ok || price != "" {
		t.Fatalf("missing field should be present and empty, got %q/%v", price, ok)
	}
}

func TestCreateWriterDual(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "snax_2024-01-02T03:04:05")

	writer, path, err := CreateWriter("dual", base)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if path != base+".csv" {
		t.Fatalf("primary path=%q", path)
	}
	if err := WriteTable(writer, sampleTable()); err != nil {
		t.Fatalf("write dual: %v", err)
	}

	if info, err := os.Stat(base + ".csv"); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(base + ".jsonl"); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestCreateWriterUnknownFormat(t *testing.T) {
	if _, _, err := CreateWriter("xml", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

type recordingWriter struct {
	calls       []string
	validateErr error
}

func (w *recordingWriter) Write(*models.Table) error {
	w.calls = append(w.calls, "write")
	return nil
}

func (w *recordingWriter) Validate() error {
	w.calls = append(w.calls, "validate")
	return w.validateErr
}

func (w *recordingWriter) Close() error {
	w.calls = append(w.calls, "close")
	return nil
}

func TestWriteTableValidatesBeforeClose(t *testing.T) {
	tests := []struct {
		name        string
		table       *models.Table
		validateErr error
		wantCalls   []string
		wantErr     bool
	}{
		{
			name:      "rows are validated",
			table:     sampleTable(),
			wantCalls: []string{"write", "validate", "close"},
		},
		{
			name:        "validation failure still closes",
			table:       sampleTable(),
			validateErr: errors.New("file is empty"),
			wantCalls:   []string{"write", "validate", "close"},
			wantErr:     true,
		},
		{
			name:      "empty table skips validation",
			table:     models.NewTable(models.LinkColumn),
			wantCalls: []string{"write", "close"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{validateErr: tt.validateErr}
			err := WriteTable(w, tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(w.calls, tt.wantCalls) {
				t.Fatalf("calls=%v, want %v", w.calls, tt.wantCalls)
			}
		})
	}
}

func TestWriteTableEmptyJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snax.jsonl")
	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := WriteTable(writer, models.NewTable(models.LinkColumn, "name")); err != nil {
		t.Fatalf("empty table should write without error: %v", err)
	}
}
