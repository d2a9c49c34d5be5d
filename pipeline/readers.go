package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/go-snax/models"
)

// ErrNoLinksFile is returned when the output directory holds no links file.
var ErrNoLinksFile = errors.New("pipeline: no links file found")

// ReadTable loads a tabular file. Files ending in .xlsx are read from their
// first sheet; anything else is parsed as CSV. The first row is the header.
func ReadTable(path string) (*models.Table, error) {
	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = readXLSX(path)
	} else {
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no header row", path)
	}
	return tableFromRecords(records), nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// tableFromRecords names blank header cells "Unnamed: i", the way frames
// written with a leading index column come back.
func tableFromRecords(records [][]string) *models.Table {
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = name
	}

	t := models.NewTable(header...)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, c := range header {
			if i < len(rec) {
				row[c] = rec[i]
			}
		}
		t.Append(row)
	}
	return t
}

// ReadLinks returns the product_link column of a links file.
func ReadLinks(path string) ([]string, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(models.LinkColumn) {
		return nil, fmt.Errorf("%s: missing %s column", path, models.LinkColumn)
	}
	links := make([]string, 0, t.Len())
	for _, row := range t.Rows {
		if link := strings.TrimSpace(row[models.LinkColumn]); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

// LatestLinksFile returns the newest linx_*.csv in dir. Timestamped names
// sort chronologically.
func LatestLinksFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, linksPrefix+"*.csv"))
	if err != nil {
		return "", fmt.Errorf("glob links files: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLinksFile, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
