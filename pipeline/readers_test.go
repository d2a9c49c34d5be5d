package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrape.csv")
	body := ",productid,name\n0,101,Vitamin C\n1,102\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	tbl, err := ReadTable(path)
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	wantCols := []string{"Unnamed: 0", "productid", "name"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns=%v, want %v", tbl.Columns, wantCols)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows=%d, want 2", tbl.Len())
	}
	if tbl.Rows[1]["productid"] != "102" || tbl.Rows[1]["name"] != "" {
		t.Fatalf("short row=%v", tbl.Rows[1])
	}
}

func TestReadTableXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persons.xlsx")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	cells := map[string]string{
		"A1": "alspacid", "B1": "name",
		"A2": "9001", "B2": "Ada",
		"A3": "9002", "B3": "Grace",
	}
	for cell, value := range cells {
		if err := wb.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	wb.Close()

	tbl, err := ReadTable(path)
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"alspacid", "name"}) {
		t.Fatalf("columns=%v", tbl.Columns)
	}
	if tbl.Len() != 2 || tbl.Rows[1]["name"] != "Grace" {
		t.Fatalf("rows=%v", tbl.Rows)
	}
}

func TestReadLinksMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("url\nhttp://x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadLinks(path); err == nil {
		t.Fatalf("expected missing column error")
	}
}

func TestLatestLinksFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LatestLinksFile(dir); !errors.Is(err, ErrNoLinksFile) {
		t.Fatalf("expected ErrNoLinksFile, got %v", err)
	}

	for _, name := range []string{
		"linx_2024-01-02T10:00:00.csv",
		"linx_2024-03-01T09:30:00.csv",
		"snax_2024-12-01T00:00:00.csv",
		"linx_2023-12-31T23:59:59.csv",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("product_link\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got, err := LatestLinksFile(dir)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if filepath.Base(got) != "linx_2024-03-01T09:30:00.csv" {
		t.Fatalf("latest=%s", got)
	}
}
