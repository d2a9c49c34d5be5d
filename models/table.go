package models

// LinkColumn is the single column of a links file and the first column of a
// products file.
const LinkColumn = "product_link"

// Table is an ordered tabular frame. Rows are keyed by column name; a missing
// key reads as the empty string.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// AddColumn appends name unless the table already has it.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
}

// DropColumn removes name from the header and every row.
func (t *Table) DropColumn(name string) {
	out := t.Columns[:0]
	for _, c := range t.Columns {
		if c != name {
			out = append(out, c)
		}
	}
	t.Columns = out
	for _, row := range t.Rows {
		delete(row, name)
	}
}

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row. The map is stored as is.
func (t *Table) Append(row map[string]string) {
	t.Rows = append(t.Rows, row)
}

// Record returns row i in header order.
func (t *Table) Record(i int) []string {
	row := t.Rows[i]
	rec := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		rec[j] = row[c]
	}
	return rec
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// LinksTable materializes a links file frame.
func LinksTable(links []string) *Table {
	t := NewTable(LinkColumn)
	for _, link := range links {
		t.Append(map[string]string{LinkColumn: link})
	}
	return t
}

// ProductsTable materializes products into a frame with the link column first
// followed by the field columns in the order given.
func ProductsTable(products []*Product, specs []FieldSpec) *Table {
	t := NewTable(LinkColumn)
	for _, spec := range specs {
		t.AddColumn(spec.Column())
	}
	for _, p := range products {
		row := make(map[string]string, len(p.Fields)+1)
		for k, v := range p.Fields {
			row[k] = v
		}
		row[LinkColumn] = p.Link
		t.Append(row)
	}
	return t
}
