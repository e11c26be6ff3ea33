package domain

// Table is an ordered sequence of rows sharing one header.
// It is built fresh for every lookup and never written back.
type Table struct {
	Columns []string
	Rows    []*Row
}

// NewTable creates an empty table with the given header
func NewTable(columns []string) *Table {
	return &Table{
		Columns: columns,
		Rows:    []*Row{},
	}
}

// Append adds a row to the table
func (t *Table) Append(row *Row) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table holds no rows
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Filter returns the rows for which keep returns true, in table order.
// The result is never nil.
func (t *Table) Filter(keep func(*Row) bool) []*Row {
	matched := make([]*Row, 0)
	for _, row := range t.Rows {
		if keep(row) {
			matched = append(matched, row)
		}
	}
	return matched
}
