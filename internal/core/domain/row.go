package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row is one record of a parsed table, keyed by column header.
// Cells keep header order so JSON output lists columns as the file does.
// A cell value is a string, float64, bool or nil (absent).
type Row struct {
	cells *orderedmap.OrderedMap[string, any]
}

// NewRow creates an empty row
func NewRow() *Row {
	return &Row{cells: orderedmap.New[string, any]()}
}

// RowFromPairs builds a row from alternating column/value arguments.
// It panics on an odd argument count or a non-string column name.
func RowFromPairs(pairs ...any) *Row {
	if len(pairs)%2 != 0 {
		panic("domain: RowFromPairs needs column/value pairs")
	}
	row := NewRow()
	for i := 0; i < len(pairs); i += 2 {
		column, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("domain: column name %v is not a string", pairs[i]))
		}
		row.Set(column, pairs[i+1])
	}
	return row
}

// Set stores a cell value, appending the column if it is new
func (r *Row) Set(column string, value any) {
	r.cells.Set(column, value)
}

// Get returns the raw cell value and whether the column exists
func (r *Row) Get(column string) (any, bool) {
	return r.cells.Get(column)
}

// Text returns the cell rendered as a string. ok is false when the
// column is missing or the cell is null.
func (r *Row) Text(column string) (string, bool) {
	value, exists := r.cells.Get(column)
	if !exists {
		return "", false
	}
	return CellText(value)
}

// Columns returns the column names in header order
func (r *Row) Columns() []string {
	columns := make([]string, 0, r.cells.Len())
	for pair := r.cells.Oldest(); pair != nil; pair = pair.Next() {
		columns = append(columns, pair.Key)
	}
	return columns
}

// Len returns the number of cells
func (r *Row) Len() int {
	return r.cells.Len()
}

// IsBlank reports whether every cell is null
func (r *Row) IsBlank() bool {
	for pair := r.cells.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as a JSON object in column order
func (r *Row) MarshalJSON() ([]byte, error) {
	return r.cells.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object keeping its key order
func (r *Row) UnmarshalJSON(data []byte) error {
	if r.cells == nil {
		r.cells = orderedmap.New[string, any]()
	}
	return r.cells.UnmarshalJSON(data)
}

// CellText stringifies a cell value the way the lookup compares it.
// Numbers use the shortest representation, so 7.0 becomes "7".
func CellText(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return formatNumber(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprint(v), true
	}
}

// formatNumber renders v in the shortest decimal form, switching to exponent
// notation at 1e21 and above or below 1e-6 ("1e+21", "1.5e-7").
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	if v == 0 {
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}
