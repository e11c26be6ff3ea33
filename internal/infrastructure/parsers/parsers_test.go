package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
	"github.com/alejandroruanova/idlookup-service/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestFiles(t *testing.T) string {
	tempDir := t.TempDir()

	csvContent := `Name,Age,City
John Doe,30,New York
Jane Smith,25,Los Angeles
Bob Johnson,35,Chicago
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "test.csv"), []byte(csvContent), 0644))

	jsonContent := `[
  {"Name": "John Doe", "Age": 30, "City": "New York"},
  {"Name": "Jane Smith", "Age": 25, "City": "Los Angeles"},
  {"Name": "Bob Johnson", "Age": 35, "City": "Chicago"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "test.json"), []byte(jsonContent), 0644))

	jsonlContent := `{"Name": "John Doe", "Age": 30, "City": "New York"}
{"Name": "Jane Smith", "Age": 25, "City": "Los Angeles"}
{"Name": "Bob Johnson", "Age": 35, "City": "Chicago"}
`
	for _, name := range []string{"test.jsonl", "test.ndjson", "test.jsonnl"} {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, name), []byte(jsonlContent), 0644))
	}

	testkit.WriteWorkbook(t, filepath.Join(tempDir, "test.xlsx"), testkit.Rows(
		[]any{"Name", "Age", "City"},
		[]any{"John Doe", 30, "New York"},
		[]any{"Jane Smith", 25, "Los Angeles"},
		[]any{"Bob Johnson", 35, "Chicago"},
	))

	return tempDir
}

func cell(t *testing.T, row *domain.Row, column string) any {
	t.Helper()
	value, ok := row.Get(column)
	require.True(t, ok, "column %q missing", column)
	return value
}

func TestExcelParser_Parse(t *testing.T) {
	tempDir := setupTestFiles(t)

	parser := NewExcelParser(nil)
	result, err := parser.Parse(context.Background(), filepath.Join(tempDir, "test.xlsx"))

	require.NoError(t, err)
	assert.Equal(t, "XLSX", result.Format)
	assert.Equal(t, []string{"Name", "Age", "City"}, result.Table.Columns)
	require.Equal(t, 3, result.Table.Len())

	first := result.Table.Rows[0]
	assert.Equal(t, "John Doe", cell(t, first, "Name"))
	assert.Equal(t, float64(30), cell(t, first, "Age"))
	assert.Equal(t, "New York", cell(t, first, "City"))
}

func TestExcelParser_TypedCells(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{"ID", "Ratio", "Active", "Code"},
		[]any{7, 0.5, true, "007"},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, result.Table.Len())

	row := result.Table.Rows[0]
	assert.Equal(t, float64(7), cell(t, row, "ID"))
	assert.Equal(t, 0.5, cell(t, row, "Ratio"))
	assert.Equal(t, true, cell(t, row, "Active"))
	assert.Equal(t, "007", cell(t, row, "Code"), "text cells stay text even when numeric-looking")
}

func TestExcelParser_MissingCellsAreNull(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{"ID", "Name", "Email"},
		[]any{1, nil, "a@example.com"},
		[]any{2, "Bo"},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, result.Table.Len())

	assert.Nil(t, cell(t, result.Table.Rows[0], "Name"))
	assert.Nil(t, cell(t, result.Table.Rows[1], "Email"))
	assert.Equal(t, []string{"ID", "Name", "Email"}, result.Table.Rows[1].Columns())
}

func TestExcelParser_SkipsBlankRows(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{"ID"},
		[]any{1},
		[]any{nil},
		[]any{3},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Table.Len())
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.SkippedRows)
}

func TestExcelParser_HeaderNaming(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{"Name", nil, "Name", nil},
		[]any{"a", "b", "c", "d", "e"},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "__EMPTY", "Name_1", "__EMPTY_1", "__EMPTY_2"}, result.Table.Columns)
	assert.Equal(t, "e", cell(t, result.Table.Rows[0], "__EMPTY_2"))
}

func TestExcelParser_ReadsFirstSheetOnly(t *testing.T) {
	data := testkit.WorkbookBytes(t,
		testkit.Sheet{Name: "Roster", Rows: [][]any{{"ID"}, {"first"}}},
		testkit.Sheet{Name: "Archive", Rows: [][]any{{"ID"}, {"second"}}},
	)

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, "first", cell(t, result.Table.Rows[0], "ID"))
}

func TestExcelParser_HeaderOnly(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows([]any{"ID", "Name"}))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, result.Table.IsEmpty())
	assert.Equal(t, []string{"ID", "Name"}, result.Table.Columns)
}

func TestExcelParser_EmptySheet(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows())

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, result.Table.IsEmpty())
	assert.Empty(t, result.Table.Columns)
}

func TestExcelParser_OffsetTable(t *testing.T) {
	// Table starts at B3
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{},
		[]any{},
		[]any{nil, "Name", "Email"},
		[]any{nil, "Ana", "a@x.com"},
		[]any{nil, "Bo"},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Email"}, result.Table.Columns)
	assert.Equal(t, 2, result.TotalRows)
	require.Equal(t, 2, result.Table.Len())

	first := result.Table.Rows[0]
	assert.Equal(t, []string{"Name", "Email"}, first.Columns())
	assert.Equal(t, "Ana", cell(t, first, "Name"))
	assert.Equal(t, "a@x.com", cell(t, first, "Email"))
	assert.Nil(t, cell(t, result.Table.Rows[1], "Email"))
}

func TestExcelParser_OffsetColumnsOnly(t *testing.T) {
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{nil, nil, "ID", "Score"},
		[]any{nil, nil, 1, 0.5},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Score"}, result.Table.Columns)
	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, float64(1), cell(t, result.Table.Rows[0], "ID"))
	assert.Equal(t, 0.5, cell(t, result.Table.Rows[0], "Score"))
}

func TestExcelParser_LeftmostColumnFromAnyRow(t *testing.T) {
	// A data cell left of the header widens the table with a blank header
	data := testkit.WorkbookBytes(t, testkit.Rows(
		[]any{},
		[]any{nil, nil, "ID"},
		[]any{nil, "note", 1},
	))

	result, err := NewExcelParser(nil).ParseStream(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"__EMPTY", "ID"}, result.Table.Columns)
	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, "note", cell(t, result.Table.Rows[0], "__EMPTY"))
	assert.Equal(t, float64(1), cell(t, result.Table.Rows[0], "ID"))
}

func TestUsedOrigin(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		raw      [][]string
		wantTop  int
		wantLeft int
	}{
		{"empty", nil, nil, -1, 0},
		{"at A1", [][]string{{"ID"}}, [][]string{{"ID"}}, 0, 0},
		{"offset", [][]string{nil, {"", "", "ID"}}, [][]string{nil, {"", "", "ID"}}, 1, 2},
		{"min over rows", [][]string{{"", "", "ID"}, {"", "x"}}, nil, 0, 1},
		{"raw only value", [][]string{{"", ""}}, [][]string{{"", "0"}}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, left := usedOrigin(tt.rows, tt.raw)
			assert.Equal(t, tt.wantTop, top)
			assert.Equal(t, tt.wantLeft, left)
		})
	}
}

func TestExcelParser_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a workbook"), 0644))

	_, err := NewExcelParser(nil).Parse(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open Excel file")
}

func TestExcelParser_MissingFile(t *testing.T) {
	_, err := NewExcelParser(nil).Parse(context.Background(), filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExcelParser_SupportedFormats(t *testing.T) {
	assert.Equal(t, []string{".xlsx", ".xlsm"}, NewExcelParser(nil).SupportedFormats())
}

func TestCSVParser_Parse(t *testing.T) {
	tempDir := setupTestFiles(t)

	parser := NewCSVParser(nil)
	result, err := parser.Parse(context.Background(), filepath.Join(tempDir, "test.csv"))

	require.NoError(t, err)
	assert.Equal(t, 3, result.Table.Len())
	assert.Equal(t, "CSV", result.Format)
	assert.Equal(t, []string{"Name", "Age", "City"}, result.Table.Columns)

	first := result.Table.Rows[0]
	assert.Equal(t, "John Doe", cell(t, first, "Name"))
	assert.Equal(t, "30", cell(t, first, "Age"))
	assert.Equal(t, "New York", cell(t, first, "City"))
}

func TestCSVParser_SkipEmptyRows(t *testing.T) {
	csvContent := `Name,Age
John,30
,
Jane,25
,
`
	config := DefaultParserConfig()
	config.SkipEmptyRows = true

	result, err := NewCSVParser(config).ParseStream(context.Background(), bytes.NewReader([]byte(csvContent)))

	require.NoError(t, err)
	assert.Equal(t, 2, result.Table.Len())
	assert.Equal(t, 2, result.SkippedRows)
}

func TestCSVParser_TrimWhitespace(t *testing.T) {
	csvContent := `  Name  ,  Age
  John  ,  30
  Jane  ,  25
`
	config := DefaultParserConfig()
	config.TrimWhitespace = true

	result, err := NewCSVParser(config).ParseStream(context.Background(), bytes.NewReader([]byte(csvContent)))

	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age"}, result.Table.Columns)
	assert.Equal(t, "John", cell(t, result.Table.Rows[0], "Name"))
	assert.Equal(t, "30", cell(t, result.Table.Rows[0], "Age"))
}

func TestCSVParser_MissingColumnsAreNull(t *testing.T) {
	csvContent := `Name,Age,City
John,30,New York
Jane,25
Bob
`
	result, err := NewCSVParser(nil).ParseStream(context.Background(), bytes.NewReader([]byte(csvContent)))

	require.NoError(t, err)
	require.Equal(t, 3, result.Table.Len())
	assert.Nil(t, cell(t, result.Table.Rows[1], "City"))
	assert.Nil(t, cell(t, result.Table.Rows[2], "Age"))
	assert.Nil(t, cell(t, result.Table.Rows[2], "City"))
}

func TestCSVParser_EmptyInput(t *testing.T) {
	result, err := NewCSVParser(nil).ParseStream(context.Background(), bytes.NewReader(nil))
	require.NoError(t, err)
	assert.True(t, result.Table.IsEmpty())
}

func TestJSONParser_Parse(t *testing.T) {
	tempDir := setupTestFiles(t)

	result, err := NewJSONParser(nil).Parse(context.Background(), filepath.Join(tempDir, "test.json"))

	require.NoError(t, err)
	assert.Equal(t, 3, result.Table.Len())
	assert.Equal(t, "JSON", result.Format)
	assert.Equal(t, []string{"Name", "Age", "City"}, result.Table.Columns)

	first := result.Table.Rows[0]
	assert.Equal(t, "John Doe", cell(t, first, "Name"))
	assert.Equal(t, float64(30), cell(t, first, "Age")) // JSON numbers are float64
}

func TestJSONParser_UnionOfKeys(t *testing.T) {
	jsonContent := `[{"id": "a"}, {"id": "b", "extra": 1}]`

	result, err := NewJSONParser(nil).ParseStream(context.Background(), bytes.NewReader([]byte(jsonContent)))

	require.NoError(t, err)
	assert.Equal(t, []string{"id", "extra"}, result.Table.Columns)
	assert.Nil(t, cell(t, result.Table.Rows[0], "extra"))
	assert.Equal(t, float64(1), cell(t, result.Table.Rows[1], "extra"))
}

func TestJSONParser_SingleObject(t *testing.T) {
	result, err := NewJSONParser(nil).ParseStream(context.Background(), bytes.NewReader([]byte(`{"id": 9}`)))

	require.NoError(t, err)
	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, float64(9), cell(t, result.Table.Rows[0], "id"))
}

func TestJSONParser_Invalid(t *testing.T) {
	_, err := NewJSONParser(nil).ParseStream(context.Background(), bytes.NewReader([]byte(`{not json`)))
	assert.Error(t, err)
}

func TestJSONParser_RowsKeepKeyOrder(t *testing.T) {
	result, err := NewJSONParser(nil).ParseStream(context.Background(), bytes.NewReader([]byte(`[{"z": 1, "a": 2}]`)))
	require.NoError(t, err)

	data, err := json.Marshal(result.Table.Rows[0])
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2}`, string(data))
}

func TestJSONLParser_SkipEmptyAndMalformedLines(t *testing.T) {
	jsonlContent := `{"name": "John"}

{invalid json}
{"name": "Jane"}
`
	result, err := NewJSONLParser(nil).ParseStream(context.Background(), bytes.NewReader([]byte(jsonlContent)))

	require.NoError(t, err)
	assert.Equal(t, 2, result.Table.Len())
	assert.Equal(t, 2, result.SkippedRows)
	assert.Equal(t, "JSONL", result.Format)
}

func TestJSONLParser_AllVariants(t *testing.T) {
	tempDir := setupTestFiles(t)
	parser := NewJSONLParser(nil)

	for _, filename := range []string{"test.jsonl", "test.ndjson", "test.jsonnl"} {
		t.Run(filename, func(t *testing.T) {
			result, err := parser.Parse(context.Background(), filepath.Join(tempDir, filename))

			require.NoError(t, err)
			assert.Equal(t, 3, result.Table.Len())
			assert.Equal(t, "JSONL", result.Format)
		})
	}
}

func TestParserFactory_GetParser(t *testing.T) {
	factory := NewParserFactory(nil)

	tests := []struct {
		ext      string
		expected FileParser
	}{
		{".csv", &CSVParser{}},
		{".xlsx", &ExcelParser{}},
		{"XLSM", &ExcelParser{}},
		{".json", &JSONParser{}},
		{".jsonl", &JSONLParser{}},
		{".ndjson", &JSONLParser{}},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			parser, err := factory.GetParser(tt.ext)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, parser)
		})
	}
}

func TestParserFactory_GetParser_Unsupported(t *testing.T) {
	factory := NewParserFactory(nil)

	parser, err := factory.GetParser(".txt")
	assert.Error(t, err)
	assert.Nil(t, parser)
	assert.Contains(t, err.Error(), "no parser found")
	assert.False(t, factory.IsSupported(".pdf"))
	assert.True(t, factory.IsSupported("xlsx"))
}

func TestParserFactory_ParseFile(t *testing.T) {
	tempDir := setupTestFiles(t)
	factory := NewParserFactory(nil)

	tests := []struct {
		filename string
		format   string
		rows     int
	}{
		{"test.xlsx", "XLSX", 3},
		{"test.csv", "CSV", 3},
		{"test.json", "JSON", 3},
		{"test.jsonl", "JSONL", 3},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result, err := factory.ParseFile(context.Background(), filepath.Join(tempDir, tt.filename))

			require.NoError(t, err)
			assert.Equal(t, tt.format, result.Format)
			assert.Equal(t, tt.rows, result.Table.Len())
		})
	}
}

func TestParserFactory_ParseReader(t *testing.T) {
	tempDir := setupTestFiles(t)
	factory := NewParserFactory(nil)

	f, err := os.Open(filepath.Join(tempDir, "test.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	result, err := factory.ParseReader(context.Background(), "data.xlsx", f)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Table.Len())
}

func TestParserFactory_SupportedFormats(t *testing.T) {
	formats := NewParserFactory(nil).SupportedFormats()

	for _, expected := range []string{".csv", ".xlsx", ".xlsm", ".json", ".jsonl", ".ndjson", ".jsonnl"} {
		assert.Contains(t, formats, expected)
	}
}

func TestParserConfig_MaxFileSize(t *testing.T) {
	tempDir := setupTestFiles(t)

	config := DefaultParserConfig()
	config.MaxFileSize = 10 // Only 10 bytes

	for _, name := range []string{"test.csv", "test.xlsx", "test.json", "test.jsonl"} {
		t.Run(name, func(t *testing.T) {
			_, err := NewParserFactory(config).ParseFile(context.Background(), filepath.Join(tempDir, name))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "exceeds maximum")
		})
	}
}

func TestContext_Cancellation(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("Name,Age\n")
	for i := 0; i < 10000; i++ {
		buf.WriteString("John,30\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVParser(nil).ParseStream(ctx, &buf)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestDefaultParserConfig(t *testing.T) {
	config := DefaultParserConfig()

	assert.True(t, config.SkipEmptyRows)
	assert.False(t, config.TrimWhitespace)
	assert.Equal(t, int64(500*1024*1024), config.MaxFileSize) // 500 MB
}

func TestUniqueHeaders(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		expected []string
	}{
		{"distinct", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates", []string{"a", "a", "a"}, []string{"a", "a_1", "a_2"}},
		{"blanks", []string{"", "x", ""}, []string{"__EMPTY", "x", "__EMPTY_1"}},
		{"suffix collision", []string{"a", "a_1", "a"}, []string{"a", "a_1", "a_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, uniqueHeaders(tt.raw))
		})
	}
}
