package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Canonical column names.
const (
	ColDate       = "date"
	ColYearMonth  = "yearmonth"
	ColMonthName  = "month_name"
	ColDayName    = "day_name"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColTotal      = "total"
	ColHour       = "hour"
	ColYear       = "year"
	ColSeason     = "season"
	ColWeather    = "weather"
)

// DailyColumns must all be present in the daily source.
var DailyColumns = []string{ColDate, ColYearMonth, ColMonthName, ColDayName, ColCasual, ColRegistered, ColTotal}

// HourlyColumns must all be present in the hourly source. casual and
// registered are optional there and default to zero.
var HourlyColumns = []string{ColDate, ColHour, ColYear, ColSeason, ColWeather, ColYearMonth, ColMonthName, ColDayName, ColTotal}

// columnAliases maps header spellings of the raw UCI dataset onto the
// canonical names.
var columnAliases = map[string]string{
	"dteday":     ColDate,
	"hr":         ColHour,
	"yr":         ColYear,
	"weathersit": ColWeather,
	"cnt":        ColTotal,
}

const utf8BOM = "\ufeff"

// RawTable is a source table as text, before normalization.
type RawTable struct {
	Name   string
	Source string
	Header []string
	Rows   [][]string

	index map[string]int
}

// newRawTable takes the header from the first record. A table without data
// rows, or with a row whose width differs from the header, is rejected.
// padShort accepts short rows instead, since spreadsheets drop trailing
// empty cells.
func newRawTable(name string, records [][]string, padShort bool) (*RawTable, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", name)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	}
	index := indexHeader(header)

	rows := records[1:]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no data rows", name)
	}
	for i, row := range rows {
		switch {
		case len(row) == len(header):
		case len(row) < len(header) && padShort:
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		default:
			return nil, fmt.Errorf("%s: row %d has %d fields, header has %d", name, i+1, len(row), len(header))
		}
	}

	return &RawTable{Name: name, Header: header, Rows: rows, index: index}, nil
}

// indexHeader maps canonical column names to positions. A canonical name
// present verbatim wins over its alias, and the first duplicate wins.
func indexHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, key := range header {
		if _, dup := index[key]; !dup && key != "" {
			index[key] = i
		}
	}
	for i, key := range header {
		canonical, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, taken := index[canonical]; !taken {
			index[canonical] = i
		}
	}
	return index
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of a canonical column name.
func (t *RawTable) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Values returns one column in row order.
func (t *RawTable) Values(name string) ([]string, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%s: missing column %q", t.Name, name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = strings.TrimSpace(row[col])
	}
	return out, nil
}

// Require fails when any of columns is absent, naming all of them.
func (t *RawTable) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required columns %s", t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// ParseCSV reads a comma separated table with a header row.
func ParseCSV(name string, r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Width is checked against the header in newRawTable.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: malformed csv: %w", name, err)
	}
	return newRawTable(name, records, false)
}

// ParseXLSX reads the first sheet of a workbook with a header row.
func ParseXLSX(name string, r io.Reader) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed workbook: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", name)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %q: %w", name, sheets[0], err)
	}

	// Blank trailing lines come back as empty rows.
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return newRawTable(name, rows, true)
}
