package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bikedash/internal/dataprocessing"
	"bikedash/pkg/contracts/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Table is a typed table ready for export. Cells hold string, int or int64
// values so that XLSX keeps numbers numeric.
type Table struct {
	Name    string
	Headers []string
	Cells   [][]any
}

// FileName returns the download name, e.g. "daily.csv".
func (t Table) FileName(f Format) string {
	return t.Name + "." + string(f)
}

// Records renders every cell as text for CSV.
func (t Table) Records() [][]string {
	records := make([][]string, len(t.Cells))
	for i, row := range t.Cells {
		records[i] = rowStrings(row)
	}
	return records
}

func rowStrings(row []any) []string {
	rec := make([]string, len(row))
	for j, cell := range row {
		rec[j] = cellString(cell)
	}
	return rec
}

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case int64:
		return formatInt(c)
	default:
		return fmt.Sprint(c)
	}
}

// DailyRows lays out the daily table with the same header the loader reads.
func DailyRows(t *domain.DailyTable) Table {
	out := Table{
		Name:    dataprocessing.TableDaily,
		Headers: dataprocessing.DailyColumns,
	}
	if t == nil {
		return out
	}
	out.Cells = make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Cells = append(out.Cells, []any{
			formatDate(r.Date),
			r.YearMonth.Value,
			r.MonthName.Value,
			r.DayName.Value,
			r.Casual,
			r.Registered,
			r.Total,
		})
	}
	return out
}

// hourlyHeaders puts the optional casual/registered columns ahead of total.
var hourlyHeaders = []string{
	dataprocessing.ColDate,
	dataprocessing.ColHour,
	dataprocessing.ColYear,
	dataprocessing.ColSeason,
	dataprocessing.ColWeather,
	dataprocessing.ColYearMonth,
	dataprocessing.ColMonthName,
	dataprocessing.ColDayName,
	dataprocessing.ColCasual,
	dataprocessing.ColRegistered,
	dataprocessing.ColTotal,
}

// HourlyRows lays out the hourly table with the same header the loader reads.
func HourlyRows(t *domain.HourlyTable) Table {
	out := Table{
		Name:    dataprocessing.TableHourly,
		Headers: hourlyHeaders,
	}
	if t == nil {
		return out
	}
	out.Cells = make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Cells = append(out.Cells, []any{
			formatDate(r.Date),
			r.Hour,
			r.Year,
			r.Season,
			r.Weather,
			r.YearMonth.Value,
			r.MonthName.Value,
			r.DayName.Value,
			r.Casual,
			r.Registered,
			r.Total,
		})
	}
	return out
}

// TableExporter writes tables in any supported format.
type TableExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewTableExporter creates a TableExporter.
func NewTableExporter(logger *slog.Logger) *TableExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &TableExporter{
		csvWriter: NewCSVWriter(logger),
		logger:    logger,
	}
}

// Export writes t to w in the given format.
func (e *TableExporter) Export(w io.Writer, f Format, t Table) error {
	e.logger.Info("Exporting table",
		slog.String("table", t.Name),
		slog.String("format", string(f)),
		slog.Int("rows", len(t.Cells)))

	switch f {
	case FormatCSV:
		sw, err := e.csvWriter.CreateStreamWriter(w, t.Headers)
		if err != nil {
			return err
		}
		for _, row := range t.Cells {
			if err := sw.WriteRecord(rowStrings(row)); err != nil {
				return fmt.Errorf("failed to write record %d: %w", sw.Rows(), err)
			}
		}
		return sw.Close()
	case FormatXLSX:
		return writeXLSX(w, t)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// ExportFile writes t into dir as t.FileName(f), creating dir as needed, and
// returns the file path.
func (e *TableExporter) ExportFile(dir string, f Format, t Table) (string, error) {
	path := filepath.Join(dir, t.FileName(f))

	switch f {
	case FormatCSV:
		err := e.csvWriter.WriteCSVFile(path, WriteOptions{
			Headers:   t.Headers,
			Records:   t.Records(),
			BOMPrefix: true,
		})
		return path, err
	case FormatXLSX:
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}
		if err := writeXLSX(file, t); err != nil {
			file.Close()
			return "", err
		}
		return path, file.Close()
	default:
		return "", fmt.Errorf("unsupported export format %q", f)
	}
}

// writeXLSX writes t to a single-sheet workbook named after the table.
func writeXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range t.Cells {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
