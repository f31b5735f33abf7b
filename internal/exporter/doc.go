// Package exporter writes the filtered dashboard tables as CSV or XLSX.
//
// CSVWriter is the core writer. It prefixes a UTF-8 BOM so spreadsheet
// applications detect the encoding, and can stream rows for large tables.
//
// TableExporter turns the daily and hourly tables into rows with a stable
// column order and hands them to CSVWriter or to an excelize workbook.
//
// Example usage:
//
//	exp := exporter.NewTableExporter(logger)
//	err := exp.Export(w, exporter.FormatCSV, exporter.DailyRows(dataset.Daily))
package exporter
