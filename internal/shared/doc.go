// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and CSV
// fixtures shaped like the daily and hourly bike share tables.
package shared
