// Package dataprocessing turns the two bike share source tables into the
// filtered, typed dataset behind the dashboard.
//
// # Stages
//
// A Pipeline run executes, in order:
//
//	Loader       fetch daily and hourly tables (CSV or XLSX, URL or path)
//	Vocabulary   derive the yearmonth ordering from the raw daily table
//	Normalizer   parse dates and counts, map categorical columns
//	RangeFilter  restrict both tables to the daily date span
//
// The yearmonth vocabulary is an explicit input to the Normalizer. It is
// derived once per run, before filtering, in order of first appearance:
//
//	ym, err := dataprocessing.DeriveYearMonthVocabulary(raw.Daily)
//	vocab, err := dataprocessing.NewVocabularySet(months, days, ym)
//	daily, issues, err := normalizer.NormalizeDaily(ctx, raw.Daily, vocab)
//
// # Errors
//
// Loader failures are RETRIEVAL errors, unparseable cells are PARSING
// errors and, under PolicyReject, values outside a vocabulary are
// DATA_QUALITY errors. All are *errors.AppError values.
//
// # Aggregations
//
// MonthlyTrend, SeasonTrend, SeasonTotals, WeatherTotals and the two heatmap
// builders feed the dashboard charts. None of them depend on row order
// beyond the categorical ranks.
package dataprocessing
