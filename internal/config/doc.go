// Package config loads the dashboard configuration.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. config.yaml (or the file named by BIKESHARE_CONFIG_FILE)
//  3. Default()
//
// # Environment Variables
//
// Every variable is namespaced with BIKESHARE_ and follows the struct path:
//
//	BIKESHARE_SERVER_PORT=8080
//	BIKESHARE_SOURCES_DAILY=https://example.com/day_df.csv
//	BIKESHARE_SOURCES_HOURLY=/data/hour_df.csv
//	BIKESHARE_CATEGORIES_POLICY=reject
//	BIKESHARE_LOGGING_LEVEL=debug
//
// Month and day vocabularies are comma separated lists. Their order is the
// sort order of the month_name and day_name columns.
package config
