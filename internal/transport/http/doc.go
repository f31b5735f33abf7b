// Package http implements the HTTP handlers of the dashboard.
//
// Handlers stay thin: they decode and validate the request, call a service
// and format the response. Service errors are converted to RFC 7807 problem
// responses by the shared error handler; the HTML page renders the same
// problem as an error page instead.
//
// # Routes
//
//	GET /                         dashboard page
//	GET /api/dashboard            dashboard view model as JSON
//	GET /api/export/{file}        filtered table as daily.csv, hourly.xlsx, ...
//	GET /api/health               health
//	GET /api/health/ready         readiness of the configured sources
//	GET /api/health/live          liveness
//	GET /api/version              build information
//
// # Query parameters
//
// The page and /api/dashboard accept year=<yyyy> to show a single year of
// heatmaps, and labels_<section>_<year>=true to print the values of one
// heatmap, e.g. labels_month_day_2011=true.
package http
