// Package services implements the business logic between the HTTP handlers
// and the data pipeline.
//
// DashboardService runs the pipeline once per call and turns the filtered
// tables into the dashboard view model or an exportable table. Pipeline
// errors pass through unchanged so handlers can map them to problem
// responses.
//
// HealthService reports liveness, readiness of the configured sources and
// build information.
//
// Services receive their collaborators and a *slog.Logger through their
// constructors and are tested with testify mocks of those collaborators.
package services
