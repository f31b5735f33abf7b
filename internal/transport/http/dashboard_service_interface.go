package http

import (
	"context"

	"bikedash/internal/exporter"
	"bikedash/internal/services"
	"bikedash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	Build(ctx context.Context, q services.DashboardQuery) (*domain.Dashboard, error)
	ExportTable(ctx context.Context, name string) (exporter.Table, error)
}
