package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"bikedash/internal/dataprocessing"
	apierrors "bikedash/internal/errors"
	"bikedash/internal/exporter"
	"bikedash/pkg/contracts/domain"
)

// Heatmap sections. A label toggle is addressed as "<section>_<year>".
const (
	SectionMonthDay = "month_day"
	SectionHourDay  = "hour_day"
)

// LabelKey returns the toggle key of one heatmap, e.g. "month_day_2011".
func LabelKey(section string, year int) string {
	return fmt.Sprintf("%s_%d", section, year)
}

// PipelineRunner runs the load, normalize and filter stages.
type PipelineRunner interface {
	Run(ctx context.Context) (*dataprocessing.Result, error)
}

// DashboardQuery selects what the dashboard shows.
type DashboardQuery struct {
	// Year restricts the heatmaps to a single year. Zero means every year.
	Year int `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	// Labels holds the "show data labels" toggles keyed by LabelKey.
	Labels map[string]bool `json:"labels" validate:"omitempty,dive,keys,label_key,endkeys"`
}

// DashboardService builds the dashboard view model from a fresh pipeline run.
type DashboardService struct {
	pipeline PipelineRunner
	logger   *slog.Logger
	now      func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(pipeline PipelineRunner, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		pipeline: pipeline,
		logger:   logger.With(slog.String("service", "dashboard")),
		now:      time.Now,
	}
}

// Build runs the pipeline and aggregates the filtered tables. Pipeline
// errors are returned unchanged so the HTTP layer can map them.
func (s *DashboardService) Build(ctx context.Context, q DashboardQuery) (*domain.Dashboard, error) {
	res, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	ds := res.Dataset

	years := dataprocessing.Years(ds.Hourly)
	if q.Year != 0 {
		if !slices.Contains(years, q.Year) {
			return nil, apierrors.NewNotFoundError(fmt.Sprintf("year %d", q.Year), ErrYearNotFound).
				WithContext("available_years", years)
		}
		years = []int{q.Year}
	}

	dash := &domain.Dashboard{
		Bounds:          ds.Bounds,
		DailyRows:       ds.Daily.Len(),
		HourlyRows:      ds.Hourly.Len(),
		MonthlyTrend:    dataprocessing.MonthlyTrend(ds.Daily),
		SeasonTrend:     dataprocessing.SeasonTrend(ds.Hourly),
		SeasonTotals:    dataprocessing.SeasonTotals(ds.Hourly),
		WeatherTotals:   dataprocessing.WeatherTotals(ds.Hourly),
		MonthDayHeatmap: make([]domain.Heatmap, 0, len(years)),
		HourDayHeatmap:  make([]domain.Heatmap, 0, len(years)),
		Issues:          ds.Issues,
		GeneratedAt:     s.now(),
	}

	for _, year := range years {
		md := dataprocessing.MonthDayHeatmap(ds.Hourly, year, res.Vocabularies)
		md.ShowLabels = q.Labels[LabelKey(SectionMonthDay, year)]
		dash.MonthDayHeatmap = append(dash.MonthDayHeatmap, md)

		hd := dataprocessing.HourDayHeatmap(ds.Hourly, year, res.Vocabularies)
		hd.ShowLabels = q.Labels[LabelKey(SectionHourDay, year)]
		dash.HourDayHeatmap = append(dash.HourDayHeatmap, hd)
	}

	s.logger.InfoContext(ctx, "dashboard built",
		slog.Int("daily_rows", dash.DailyRows),
		slog.Int("hourly_rows", dash.HourlyRows),
		slog.Int("years", len(years)),
		slog.Int("issues", len(dash.Issues)))

	return dash, nil
}

// ExportTable runs the pipeline and returns the named filtered table.
func (s *DashboardService) ExportTable(ctx context.Context, name string) (exporter.Table, error) {
	if name != dataprocessing.TableDaily && name != dataprocessing.TableHourly {
		return exporter.Table{}, apierrors.NewNotFoundError(fmt.Sprintf("table %q", name), ErrUnknownTable)
	}

	res, err := s.run(ctx)
	if err != nil {
		return exporter.Table{}, err
	}

	if name == dataprocessing.TableDaily {
		return exporter.DailyRows(res.Dataset.Daily), nil
	}
	return exporter.HourlyRows(res.Dataset.Hourly), nil
}

func (s *DashboardService) run(ctx context.Context) (*dataprocessing.Result, error) {
	if s.pipeline == nil {
		return nil, ErrNoPipeline
	}
	res, err := s.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Dataset == nil {
		return nil, fmt.Errorf("pipeline returned no dataset")
	}
	return res, nil
}
