package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"bikedash/pkg/contracts/domain"
)

// ComputeBounds returns the observed date and yearmonth span of the daily
// table. The yearmonth bounds consider ordered values only; when none are
// ordered both bounds are unordered and match nothing.
func ComputeBounds(daily *domain.DailyTable) (domain.Bounds, error) {
	if daily.Len() == 0 {
		return domain.Bounds{}, fmt.Errorf("cannot compute bounds of an empty daily table")
	}

	unordered := domain.Category{Rank: domain.Unordered}
	b := domain.Bounds{
		MinDate:      daily.Rows[0].Date,
		MaxDate:      daily.Rows[0].Date,
		MinYearMonth: unordered,
		MaxYearMonth: unordered,
	}

	for _, row := range daily.Rows {
		if row.Date.Before(b.MinDate) {
			b.MinDate = row.Date
		}
		if row.Date.After(b.MaxDate) {
			b.MaxDate = row.Date
		}

		ym := row.YearMonth
		if !ym.Ordered() {
			continue
		}
		if !b.MinYearMonth.Ordered() || ym.Rank < b.MinYearMonth.Rank {
			b.MinYearMonth = ym
		}
		if !b.MaxYearMonth.Ordered() || ym.Rank > b.MaxYearMonth.Rank {
			b.MaxYearMonth = ym
		}
	}
	return b, nil
}

// FilterDaily keeps rows whose date is in range OR whose yearmonth is in
// range. With bounds computed from the same table this keeps every row.
func FilterDaily(daily *domain.DailyTable, b domain.Bounds) *domain.DailyTable {
	out := &domain.DailyTable{Rows: make([]domain.DailyRecord, 0, daily.Len())}
	if daily == nil {
		return out
	}
	for _, row := range daily.Rows {
		if b.ContainsDate(row.Date) || b.ContainsYearMonth(row.YearMonth) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// FilterHourly keeps rows whose date is in range. yearmonth is ignored.
func FilterHourly(hourly *domain.HourlyTable, b domain.Bounds) *domain.HourlyTable {
	out := &domain.HourlyTable{Rows: make([]domain.HourlyRecord, 0, hourly.Len())}
	if hourly == nil {
		return out
	}
	for _, row := range hourly.Rows {
		if b.ContainsDate(row.Date) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// FilterResult is the output of RangeFilter.Apply.
type FilterResult struct {
	Daily         *domain.DailyTable
	Hourly        *domain.HourlyTable
	Bounds        domain.Bounds
	DailyDropped  int
	HourlyDropped int
}

// RangeFilter restricts both tables to the daily table's observed span.
type RangeFilter struct {
	logger *slog.Logger
}

// NewRangeFilter creates a RangeFilter.
func NewRangeFilter(logger *slog.Logger) *RangeFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RangeFilter{logger: logger.With(slog.String("component", "range_filter"))}
}

// Apply computes the bounds from daily and filters both tables.
func (f *RangeFilter) Apply(ctx context.Context, daily *domain.DailyTable, hourly *domain.HourlyTable) (*FilterResult, error) {
	b, err := ComputeBounds(daily)
	if err != nil {
		return nil, err
	}

	res := &FilterResult{
		Daily:  FilterDaily(daily, b),
		Hourly: FilterHourly(hourly, b),
		Bounds: b,
	}
	res.DailyDropped = daily.Len() - res.Daily.Len()
	res.HourlyDropped = hourly.Len() - res.Hourly.Len()

	attrs := []any{
		slog.Time("min_date", b.MinDate),
		slog.Time("max_date", b.MaxDate),
		slog.String("min_yearmonth", b.MinYearMonth.Value),
		slog.String("max_yearmonth", b.MaxYearMonth.Value),
		slog.Int("daily_dropped", res.DailyDropped),
		slog.Int("hourly_dropped", res.HourlyDropped),
	}

	// Bounds come from the daily table itself, so a drop here means the
	// filter or the bounds are broken.
	if res.DailyDropped > 0 {
		f.logger.WarnContext(ctx, "daily range filter removed rows", attrs...)
	} else {
		f.logger.InfoContext(ctx, "range filter applied", attrs...)
	}
	return res, nil
}
