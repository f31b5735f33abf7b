package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bikedash/internal/dataprocessing"
	apierrors "bikedash/internal/errors"
	"bikedash/internal/shared/testutil"
	"bikedash/pkg/contracts/domain"
)

var (
	months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	days   = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testResult builds a pipeline result spanning 2011 and 2012.
func testResult(t *testing.T) *dataprocessing.Result {
	t.Helper()

	vocab, err := dataprocessing.NewVocabularySet(months, days,
		dataprocessing.DeriveVocabulary(dataprocessing.ColYearMonth, []string{"2011-Jan", "2012-Jan"}))
	require.NoError(t, err)

	cat := func(v *dataprocessing.Vocabulary, value string) domain.Category { return v.Category(value) }

	daily := &domain.DailyTable{Rows: []domain.DailyRecord{
		{Date: date(2011, 1, 1), YearMonth: cat(vocab.YearMonth, "2011-Jan"), MonthName: cat(vocab.Month, "Jan"), DayName: cat(vocab.Day, "Sat"), Casual: 331, Registered: 654, Total: 985},
		{Date: date(2012, 1, 1), YearMonth: cat(vocab.YearMonth, "2012-Jan"), MonthName: cat(vocab.Month, "Jan"), DayName: cat(vocab.Day, "Sun"), Casual: 686, Registered: 1608, Total: 2294},
	}}
	hourly := &domain.HourlyTable{Rows: []domain.HourlyRecord{
		{Date: date(2011, 1, 1), Hour: 0, Year: 2011, Season: "Winter", Weather: "Clear, Few clouds, Partly cloudy", YearMonth: cat(vocab.YearMonth, "2011-Jan"), MonthName: cat(vocab.Month, "Jan"), DayName: cat(vocab.Day, "Sat"), Total: 16},
		{Date: date(2012, 1, 1), Hour: 5, Year: 2012, Season: "Winter", Weather: "Mist + Cloudy, Mist + Broken clouds, Mist + Few clouds, Mist", YearMonth: cat(vocab.YearMonth, "2012-Jan"), MonthName: cat(vocab.Month, "Jan"), DayName: cat(vocab.Day, "Sun"), Total: 7},
	}}

	bounds, err := dataprocessing.ComputeBounds(daily)
	require.NoError(t, err)

	return &dataprocessing.Result{
		Dataset: &domain.Dataset{
			Daily:  daily,
			Hourly: hourly,
			Bounds: bounds,
			Issues: []domain.DataQualityIssue{{Table: "hourly", Row: 9, Column: "day_name", Value: "Funday"}},
		},
		Vocabularies: vocab,
	}
}

func TestDashboardService_Build(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything).Return(testResult(t), nil)

	logger, handler := testutil.NewTestLogger(t)
	svc := NewDashboardService(runner, logger)

	dash, err := svc.Build(context.Background(), DashboardQuery{
		Labels: map[string]bool{"month_day_2012": true},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, dash.DailyRows)
	assert.Equal(t, 2, dash.HourlyRows)
	assert.Equal(t, date(2011, 1, 1), dash.Bounds.MinDate)
	require.Len(t, dash.MonthlyTrend, 2)
	assert.Equal(t, "2011-Jan", dash.MonthlyTrend[0].YearMonth)
	assert.Equal(t, []domain.LabelTotal{{Label: "Winter", Total: 23}}, dash.SeasonTotals)
	assert.Equal(t, "Clear", dash.WeatherTotals[0].Label)
	assert.Len(t, dash.Issues, 1)

	require.Len(t, dash.MonthDayHeatmap, 2)
	require.Len(t, dash.HourDayHeatmap, 2)
	assert.Equal(t, 2011, dash.MonthDayHeatmap[0].Year)
	assert.False(t, dash.MonthDayHeatmap[0].ShowLabels)
	assert.True(t, dash.MonthDayHeatmap[1].ShowLabels)
	assert.False(t, dash.HourDayHeatmap[1].ShowLabels)
	assert.Equal(t, int64(7), dash.HourDayHeatmap[1].Cells[5][0])

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "dashboard built")
	runner.AssertExpectations(t)
}

func TestDashboardService_Build_SingleYear(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything).Return(testResult(t), nil)

	dash, err := NewDashboardService(runner, nil).Build(context.Background(), DashboardQuery{Year: 2012})
	require.NoError(t, err)

	require.Len(t, dash.MonthDayHeatmap, 1)
	assert.Equal(t, 2012, dash.MonthDayHeatmap[0].Year)
	assert.Equal(t, int64(7), dash.MonthDayHeatmap[0].Cells[0][0])
}

func TestDashboardService_Build_UnknownYear(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything).Return(testResult(t), nil)

	_, err := NewDashboardService(runner, nil).Build(context.Background(), DashboardQuery{Year: 1999})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrYearNotFound)

	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeNotFound, appErr.Type)
}

func TestDashboardService_Build_PipelineError(t *testing.T) {
	cause := apierrors.NewRetrievalError("http://example.invalid/day.csv", errors.New("connection refused"))

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything).Return(nil, cause)

	_, err := NewDashboardService(runner, nil).Build(context.Background(), DashboardQuery{})
	assert.ErrorIs(t, err, apierrors.ErrRetrieval)
	assert.Same(t, cause, err)
}

func TestDashboardService_NoPipeline(t *testing.T) {
	_, err := NewDashboardService(nil, nil).Build(context.Background(), DashboardQuery{})
	assert.ErrorIs(t, err, ErrNoPipeline)
}

func TestDashboardService_ExportTable(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything).Return(testResult(t), nil)
	svc := NewDashboardService(runner, nil)

	daily, err := svc.ExportTable(context.Background(), "daily")
	require.NoError(t, err)
	assert.Equal(t, "daily", daily.Name)
	assert.Len(t, daily.Cells, 2)

	hourly, err := svc.ExportTable(context.Background(), "hourly")
	require.NoError(t, err)
	assert.Equal(t, "hourly", hourly.Name)
	assert.Len(t, hourly.Cells, 2)

	runner.AssertNumberOfCalls(t, "Run", 2)
}

func TestDashboardService_ExportTable_Unknown(t *testing.T) {
	runner := new(MockPipelineRunner)
	svc := NewDashboardService(runner, nil)

	_, err := svc.ExportTable(context.Background(), "weekly")
	assert.ErrorIs(t, err, ErrUnknownTable)
	runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestLabelKey(t *testing.T) {
	assert.Equal(t, "month_day_2011", LabelKey(SectionMonthDay, 2011))
	assert.Equal(t, "hour_day_2012", LabelKey(SectionHourDay, 2012))
}
