package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "bikedash/internal/errors"
	"bikedash/internal/exporter"
	"bikedash/internal/middleware"
	"bikedash/internal/services"
	"bikedash/internal/shared/testutil"
	"bikedash/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Build(ctx context.Context, q services.DashboardQuery) (*domain.Dashboard, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockDashboardService) ExportTable(ctx context.Context, name string) (exporter.Table, error) {
	args := m.Called(name)
	return args.Get(0).(exporter.Table), args.Error(1)
}

func testDashboard(showLabels bool) *domain.Dashboard {
	day := func(d int) time.Time { return time.Date(2011, time.January, d, 0, 0, 0, 0, time.UTC) }
	return &domain.Dashboard{
		Bounds: domain.Bounds{
			MinDate:      day(1),
			MaxDate:      day(2),
			MinYearMonth: domain.Category{Value: "2011 Jan", Rank: 0},
			MaxYearMonth: domain.Category{Value: "2011 Jan", Rank: 0},
		},
		DailyRows:  2,
		HourlyRows: 4,
		MonthlyTrend: []domain.TrendPoint{
			{YearMonth: "2011 Jan", Casual: 10, Registered: 20, Total: 30},
		},
		SeasonTrend: []domain.SeasonPoint{
			{Date: day(1), YearMonth: "2011 Jan", Season: "Winter", Total: 12},
			{Date: day(2), YearMonth: "2011 Jan", Season: "Winter", Total: 18},
		},
		SeasonTotals:  []domain.LabelTotal{{Label: "Winter", Total: 30}},
		WeatherTotals: []domain.LabelTotal{{Label: "Clear", Total: 25}, {Label: "Mist", Total: 5}},
		MonthDayHeatmap: []domain.Heatmap{{
			Title:      "Daily Total Bike Users in 2011",
			Year:       2011,
			Rows:       []string{"Jan"},
			Columns:    []string{"Sat", "Sun"},
			Cells:      [][]int64{{12345, 18}},
			Max:        12345,
			ShowLabels: showLabels,
		}},
		Issues: []domain.DataQualityIssue{
			{Table: "hourly", Row: 3, Column: "month_name", Value: "Janvier"},
		},
		GeneratedAt: day(3),
	}
}

func newTestDashboardHandler(t *testing.T, svc DashboardServiceInterface) *DashboardHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	page, err := NewPageRenderer(logger)
	require.NoError(t, err)
	return NewDashboardHandler(svc, middleware.NewValidator(logger), exporter.NewTableExporter(logger), page, logger, apierrors.NewErrorHandler(logger, false))
}

func newTestRouter(h *DashboardHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Page)
	r.Mount("/api", h.APIRoutes())
	return r
}

func TestParseDashboardQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    services.DashboardQuery
		wantErr bool
	}{
		{name: "empty", query: ""},
		{name: "year", query: "year=2012", want: services.DashboardQuery{Year: 2012}},
		{
			name:  "label toggles",
			query: "labels_month_day_2011=true&labels_hour_day_2012=0&other=x",
			want: services.DashboardQuery{Labels: map[string]bool{
				"month_day_2011": true,
				"hour_day_2012":  false,
			}},
		},
		{name: "last value wins", query: "labels_month_day_2011=true&labels_month_day_2011=false",
			want: services.DashboardQuery{Labels: map[string]bool{"month_day_2011": false}}},
		{name: "bad year", query: "year=twenty", wantErr: true},
		{name: "bad toggle", query: "labels_month_day_2011=maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := parseDashboardQuery(req.URL.Query())
			if tt.wantErr {
				var apiErr *apierrors.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Build", services.DashboardQuery{Year: 2011}).Return(testDashboard(false), nil)

	h := newTestDashboardHandler(t, svc)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?year=2011", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var got domain.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.DailyRows)
	assert.Equal(t, "2011 Jan", got.Bounds.MinYearMonth.Value)
	require.Len(t, got.MonthDayHeatmap, 1)
	assert.Equal(t, int64(12345), got.MonthDayHeatmap[0].Cells[0][0])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetDashboardErrors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		buildErr   error
		wantStatus int
		wantType   string
	}{
		{
			name:       "retrieval failure",
			buildErr:   apierrors.NewRetrievalError("daily", errors.New("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeDataUnavailable,
		},
		{
			name:       "parse failure",
			buildErr:   apierrors.NewParsingError("bad header", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDataCorrupted,
		},
		{
			name:       "unknown year",
			query:      "?year=1999",
			buildErr:   apierrors.NewAppError(apierrors.ErrTypeNotFound, "year 1999 not found", services.ErrYearNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNotFound,
		},
		{
			name:       "invalid toggle key",
			query:      "?labels_weekly_2011=true",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			if tt.buildErr != nil {
				svc.On("Build", mock.Anything).Return(nil, tt.buildErr)
			}

			rec := httptest.NewRecorder()
			newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec,
				httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["type"])
			if tt.buildErr == nil {
				svc.AssertNotCalled(t, "Build", mock.Anything)
			}
		})
	}
}

func TestDashboardHandler_Page(t *testing.T) {
	t.Run("renders charts and heatmaps", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Build", services.DashboardQuery{}).Return(testDashboard(false), nil)

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.Equal(t, 4, strings.Count(body, "<svg"))
		assert.Contains(t, body, "Daily Total Bike Users in 2011")
		assert.Contains(t, body, "Show data labels")
		assert.Contains(t, body, "labels_month_day_2011=true")
		assert.NotContains(t, body, ">12345<")
		assert.Contains(t, body, "rgba(31, 119, 180, 1.000)")
		assert.Contains(t, body, "Janvier")
		assert.Contains(t, body, "2011-01-01 to 2011-01-02")
	})

	t.Run("labels shown when toggled", func(t *testing.T) {
		q := services.DashboardQuery{Labels: map[string]bool{"month_day_2011": true}}
		svc := new(MockDashboardService)
		svc.On("Build", q).Return(testDashboard(true), nil)

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/?labels_month_day_2011=true", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, ">12345<")
		assert.Contains(t, body, "Hide data labels")
		assert.Contains(t, body, "labels_month_day_2011=false")
	})

	t.Run("empty dashboard skips charts", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Build", mock.Anything).Return(&domain.Dashboard{}, nil)

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "<svg")
	})

	t.Run("pipeline failure renders error page", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Build", mock.Anything).Return(nil,
			apierrors.NewRetrievalError("hourly", errors.New("status 503")))

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), apierrors.TypeDataUnavailable)
	})
}

func TestDashboardHandler_Export(t *testing.T) {
	table := exporter.Table{
		Name:    "daily",
		Headers: []string{"date", "total"},
		Cells:   [][]any{{"2011-01-01", int64(30)}},
	}

	t.Run("csv", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportTable", "daily").Return(table, nil)

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/daily.csv", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="daily.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Contains(t, rec.Body.String(), "date,total")
		assert.Contains(t, rec.Body.String(), "2011-01-01,30")
	})

	t.Run("xlsx", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportTable", "daily").Return(table, nil)

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/daily.xlsx", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, exporter.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
		// xlsx files are zip archives.
		assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
	})

	t.Run("unknown table", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportTable", "weekly").Return(exporter.Table{},
			apierrors.NewAppError(apierrors.ErrTypeNotFound, "unknown table", services.ErrUnknownTable))

		rec := httptest.NewRecorder()
		newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/weekly.csv", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	for _, file := range []string{"daily.pdf", "daily", ".csv"} {
		t.Run("bad file "+file, func(t *testing.T) {
			svc := new(MockDashboardService)

			rec := httptest.NewRecorder()
			newTestRouter(newTestDashboardHandler(t, svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/"+file, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "ExportTable", mock.Anything)
		})
	}
}

func TestToggleURL(t *testing.T) {
	query := map[string][]string{"year": {"2011"}, "labels_hour_day_2011": {"true"}}

	got := toggleURL(query, "labels_month_day_2011", true)

	assert.Equal(t, "?labels_hour_day_2011=true&labels_month_day_2011=true&year=2011", got)
	assert.NotContains(t, query, "labels_month_day_2011", "input must not be modified")
}

func TestShade(t *testing.T) {
	assert.Equal(t, "rgba(31, 119, 180, 0.000)", string(shade(5, 0)))
	assert.Equal(t, "rgba(31, 119, 180, 0.500)", string(shade(5, 10)))
	assert.Equal(t, "rgba(31, 119, 180, 1.000)", string(shade(10, 10)))
}
