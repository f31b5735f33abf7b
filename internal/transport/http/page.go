package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bikedash/internal/charts"
	apierrors "bikedash/internal/errors"
	"bikedash/internal/services"
	"bikedash/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageRenderer renders the HTML dashboard and error pages.
type PageRenderer struct {
	dashboard *template.Template
	errorPage *template.Template
	logger    *slog.Logger
}

// NewPageRenderer parses the embedded templates.
func NewPageRenderer(logger *slog.Logger) (*PageRenderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
	}

	dashboard, err := template.New("dashboard.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	errorPage, err := template.New("error.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse error template: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &PageRenderer{
		dashboard: dashboard,
		errorPage: errorPage,
		logger:    logger.With(slog.String("component", "page_renderer")),
	}, nil
}

type chartView struct {
	Title string
	SVG   template.HTML
}

type heatmapCell struct {
	Value int64
	Shade template.CSS
}

type heatmapRow struct {
	Label string
	Cells []heatmapCell
}

type heatmapView struct {
	Title      string
	Year       int
	Columns    []string
	Rows       []heatmapRow
	ShowLabels bool
	ToggleURL  string
}

type dashboardView struct {
	Title       string
	Dashboard   *domain.Dashboard
	Charts      []chartView
	MonthDay    []heatmapView
	HourDay     []heatmapView
	GeneratedAt string
}

type errorView struct {
	Title   string
	Problem *apierrors.ProblemDetails
}

// RenderDashboard writes the dashboard page. The page is built in memory so
// a chart failure still produces a clean 500.
func (p *PageRenderer) RenderDashboard(w http.ResponseWriter, dash *domain.Dashboard, query url.Values) error {
	view, err := p.buildView(dash, query)
	if err != nil {
		return p.fail(w, err)
	}

	var buf bytes.Buffer
	if err := p.dashboard.ExecuteTemplate(&buf, "layout", view); err != nil {
		return p.fail(w, fmt.Errorf("execute dashboard template: %w", err))
	}
	return writeHTML(w, http.StatusOK, &buf)
}

// RenderError writes an HTML page for problem with its status code.
func (p *PageRenderer) RenderError(w http.ResponseWriter, problem *apierrors.ProblemDetails) error {
	var buf bytes.Buffer
	if err := p.errorPage.ExecuteTemplate(&buf, "layout", errorView{Title: problem.Title, Problem: problem}); err != nil {
		http.Error(w, problem.Title, problem.Status)
		return fmt.Errorf("execute error template: %w", err)
	}
	return writeHTML(w, problem.Status, &buf)
}

func (p *PageRenderer) fail(w http.ResponseWriter, err error) error {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	return err
}

func writeHTML(w http.ResponseWriter, status int, body io.Reader) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.Copy(w, body)
	return err
}

func (p *PageRenderer) buildView(dash *domain.Dashboard, query url.Values) (*dashboardView, error) {
	view := &dashboardView{
		Title:       "Bike Sharing Dashboard",
		Dashboard:   dash,
		GeneratedAt: dash.GeneratedAt.Format(time.RFC3339),
	}

	renders := []struct {
		title string
		fn    func(string) ([]byte, error)
	}{
		{"Monthly Bike Users", func(t string) ([]byte, error) { return charts.RenderTrend(t, dash.MonthlyTrend) }},
		{"Daily Bike Users by Season", func(t string) ([]byte, error) { return charts.RenderSeasonTrend(t, dash.SeasonTrend) }},
		{"Total Bike Users by Season", func(t string) ([]byte, error) { return charts.RenderBars(t, dash.SeasonTotals) }},
		{"Total Bike Users by Weather", func(t string) ([]byte, error) { return charts.RenderBars(t, dash.WeatherTotals) }},
	}
	for _, r := range renders {
		svg, err := r.fn(r.title)
		if errors.Is(err, charts.ErrNoData) {
			p.logger.Debug("chart skipped, no data", slog.String("chart", r.title))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", r.title, err)
		}
		// go-chart output with every label escaped by the charts package.
		view.Charts = append(view.Charts, chartView{Title: r.title, SVG: template.HTML(svg)})
	}

	for _, hm := range dash.MonthDayHeatmap {
		view.MonthDay = append(view.MonthDay, newHeatmapView(hm, services.SectionMonthDay, query))
	}
	for _, hm := range dash.HourDayHeatmap {
		view.HourDay = append(view.HourDay, newHeatmapView(hm, services.SectionHourDay, query))
	}
	return view, nil
}

func newHeatmapView(hm domain.Heatmap, section string, query url.Values) heatmapView {
	key := services.LabelKey(section, hm.Year)

	v := heatmapView{
		Title:      hm.Title,
		Year:       hm.Year,
		Columns:    hm.Columns,
		ShowLabels: hm.ShowLabels,
		ToggleURL:  toggleURL(query, labelsParamPrefix+key, !hm.ShowLabels),
	}
	for i, label := range hm.Rows {
		row := heatmapRow{Label: label, Cells: make([]heatmapCell, len(hm.Cells[i]))}
		for j, value := range hm.Cells[i] {
			row.Cells[j] = heatmapCell{Value: value, Shade: shade(value, hm.Max)}
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

// shade maps value onto a blue background whose opacity grows with value.
func shade(value, maxValue int64) template.CSS {
	alpha := 0.0
	if maxValue > 0 {
		alpha = float64(value) / float64(maxValue)
	}
	return template.CSS("rgba(31, 119, 180, " + strconv.FormatFloat(alpha, 'f', 3, 64) + ")")
}

// toggleURL returns the current query with one parameter set to show.
func toggleURL(query url.Values, param string, show bool) string {
	next := url.Values{}
	for k, v := range query {
		next[k] = append([]string(nil), v...)
	}
	next.Set(param, strconv.FormatBool(show))
	return "?" + next.Encode()
}
