package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"slices"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"bikedash/pkg/contracts/domain"
)

const (
	// Width and Height are the pixel size of every rendered chart.
	Width  = 1024
	Height = 400

	// maxXLabels caps how many category labels are printed on the x axis.
	maxXLabels = 12
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

// RenderTrend draws casual, registered and total users per yearmonth as three
// lines. Points are drawn in input order.
func RenderTrend(title string, points []domain.TrendPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	xs := make([]float64, len(points))
	casual := make([]float64, len(points))
	registered := make([]float64, len(points))
	total := make([]float64, len(points))
	labels := make([]string, len(points))
	var maxY float64
	for i, p := range points {
		xs[i] = float64(i)
		casual[i] = float64(p.Casual)
		registered[i] = float64(p.Registered)
		total[i] = float64(p.Total)
		labels[i] = text(p.YearMonth)
		maxY = math.Max(maxY, slices.Max([]float64{casual[i], registered[i], total[i]}))
	}

	// go-chart takes the x range from the ticks, so the half-step padding is
	// carried by two blank ticks. This also keeps a single month drawable.
	last := float64(len(points) - 1)
	ticks := append([]chart.Tick{{Value: -0.5}}, categoryTicks(labels)...)
	ticks = append(ticks, chart.Tick{Value: last + 0.5})

	// A line through one point draws nothing.
	var style chart.Style
	if len(points) == 1 {
		style = chart.Style{DotWidth: 4}
	}

	ch := chart.Chart{
		Title:      text(title),
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Year-Month",
			Range: &chart.ContinuousRange{Min: -0.5, Max: last + 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Users",
			Range: valueRange(maxY),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "Casual", Style: style, XValues: xs, YValues: casual},
			chart.ContinuousSeries{Name: "Registered", Style: style, XValues: xs, YValues: registered},
			chart.ContinuousSeries{Name: "Total", Style: style, XValues: xs, YValues: total},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return render(ch.Render)
}

// RenderSeasonTrend draws one line per season over time. Seasons are drawn in
// order of first appearance.
func RenderSeasonTrend(title string, points []domain.SeasonPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	type line struct {
		dates  []time.Time
		totals []float64
	}
	lines := make(map[string]*line)
	var order []string
	minDate, maxDate := points[0].Date, points[0].Date
	var maxY float64

	for _, p := range points {
		l, ok := lines[p.Season]
		if !ok {
			l = &line{}
			lines[p.Season] = l
			order = append(order, p.Season)
		}
		l.dates = append(l.dates, p.Date)
		l.totals = append(l.totals, float64(p.Total))
		if p.Date.Before(minDate) {
			minDate = p.Date
		}
		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
		maxY = math.Max(maxY, float64(p.Total))
	}
	if !maxDate.After(minDate) {
		maxDate = minDate.Add(24 * time.Hour)
	}

	series := make([]chart.Series, 0, len(order))
	for _, season := range order {
		l := lines[season]
		series = append(series, chart.TimeSeries{Name: text(season), XValues: l.dates, YValues: l.totals})
	}

	ch := chart.Chart{
		Title:      text(title),
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(minDate),
				Max: chart.TimeToFloat64(maxDate),
			},
		},
		YAxis: chart.YAxis{
			Name:  "Users",
			Range: valueRange(maxY),
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return render(ch.Render)
}

// RenderBars draws one bar per label, in input order.
func RenderBars(title string, totals []domain.LabelTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(totals))
	var maxY float64
	for i, t := range totals {
		bars[i] = chart.Value{Label: text(t.Label), Value: float64(t.Total)}
		maxY = math.Max(maxY, float64(t.Total))
	}

	bc := chart.BarChart{
		Title:      text(title),
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   barWidth(len(bars)),
		YAxis:      chart.YAxis{Range: valueRange(maxY)},
		Bars:       bars,
	}

	return render(bc.Render)
}

// text escapes strings drawn into the SVG. go-chart writes text verbatim and
// the labels come from the data sources.
func text(s string) string {
	return html.EscapeString(s)
}

func render(fn func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// valueRange starts every y axis at zero. An all-zero series still gets a
// non-empty range.
func valueRange(maxY float64) *chart.ContinuousRange {
	if maxY <= 0 {
		maxY = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: maxY * 1.05}
}

// categoryTicks labels x positions 0..n-1, thinning labels so at most
// maxXLabels are printed.
func categoryTicks(labels []string) []chart.Tick {
	step := (len(labels) + maxXLabels - 1) / maxXLabels
	if step < 1 {
		step = 1
	}
	ticks := make([]chart.Tick, 0, len(labels))
	for i, l := range labels {
		if i%step != 0 {
			l = ""
		}
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: l})
	}
	return ticks
}

func barWidth(n int) int {
	w := (Width - 120) / (2 * n)
	return max(4, min(w, 120))
}
