package charts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikedash/pkg/contracts/domain"
)

func TestRenderTrend(t *testing.T) {
	points := []domain.TrendPoint{
		{YearMonth: "2011-Jan", Casual: 462, Registered: 1324, Total: 1786},
		{YearMonth: "2011-Feb", Casual: 120, Registered: 2766, Total: 2886},
		{YearMonth: "2011-Mar", Casual: 0, Registered: 1851, Total: 1851},
	}

	svg, err := RenderTrend("Monthly Users", points)
	require.NoError(t, err)

	out := string(svg)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "Monthly Users")
	assert.Contains(t, out, "2011-Jan")
	assert.Contains(t, out, "Registered")
}

func TestRenderTrend_SinglePoint(t *testing.T) {
	tests := []struct {
		name  string
		point domain.TrendPoint
	}{
		{name: "zero counts", point: domain.TrendPoint{YearMonth: "2011-Jan"}},
		{name: "with counts", point: domain.TrendPoint{YearMonth: "2011-01", Casual: 462, Registered: 1324, Total: 1786}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg, err := RenderTrend("One Month", []domain.TrendPoint{tt.point})
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(svg), "<svg"))
			assert.Contains(t, string(svg), tt.point.YearMonth)
		})
	}
}

func TestRenderSeasonTrend(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2011, time.March, d, 0, 0, 0, 0, time.UTC) }
	points := []domain.SeasonPoint{
		{Date: day(1), YearMonth: "2011-Mar", Season: "Spring", Total: 124},
		{Date: day(2), YearMonth: "2011-Mar", Season: "Spring", Total: 65},
		{Date: day(1), YearMonth: "2011-Mar", Season: "Winter", Total: 10},
	}

	svg, err := RenderSeasonTrend("Season Trend", points)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Spring")
	assert.Contains(t, string(svg), "Winter")

	// a single date still has a usable x range
	svg, err = RenderSeasonTrend("Season Trend", points[:1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))
}

func TestRenderBars(t *testing.T) {
	totals := []domain.LabelTotal{
		{Label: "Clear", Total: 84},
		{Label: "Mist", Total: 40},
		{Label: "Heavy Rain, Snow, Fog", Total: 0},
	}

	svg, err := RenderBars("Weather", totals)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Clear")
	assert.Contains(t, string(svg), "Mist")
}

func TestRenderBars_AllZero(t *testing.T) {
	_, err := RenderBars("Empty Season", []domain.LabelTotal{{Label: "Winter"}})
	require.NoError(t, err)
}

func TestRender_NoData(t *testing.T) {
	_, err := RenderTrend("x", nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RenderSeasonTrend("x", nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RenderBars("x", nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCategoryTicks(t *testing.T) {
	labels := make([]string, 24)
	for i := range labels {
		labels[i] = "m" + string(rune('a'+i))
	}

	ticks := categoryTicks(labels)
	require.Len(t, ticks, 24)

	printed := 0
	for _, tk := range ticks {
		if tk.Label != "" {
			printed++
		}
	}
	assert.Equal(t, 12, printed)
	assert.Equal(t, "ma", ticks[0].Label)
	assert.Empty(t, ticks[1].Label)
}

func TestRenderBars_EscapesLabels(t *testing.T) {
	svg, err := RenderBars("Weather", []domain.LabelTotal{{Label: "<script>alert(1)</script>", Total: 3}})
	require.NoError(t, err)
	assert.NotContains(t, string(svg), "<script>")
	assert.Contains(t, string(svg), "&lt;script&gt;")
}
