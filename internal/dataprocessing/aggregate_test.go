package dataprocessing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikedash/pkg/contracts/domain"
)

func TestSeasonTotals_IndependentOfOrder(t *testing.T) {
	rows := []domain.HourlyRecord{
		{Season: "A", Total: 10},
		{Season: "B", Total: 5},
		{Season: "A", Total: 20},
	}
	want := []domain.LabelTotal{{Label: "A", Total: 30}, {Label: "B", Total: 5}}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]domain.HourlyRecord(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, want, SeasonTotals(&domain.HourlyTable{Rows: shuffled}))
	}
}

func TestSeasonTotals_TiesByName(t *testing.T) {
	got := SeasonTotals(&domain.HourlyTable{Rows: []domain.HourlyRecord{
		{Season: "Summer", Total: 5},
		{Season: "Fall", Total: 5},
	}})
	assert.Equal(t, []domain.LabelTotal{{Label: "Fall", Total: 5}, {Label: "Summer", Total: 5}}, got)
	assert.Nil(t, SeasonTotals(nil))
}

func TestWeatherTotals_Relabels(t *testing.T) {
	_, hourly, _ := normalizedSample(t)

	got := WeatherTotals(hourly)
	totals := make(map[string]int64)
	for _, lt := range got {
		totals[lt.Label] = lt.Total
	}

	assert.Equal(t, int64(3+16+65), totals["Clear"])
	assert.Equal(t, int64(40), totals["Mist"])
	assert.Equal(t, int64(124), totals["Light Snow, Light Rain"])
	assert.Equal(t, int64(0), totals["Heavy Rain, Snow, Fog"])
	assert.Equal(t, "Light Snow, Light Rain", got[0].Label)

	assert.Equal(t, "Fog", WeatherLabel("Fog"))
}

func TestMonthlyTrend(t *testing.T) {
	daily, _, _ := normalizedSample(t)

	got := MonthlyTrend(daily)
	require.Len(t, got, 3)

	// yearmonth order is the derived one, not the calendar.
	assert.Equal(t, "2011-01", got[0].YearMonth)
	assert.Equal(t, "2011-03", got[1].YearMonth)
	assert.Equal(t, "2011-02", got[2].YearMonth)

	assert.Equal(t, domain.TrendPoint{YearMonth: "2011-01", Casual: 462, Registered: 1324, Total: 1786}, got[0])
	assert.Equal(t, int64(1360+1526), got[2].Total)
}

func TestMonthlyTrend_UnorderedLast(t *testing.T) {
	daily := &domain.DailyTable{Rows: []domain.DailyRecord{
		{YearMonth: domain.Category{Value: "bogus", Rank: domain.Unordered}, Total: 1},
		{YearMonth: domain.Category{Value: "2011-02", Rank: 1}, Total: 2},
		{YearMonth: domain.Category{Value: "2011-01", Rank: 0}, Total: 3},
	}}

	got := MonthlyTrend(daily)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2011-01", "2011-02", "bogus"}, []string{got[0].YearMonth, got[1].YearMonth, got[2].YearMonth})
}

func TestSeasonTrend(t *testing.T) {
	hourly := &domain.HourlyTable{Rows: []domain.HourlyRecord{
		{Date: date(2011, 1, 2), YearMonth: domain.Category{Value: "2011-01"}, Season: "Winter", Total: 4},
		{Date: date(2011, 1, 1), YearMonth: domain.Category{Value: "2011-01"}, Season: "Winter", Total: 1},
		{Date: date(2011, 1, 1), YearMonth: domain.Category{Value: "2011-01"}, Season: "Winter", Total: 2},
		{Date: date(2011, 1, 3), YearMonth: domain.Category{Value: "2011-01"}, Season: "Winter", Total: 0},
	}}

	got := SeasonTrend(hourly)
	require.Len(t, got, 2, "zero totals are dropped")
	assert.True(t, date(2011, 1, 1).Equal(got[0].Date))
	assert.Equal(t, int64(3), got[0].Total)
	assert.Equal(t, int64(4), got[1].Total)
}

func TestYears(t *testing.T) {
	_, hourly, _ := normalizedSample(t)
	assert.Equal(t, []int{2010, 2011}, Years(hourly))
	assert.Empty(t, Years(&domain.HourlyTable{}))
}

func TestMonthDayHeatmap(t *testing.T) {
	_, hourly, vocab := normalizedSample(t)

	hm := MonthDayHeatmap(hourly, 2011, vocab)
	require.Len(t, hm.Rows, 12)
	require.Len(t, hm.Columns, 7)
	assert.Equal(t, "Jan", hm.Rows[0])
	assert.Equal(t, "Sun", hm.Columns[0])

	// Jan/Sat collects hours 0 and 1 of 2011-01-01.
	assert.Equal(t, int64(56), hm.Cells[0][6])
	// Mar/Tue and Mar/Wed.
	assert.Equal(t, int64(124), hm.Cells[2][2])
	assert.Equal(t, int64(65), hm.Cells[2][3])
	// The 2010 row is excluded.
	assert.Equal(t, int64(0), hm.Cells[11][5])
	assert.Equal(t, int64(124), hm.Max)
	assert.Equal(t, 2011, hm.Year)
}

func TestHourDayHeatmap(t *testing.T) {
	_, hourly, vocab := normalizedSample(t)

	hm := HourDayHeatmap(hourly, 2011, vocab)
	require.Len(t, hm.Rows, 24)
	assert.Equal(t, "0", hm.Rows[0])
	assert.Equal(t, int64(16), hm.Cells[0][6])
	assert.Equal(t, int64(40), hm.Cells[1][6])
	assert.Equal(t, int64(124), hm.Cells[8][2])

	empty := HourDayHeatmap(nil, 2012, vocab)
	assert.Equal(t, int64(0), empty.Max)
	assert.Len(t, empty.Cells, 24)
}
