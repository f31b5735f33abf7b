package dataprocessing

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"bikedash/pkg/contracts/domain"
)

// weatherLabels shortens the long weather descriptions of the dataset.
var weatherLabels = map[string]string{
	"Clear, Few clouds, Partly cloudy":                                                        "Clear",
	"Mist + Cloudy, Mist + Broken clouds, Mist + Few clouds, Mist":                            "Mist",
	"Light Snow, Light Rain + Thunderstorm + Scattered clouds, Light Rain + Scattered clouds": "Light Snow, Light Rain",
	"Heavy Rain + Ice Pallets + Thunderstorm + Mist, Snow + Fog":                              "Heavy Rain, Snow, Fog",
}

// WeatherLabel returns the short label for a weather description. Unknown
// text is returned unchanged.
func WeatherLabel(weather string) string {
	if label, ok := weatherLabels[weather]; ok {
		return label
	}
	return weather
}

// MonthlyTrend sums the three counts per yearmonth, in yearmonth order.
// Unordered yearmonths follow in order of first appearance.
func MonthlyTrend(daily *domain.DailyTable) []domain.TrendPoint {
	if daily == nil {
		return nil
	}

	type bucket struct {
		cat   domain.Category
		point domain.TrendPoint
	}
	index := make(map[string]int)
	var buckets []bucket

	for _, row := range daily.Rows {
		i, ok := index[row.YearMonth.Value]
		if !ok {
			i = len(buckets)
			index[row.YearMonth.Value] = i
			buckets = append(buckets, bucket{cat: row.YearMonth, point: domain.TrendPoint{YearMonth: row.YearMonth.Value}})
		}
		buckets[i].point.Casual += row.Casual
		buckets[i].point.Registered += row.Registered
		buckets[i].point.Total += row.Total
	}

	SortByCategory(buckets, func(b bucket) domain.Category { return b.cat })

	out := make([]domain.TrendPoint, len(buckets))
	for i, b := range buckets {
		out[i] = b.point
	}
	return out
}

// SeasonTrend sums total per (date, yearmonth, season) and drops zero sums.
// Points are ordered by date, then season.
func SeasonTrend(hourly *domain.HourlyTable) []domain.SeasonPoint {
	if hourly == nil {
		return nil
	}

	type key struct {
		date      time.Time
		yearMonth string
		season    string
	}
	sums := make(map[key]int64)
	for _, row := range hourly.Rows {
		sums[key{row.Date, row.YearMonth.Value, row.Season}] += row.Total
	}

	out := make([]domain.SeasonPoint, 0, len(sums))
	for k, total := range sums {
		if total == 0 {
			continue
		}
		out = append(out, domain.SeasonPoint{Date: k.date, YearMonth: k.yearMonth, Season: k.season, Total: total})
	}

	slices.SortFunc(out, func(a, b domain.SeasonPoint) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Season, b.Season); c != 0 {
			return c
		}
		return cmp.Compare(a.YearMonth, b.YearMonth)
	})
	return out
}

// SeasonTotals sums total per season, largest first.
func SeasonTotals(hourly *domain.HourlyTable) []domain.LabelTotal {
	return totalsBy(hourly, func(r domain.HourlyRecord) string { return r.Season })
}

// WeatherTotals sums total per short weather label, largest first.
func WeatherTotals(hourly *domain.HourlyTable) []domain.LabelTotal {
	return totalsBy(hourly, func(r domain.HourlyRecord) string { return WeatherLabel(r.Weather) })
}

// totalsBy groups by label and sorts descending by total, then by label, so
// the result does not depend on row order.
func totalsBy(hourly *domain.HourlyTable, label func(domain.HourlyRecord) string) []domain.LabelTotal {
	if hourly == nil {
		return nil
	}

	sums := make(map[string]int64)
	for _, row := range hourly.Rows {
		sums[label(row)] += row.Total
	}

	out := make([]domain.LabelTotal, 0, len(sums))
	for l, total := range sums {
		out = append(out, domain.LabelTotal{Label: l, Total: total})
	}
	slices.SortFunc(out, func(a, b domain.LabelTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// Years returns the distinct years of the hourly table, ascending.
func Years(hourly *domain.HourlyTable) []int {
	if hourly == nil {
		return nil
	}
	seen := make(map[int]struct{})
	var years []int
	for _, row := range hourly.Rows {
		if _, ok := seen[row.Year]; ok {
			continue
		}
		seen[row.Year] = struct{}{}
		years = append(years, row.Year)
	}
	slices.Sort(years)
	return years
}

// MonthDayHeatmap sums total per (month_name, day_name) for one year. Rows
// follow the month vocabulary and columns the day vocabulary; values outside
// either vocabulary have no cell and are skipped.
func MonthDayHeatmap(hourly *domain.HourlyTable, year int, vocab VocabularySet) domain.Heatmap {
	hm := newHeatmap(fmt.Sprintf("Daily Total Bike Users in %d", year), year, vocab.Month.Values(), vocab.Day.Values())
	if hourly == nil {
		return hm.Heatmap
	}
	for _, row := range hourly.Rows {
		if row.Year != year || !row.MonthName.Ordered() || !row.DayName.Ordered() {
			continue
		}
		hm.add(row.MonthName.Rank, row.DayName.Rank, row.Total)
	}
	return hm.Heatmap
}

// HourDayHeatmap sums total per (hour, day_name) for one year. Rows are the
// hours 0 to 23.
func HourDayHeatmap(hourly *domain.HourlyTable, year int, vocab VocabularySet) domain.Heatmap {
	hours := make([]string, 24)
	for h := range hours {
		hours[h] = strconv.Itoa(h)
	}

	hm := newHeatmap(fmt.Sprintf("In Depth of Daily Total Bike Users in %d", year), year, hours, vocab.Day.Values())
	if hourly == nil {
		return hm.Heatmap
	}
	for _, row := range hourly.Rows {
		if row.Year != year || !row.DayName.Ordered() || row.Hour < 0 || row.Hour > 23 {
			continue
		}
		hm.add(row.Hour, row.DayName.Rank, row.Total)
	}
	return hm.Heatmap
}

type heatmapBuilder struct {
	domain.Heatmap
}

func newHeatmap(title string, year int, rows, cols []string) *heatmapBuilder {
	cells := make([][]int64, len(rows))
	for i := range cells {
		cells[i] = make([]int64, len(cols))
	}
	return &heatmapBuilder{domain.Heatmap{
		Title:   title,
		Year:    year,
		Rows:    rows,
		Columns: cols,
		Cells:   cells,
	}}
}

func (b *heatmapBuilder) add(row, col int, v int64) {
	if row >= len(b.Cells) || col >= len(b.Cells[row]) {
		return
	}
	b.Cells[row][col] += v
	if b.Cells[row][col] > b.Max {
		b.Max = b.Cells[row][col]
	}
}
