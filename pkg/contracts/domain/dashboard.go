package domain

import (
	"time"
)

// TrendPoint is the monthly sum of users for one year-month label.
type TrendPoint struct {
	YearMonth  string `json:"yearmonth"`
	Casual     int64  `json:"casual"`
	Registered int64  `json:"registered"`
	Total      int64  `json:"total"`
}

// SeasonPoint is the total for one (date, season) pair.
type SeasonPoint struct {
	Date      time.Time `json:"date"`
	YearMonth string    `json:"yearmonth"`
	Season    string    `json:"season"`
	Total     int64     `json:"total"`
}

// LabelTotal is a summed total for a single grouping key.
type LabelTotal struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

// Heatmap is a dense grid of summed totals.
// Cells[i][j] belongs to Rows[i] and Columns[j].
type Heatmap struct {
	Title      string    `json:"title"`
	Year       int       `json:"year"`
	Rows       []string  `json:"rows"`
	Columns    []string  `json:"columns"`
	Cells      [][]int64 `json:"cells"`
	Max        int64     `json:"max"`
	ShowLabels bool      `json:"show_labels"`
}

// Dashboard is the view model consumed by the page and the JSON API.
type Dashboard struct {
	Bounds          Bounds             `json:"bounds"`
	DailyRows       int                `json:"daily_rows"`
	HourlyRows      int                `json:"hourly_rows"`
	MonthlyTrend    []TrendPoint       `json:"monthly_trend"`
	SeasonTrend     []SeasonPoint      `json:"season_trend"`
	SeasonTotals    []LabelTotal       `json:"season_totals"`
	WeatherTotals   []LabelTotal       `json:"weather_totals"`
	MonthDayHeatmap []Heatmap          `json:"month_day_heatmaps"`
	HourDayHeatmap  []Heatmap          `json:"hour_day_heatmaps"`
	Issues          []DataQualityIssue `json:"issues,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
