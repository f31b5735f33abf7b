package domain

import (
	"time"
)

// Unordered is the rank of a categorical value that is not part of its vocabulary.
const Unordered = -1

// Category is a value of an ordered categorical column. Rank is the position
// of Value in the column vocabulary, or Unordered when the value is unknown.
type Category struct {
	Value string `json:"value"`
	Rank  int    `json:"rank"`
}

// Ordered reports whether the value belongs to its vocabulary.
func (c Category) Ordered() bool {
	return c.Rank >= 0
}

// Compare orders two categories by rank. ok is false when either side is
// unordered, in which case the comparison is undefined.
func (c Category) Compare(other Category) (cmp int, ok bool) {
	if !c.Ordered() || !other.Ordered() {
		return 0, false
	}
	switch {
	case c.Rank < other.Rank:
		return -1, true
	case c.Rank > other.Rank:
		return 1, true
	default:
		return 0, true
	}
}

// Between reports whether c lies within [lo, hi] by rank.
// Unordered values are never between anything.
func (c Category) Between(lo, hi Category) bool {
	if cmp, ok := c.Compare(lo); !ok || cmp < 0 {
		return false
	}
	cmp, ok := c.Compare(hi)
	return ok && cmp <= 0
}

// String returns the raw value.
func (c Category) String() string {
	return c.Value
}

// DailyRecord is one calendar day of bike share usage.
type DailyRecord struct {
	Date       time.Time `json:"date" validate:"required"`
	YearMonth  Category  `json:"yearmonth"`
	MonthName  Category  `json:"month_name"`
	DayName    Category  `json:"day_name"`
	Casual     int64     `json:"casual" validate:"min=0"`
	Registered int64     `json:"registered" validate:"min=0"`
	Total      int64     `json:"total" validate:"min=0"`
}

// HourlyRecord is one (date, hour) slot of bike share usage.
type HourlyRecord struct {
	Date       time.Time `json:"date" validate:"required"`
	Hour       int       `json:"hour" validate:"min=0,max=23"`
	Year       int       `json:"year"`
	Season     string    `json:"season"`
	Weather    string    `json:"weather"`
	YearMonth  Category  `json:"yearmonth"`
	MonthName  Category  `json:"month_name"`
	DayName    Category  `json:"day_name"`
	Casual     int64     `json:"casual" validate:"min=0"`
	Registered int64     `json:"registered" validate:"min=0"`
	Total      int64     `json:"total" validate:"min=0"`
}

// DailyTable holds the normalized daily rows in source order.
type DailyTable struct {
	Rows []DailyRecord `json:"rows"`
}

// Len returns the number of rows.
func (t *DailyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HourlyTable holds the normalized hourly rows in source order.
type HourlyTable struct {
	Rows []HourlyRecord `json:"rows"`
}

// Len returns the number of rows.
func (t *HourlyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Bounds is the observed span of the daily table.
type Bounds struct {
	MinDate      time.Time `json:"min_date"`
	MaxDate      time.Time `json:"max_date"`
	MinYearMonth Category  `json:"min_yearmonth"`
	MaxYearMonth Category  `json:"max_yearmonth"`
}

// ContainsDate reports whether d lies within [MinDate, MaxDate].
func (b Bounds) ContainsDate(d time.Time) bool {
	return !d.Before(b.MinDate) && !d.After(b.MaxDate)
}

// ContainsYearMonth reports whether ym lies within [MinYearMonth, MaxYearMonth].
func (b Bounds) ContainsYearMonth(ym Category) bool {
	return ym.Between(b.MinYearMonth, b.MaxYearMonth)
}

// DataQualityIssue records a categorical value outside its vocabulary.
type DataQualityIssue struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Dataset is the output of one pipeline run.
type Dataset struct {
	Daily    *DailyTable        `json:"-"`
	Hourly   *HourlyTable       `json:"-"`
	Bounds   Bounds             `json:"bounds"`
	Issues   []DataQualityIssue `json:"issues,omitempty"`
	LoadedAt time.Time          `json:"loaded_at"`
}
