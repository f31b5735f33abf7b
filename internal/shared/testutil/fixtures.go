package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// DailyHeader is the column order written by DailyCSV.
var DailyHeader = []string{"date", "yearmonth", "month_name", "day_name", "casual", "registered", "total"}

// HourlyHeader is the column order written by HourlyCSV.
var HourlyHeader = []string{"date", "hour", "year", "season", "weather", "yearmonth", "month_name", "day_name", "casual", "registered", "total"}

// DailyRow is one row of a daily fixture, in source text form.
type DailyRow struct {
	Date, YearMonth, Month, Day string
	Casual, Registered, Total   int64
}

// HourlyRow is one row of an hourly fixture, in source text form.
type HourlyRow struct {
	Date                      string
	Hour, Year                int
	Season, Weather           string
	YearMonth, Month, Day     string
	Casual, Registered, Total int64
}

// DailyCSV renders rows as a daily CSV document with header.
func DailyCSV(rows ...DailyRow) string {
	var b strings.Builder
	b.WriteString(strings.Join(DailyHeader, ",") + "\n")
	for _, r := range rows {
		writeRecord(&b, r.Date, r.YearMonth, r.Month, r.Day,
			itoa(r.Casual), itoa(r.Registered), itoa(r.Total))
	}
	return b.String()
}

// HourlyCSV renders rows as an hourly CSV document with header.
func HourlyCSV(rows ...HourlyRow) string {
	var b strings.Builder
	b.WriteString(strings.Join(HourlyHeader, ",") + "\n")
	for _, r := range rows {
		writeRecord(&b, r.Date, strconv.Itoa(r.Hour), strconv.Itoa(r.Year), r.Season, r.Weather,
			r.YearMonth, r.Month, r.Day, itoa(r.Casual), itoa(r.Registered), itoa(r.Total))
	}
	return b.String()
}

func writeRecord(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if strings.ContainsAny(f, ",\"\n") {
			f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		b.WriteString(f)
	}
	b.WriteByte('\n')
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// SampleDaily covers three months of 2011 out of calendar order so that
// first-appearance and chronological order differ.
func SampleDaily() []DailyRow {
	return []DailyRow{
		{Date: "2011-01-01", YearMonth: "2011-01", Month: "Jan", Day: "Sat", Casual: 331, Registered: 654, Total: 985},
		{Date: "2011-01-02", YearMonth: "2011-01", Month: "Jan", Day: "Sun", Casual: 131, Registered: 670, Total: 801},
		{Date: "2011-03-01", YearMonth: "2011-03", Month: "Mar", Day: "Tue", Casual: 137, Registered: 1714, Total: 1851},
		{Date: "2011-02-01", YearMonth: "2011-02", Month: "Feb", Day: "Tue", Casual: 47, Registered: 1313, Total: 1360},
		{Date: "2011-02-02", YearMonth: "2011-02", Month: "Feb", Day: "Wed", Casual: 70, Registered: 1456, Total: 1526},
	}
}

// SampleHourly holds rows inside and outside the SampleDaily date span.
func SampleHourly() []HourlyRow {
	return []HourlyRow{
		{Date: "2010-12-31", Hour: 23, Year: 2010, Season: "Winter", Weather: "Clear, Few clouds, Partly cloudy", YearMonth: "2010-12", Month: "Dec", Day: "Fri", Casual: 1, Registered: 2, Total: 3},
		{Date: "2011-01-01", Hour: 0, Year: 2011, Season: "Winter", Weather: "Clear, Few clouds, Partly cloudy", YearMonth: "2011-01", Month: "Jan", Day: "Sat", Casual: 3, Registered: 13, Total: 16},
		{Date: "2011-01-01", Hour: 1, Year: 2011, Season: "Winter", Weather: "Mist + Cloudy, Mist + Broken clouds, Mist + Few clouds, Mist", YearMonth: "2011-01", Month: "Jan", Day: "Sat", Casual: 8, Registered: 32, Total: 40},
		{Date: "2011-03-01", Hour: 8, Year: 2011, Season: "Spring", Weather: "Light Snow, Light Rain + Thunderstorm + Scattered clouds, Light Rain + Scattered clouds", YearMonth: "2011-03", Month: "Mar", Day: "Tue", Casual: 4, Registered: 120, Total: 124},
		{Date: "2011-02-02", Hour: 17, Year: 2011, Season: "Winter", Weather: "Heavy Rain + Ice Pallets + Thunderstorm + Mist, Snow + Fog", YearMonth: "2011-02", Month: "Feb", Day: "Wed", Casual: 0, Registered: 0, Total: 0},
		{Date: "2011-03-02", Hour: 9, Year: 2011, Season: "Spring", Weather: "Clear, Few clouds, Partly cloudy", YearMonth: "2011-03", Month: "Mar", Day: "Wed", Casual: 5, Registered: 60, Total: 65},
	}
}

// NewSourceServer serves each body at its path. Unknown paths return 404.
func NewSourceServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
