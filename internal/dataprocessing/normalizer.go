package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	apierrors "bikedash/internal/errors"
	"bikedash/pkg/contracts/domain"
)

// Policy decides what happens to categorical values outside their vocabulary.
type Policy string

const (
	// PolicyWarn keeps the value unordered and reports a DataQualityIssue.
	PolicyWarn Policy = "warn"
	// PolicyReject fails normalization on the first such value.
	PolicyReject Policy = "reject"
)

// ParsePolicy accepts "warn" and "reject". Empty means warn.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyWarn:
		return PolicyWarn, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", apierrors.NewAppValidationError(fmt.Sprintf("unknown category policy %q", s))
	}
}

// dateLayouts are tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// ParseDate reads a calendar date. The time of day is discarded and the
// result is midnight UTC of the date as written.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// parseCount reads an integer. Integral floats such as "12.0" are accepted
// because spreadsheet exports often write counts that way.
func parseCount(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", value)
	}
	return int64(f), nil
}

// Normalizer converts raw tables into typed tables.
type Normalizer struct {
	policy Policy
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer with the given policy.
func NewNormalizer(policy Policy, logger *slog.Logger) *Normalizer {
	if policy == "" {
		policy = PolicyWarn
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		policy: policy,
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// Policy returns the out-of-vocabulary policy in force.
func (n *Normalizer) Policy() Policy { return n.policy }

// rowReader reads typed cells of one raw table. Row numbers in errors are
// 1-based data rows, not counting the header.
type rowReader struct {
	table *RawTable
	cols  map[string]int
}

func newRowReader(table *RawTable, required, optional []string) (*rowReader, error) {
	if err := table.Require(required...); err != nil {
		return nil, apierrors.NewParsingError(err.Error(), nil)
	}
	r := &rowReader{table: table, cols: make(map[string]int)}
	for _, c := range slices.Concat(required, optional) {
		if i, ok := table.Column(c); ok {
			r.cols[c] = i
		}
	}
	return r, nil
}

func (r *rowReader) text(row int, col string) string {
	i, ok := r.cols[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.table.Rows[row][i])
}

func (r *rowReader) date(row int) (time.Time, error) {
	value := r.text(row, ColDate)
	d, err := ParseDate(value)
	if err != nil {
		return time.Time{}, r.parseError(row, ColDate, value, err)
	}
	return d, nil
}

// count reads an integer cell. A column absent from the table reads as zero.
func (r *rowReader) count(row int, col string) (int64, error) {
	if _, ok := r.cols[col]; !ok {
		return 0, nil
	}
	value := r.text(row, col)
	n, err := parseCount(value)
	if err != nil {
		return 0, r.parseError(row, col, value, err)
	}
	return n, nil
}

func (r *rowReader) parseError(row int, col, value string, cause error) error {
	return apierrors.NewParsingError(
		fmt.Sprintf("%s row %d: cannot parse %s value %q", r.table.Name, row+1, col, value), cause).
		WithContext("table", r.table.Name).
		WithContext("row", row+1).
		WithContext("column", col).
		WithContext("value", value)
}

// categorizer maps categorical cells and applies the policy.
type categorizer struct {
	table  string
	policy Policy
	issues []domain.DataQualityIssue
}

func (c *categorizer) apply(vocab *Vocabulary, row int, value string) (domain.Category, error) {
	cat := vocab.Category(value)
	if cat.Ordered() {
		return cat, nil
	}
	if c.policy == PolicyReject {
		return cat, apierrors.NewDataQualityError(c.table, vocab.Name(), value, row+1)
	}
	c.issues = append(c.issues, domain.DataQualityIssue{
		Table:  c.table,
		Row:    row + 1,
		Column: vocab.Name(),
		Value:  value,
	})
	return cat, nil
}

// categories reads the three ordered columns common to both tables.
func (c *categorizer) categories(r *rowReader, vocab VocabularySet, row int) (ym, month, day domain.Category, err error) {
	if ym, err = c.apply(vocab.YearMonth, row, r.text(row, ColYearMonth)); err != nil {
		return
	}
	if month, err = c.apply(vocab.Month, row, r.text(row, ColMonthName)); err != nil {
		return
	}
	day, err = c.apply(vocab.Day, row, r.text(row, ColDayName))
	return
}

// NormalizeDaily types the daily table. A date or count that does not parse
// aborts the whole table.
func (n *Normalizer) NormalizeDaily(ctx context.Context, raw *RawTable, vocab VocabularySet) (*domain.DailyTable, []domain.DataQualityIssue, error) {
	r, err := newRowReader(raw, DailyColumns, nil)
	if err != nil {
		return nil, nil, err
	}

	c := &categorizer{table: raw.Name, policy: n.policy}
	out := &domain.DailyTable{Rows: make([]domain.DailyRecord, 0, raw.Len())}

	for i := range raw.Rows {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rec := domain.DailyRecord{}
		if rec.Date, err = r.date(i); err != nil {
			return nil, nil, err
		}
		if rec.YearMonth, rec.MonthName, rec.DayName, err = c.categories(r, vocab, i); err != nil {
			return nil, nil, err
		}
		if rec.Casual, err = r.count(i, ColCasual); err != nil {
			return nil, nil, err
		}
		if rec.Registered, err = r.count(i, ColRegistered); err != nil {
			return nil, nil, err
		}
		if rec.Total, err = r.count(i, ColTotal); err != nil {
			return nil, nil, err
		}
		out.Rows = append(out.Rows, rec)
	}

	n.reportIssues(ctx, raw.Name, c.issues)
	return out, c.issues, nil
}

// NormalizeHourly types the hourly table with the same vocabularies as the
// daily table.
func (n *Normalizer) NormalizeHourly(ctx context.Context, raw *RawTable, vocab VocabularySet) (*domain.HourlyTable, []domain.DataQualityIssue, error) {
	r, err := newRowReader(raw, HourlyColumns, []string{ColCasual, ColRegistered})
	if err != nil {
		return nil, nil, err
	}

	c := &categorizer{table: raw.Name, policy: n.policy}
	out := &domain.HourlyTable{Rows: make([]domain.HourlyRecord, 0, raw.Len())}

	for i := range raw.Rows {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rec := domain.HourlyRecord{
			Season:  r.text(i, ColSeason),
			Weather: r.text(i, ColWeather),
		}
		if rec.Date, err = r.date(i); err != nil {
			return nil, nil, err
		}

		hour, err := r.count(i, ColHour)
		if err != nil {
			return nil, nil, err
		}
		if hour < 0 || hour > 23 {
			return nil, nil, r.parseError(i, ColHour, r.text(i, ColHour), fmt.Errorf("hour out of range"))
		}
		rec.Hour = int(hour)

		year, err := r.count(i, ColYear)
		if err != nil {
			return nil, nil, err
		}
		rec.Year = int(year)

		if rec.YearMonth, rec.MonthName, rec.DayName, err = c.categories(r, vocab, i); err != nil {
			return nil, nil, err
		}
		if rec.Casual, err = r.count(i, ColCasual); err != nil {
			return nil, nil, err
		}
		if rec.Registered, err = r.count(i, ColRegistered); err != nil {
			return nil, nil, err
		}
		if rec.Total, err = r.count(i, ColTotal); err != nil {
			return nil, nil, err
		}
		out.Rows = append(out.Rows, rec)
	}

	n.reportIssues(ctx, raw.Name, c.issues)
	return out, c.issues, nil
}

// reportIssues logs one warning per column with the count and first value.
func (n *Normalizer) reportIssues(ctx context.Context, table string, issues []domain.DataQualityIssue) {
	if len(issues) == 0 {
		return
	}

	type summary struct {
		count int
		first domain.DataQualityIssue
	}
	byColumn := make(map[string]*summary)
	var order []string
	for _, issue := range issues {
		s, ok := byColumn[issue.Column]
		if !ok {
			s = &summary{first: issue}
			byColumn[issue.Column] = s
			order = append(order, issue.Column)
		}
		s.count++
	}

	for _, col := range order {
		s := byColumn[col]
		n.logger.WarnContext(ctx, "categorical values outside vocabulary",
			slog.String("table", table),
			slog.String("column", col),
			slog.Int("count", s.count),
			slog.Int("first_row", s.first.Row),
			slog.String("first_value", s.first.Value))
	}
}
