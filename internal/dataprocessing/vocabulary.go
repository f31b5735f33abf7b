package dataprocessing

import (
	"fmt"
	"slices"

	"bikedash/pkg/contracts/domain"
)

// Vocabulary is the ordered list of allowed values of a categorical column.
type Vocabulary struct {
	name   string
	values []string
	rank   map[string]int
}

// NewVocabulary builds a vocabulary from an explicit ordering. Empty or
// repeated values are rejected.
func NewVocabulary(name string, values []string) (*Vocabulary, error) {
	v := &Vocabulary{
		name:   name,
		values: make([]string, 0, len(values)),
		rank:   make(map[string]int, len(values)),
	}
	for _, value := range values {
		if value == "" {
			return nil, fmt.Errorf("vocabulary %s: empty value", name)
		}
		if _, dup := v.rank[value]; dup {
			return nil, fmt.Errorf("vocabulary %s: duplicate value %q", name, value)
		}
		v.rank[value] = len(v.values)
		v.values = append(v.values, value)
	}
	if len(v.values) == 0 {
		return nil, fmt.Errorf("vocabulary %s: no values", name)
	}
	return v, nil
}

// DeriveVocabulary returns the distinct non-empty observed values in order
// of first appearance. The result is deliberately not sorted.
func DeriveVocabulary(name string, observed []string) *Vocabulary {
	v := &Vocabulary{name: name, rank: make(map[string]int)}
	for _, value := range observed {
		if value == "" {
			continue
		}
		if _, seen := v.rank[value]; seen {
			continue
		}
		v.rank[value] = len(v.values)
		v.values = append(v.values, value)
	}
	return v
}

// Name returns the column the vocabulary applies to.
func (v *Vocabulary) Name() string { return v.name }

// Len returns the number of values.
func (v *Vocabulary) Len() int { return len(v.values) }

// Values returns a copy of the ordering.
func (v *Vocabulary) Values() []string { return slices.Clone(v.values) }

// Rank returns the position of value, or domain.Unordered.
func (v *Vocabulary) Rank(value string) int {
	if r, ok := v.rank[value]; ok {
		return r
	}
	return domain.Unordered
}

// Category maps a raw value onto the vocabulary.
func (v *Vocabulary) Category(value string) domain.Category {
	return domain.Category{Value: value, Rank: v.Rank(value)}
}

// VocabularySet is the vocabularies shared by both tables for one pipeline
// run.
type VocabularySet struct {
	Month     *Vocabulary
	Day       *Vocabulary
	YearMonth *Vocabulary
}

// NewVocabularySet combines the configured month and day orderings with a
// yearmonth vocabulary obtained from DeriveYearMonthVocabulary.
func NewVocabularySet(months, days []string, yearMonth *Vocabulary) (VocabularySet, error) {
	if yearMonth == nil {
		return VocabularySet{}, fmt.Errorf("yearmonth vocabulary is required")
	}
	month, err := NewVocabulary(ColMonthName, months)
	if err != nil {
		return VocabularySet{}, err
	}
	day, err := NewVocabulary(ColDayName, days)
	if err != nil {
		return VocabularySet{}, err
	}
	return VocabularySet{Month: month, Day: day, YearMonth: yearMonth}, nil
}

// DeriveYearMonthVocabulary captures the yearmonth ordering from the raw
// daily table. It must run before any row is filtered out.
func DeriveYearMonthVocabulary(daily *RawTable) (*Vocabulary, error) {
	if daily == nil {
		return nil, fmt.Errorf("daily table is required")
	}
	values, err := daily.Values(ColYearMonth)
	if err != nil {
		return nil, err
	}
	v := DeriveVocabulary(ColYearMonth, values)
	if v.Len() == 0 {
		return nil, fmt.Errorf("%s: yearmonth column is empty", daily.Name)
	}
	return v, nil
}

// CompareCategories orders ordered values by rank and puts unordered values
// after all ordered ones. Two unordered values compare equal, so a stable
// sort keeps their input order.
func CompareCategories(a, b domain.Category) int {
	switch {
	case a.Ordered() && b.Ordered():
		return a.Rank - b.Rank
	case a.Ordered():
		return -1
	case b.Ordered():
		return 1
	default:
		return 0
	}
}

// SortByCategory stably sorts rows by the category returned by key.
func SortByCategory[T any](rows []T, key func(T) domain.Category) {
	slices.SortStableFunc(rows, func(a, b T) int {
		return CompareCategories(key(a), key(b))
	})
}
