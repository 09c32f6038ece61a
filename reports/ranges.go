package reports

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
)

const dateLayout = "2006-01-02"

// Range is an inclusive pair of calendar dates.
type Range struct {
	From time.Time
	To   time.Time
}

// Params turns the range into profit and loss parameters.
func (r Range) Params() Params {
	return Params{ProfitAndLossParams: accounting.ProfitAndLossParams{From: r.From, To: r.To}}
}

func (r Range) String() string {
	return r.From.Format(dateLayout) + " to " + r.To.Format(dateLayout)
}

// MonthToDate spans the calendar month containing now, first day to last day.
func MonthToDate(now time.Time) Range {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Range{From: start, To: start.AddDate(0, 1, -1)}
}

// YearToDate spans the calendar year containing now, 1 January to
// 31 December.
func YearToDate(now time.Time) Range {
	return Range{
		From: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
		To:   time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location()),
	}
}

// ParseRange reads the custom search form's dates (YYYY-MM-DD). An empty
// bound falls back to the current year's.
func ParseRange(from, to string, now time.Time) (Range, error) {
	r := YearToDate(now)
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return Range{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		r.From = t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return Range{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		r.To = t
	}
	if r.To.Before(r.From) {
		return Range{}, fmt.Errorf("range ends before it starts: %s", r)
	}
	return r, nil
}
