package period

import (
	"fmt"
	"time"

	"github.com/ledgerline/statements/internal/domain"
)

// Period identifies one calendar month. The zero value is not a valid period;
// construct through New or FromTime.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// New validates year and month and returns the period.
func New(year, month int) (Period, error) {
	if year < 1 || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: year=%d month=%d", domain.ErrInvalidPeriod, year, month)
	}
	return Period{Year: year, Month: month}, nil
}

// FromTime returns the period containing t, evaluated in UTC.
func FromTime(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: int(u.Month())}
}

// Start is the first UTC instant of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the first UTC instant of the following month. Intervals are
// half-open [Start, End), so every timestamp belongs to exactly one period
// across month and year rollovers. time.Date normalizes month 13 to January
// of the next year, which keeps the arithmetic calendar-correct.
func (p Period) End() time.Time {
	return time.Date(p.Year, time.Month(p.Month)+1, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(p.Start()) && u.Before(p.End())
}

// Next returns the following month.
func (p Period) Next() Period {
	return FromTime(p.End())
}

// Prev returns the preceding month.
func (p Period) Prev() Period {
	return FromTime(p.Start().AddDate(0, 0, -1))
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	return p.Year < q.Year || (p.Year == q.Year && p.Month < q.Month)
}

// After reports whether p is strictly later than q.
func (p Period) After(q Period) bool {
	return q.Before(p)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
