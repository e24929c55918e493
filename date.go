package cgt

import (
	"encoding/json"
	"fmt"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02"

// Date represents a trade date with day-level granularity. UK matching rules
// operate on whole calendar days; intra-day ordering is carried separately by
// the event input sequence.
type Date struct {
	y int        // year
	m time.Month // month
	d int        // day
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// ParseDate parses a date in ISO-8601 form, accepting single digit month and day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(readDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Date()), nil
}

// Year returns the calendar year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// String formats the date in ISO-8601.
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Equal reports whether d and x are the same day.
func (d Date) Equal(x Date) bool { return d == x }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Add returns a new Date with the given number of days added.
func (d Date) Add(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// Today returns the current day in UTC.
func Today() Date {
	t := time.Now().UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DaysUntil returns the number of whole days from d to x (negative if x is earlier).
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()) / (24 * time.Hour))
}

// MarshalJSON implements the json.Marshaler interface for Date.
func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// UnmarshalJSON implements the json.Unmarshaler interface for Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TaxYear identifies a UK tax year by its starting calendar year:
// TaxYear(2024) runs from 6 April 2024 to 5 April 2025.
type TaxYear int

// TaxYearOf returns the UK tax year containing the given date.
func TaxYearOf(d Date) TaxYear {
	if d.m > time.April || (d.m == time.April && d.d >= 6) {
		return TaxYear(d.y)
	}
	return TaxYear(d.y - 1)
}

// Start returns the first day of the tax year (6 April).
func (y TaxYear) Start() Date { return NewDate(int(y), time.April, 6) }

// End returns the last day of the tax year (5 April of the following year).
func (y TaxYear) End() Date { return NewDate(int(y)+1, time.April, 5) }

// String formats the tax year in the usual "2024/25" form.
func (y TaxYear) String() string {
	return fmt.Sprintf("%d/%02d", int(y), (int(y)+1)%100)
}

// ParseTaxYear parses either "2024" or "2024/25".
func ParseTaxYear(s string) (TaxYear, error) {
	var start, end int
	if n, _ := fmt.Sscanf(s, "%d/%d", &start, &end); n >= 1 && start >= 1900 {
		return TaxYear(start), nil
	}
	return 0, fmt.Errorf("invalid tax year: %q", s)
}
