package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Bounds accepted for year/month inputs.
const (
	MinYear = 1900
	MaxYear = 2100
)

type (
	// Date is a calendar day without time of day, always in UTC.
	Date struct {
		time.Time
	}

	// YearMonth identifies a calendar month.
	YearMonth struct {
		Year  int
		Month time.Month
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// FirstOfMonth returns day 1 of the month d falls in.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("date must be a string in YYYY-MM-DD format")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	*d = parsed
	return nil
}

// Value stores dates as YYYY-MM-DD text so range comparisons work the same
// on every SQL dialect.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		return errors.New("scan date: NULL value")
	}
	return fmt.Errorf("scan date: unsupported type %T", src)
}

func (d *Date) scanString(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("scan date: %q too short", s)
	}
	parsed, err := ParseDate(s[:len(DateLayout)])
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = parsed
	return nil
}

// NewYearMonth does not validate; call Validate before trusting user input.
func NewYearMonth(year, month int) YearMonth {
	return YearMonth{Year: year, Month: time.Month(month)}
}

// CurrentYearMonth returns the month containing now.
func CurrentYearMonth() YearMonth {
	return Today().YearMonth()
}

func (p YearMonth) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return ErrInvalidPeriod
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return ErrInvalidPeriod
	}
	return nil
}

// Start is the first day of the month.
func (p YearMonth) Start() Date {
	return NewDate(p.Year, int(p.Month), 1)
}

// End is the first day of the following month (exclusive bound).
func (p YearMonth) End() Date {
	return p.Next().Start()
}

func (p YearMonth) Next() YearMonth {
	if p.Month == time.December {
		return YearMonth{Year: p.Year + 1, Month: time.January}
	}
	return YearMonth{Year: p.Year, Month: p.Month + 1}
}

func (p YearMonth) Prev() YearMonth {
	if p.Month == time.January {
		return YearMonth{Year: p.Year - 1, Month: time.December}
	}
	return YearMonth{Year: p.Year, Month: p.Month - 1}
}

// WalkBack returns n months starting at p and going backwards, crossing
// year boundaries: 2024-01 -> [2024-01, 2023-12, 2023-11, ...].
func (p YearMonth) WalkBack(n int) []YearMonth {
	if n <= 0 {
		return nil
	}
	months := make([]YearMonth, 0, n)
	cur := p
	for i := 0; i < n; i++ {
		months = append(months, cur)
		cur = cur.Prev()
	}
	return months
}

func (p YearMonth) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// Label is the long display name, e.g. "March 2024".
func (p YearMonth) Label() string {
	return p.Start().Format("January 2006")
}

// Short is the abbreviated month name, e.g. "Mar".
func (p YearMonth) Short() string {
	return p.Start().Format("Jan")
}

func (p YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
