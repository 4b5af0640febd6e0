// Package model contains domain entities shared between layers.
package model

import (
	"fmt"
	"time"
)

// TimeWindow is a half-open [Start, End) interval in UTC.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow builds a window, enforcing End > Start.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !end.After(start) {
		return TimeWindow{}, ErrInvalidWindow
	}
	return TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether two half-open intervals intersect.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether t falls within the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// IsZero reports whether the window is uninitialized.
func (w TimeWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// ClockTime is a time of day expressed as minutes since midnight.
type ClockTime int

// NewClockTime builds a ClockTime from hours and minutes.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM" in 24h format.
func ParseClockTime(s string) (ClockTime, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("parse clock time %q: %w", s, ErrInvalidClockTime)
	}
	return NewClockTime(hour, minute), nil
}

// Hour returns the hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// At anchors the clock time on a calendar date in loc, returned in UTC.
func (c ClockTime) At(date Date, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, c.Hour(), c.Minute(), 0, 0, loc).UTC()
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf extracts the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// DateOfIn extracts the calendar date of t observed in loc.
func DateOfIn(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// Weekday returns the day of week for the date.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// AddDays returns the date shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Before reports whether d precedes other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}
