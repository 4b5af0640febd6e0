package model

import (
	"fmt"
	"time"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WorkingHours declares a contractor's availability for one day of week.
// A contractor has at most one entry per weekday.
type WorkingHours struct {
	Day   time.Weekday `json:"day"`
	Start ClockTime    `json:"start"`
	End   ClockTime    `json:"end"`
}

// ExceptionType classifies a calendar exception.
type ExceptionType string

const (
	ExceptionHoliday       ExceptionType = "holiday"
	ExceptionUnavailable   ExceptionType = "unavailable"
	ExceptionModifiedHours ExceptionType = "modified_hours"
)

// CalendarException overrides or removes the default working hours for one
// date. Hours is set only for ExceptionModifiedHours.
type CalendarException struct {
	Date  Date          `json:"date"`
	Type  ExceptionType `json:"type"`
	Hours *WorkingHours `json:"hours,omitempty"`
}

// Calendar holds a contractor's holidays, dated exceptions (unique by date)
// and the daily break subtracted from every working day.
type Calendar struct {
	Holidays   map[string]struct{}          `json:"holidays"`
	Exceptions map[string]CalendarException `json:"exceptions"`
	DailyBreak time.Duration                `json:"daily_break"`
}

// NewCalendar returns an empty calendar with the given daily break.
func NewCalendar(dailyBreak time.Duration) Calendar {
	return Calendar{
		Holidays:   make(map[string]struct{}),
		Exceptions: make(map[string]CalendarException),
		DailyBreak: dailyBreak,
	}
}

// AddHoliday marks date as a holiday.
func (c *Calendar) AddHoliday(date Date) {
	if c.Holidays == nil {
		c.Holidays = make(map[string]struct{})
	}
	c.Holidays[date.String()] = struct{}{}
}

// SetException records an exception for date, replacing any prior one.
func (c *Calendar) SetException(ex CalendarException) {
	if c.Exceptions == nil {
		c.Exceptions = make(map[string]CalendarException)
	}
	c.Exceptions[ex.Date.String()] = ex
}

// ExceptionFor returns the exception for date, if any. A holiday without an
// explicit exception is reported as ExceptionHoliday.
func (c *Calendar) ExceptionFor(date Date) (CalendarException, bool) {
	key := date.String()
	if ex, ok := c.Exceptions[key]; ok {
		return ex, true
	}
	if _, ok := c.Holidays[key]; ok {
		return CalendarException{Date: date, Type: ExceptionHoliday}, true
	}
	return CalendarException{}, false
}

// Contractor is a field-service worker eligible for job assignment.
type Contractor struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name"`
	Location    LatLng                        `json:"location"`
	Rating      int                           `json:"rating"`
	RatingScale int                           `json:"rating_scale"`
	Skills      []string                      `json:"skills"`
	Hours       map[time.Weekday]WorkingHours `json:"hours"`
	Calendar    Calendar                      `json:"calendar"`
	Timezone    string                        `json:"timezone"`

	// Utilization counters maintained by assignment lifecycle operations.
	JobsBookedToday    int     `json:"jobs_booked_today"`
	MaxJobsPerDay      int     `json:"max_jobs_per_day"`
	CurrentUtilization float64 `json:"current_utilization"`
}

// Validate checks that the rating fits the contractor's scale. A zero
// RatingScale means the default 0-100 scale.
func (c *Contractor) Validate() error {
	scale := c.RatingScale
	if scale <= 0 {
		scale = 100
	}
	if c.Rating < 0 || c.Rating > scale {
		return fmt.Errorf("rating %d on scale 0-%d: %w", c.Rating, scale, ErrInvalidRating)
	}
	return nil
}

// HasSkills reports whether the contractor covers every required skill.
func (c *Contractor) HasSkills(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(c.Skills))
	for _, s := range c.Skills {
		have[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

// HoursFor returns the declared working hours for a weekday.
func (c *Contractor) HoursFor(day time.Weekday) (WorkingHours, bool) {
	wh, ok := c.Hours[day]
	return wh, ok
}

// NormalizedRating maps the rating to a 0-100 scale.
func (c *Contractor) NormalizedRating() float64 {
	scale := c.RatingScale
	if scale <= 0 {
		scale = 100
	}
	r := float64(c.Rating) / float64(scale) * 100
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// TimezoneLocation resolves the contractor's timezone, defaulting to UTC.
func (c *Contractor) TimezoneLocation() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
