// Package availability derives concrete free time slots for a contractor
// against one job's constraints. All computation is pure and in-memory.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// Default finder configuration constants.
const (
	defaultMaxSlots = 3
)

// Finder computes availability slots.
type Finder struct {
	defaultMaxSlots int
}

// NewFinder creates a slot finder with configuration options.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		defaultMaxSlots: defaultMaxSlots,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindSlots returns up to maxSlots windows of exactly job.Duration during
// which the contractor could perform the job, ordered by earliest start.
// assignments must be the contractor's active assignments. A maxSlots of zero
// or less falls back to the finder default; a zero serviceWindow falls back to
// the whole of desiredDate.
//
// A job duration longer than any single free interval yields no slot from
// that interval even if the total free time would suffice; jobs are never
// split.
func (f *Finder) FindSlots(
	ctx context.Context,
	contractor *model.Contractor,
	job *model.Job,
	desiredDate model.Date,
	serviceWindow model.TimeWindow,
	assignments []model.Assignment,
	maxSlots int,
) ([]model.TimeWindow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxSlots <= 0 {
		maxSlots = f.defaultMaxSlots
	}
	if job.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	loc := contractor.TimezoneLocation()
	if !serviceWindow.End.After(serviceWindow.Start) {
		if desiredDate == (model.Date{}) {
			return nil, ErrInvalidServiceWindow
		}
		// No explicit window; the desired date anchors the scan to that whole
		// day in the contractor's timezone.
		serviceWindow = model.TimeWindow{
			Start: model.ClockTime(0).At(desiredDate, loc),
			End:   model.ClockTime(0).At(desiredDate.AddDays(1), loc),
		}
	}
	free := f.freeIntervals(contractor, serviceWindow, assignments, loc)

	slots := make([]model.TimeWindow, 0, maxSlots)
	for _, interval := range free {
		// Left-aligned tiling of duration-exact slots within the interval.
		start := interval.Start
		for !start.Add(job.Duration).After(interval.End) {
			slots = append(slots, model.TimeWindow{Start: start, End: start.Add(job.Duration)})
			if len(slots) == maxSlots {
				return slots, nil
			}
			start = start.Add(job.Duration)
		}
	}
	return slots, nil
}

// freeIntervals walks every date the service window spans in the
// contractor's timezone and collects the remaining free intervals.
func (f *Finder) freeIntervals(
	contractor *model.Contractor,
	window model.TimeWindow,
	assignments []model.Assignment,
	loc *time.Location,
) []model.TimeWindow {
	var free []model.TimeWindow

	first := model.DateOfIn(window.Start, loc)
	last := model.DateOfIn(window.End.Add(-time.Nanosecond), loc)

	for date := first; !last.Before(date); date = date.AddDays(1) {
		day, ok := f.workingInterval(contractor, date, loc)
		if !ok {
			continue
		}
		if f.atCapacity(contractor, date, assignments, loc) {
			continue
		}

		// Intersect the day's working interval with the service window.
		effective, ok := intersect(day, window)
		if !ok {
			continue
		}

		// The daily break is anchored at the midpoint of the day's working
		// interval; actual break timing is not tracked.
		busy := make([]model.TimeWindow, 0, len(assignments)+1)
		if brk := contractor.Calendar.DailyBreak; brk > 0 {
			mid := day.Start.Add(day.Duration() / 2)
			busy = append(busy, model.TimeWindow{
				Start: mid.Add(-brk / 2),
				End:   mid.Add(brk - brk/2),
			})
		}
		for i := range assignments {
			a := &assignments[i]
			if a.Active() && a.Window.Overlaps(effective) {
				busy = append(busy, a.Window)
			}
		}

		free = append(free, subtract(effective, busy)...)
	}

	sort.Slice(free, func(i, j int) bool { return free[i].Start.Before(free[j].Start) })
	return free
}

// workingInterval resolves the effective working hours for one date,
// applying calendar exceptions on top of the weekly declaration.
func (f *Finder) workingInterval(contractor *model.Contractor, date model.Date, loc *time.Location) (model.TimeWindow, bool) {
	hours, declared := contractor.HoursFor(date.Weekday())

	if ex, ok := contractor.Calendar.ExceptionFor(date); ok {
		switch ex.Type {
		case model.ExceptionHoliday, model.ExceptionUnavailable:
			return model.TimeWindow{}, false
		case model.ExceptionModifiedHours:
			if ex.Hours == nil {
				return model.TimeWindow{}, false
			}
			hours = *ex.Hours
			declared = true
		}
	}
	if !declared || hours.End <= hours.Start {
		return model.TimeWindow{}, false
	}
	return model.TimeWindow{
		Start: hours.Start.At(date, loc),
		End:   hours.End.At(date, loc),
	}, true
}

// atCapacity reports whether the contractor's active assignments on date
// already reach MaxJobsPerDay.
func (f *Finder) atCapacity(contractor *model.Contractor, date model.Date, assignments []model.Assignment, loc *time.Location) bool {
	if contractor.MaxJobsPerDay <= 0 {
		return false
	}
	booked := 0
	for i := range assignments {
		a := &assignments[i]
		if a.Active() && model.DateOfIn(a.Window.Start, loc) == date {
			booked++
		}
	}
	return booked >= contractor.MaxJobsPerDay
}

// intersect clips a against b.
func intersect(a, b model.TimeWindow) (model.TimeWindow, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return model.TimeWindow{}, false
	}
	return model.TimeWindow{Start: start, End: end}, true
}

// subtract removes every busy interval from base, returning the remaining
// free intervals in chronological order.
func subtract(base model.TimeWindow, busy []model.TimeWindow) []model.TimeWindow {
	free := []model.TimeWindow{base}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	for _, b := range busy {
		next := free[:0:0]
		for _, fw := range free {
			if !fw.Overlaps(b) {
				next = append(next, fw)
				continue
			}
			if b.Start.After(fw.Start) {
				next = append(next, model.TimeWindow{Start: fw.Start, End: b.Start})
			}
			if b.End.Before(fw.End) {
				next = append(next, model.TimeWindow{Start: b.End, End: fw.End})
			}
		}
		free = next
	}
	return free
}
