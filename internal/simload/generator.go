package simload

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// skillPool covers the trades the generated jobs draw from.
var skillPool = []string{"plumbing", "electrical", "hvac", "carpentry", "appliance", "roofing"}

// Service area roughly centered on lower Manhattan.
const (
	centerLat = 40.7128
	centerLng = -74.0060
	// spreadDeg keeps generated locations within ~20km of the center.
	spreadDeg = 0.18
)

// Generator produces deterministic synthetic entities from one seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Contractors generates n contractors with varied skills, ratings, hours,
// and the occasional calendar exception.
func (g *Generator) Contractors(n int) []model.Contractor {
	out := make([]model.Contractor, 0, n)
	for i := 0; i < n; i++ {
		skills := g.pickSkills(1 + g.rng.Intn(3))
		hours := make(map[time.Weekday]model.WorkingHours)
		startHour := 7 + g.rng.Intn(3)
		endHour := 16 + g.rng.Intn(3)
		for day := time.Monday; day <= time.Friday; day++ {
			hours[day] = model.WorkingHours{
				Day:   day,
				Start: model.NewClockTime(startHour, 0),
				End:   model.NewClockTime(endHour, 0),
			}
		}

		contractor := model.Contractor{
			ID:            fmt.Sprintf("ctr-%04d", i),
			Name:          fmt.Sprintf("Contractor %04d", i),
			Location:      g.location(),
			Rating:        50 + g.rng.Intn(51),
			RatingScale:   100,
			Skills:        skills,
			Hours:         hours,
			Calendar:      model.NewCalendar(time.Duration(30+g.rng.Intn(3)*15) * time.Minute),
			MaxJobsPerDay: 3 + g.rng.Intn(5),
		}
		// A tenth of the pool takes the target day off.
		if g.rng.Intn(10) == 0 {
			contractor.Calendar.AddHoliday(g.targetDate())
		}
		out = append(out, contractor)
	}
	return out
}

// Jobs generates n jobs against the target date.
func (g *Generator) Jobs(n int) []model.Job {
	date := g.targetDate()
	dayStart := time.Date(date.Year, date.Month, date.Day, 6, 0, 0, 0, time.UTC)

	out := make([]model.Job, 0, n)
	for i := 0; i < n; i++ {
		windowStart := dayStart.Add(time.Duration(g.rng.Intn(6)) * time.Hour)
		out = append(out, model.Job{
			ID:             fmt.Sprintf("job-%05d", i),
			Type:           "repair",
			RequiredSkills: g.pickSkills(1 + g.rng.Intn(2)),
			Duration:       time.Duration(1+g.rng.Intn(4)) * time.Hour,
			Location:       g.location(),
			DesiredDate:    date,
			ServiceWindow: model.TimeWindow{
				Start: windowStart,
				End:   windowStart.Add(time.Duration(8+g.rng.Intn(5)) * time.Hour),
			},
			Priority: g.rng.Intn(3),
		})
	}
	return out
}

// targetDate is the next Monday at least a week out, so generated calendars
// and windows land on a plain working day.
func (g *Generator) targetDate() model.Date {
	d := model.DateOf(time.Now().UTC().AddDate(0, 0, 7))
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d
}

func (g *Generator) location() model.LatLng {
	return model.LatLng{
		Lat: centerLat + (g.rng.Float64()-0.5)*spreadDeg,
		Lng: centerLng + (g.rng.Float64()-0.5)*spreadDeg,
	}
}

func (g *Generator) pickSkills(n int) []string {
	perm := g.rng.Perm(len(skillPool))
	if n > len(skillPool) {
		n = len(skillPool)
	}
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, skillPool[idx])
	}
	return out
}
