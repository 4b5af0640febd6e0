package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/adapters/routing"
	"github.com/fieldwise/dispatch/internal/adapters/sqlite"
	"github.com/fieldwise/dispatch/internal/app"
	"github.com/fieldwise/dispatch/internal/domain/model"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "dispatch.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := app.New(repository.NewMemStore(ctx), db, db, routing.NewHaversineResolver(),
		app.WithWorkerCount(1))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = svc.Stop(stopCtx)
	})

	mux := http.NewServeMux()
	NewServer(svc).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func testContractor(id string, skills ...string) model.Contractor {
	hours := make(map[time.Weekday]model.WorkingHours)
	for day := time.Monday; day <= time.Friday; day++ {
		hours[day] = model.WorkingHours{
			Day:   day,
			Start: model.NewClockTime(9, 0),
			End:   model.NewClockTime(17, 0),
		}
	}
	return model.Contractor{
		ID:            id,
		Name:          "Contractor " + id,
		Location:      model.LatLng{Lat: 40.72, Lng: -74.0},
		Rating:        88,
		RatingScale:   100,
		Skills:        skills,
		Hours:         hours,
		Calendar:      model.NewCalendar(time.Hour),
		MaxJobsPerDay: 8,
	}
}

func testJob(id string) model.Job {
	// 2026-03-02 is a Monday.
	return model.Job{
		ID:             id,
		Type:           "repair",
		RequiredSkills: []string{"plumbing"},
		Duration:       2 * time.Hour,
		Location:       model.LatLng{Lat: 40.71, Lng: -74.0},
		DesiredDate:    model.Date{Year: 2026, Month: time.March, Day: 2},
		ServiceWindow: model.TimeWindow{
			Start: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		},
	}
}

func TestRecommendationEndpoint(t *testing.T) {
	Convey("Given a running API", t, func() {
		mux := newTestMux(t)
		So(do(mux, http.MethodPost, "/contractors", testContractor("ctr-1", "plumbing")).Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/jobs", testJob("job-1")).Code, ShouldEqual, http.StatusCreated)

		Convey("POST /recommendations ranks contractors", func() {
			rec := do(mux, http.MethodPost, "/recommendations", map[string]any{
				"job_id": "job-1",
				"actor":  "dispatcher-7",
			})
			So(rec.Code, ShouldEqual, http.StatusOK)

			var result model.RecommendationResult
			So(json.Unmarshal(rec.Body.Bytes(), &result), ShouldBeNil)
			So(result.JobID, ShouldEqual, "job-1")
			So(result.ConfigVersionUsed, ShouldEqual, 1)
			So(result.Recommendations, ShouldHaveLength, 1)
			So(result.Recommendations[0].ContractorID, ShouldEqual, "ctr-1")
			So(result.Recommendations[0].Rationale, ShouldNotBeEmpty)
		})

		Convey("An unknown job returns 404", func() {
			rec := do(mux, http.MethodPost, "/recommendations", map[string]any{"job_id": "nope"})
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("A missing job_id returns 400", func() {
			rec := do(mux, http.MethodPost, "/recommendations", map[string]any{})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Malformed JSON returns 400", func() {
			req := httptest.NewRequest(http.MethodPost, "/recommendations", bytes.NewBufferString("{"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("GET /recommendations is rejected", func() {
			So(do(mux, http.MethodGet, "/recommendations", nil).Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestWeightsEndpoints(t *testing.T) {
	Convey("Given a running API", t, func() {
		mux := newTestMux(t)

		Convey("GET /config/weights returns the seeded config", func() {
			rec := do(mux, http.MethodGet, "/config/weights", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var cfg model.WeightsConfig
			So(json.Unmarshal(rec.Body.Bytes(), &cfg), ShouldBeNil)
			So(cfg.Version, ShouldEqual, 1)
			So(cfg.Active, ShouldBeTrue)
		})

		Convey("POST installs a new version and history lists both", func() {
			rec := do(mux, http.MethodPost, "/config/weights", map[string]any{
				"weights":      map[string]float64{"availability": 0.5, "rating": 0.3, "distance": 0.2},
				"tie_breakers": []string{"rating"},
				"actor":        "ops",
			})
			So(rec.Code, ShouldEqual, http.StatusCreated)

			var created model.WeightsConfig
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			So(created.Version, ShouldEqual, 2)

			hist := do(mux, http.MethodGet, "/config/weights/history", nil)
			So(hist.Code, ShouldEqual, http.StatusOK)
			var history []model.WeightsConfig
			So(json.Unmarshal(hist.Body.Bytes(), &history), ShouldBeNil)
			So(history, ShouldHaveLength, 2)
			So(history[0].Version, ShouldEqual, 2)

			Convey("Rollback appends a copy of version 1", func() {
				rb := do(mux, http.MethodPost, "/config/weights/rollback", map[string]any{
					"version": 1,
					"actor":   "ops",
				})
				So(rb.Code, ShouldEqual, http.StatusCreated)

				var rolled model.WeightsConfig
				So(json.Unmarshal(rb.Body.Bytes(), &rolled), ShouldBeNil)
				So(rolled.Version, ShouldEqual, 3)
				So(rolled.RolledBackFrom, ShouldEqual, 1)
				So(rolled.Weights.Availability, ShouldAlmostEqual, 0.4)
			})
		})

		Convey("Weights that do not sum to one are rejected", func() {
			rec := do(mux, http.MethodPost, "/config/weights", map[string]any{
				"weights": map[string]float64{"availability": 0.9, "rating": 0.9, "distance": 0.2},
				"actor":   "ops",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown tie-breaker names are rejected", func() {
			rec := do(mux, http.MethodPost, "/config/weights", map[string]any{
				"weights":      map[string]float64{"availability": 0.4, "rating": 0.4, "distance": 0.2},
				"tie_breakers": []string{"charisma"},
				"actor":        "ops",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Rollback to an unknown version is rejected", func() {
			rec := do(mux, http.MethodPost, "/config/weights/rollback", map[string]any{
				"version": 99,
				"actor":   "ops",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAssignmentEndpoints(t *testing.T) {
	Convey("Given a running API with a contractor and a job", t, func() {
		mux := newTestMux(t)
		So(do(mux, http.MethodPost, "/contractors", testContractor("ctr-1", "plumbing")).Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/jobs", testJob("job-1")).Code, ShouldEqual, http.StatusCreated)

		window := model.TimeWindow{
			Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		}

		Convey("Create, confirm, cancel round-trip", func() {
			rec := do(mux, http.MethodPost, "/assignments", map[string]any{
				"job_id":        "job-1",
				"contractor_id": "ctr-1",
				"window":        window,
				"source":        "manual",
			})
			So(rec.Code, ShouldEqual, http.StatusCreated)

			var created model.Assignment
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			So(created.Status, ShouldEqual, model.AssignmentPending)

			confirm := do(mux, http.MethodPost, "/assignments/"+created.ID+"/confirm", nil)
			So(confirm.Code, ShouldEqual, http.StatusOK)

			job := do(mux, http.MethodGet, "/jobs?id=job-1", nil)
			So(job.Code, ShouldEqual, http.StatusOK)
			var got model.Job
			So(json.Unmarshal(job.Body.Bytes(), &got), ShouldBeNil)
			So(got.Status, ShouldEqual, model.JobAssigned)

			Convey("A second confirm conflicts", func() {
				again := do(mux, http.MethodPost, "/assignments/"+created.ID+"/confirm", nil)
				So(again.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("Cancel returns the job to Created", func() {
				cancel := do(mux, http.MethodPost, "/assignments/"+created.ID+"/cancel", nil)
				So(cancel.Code, ShouldEqual, http.StatusOK)

				job := do(mux, http.MethodGet, "/jobs?id=job-1", nil)
				var got model.Job
				So(json.Unmarshal(job.Body.Bytes(), &got), ShouldBeNil)
				So(got.Status, ShouldEqual, model.JobCreated)
			})
		})

		Convey("Unknown actions are rejected", func() {
			So(do(mux, http.MethodPost, "/assignments/abc/archive", nil).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running API", t, func() {
		mux := newTestMux(t)

		Convey("/healthz serves the metrics registry", func() {
			rec := do(mux, http.MethodGet, "/healthz", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "dispatch_")
		})

		Convey("/stats reports service state", func() {
			rec := do(mux, http.MethodGet, "/stats", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var stats map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})
	})
}
