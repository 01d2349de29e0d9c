package simulation_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/performance"
	"github.com/okian/rally/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

// countingSource counts draws.
type countingSource struct{ draws int }

func (c *countingSource) Float64() float64     { c.draws++; return 0.5 }
func (c *countingSource) NormFloat64() float64 { c.draws++; return 0 }

// fastSource pushes every car to its top speed without breakdowns.
type fastSource struct{}

func (fastSource) Float64() float64     { return 0.5 }
func (fastSource) NormFloat64() float64 { return 5 }

func entry(carID, teamID int64, top, accel, reliability, handling float64) model.Entry {
	tid := teamID
	return model.Entry{
		Car: model.Car{
			ID: carID, Name: "car", TopSpeed: top, Accel: accel,
			Reliability: reliability, Handling: handling, Weight: 1200, TeamID: &tid,
		},
		Team: model.Team{ID: teamID, Name: "team"},
	}
}

func field() []model.Entry {
	return []model.Entry{
		entry(1, 1, 280, 3.6, 0.92, 88),
		entry(2, 2, 260, 4.2, 0.88, 82),
		entry(3, 3, 300, 3.2, 0.95, 90),
		entry(4, 1, 180, 8.0, 0.70, 40),
	}
}

func TestSimulate(t *testing.T) {
	Convey("Given a simulator and a seeded source", t, func() {
		sim := simulation.New()

		Convey("When four entries race 100 km", func() {
			results, err := sim.Simulate(100, field(), rand.New(rand.NewSource(42)))

			Convey("Then every entry gets a dense position", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 4)
				seen := map[int64]bool{}
				for i, r := range results {
					So(r.Position, ShouldEqual, i+1)
					seen[r.CarID] = true
				}
				So(seen, ShouldHaveLength, 4)
			})

			Convey("Then finish times are non-decreasing", func() {
				for i := 1; i < len(results); i++ {
					So(results[i].FinishTime, ShouldBeGreaterThanOrEqualTo, results[i-1].FinishTime)
				}
			})

			Convey("Then speeds are bounded and consistent with time", func() {
				for _, r := range results {
					So(r.AvgSpeed, ShouldBeGreaterThanOrEqualTo, model.FloorPaceKMH)
					So(r.FinishTime, ShouldAlmostEqual, 100/r.AvgSpeed*60, 0.05)
				}
			})
		})

		Convey("When the same seed is replayed", func() {
			a, errA := sim.Simulate(50, field(), rand.New(rand.NewSource(7)))
			b, errB := sim.Simulate(50, field(), rand.New(rand.NewSource(7)))

			Convey("Then the results are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})

		Convey("When there are no entries", func() {
			src := &countingSource{}
			results, err := sim.Simulate(100, nil, src)

			Convey("Then no participants is reported without drawing", func() {
				So(errors.Is(err, simulation.ErrNoEligibleParticipants), ShouldBeTrue)
				So(results, ShouldBeNil)
				So(src.draws, ShouldEqual, 0)
			})
		})

		Convey("When the distance is not positive", func() {
			src := &countingSource{}
			_, err := sim.Simulate(0, field(), src)

			Convey("Then it is an invalid attribute and nothing is drawn", func() {
				So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
				So(src.draws, ShouldEqual, 0)
			})
		})

		Convey("When the last entry is invalid", func() {
			entries := field()
			entries[3].Car.Reliability = 1.5
			src := &countingSource{}
			_, err := sim.Simulate(100, entries, src)

			Convey("Then the whole race is rejected before any draw", func() {
				So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
				So(src.draws, ShouldEqual, 0)
			})
		})

		Convey("When an entry has no team", func() {
			entries := field()
			entries[1].Team = model.Team{}
			_, err := sim.Simulate(100, entries, &countingSource{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
			})
		})
	})

	Convey("Given identical cars and no variance", t, func() {
		sim := simulation.New(simulation.WithModel(performance.New(performance.WithNoiseStdDev(0))))
		entries := []model.Entry{
			entry(30, 1, 250, 4, 1, 80),
			entry(10, 2, 250, 4, 1, 80),
			entry(20, 3, 250, 4, 1, 80),
		}

		Convey("When they race", func() {
			results, err := sim.Simulate(10, entries, rand.New(rand.NewSource(1)))

			Convey("Then ties keep entry order", func() {
				So(err, ShouldBeNil)
				So(results[0].CarID, ShouldEqual, 30)
				So(results[1].CarID, ShouldEqual, 10)
				So(results[2].CarID, ShouldEqual, 20)
				So(results[0].FinishTime, ShouldEqual, results[2].FinishTime)
			})
		})
	})

	Convey("Given a car whose top speed has a third decimal", t, func() {
		entries := []model.Entry{entry(1, 1, 280.009, 2, 1, 100)}

		Convey("When it races at its cap", func() {
			results, err := simulation.New().Simulate(10, entries, fastSource{})

			Convey("Then the reported speed never exceeds the top speed", func() {
				So(err, ShouldBeNil)
				So(results[0].AvgSpeed, ShouldBeLessThanOrEqualTo, 280.009)
				So(results[0].AvgSpeed, ShouldEqual, 280.0)
				So(results[0].Breakdown, ShouldBeFalse)
			})
		})
	})

	Convey("Given a single entry", t, func() {
		results, err := simulation.New().Simulate(5, field()[:1], rand.New(rand.NewSource(5)))

		Convey("Then it wins", func() {
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 1)
			So(results[0].Position, ShouldEqual, 1)
			So(results[0].TeamID, ShouldEqual, 1)
		})
	})
}
