package prize_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/prize"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func ranked(n int) []model.Result {
	out := make([]model.Result, n)
	for i := range out {
		out[i] = model.Result{CarID: int64(i + 1), TeamID: int64(i + 1), Position: i + 1}
	}
	return out
}

func TestAllocate(t *testing.T) {
	Convey("Given the default curve and a pool of 10000", t, func() {
		pool := decimal.NewFromInt(10000)

		Convey("When five cars finish", func() {
			results := prize.Allocate(ranked(5), pool, prize.DefaultCurve())

			Convey("Then the podium is paid 60/30/10 and the rest nothing", func() {
				So(results[0].Prize.Equal(decimal.NewFromInt(6000)), ShouldBeTrue)
				So(results[1].Prize.Equal(decimal.NewFromInt(3000)), ShouldBeTrue)
				So(results[2].Prize.Equal(decimal.NewFromInt(1000)), ShouldBeTrue)
				So(results[3].Prize.IsZero(), ShouldBeTrue)
				So(results[4].Prize.IsZero(), ShouldBeTrue)
				So(prize.Total(results).Equal(pool), ShouldBeTrue)
			})
		})

		Convey("When only two cars finish", func() {
			results := prize.Allocate(ranked(2), pool, prize.DefaultCurve())

			Convey("Then third place money stays undistributed", func() {
				So(results, ShouldHaveLength, 2)
				So(prize.Total(results).Equal(decimal.NewFromInt(9000)), ShouldBeTrue)
			})
		})

		Convey("When the input is allocated", func() {
			in := ranked(3)
			_ = prize.Allocate(in, pool, prize.DefaultCurve())

			Convey("Then the input is not modified", func() {
				So(in[0].Prize.IsZero(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a pool that does not split into whole cents", t, func() {
		pool := decimal.RequireFromString("0.05")
		results := prize.Allocate(ranked(3), pool, prize.DefaultCurve())

		Convey("Then payouts are cut to cents and never exceed the pool", func() {
			So(results[0].Prize.String(), ShouldEqual, "0.03")
			So(results[1].Prize.String(), ShouldEqual, "0.01")
			So(results[2].Prize.String(), ShouldEqual, "0")
			So(prize.Total(results).LessThanOrEqual(pool), ShouldBeTrue)
		})
	})

	Convey("Given random pools and curves", t, func() {
		rng := rand.New(rand.NewSource(11))

		Convey("Then prizes are never negative and never exceed the pool", func() {
			bad := 0
			for range 500 {
				pool := decimal.New(rng.Int63n(10_000_000), -2)
				curve := prize.Curve{rng.Float64() * 0.5, rng.Float64() * 0.3, rng.Float64() * 0.2}
				results := prize.Allocate(ranked(1+rng.Intn(6)), pool, curve)
				for _, r := range results {
					if r.Prize.IsNegative() {
						bad++
					}
				}
				if prize.Total(results).GreaterThan(pool) {
					bad++
				}
			}
			So(bad, ShouldEqual, 0)
		})
	})

	Convey("Given an empty curve", t, func() {
		results := prize.Allocate(ranked(3), decimal.NewFromInt(100), prize.Curve{})

		Convey("Then nobody is paid", func() {
			So(prize.Total(results).IsZero(), ShouldBeTrue)
		})
	})
}

func TestCurve_Validate(t *testing.T) {
	Convey("Given prize curves", t, func() {
		So(prize.DefaultCurve().Validate(), ShouldBeNil)
		So(prize.Curve{}.Validate(), ShouldBeNil)
		So(prize.Curve{1}.Validate(), ShouldBeNil)

		Convey("Then a curve paying more than the pool is rejected", func() {
			err := prize.Curve{0.7, 0.4}.Validate()
			So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
		})

		Convey("Then a negative fraction is rejected", func() {
			So(errors.Is(prize.Curve{0.5, -0.1}.Validate(), model.ErrInvalidAttribute), ShouldBeTrue)
		})
	})
}
