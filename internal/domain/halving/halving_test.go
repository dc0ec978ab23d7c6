package halving_test

import (
	"testing"

	"github.com/WGlynn/divvy/internal/domain/fixed"
	"github.com/WGlynn/divvy/internal/domain/halving"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEra(t *testing.T) {
	Convey("Given the game-count era clock", t, func() {
		Convey("When fewer games than one era have been created", func() {
			So(halving.Era(0, 1000), ShouldEqual, 0)
			So(halving.Era(999, 1000), ShouldEqual, 0)
		})

		Convey("When the counter crosses era boundaries", func() {
			So(halving.Era(1000, 1000), ShouldEqual, 1)
			So(halving.Era(1999, 1000), ShouldEqual, 1)
			So(halving.Era(2000, 1000), ShouldEqual, 2)
		})

		Convey("When the counter is far beyond the last era it is capped", func() {
			So(halving.Era(1_000_000_000, 1000), ShouldEqual, halving.MaxEras)
		})

		Convey("When games-per-era is zero the clock pins to the final era", func() {
			So(halving.Era(5, 0), ShouldEqual, halving.MaxEras)
		})
	})
}

func TestEmissionMultiplier(t *testing.T) {
	Convey("Given the per-era emission multiplier", t, func() {
		Convey("When in the genesis era the multiplier is exactly one", func() {
			So(halving.EmissionMultiplier(0), ShouldEqual, fixed.Precision)
		})

		Convey("When the era advances the multiplier halves exactly", func() {
			for era := uint64(1); era < halving.MaxEras; era++ {
				So(halving.EmissionMultiplier(era), ShouldEqual, halving.EmissionMultiplier(era-1)/2)
			}
		})

		Convey("When the final era is reached emission stops", func() {
			So(halving.EmissionMultiplier(halving.MaxEras), ShouldEqual, 0)
			So(halving.EmissionMultiplier(halving.MaxEras+7), ShouldEqual, 0)
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given a scheduled emission value", t, func() {
		Convey("When applied in the genesis era the value is unchanged", func() {
			got, err := halving.Apply(1000, 0)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 1000)
		})

		Convey("When applied in later eras the value halves per era", func() {
			got, err := halving.Apply(1000, 1)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 500)

			got, err = halving.Apply(1000, 3)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 125)
		})

		Convey("When the division truncates", func() {
			got, err := halving.Apply(1001, 1)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 500)
		})

		Convey("When the era is at or past the cap the value is zero", func() {
			got, err := halving.Apply(1000, halving.MaxEras)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 0)
		})

		Convey("When eras advance the emitted value never increases", func() {
			prev, err := halving.Apply(1_000_000, 0)
			So(err, ShouldBeNil)
			for era := uint64(1); era <= halving.MaxEras; era++ {
				cur, err := halving.Apply(1_000_000, era)
				So(err, ShouldBeNil)
				So(cur, ShouldBeLessThanOrEqualTo, prev)
				prev = cur
			}
		})
	})
}
