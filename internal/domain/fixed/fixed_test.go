package fixed_test

import (
	"math"
	"testing"

	"github.com/WGlynn/divvy/internal/domain/fixed"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMulDiv(t *testing.T) {
	Convey("Given 256-bit intermediate multiply-divide", t, func() {
		Convey("When the product fits in 64 bits", func() {
			got, err := fixed.MulDiv(1000, 320, 400)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 800)
		})

		Convey("When the product overflows 64 bits but the quotient fits", func() {
			got, err := fixed.MulDiv(math.MaxUint64, 10, 20)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, uint64(math.MaxUint64/2))
		})

		Convey("When the quotient truncates", func() {
			got, err := fixed.MulDiv(7, 3, 2)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 10)
		})

		Convey("When dividing by zero", func() {
			_, err := fixed.MulDiv(1, 1, 0)
			So(err, ShouldWrap, fixed.ErrDivideByZero)
		})

		Convey("When the quotient does not fit in 64 bits", func() {
			_, err := fixed.MulDiv(math.MaxUint64, 4, 2)
			So(err, ShouldWrap, fixed.ErrOverflow)
		})
	})
}

func TestMulAndAdd(t *testing.T) {
	Convey("Given checked 64-bit arithmetic", t, func() {
		Convey("When multiplying within range", func() {
			got, err := fixed.Mul(1<<31, 2)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, uint64(1)<<32)
		})

		Convey("When multiplication overflows", func() {
			_, err := fixed.Mul(math.MaxUint64, 2)
			So(err, ShouldWrap, fixed.ErrOverflow)
		})

		Convey("When adding within range", func() {
			got, err := fixed.Add(math.MaxUint64-1, 1)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, uint64(math.MaxUint64))
		})

		Convey("When addition overflows", func() {
			_, err := fixed.Add(math.MaxUint64, 1)
			So(err, ShouldWrap, fixed.ErrOverflow)
		})
	})
}

func TestFloorLog2(t *testing.T) {
	Convey("Given the integer log2 floor", t, func() {
		Convey("When the input is zero or one the result is zero", func() {
			So(fixed.FloorLog2(0), ShouldEqual, 0)
			So(fixed.FloorLog2(1), ShouldEqual, 0)
		})

		Convey("When the input is a power of two", func() {
			So(fixed.FloorLog2(2), ShouldEqual, 1)
			So(fixed.FloorLog2(1024), ShouldEqual, 10)
		})

		Convey("When the input falls between powers", func() {
			So(fixed.FloorLog2(3), ShouldEqual, 1)
			So(fixed.FloorLog2(1023), ShouldEqual, 9)
		})
	})
}
