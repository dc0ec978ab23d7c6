package model_test

import (
	"testing"

	"github.com/WGlynn/divvy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseTrack(t *testing.T) {
	Convey("Given wire track names", t, func() {
		Convey("When parsing the known tracks", func() {
			tn, err := model.ParseTrack("time-neutral")
			So(err, ShouldBeNil)
			So(tn, ShouldEqual, model.TrackTimeNeutral)

			se, err := model.ParseTrack("scheduled-emission")
			So(err, ShouldBeNil)
			So(se, ShouldEqual, model.TrackScheduledEmission)
		})

		Convey("When the track is omitted it defaults to time-neutral", func() {
			tn, err := model.ParseTrack("")
			So(err, ShouldBeNil)
			So(tn, ShouldEqual, model.TrackTimeNeutral)
		})

		Convey("When the track is unknown", func() {
			_, err := model.ParseTrack("hyperinflation")
			So(err, ShouldWrap, model.ErrUnknownTrack)
		})

		Convey("When round-tripping through String", func() {
			So(model.TrackTimeNeutral.String(), ShouldEqual, "time-neutral")
			So(model.TrackScheduledEmission.String(), ShouldEqual, "scheduled-emission")
		})
	})
}

func TestParticipantValidate(t *testing.T) {
	Convey("Given participant records", t, func() {
		Convey("When the record is well formed", func() {
			p := model.Participant{Account: "alice", Direct: 1, ScarcityBPS: 5000, StabilityBPS: 10000}
			So(p.Validate(), ShouldBeNil)
		})

		Convey("When the account is empty", func() {
			p := model.Participant{Direct: 1}
			So(p.Validate(), ShouldWrap, model.ErrEmptyAccount)
		})

		Convey("When a bps score exceeds the scale", func() {
			So(model.Participant{Account: "a", ScarcityBPS: 10_001}.Validate(), ShouldWrap, model.ErrScoreOutOfRange)
			So(model.Participant{Account: "a", StabilityBPS: 10_001}.Validate(), ShouldWrap, model.ErrScoreOutOfRange)
		})
	})
}

func TestQualityWeight(t *testing.T) {
	Convey("Given quality weight records", t, func() {
		Convey("When all scores are in range", func() {
			qw := model.QualityWeight{ActivityBPS: 10000, ReputationBPS: 0, EconomicBPS: 5000}
			So(qw.Validate(), ShouldBeNil)
		})

		Convey("When any score exceeds the scale", func() {
			So(model.QualityWeight{ActivityBPS: 10_001}.Validate(), ShouldWrap, model.ErrScoreOutOfRange)
			So(model.QualityWeight{ReputationBPS: 10_001}.Validate(), ShouldWrap, model.ErrScoreOutOfRange)
			So(model.QualityWeight{EconomicBPS: 10_001}.Validate(), ShouldWrap, model.ErrScoreOutOfRange)
		})

		Convey("When averaging the three scores", func() {
			qw := model.QualityWeight{ActivityBPS: 3000, ReputationBPS: 6000, EconomicBPS: 9000}
			So(qw.MeanBPS(), ShouldEqual, 6000)
		})

		Convey("When the mean truncates", func() {
			qw := model.QualityWeight{ActivityBPS: 1, ReputationBPS: 1, EconomicBPS: 0}
			So(qw.MeanBPS(), ShouldEqual, 0)
		})
	})
}

func TestSettlementAllocation(t *testing.T) {
	Convey("Given a settlement with allocations", t, func() {
		s := model.Settlement{
			GameID: "g",
			Allocations: []model.Allocation{
				{Account: "alice", Weight: 320, Share: 800},
				{Account: "bob", Weight: 80, Share: 200},
			},
		}

		Convey("When looking up a known participant", func() {
			alloc, ok := s.Allocation("bob")
			So(ok, ShouldBeTrue)
			So(alloc.Share, ShouldEqual, 200)
		})

		Convey("When looking up an unknown participant", func() {
			_, ok := s.Allocation("mallory")
			So(ok, ShouldBeFalse)
		})
	})
}
