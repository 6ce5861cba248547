package model_test

import (
	"testing"

	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStructureParticipation(t *testing.T) {
	Convey("Given a structure participation", t, func() {
		p := model.StructureParticipation{FinishingPositionRange: []int{5, 8}}

		Convey("Then the accessor is the largest position of the range", func() {
			So(p.RangeAccessor(), ShouldEqual, 8)
		})

		Convey("When no range is reported", func() {
			p.FinishingPositionRange = nil

			Convey("Then the accessor is zero", func() {
				So(p.RangeAccessor(), ShouldEqual, 0)
			})
		})

		Convey("When wins are recorded without a count", func() {
			p.Wins = []model.Win{{MatchUpID: "m1"}, {MatchUpID: "m2"}}

			Convey("Then the recorded wins are counted", func() {
				So(p.WinTotal(), ShouldEqual, 2)
			})

			Convey("And an explicit count takes precedence", func() {
				p.WinsCount = 3
				So(p.WinTotal(), ShouldEqual, 3)
			})
		})
	})
}

func TestPointAward(t *testing.T) {
	Convey("Given a point award", t, func() {
		a := model.PointAward{
			ParticipantID:    "pair-1",
			PositionPoints:   100,
			PerWinPoints:     20,
			BonusPoints:      5,
			QualityWinPoints: 7,
			LinePoints:       3,
			Points:           135,
		}

		Convey("Then the components sum to the points", func() {
			So(a.ComponentSum(), ShouldEqual, a.Points)
		})

		Convey("Then components are addressable by name", func() {
			v, ok := a.Component(model.ComponentBonusPoints)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 5)

			_, ok = a.Component("rebatePoints")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestAwardSet_Flatten(t *testing.T) {
	Convey("Given an award set", t, func() {
		set := model.NewAwardSet()
		set.PersonPoints["b"] = []model.PointAward{{PersonID: "b", Points: 1}}
		set.PersonPoints["a"] = []model.PointAward{{PersonID: "a", Points: 2}, {PersonID: "a", Points: 3}}
		set.PairPoints["pair"] = []model.PointAward{{ParticipantID: "pair", Points: 4}}

		Convey("Then persons come first in key order, then pairs", func() {
			flat := set.Flatten()
			So(len(flat), ShouldEqual, 4)
			So(flat[0].Points, ShouldEqual, 2)
			So(flat[1].Points, ShouldEqual, 3)
			So(flat[2].PersonID, ShouldEqual, "b")
			So(flat[3].ParticipantID, ShouldEqual, "pair")
		})

		Convey("Then person awards leave the pairs out", func() {
			own := set.PersonAwards()
			So(own, ShouldHaveLength, 3)
			for _, a := range own {
				So(a.PersonID, ShouldNotBeEmpty)
			}
		})
	})
}

func TestRankingListEntry_HighestCountingValue(t *testing.T) {
	Convey("Given an entry with counted awards", t, func() {
		e := model.RankingListEntry{CountingResults: []model.CountedAward{{Value: 40}, {Value: 90}, {Value: 10}}}
		So(e.HighestCountingValue(), ShouldEqual, 90)

		Convey("And an empty entry", func() {
			So((&model.RankingListEntry{}).HighestCountingValue(), ShouldEqual, 0)
		})
	})
}
