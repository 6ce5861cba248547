package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/internal/domain/qualitywin"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type stubRanks map[string]int

func (s stubRanks) Rank(_ context.Context, req qualitywin.RankRequest) (int, bool, error) {
	rank, ok := s[req.ParticipantID]
	return rank, ok, nil
}

func floatPtr(v float64) *float64 { return &v }

var (
	start = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
)

func singlesProfile() policy.AwardProfile {
	return policy.AwardProfile{
		ProfileName: "singles",
		EventTypes:  []string{model.EventSingles},
		FinishingPositionRanges: map[int]types.LevelValue{
			1: types.Flat(100),
			2: types.Flat(70),
			4: types.Flat(40),
			8: types.Flat(20),
		},
		PerWinPoints:        types.Flat(10),
		MaxCountableMatches: types.Flat(3),
		BonusPoints: []policy.BonusRule{
			{FinishingPositions: []int{1}, Value: types.Flat(5)},
			{FinishingPositions: []int{1, 2}, Value: types.ByLevel(map[int]float64{1: 3})},
		},
	}
}

func doublesProfile(mode policy.DoublesAttribution) policy.AwardProfile {
	return policy.AwardProfile{
		ProfileName:             "doubles",
		EventTypes:              []string{model.EventDoubles},
		FinishingPositionRanges: map[int]types.LevelValue{1: types.Flat(500)},
		DoublesAttribution:      mode,
	}
}

func individual(id string, level int, parts ...model.StructureParticipation) model.ParticipantResult {
	return model.ParticipantResult{
		ParticipantID:   id,
		ParticipantType: model.ParticipantIndividual,
		PersonIDs:       []string{"person-" + id},
		TournamentID:    "t1",
		EventType:       model.EventSingles,
		Level:           level,
		Gender:          "MALE",
		StartDate:       start,
		EndDate:         end,
		Participations:  parts,
	}
}

func pair(id string) model.ParticipantResult {
	return model.ParticipantResult{
		ParticipantID:   id,
		ParticipantType: model.ParticipantPair,
		PersonIDs:       []string{"ann", "bea"},
		TournamentID:    "t1",
		EventType:       model.EventDoubles,
		Level:           2,
		StartDate:       start,
		EndDate:         end,
		Participations: []model.StructureParticipation{
			{DrawID: "d-main", DrawType: "MAIN", FinishingPositionRange: []int{1, 1}},
		},
	}
}

func TestRangeLookup(t *testing.T) {
	Convey("Given a position table with flat and level-keyed values", t, func() {
		table := map[int]types.LevelValue{
			1: types.Flat(100),
			2: types.ByLevel(map[int]float64{1: 80, 2: 60}),
		}

		Convey("Then flat values ignore the level", func() {
			So(scoring.RangeLookup(table, 1, 7), ShouldEqual, 100)
		})

		Convey("Then level-keyed values need the exact level", func() {
			So(scoring.RangeLookup(table, 2, 2), ShouldEqual, 60)
			So(scoring.RangeLookup(table, 2, 3), ShouldEqual, 0)
		})

		Convey("Then unknown or unplaced accessors contribute nothing", func() {
			So(scoring.RangeLookup(table, 3, 1), ShouldEqual, 0)
			So(scoring.RangeLookup(table, 0, 1), ShouldEqual, 0)
			So(scoring.RangeLookup(nil, 1, 1), ShouldEqual, 0)
		})
	})
}

func TestEngine_Compute(t *testing.T) {
	Convey("Given a point computation engine", t, func() {
		ctx := context.Background()
		engine := scoring.NewEngine()
		profiles := []policy.AwardProfile{singlesProfile()}

		Convey("When a level-1 winner reports four wins", func() {
			res := individual("p1", 1, model.StructureParticipation{
				DrawID: "d1", DrawType: "MAIN", FinishingPositionRange: []int{1, 1}, WinsCount: 4,
			})
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})
			So(err, ShouldBeNil)
			awards := set.PersonPoints["person-p1"]

			Convey("Then every component is applied and wins are capped", func() {
				So(awards, ShouldHaveLength, 1)
				a := awards[0]
				So(a.PositionPoints, ShouldEqual, 100)
				So(a.PerWinPoints, ShouldEqual, 30)
				So(a.BonusPoints, ShouldEqual, 8)
				So(a.Points, ShouldEqual, 138)
				So(a.RangeAccessor, ShouldEqual, 1)
				So(a.PersonID, ShouldEqual, "person-p1")
				So(a.ParticipantID, ShouldEqual, "p1")
				So(a.Category.Gender, ShouldEqual, "MALE")
				So(a.EndDate, ShouldEqual, end)
				So(a.ProfileName, ShouldBeEmpty)
			})

			Convey("Then points equal the component sum", func() {
				So(awards[0].Points, ShouldEqual, awards[0].ComponentSum())
			})
		})

		Convey("When recorded wins are given instead of a count", func() {
			res := individual("p2", 1, model.StructureParticipation{
				DrawID: "d1", FinishingPositionRange: []int{5, 8},
				Wins: []model.Win{{MatchUpID: "m1"}, {MatchUpID: "m2"}},
			})
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})

			Convey("Then the recorded wins are counted and the range maximum is the accessor", func() {
				So(err, ShouldBeNil)
				a := set.PersonPoints["person-p2"][0]
				So(a.RangeAccessor, ShouldEqual, 8)
				So(a.PositionPoints, ShouldEqual, 20)
				So(a.PerWinPoints, ShouldEqual, 20)
				So(a.BonusPoints, ShouldEqual, 0)
			})
		})

		Convey("When a participant played several structures", func() {
			res := individual("p3", 1,
				model.StructureParticipation{DrawID: "qual", DrawType: "QUALIFYING", FinishingPositionRange: []int{8, 8}, WinsCount: 2},
				model.StructureParticipation{DrawID: "main", DrawType: "MAIN", FinishingPositionRange: []int{3, 4}, WinsCount: 1},
				model.StructureParticipation{DrawID: "cons", DrawType: "CONSOLATION", FinishingPositionRange: []int{4, 4}, WinsCount: 1},
			)
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})
			So(err, ShouldBeNil)
			awards := set.PersonPoints["person-p3"]

			Convey("Then only the first best placement earns position points", func() {
				So(awards, ShouldHaveLength, 3)
				So(awards[0].PositionPoints, ShouldEqual, 0)
				So(awards[1].PositionPoints, ShouldEqual, 40)
				So(awards[2].PositionPoints, ShouldEqual, 0)
			})

			Convey("Then every structure keeps its per-win points", func() {
				So(awards[0].PerWinPoints, ShouldEqual, 20)
				So(awards[1].PerWinPoints, ShouldEqual, 10)
				So(awards[2].PerWinPoints, ShouldEqual, 10)
			})
		})

		Convey("When a level-keyed table has no value at the result level", func() {
			levelled := []policy.AwardProfile{{
				FinishingPositionRanges: map[int]types.LevelValue{1: types.ByLevel(map[int]float64{1: 1000})},
			}}
			res := individual("p4", 3, model.StructureParticipation{DrawID: "d1", FinishingPositionRange: []int{1}})
			set, err := engine.Compute(ctx, scoring.Request{Profiles: levelled, Results: []model.ParticipantResult{res}})

			Convey("Then the zero award is not emitted", func() {
				So(err, ShouldBeNil)
				So(set.PersonPoints, ShouldBeEmpty)
			})
		})

		Convey("When a structure override level is set", func() {
			levelled := []policy.AwardProfile{{
				FinishingPositionRanges: map[int]types.LevelValue{1: types.ByLevel(map[int]float64{1: 1000, 2: 600})},
			}}
			res := individual("p5", 1, model.StructureParticipation{DrawID: "d1", Level: 2, FinishingPositionRange: []int{1}})
			set, err := engine.Compute(ctx, scoring.Request{Profiles: levelled, Results: []model.ParticipantResult{res}})

			Convey("Then the structure level is used", func() {
				So(err, ShouldBeNil)
				So(set.PersonPoints["person-p5"][0].PositionPoints, ShouldEqual, 600)
				So(set.PersonPoints["person-p5"][0].Level, ShouldEqual, 2)
			})
		})

		Convey("When line points are reported", func() {
			res := individual("p6", 1, model.StructureParticipation{DrawID: "d1", FinishingPositionRange: []int{2}, LinePoints: 12.5})
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})

			Convey("Then they are part of the total", func() {
				So(err, ShouldBeNil)
				a := set.PersonPoints["person-p6"][0]
				So(a.LinePoints, ShouldEqual, 12.5)
				So(a.Points, ShouldEqual, 70+3+12.5)
			})
		})

		Convey("When the same structure is reported twice", func() {
			first := individual("p9", 1, model.StructureParticipation{DrawID: "d1", FinishingPositionRange: []int{2}})
			again := individual("p9", 1,
				model.StructureParticipation{DrawID: "d1", FinishingPositionRange: []int{1}},
				model.StructureParticipation{DrawID: "d2", FinishingPositionRange: []int{4}},
			)
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{first, again}})

			Convey("Then the first occurrence is awarded and the repeat is dropped", func() {
				So(err, ShouldBeNil)
				awards := set.PersonPoints["person-p9"]
				So(awards, ShouldHaveLength, 2)
				So(awards[0].DrawID, ShouldEqual, "d1")
				So(awards[0].PositionPoints, ShouldEqual, 70)
				So(awards[1].DrawID, ShouldEqual, "d2")
				So(awards[1].PositionPoints, ShouldEqual, 40)
			})
		})

		Convey("When no profile matches", func() {
			res := individual("p7", 1, model.StructureParticipation{DrawID: "d1", FinishingPositionRange: []int{1}})
			res.EventType = model.EventTeam
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})

			Convey("Then nothing is produced and no error is raised", func() {
				So(err, ShouldBeNil)
				So(set.PersonPoints, ShouldBeEmpty)
				So(set.PairPoints, ShouldBeEmpty)
			})
		})

		Convey("When profile names are requested", func() {
			res := individual("p8", 1, model.StructureParticipation{DrawID: "d1", FinishingPositionRange: []int{1}})
			set, err := engine.Compute(ctx, scoring.Request{
				Profiles: profiles,
				Results:  []model.ParticipantResult{res},
				Options:  scoring.Options{IncludeProfileName: true},
			})

			Convey("Then awards carry the selected profile name", func() {
				So(err, ShouldBeNil)
				So(set.PersonPoints["person-p8"][0].ProfileName, ShouldEqual, "singles")
			})
		})

		Convey("When an individual result has no person", func() {
			res := individual("p9", 1)
			res.PersonIDs = nil
			_, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})

			Convey("Then a missing value is reported", func() {
				So(errors.Is(err, types.ErrMissingValue), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.Compute(cctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{individual("p10", 1)}})

			Convey("Then the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestEngine_DoublesAttribution(t *testing.T) {
	Convey("Given a doubles champion pair worth 500", t, func() {
		ctx := context.Background()
		engine := scoring.NewEngine()

		compute := func(mode policy.DoublesAttribution) model.AwardSet {
			set, err := engine.Compute(ctx, scoring.Request{
				Profiles: []policy.AwardProfile{doublesProfile(mode)},
				Results:  []model.ParticipantResult{pair("pair-1")},
			})
			So(err, ShouldBeNil)
			return set
		}

		Convey("When attribution is splitEven", func() {
			set := compute(policy.AttributionSplitEven)

			Convey("Then the pair keeps 500 and each member gets 250", func() {
				So(set.PairPoints["pair-1"], ShouldHaveLength, 1)
				So(set.PairPoints["pair-1"][0].Points, ShouldEqual, 500)
				So(set.PairPoints["pair-1"][0].PersonID, ShouldBeEmpty)
				for _, person := range []string{"ann", "bea"} {
					a := set.PersonPoints[person][0]
					So(a.Points, ShouldEqual, 250)
					So(a.PositionPoints, ShouldEqual, 250)
					So(a.Points, ShouldEqual, a.ComponentSum())
					So(a.DoublesParticipantID, ShouldEqual, "pair-1")
					So(a.PersonID, ShouldEqual, person)
				}
			})
		})

		Convey("When attribution is fullToEach", func() {
			set := compute(policy.AttributionFullToEach)

			Convey("Then each member gets the full value", func() {
				So(set.PersonPoints["ann"][0].Points, ShouldEqual, 500)
				So(set.PersonPoints["bea"][0].Points, ShouldEqual, 500)
				So(set.PersonPoints["bea"][0].DoublesParticipantID, ShouldEqual, "pair-1")
			})
		})

		Convey("When attribution is unset", func() {
			set := compute("")

			Convey("Then only the pair is credited", func() {
				So(set.PairPoints["pair-1"][0].Points, ShouldEqual, 500)
				So(set.PersonPoints, ShouldBeEmpty)
			})
		})
	})
}

func TestEngine_QualityWins(t *testing.T) {
	Convey("Given a profile with a capped quality-win bonus", t, func() {
		ctx := context.Background()
		profile := singlesProfile()
		profile.QualityWinProfiles = []policy.QualityWinProfile{{
			RankingScaleName:      "OPEN",
			RankingRanges:         []policy.RankingRange{{RankRange: []int{1, 10}, Value: 40}},
			MaxBonusPerTournament: floatPtr(50),
		}}
		profiles := []policy.AwardProfile{profile}
		res := individual("q1", 2,
			model.StructureParticipation{DrawID: "main", FinishingPositionRange: []int{2}, Wins: []model.Win{
				{MatchUpID: "m1", OpponentParticipantID: "seed-1"},
			}},
			model.StructureParticipation{DrawID: "playoff", FinishingPositionRange: []int{4}, Wins: []model.Win{
				{MatchUpID: "m2", OpponentParticipantID: "seed-2"},
				{MatchUpID: "m3", OpponentParticipantID: "unranked"},
			}},
		)

		Convey("When a ranking store is wired", func() {
			engine := scoring.NewEngine(scoring.WithRankLookup(stubRanks{"seed-1": 1, "seed-2": 7}))
			set, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})
			So(err, ShouldBeNil)
			awards := set.PersonPoints["person-q1"]

			Convey("Then the cap is shared across the participant's records", func() {
				So(awards, ShouldHaveLength, 2)
				So(awards[0].QualityWinPoints, ShouldEqual, 40)
				So(awards[1].QualityWinPoints, ShouldEqual, 10)
			})

			Convey("Then details carry uncapped values and skip unranked opponents", func() {
				So(awards[1].QualityWins, ShouldHaveLength, 1)
				So(awards[1].QualityWins[0].Points, ShouldEqual, 40)
				So(awards[1].QualityWins[0].OpponentRank, ShouldEqual, 7)
			})

			Convey("Then the decomposition still holds", func() {
				for _, a := range awards {
					So(a.Points, ShouldEqual, a.ComponentSum())
				}
			})
		})

		Convey("When no ranking store is wired", func() {
			engine := scoring.NewEngine()
			_, err := engine.Compute(ctx, scoring.Request{Profiles: profiles, Results: []model.ParticipantResult{res}})

			Convey("Then the missing tournament record kind is reported", func() {
				So(errors.Is(err, types.ErrMissingTournamentRecord), ShouldBeTrue)
			})
		})
	})
}
