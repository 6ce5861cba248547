package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithLevel("error"))
	if err != nil {
		panic(err)
	}
}

const circuitPolicy = `
policyType: rankingPoints
policyName: club-circuit
awardProfiles:
  - profileName: singles
    eventTypes: [SINGLES]
    finishingPositionRanges:
      1: 100
      2: 60
      4: 30
      8: 10
    perWinPoints: 5
`

func mustPolicy(doc string) *policy.Policy {
	p, err := policy.Parse([]byte(doc))
	if err != nil {
		panic(err)
	}
	return p
}

func result(person string, finish []int, wins int) model.ParticipantResult {
	return model.ParticipantResult{
		ParticipantID:   "entry-" + person,
		ParticipantType: model.ParticipantIndividual,
		PersonIDs:       []string{person},
		TournamentID:    "t1",
		EventType:       model.EventSingles,
		Level:           3,
		StartDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		Participations: []model.StructureParticipation{{
			DrawID:                 "t1-main",
			FinishingPositionRange: finish,
			WinsCount:              wins,
		}},
	}
}

func fourDraw() []model.ParticipantResult {
	return []model.ParticipantResult{
		result("p3", []int{3, 4}, 0),
		result("p1", []int{1, 1}, 2),
		result("p4", []int{3, 4}, 0),
		result("p2", []int{2, 2}, 1),
	}
}

func started(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithPolicy(mustPolicy(circuitPolicy))}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without a policy", t, func() {
		svc := service.New()

		Convey("Then Start reports the missing policy", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, types.ErrMissingValue), ShouldBeTrue)
		})

		Convey("And operations report the service is not started", func() {
			_, err := svc.ComputeAwards(context.Background(), fourDraw(), time.Time{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Rank(context.Background(), "p1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a service with a policy", t, func() {
		svc := service.New(service.WithPolicy(mustPolicy(circuitPolicy)))
		defer svc.Stop()

		Convey("When starting the service twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then it is marked as started", func() {
				stats := svc.GetStats(context.Background())
				So(stats["started"], ShouldEqual, true)
				So(stats["awardProfiles"], ShouldEqual, 1)
			})
		})

		Convey("When stopping the service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats(context.Background())["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_ComputeAwards(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(service.WithIncludeProfileName(true))
		defer svc.Stop()

		Convey("When computing awards for a four player draw", func() {
			set, err := svc.ComputeAwards(context.Background(), fourDraw(), time.Time{})
			So(err, ShouldBeNil)

			Convey("Then each person gets position and win points", func() {
				So(set.PersonPoints, ShouldHaveLength, 4)
				So(set.PersonPoints["p1"][0].Points, ShouldEqual, 110)
				So(set.PersonPoints["p2"][0].Points, ShouldEqual, 65)
				So(set.PersonPoints["p3"][0].PositionPoints, ShouldEqual, 30)
				So(set.PersonPoints["p1"][0].ProfileName, ShouldEqual, "singles")
			})
		})
	})
}

func TestService_Recompute(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(service.WithListName("club"), service.WithAggregationWorkers(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("Before anything is published", func() {
			board, err := svc.Leaderboard(ctx, 10)
			So(err, ShouldBeNil)
			So(board.RunID, ShouldBeEmpty)
			So(board.Entries, ShouldBeEmpty)

			_, err = svc.Rank(ctx, "p1")
			So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
		})

		Convey("When recomputing the draw", func() {
			pub, err := svc.Recompute(ctx, fourDraw(), time.Time{})
			So(err, ShouldBeNil)

			Convey("Then the publication is summarized", func() {
				So(pub.RunID, ShouldNotBeEmpty)
				So(pub.ListName, ShouldEqual, "club")
				So(pub.Participants, ShouldEqual, 4)
				So(pub.Awards, ShouldEqual, 4)
			})

			Convey("And the leaderboard uses competition ranks", func() {
				board, err := svc.Leaderboard(ctx, 10)
				So(err, ShouldBeNil)
				So(board.RunID, ShouldEqual, pub.RunID)

				ids := make([]string, len(board.Entries))
				ranks := make([]int, len(board.Entries))
				for i, e := range board.Entries {
					ids[i] = e.PersonID
					ranks[i] = e.Rank
				}
				So(ids, ShouldResemble, []string{"p1", "p2", "p3", "p4"})
				So(ranks, ShouldResemble, []int{1, 2, 3, 3})
			})

			Convey("And the leaderboard honours the limit", func() {
				board, err := svc.Leaderboard(ctx, 2)
				So(err, ShouldBeNil)
				So(board.Entries, ShouldHaveLength, 2)

				top, err := svc.TopN(ctx, 1)
				So(err, ShouldBeNil)
				So(top[0].PersonID, ShouldEqual, "p1")
			})

			Convey("And single entries are readable", func() {
				e, err := svc.Rank(ctx, "p2")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
				So(e.TotalPoints, ShouldEqual, 65)

				_, err = svc.Rank(ctx, "nobody")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And stats describe the run", func() {
				stats := svc.GetStats(ctx)
				So(stats["participantsRanked"], ShouldEqual, 4)
				So(stats["runId"], ShouldEqual, pub.RunID)
			})
		})

		Convey("When asking for an invalid limit", func() {
			_, err := svc.Leaderboard(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When asking for an empty person id", func() {
			_, err := svc.Rank(ctx, "")
			So(errors.Is(err, types.ErrMissingValue), ShouldBeTrue)
		})

		Convey("When a result has no person", func() {
			bad := result("p9", []int{1, 1}, 0)
			bad.PersonIDs = nil
			_, err := svc.Recompute(ctx, []model.ParticipantResult{bad}, time.Time{})
			So(types.KindOf(err), ShouldEqual, types.KindMissingValue)
		})
	})
}

func TestService_GenerateRankings(t *testing.T) {
	Convey("Given a started service and computed awards", t, func() {
		svc := started()
		defer svc.Stop()
		ctx := context.Background()

		set, err := svc.ComputeAwards(ctx, fourDraw(), time.Time{})
		So(err, ShouldBeNil)
		awards := set.Flatten()

		Convey("When overriding the rules with a minimum result count", func() {
			entries, err := svc.GenerateRankings(ctx, awards, &policy.AggregationRules{MinCountableResults: 2}, time.Time{})
			So(err, ShouldBeNil)

			Convey("Then nobody meets the minimum but everyone is ranked", func() {
				So(entries, ShouldHaveLength, 4)
				for _, e := range entries {
					So(e.MeetsMinimum, ShouldBeFalse)
				}
			})
		})

		Convey("When aggregating a single participant", func() {
			e, err := svc.ParticipantPoints(ctx, awards, "p1", nil, time.Time{})
			So(err, ShouldBeNil)
			So(e.TotalPoints, ShouldEqual, 110)
			So(e.Rank, ShouldEqual, 0)
		})
	})
}

const doublesPolicy = `
policyType: rankingPoints
policyName: doubles-circuit
awardProfiles:
  - profileName: singles
    eventTypes: [SINGLES]
    finishingPositionRanges:
      1: 100
      2: 60
  - profileName: doubles
    eventTypes: [DOUBLES]
    doublesAttribution: splitEven
    finishingPositionRanges:
      1: 500
`

func TestService_RecomputeDoubles(t *testing.T) {
	Convey("Given a service splitting doubles points evenly", t, func() {
		svc := service.New(service.WithPolicy(mustPolicy(doublesPolicy)))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		ctx := context.Background()

		champions := model.ParticipantResult{
			ParticipantID:   "pair-1",
			ParticipantType: model.ParticipantPair,
			PersonIDs:       []string{"ann", "bea"},
			TournamentID:    "t1",
			EventType:       model.EventDoubles,
			Level:           3,
			StartDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
			Participations: []model.StructureParticipation{{
				DrawID:                 "t1-doubles",
				FinishingPositionRange: []int{1, 1},
			}},
		}
		runnerUp := result("cal", []int{2, 2}, 0)

		Convey("When the champion pair and a singles finalist are published", func() {
			pub, err := svc.Recompute(ctx, []model.ParticipantResult{champions, runnerUp}, time.Time{})
			So(err, ShouldBeNil)
			board, err := svc.Leaderboard(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then only people are listed and the members share first place", func() {
				So(pub.Participants, ShouldEqual, 3)
				So(board.Entries, ShouldHaveLength, 3)
				for _, e := range board.Entries {
					So(e.PersonID, ShouldNotEqual, "pair-1")
				}
				So(board.Entries[0].PersonID, ShouldEqual, "ann")
				So(board.Entries[0].Rank, ShouldEqual, 1)
				So(board.Entries[0].TotalPoints, ShouldEqual, 250)
				So(board.Entries[1].PersonID, ShouldEqual, "bea")
				So(board.Entries[1].Rank, ShouldEqual, 1)
				So(board.Entries[2].PersonID, ShouldEqual, "cal")
				So(board.Entries[2].Rank, ShouldEqual, 3)
				So(board.Entries[2].TotalPoints, ShouldEqual, 60)
			})

			Convey("Then the pair has no rank of its own", func() {
				_, err := svc.Rank(ctx, "pair-1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
