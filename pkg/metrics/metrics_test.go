package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegisterer(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "podium")
				So(manager.subsystem, ShouldEqual, "ranking")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("points"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegisterer(registry),
			)
			manager.awardsComputed.Inc()

			Convey("Then collectors are registered under the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_points_awards_computed_total")
				So(manager.latencyBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithLatencyBuckets(nil),
				WithRegisterer(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "podium")
				So(manager.subsystem, ShouldEqual, "ranking")
				So(manager.latencyBuckets, ShouldResemble, LatencyBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When awards are recorded", func() {
			before := testutil.ToFloat64(globalManager.awardsComputed)
			RecordAwardComputed()
			RecordAwardComputed()

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.awardsComputed), ShouldEqual, before+2)
			})
		})

		Convey("When a skipped result is recorded", func() {
			c := globalManager.awardsSkipped.WithLabelValues("no_profile")
			before := testutil.ToFloat64(c)
			RecordAwardSkipped("no_profile")

			Convey("Then the labelled counter advances", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+1)
			})
		})

		Convey("When an unnamed profile is selected", func() {
			c := globalManager.profileSelections.WithLabelValues("unnamed")
			before := testutil.ToFloat64(c)
			RecordProfileSelection("")

			Convey("Then it is counted as unnamed", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+1)
			})
		})

		Convey("When dropped results are recorded", func() {
			before := testutil.ToFloat64(globalManager.droppedResults)
			RecordDroppedResults(3)
			RecordDroppedResults(0)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(globalManager.droppedResults), ShouldEqual, before+3)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateParticipantsRanked(42)
			UpdateMinimumNotMet(5)
			UpdateSystemGoroutineCount(17)
			UpdateSystemMemoryUsage(1 << 20)

			Convey("Then they hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.participantsRanked), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.minimumNotMetPeople), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 17)
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldEqual, 1<<20)
			})
		})

		Convey("When a snapshot publish is recorded", func() {
			before := testutil.ToFloat64(globalManager.snapshotCount)
			RecordSnapshotPublish(3 * time.Millisecond)

			Convey("Then count and timestamp move", func() {
				So(testutil.ToFloat64(globalManager.snapshotCount), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.snapshotLastUnix), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the remaining recorders run", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordQualityWin()
					RecordScoringLatency(1.5)
					RecordScoringError()
					RecordAggregationLatency(2)
					RecordRankingListBuilt()
					RecordAggregationError()
					RecordUnbucketedAward()
					RecordAwardsWithoutPerson(2)
					RecordSnapshotQueryLatency(0.2)
					RecordHTTPRequest("rank", "GET", "200")
					RecordHTTPRequestDuration("rank", "GET", "200", 1)
					RecordErrorByComponent("aggregation", "INVALID_VALUES")
					RecordErrorByEndpoint("rank", "GET", "not_found")
					RecordSystemGCPauseTime(0.4)
				}, ShouldNotPanic)
			})
		})

		Convey("When the registry is requested", func() {
			Convey("Then the custom registry is returned", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
