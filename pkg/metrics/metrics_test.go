package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				manager.framesScored.Inc()
				manager.clipsScored.WithLabelValues("NONE").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "pitchmech_engine_")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.framesScored.Inc()

			Convey("Then names and constant labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, mf := range families {
					if mf.GetName() != "test_unit_frames_scored_total" {
						continue
					}
					found = true
					labels := mf.GetMetric()[0].GetLabel()
					So(labels, ShouldHaveLength, 1)
					So(labels[0].GetName(), ShouldEqual, "env")
					So(labels[0].GetValue(), ShouldEqual, "test")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Frames and clips are counted", func() {
			before := testutil.ToFloat64(globalManager.framesScored)
			RecordFrameScored(3)
			RecordFrameScored(0)
			So(testutil.ToFloat64(globalManager.framesScored), ShouldEqual, before+3)

			discarded := globalManager.framesDiscarded.WithLabelValues("leg_drive")
			before = testutil.ToFloat64(discarded)
			RecordFrameDiscarded("leg_drive")
			So(testutil.ToFloat64(discarded), ShouldEqual, before+1)

			scored := globalManager.clipsScored.WithLabelValues("NEEDS_WORK")
			before = testutil.ToFloat64(scored)
			RecordClipScored("NEEDS_WORK", 30, 12)
			So(testutil.ToFloat64(scored), ShouldEqual, before+1)

			before = testutil.ToFloat64(globalManager.clipsUnscorable)
			RecordClipUnscorable()
			So(testutil.ToFloat64(globalManager.clipsUnscorable), ShouldEqual, before+1)
		})

		Convey("Fatigue assessments are counted by recommendation", func() {
			caution := globalManager.fatigueAssessed.WithLabelValues("CAUTION")
			before := testutil.ToFloat64(caution)
			score := 5
			RecordFatigueAssessment("CAUTION", &score)
			RecordFatigueAssessment("ERROR", nil)
			So(testutil.ToFloat64(caution), ShouldEqual, before+1)
		})

		Convey("Gauges take the latest value", func() {
			UpdateQueueSize(10)
			UpdateQueueSize(4)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 4)

			UpdateOutingsTracked(2)
			So(testutil.ToFloat64(globalManager.outingsTracked), ShouldEqual, 2)

			before := testutil.ToFloat64(globalManager.workerActiveCount)
			UpdateWorkerActiveCount(1)
			UpdateWorkerActiveCount(-1)
			So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, before)
		})

		Convey("Operational recorders do not panic", func() {
			So(func() {
				RecordClipDuplicate()
				RecordProfileLookup("static", "hit")
				UpdateResultsStored(7)
				UpdateQueueCapacity(100)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(8)
				RecordWorkerProcessingLatency(3.5)
				RecordWorkerError()
				RecordHTTPRequest("/v1/clips", "POST", "202")
				RecordHTTPRequestDuration("/v1/clips", "POST", "202", 1.2)
				RecordErrorByComponent("worker", "unscorable")
			}, ShouldNotPanic)
		})

		Convey("The registry exposes the global collectors", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var names []string
			for _, mf := range families {
				names = append(names, mf.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "pitchmech_engine_frames_scored_total")
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		defer func() { globalManager = saved }()

		Convey("Recorders are no-ops", func() {
			RecordFrameScored(5)
			RecordClipUnscorable()
			So(testutil.ToFloat64(globalManager.framesScored), ShouldEqual, 0)
			So(testutil.ToFloat64(globalManager.clipsUnscorable), ShouldEqual, 0)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Recording from many goroutines is safe", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueued)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordQueueEnqueue()
				RecordHTTPRequest("/v1/score", "POST", "200")
			}()
		}
		wg.Wait()
		So(testutil.ToFloat64(globalManager.queueEnqueued), ShouldEqual, before+50)
	})
}
