package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func read(m prometheus.Metric) float64 {
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		return -1
	}
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	}
	return -1
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.sessionsNoData.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_sessions_no_data_total")
				So(read(manager.sessionsNoData), ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Analysis counters move", func() {
			before := read(globalManager.sessionsAnalyzed.WithLabelValues("seek"))
			RecordSessionAnalyzed("seek")
			So(read(globalManager.sessionsAnalyzed.WithLabelValues("seek")), ShouldEqual, before+1)

			before = read(globalManager.issueEvents.WithLabelValues("head_tilt"))
			RecordIssueEvent("head_tilt")
			RecordIssueEvent("head_tilt")
			So(read(globalManager.issueEvents.WithLabelValues("head_tilt")), ShouldEqual, before+2)

			before = read(globalManager.tipsGenerated)
			RecordTips(3)
			So(read(globalManager.tipsGenerated), ShouldEqual, before+3)
		})

		Convey("Gauges are set and adjusted", func() {
			UpdateQueueSize(7)
			So(read(globalManager.queueSize), ShouldEqual, 7)
			UpdateLiveSessions(1)
			UpdateLiveSessions(-1)
			So(read(globalManager.liveSessionsOpen), ShouldEqual, 0)
		})

		Convey("Recording helpers never panic", func() {
			So(func() {
				RecordSessionNoData()
				RecordSessionPartial()
				RecordAnalysisLatency(12)
				RecordFrameSampled("realtime")
				RecordFrameFailure("estimate")
				RecordEstimatorLatency(3)
				RecordEnrichment("ok", 120)
				RecordLiveFrameDropped()
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(2)
				RecordWorkerProcessingLatency(5)
				RecordWorkerError()
				UpdateJobsTracked(4)
				RecordHTTPRequest("/analyze", "POST", "200")
				RecordHTTPRequestDuration("/analyze", "POST", "200", 0.2)
				RecordErrorByEndpoint("/analyze", "POST", "4xx")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("The registry exposes namespaced families", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				if strings.HasPrefix(f.GetName(), "posecoach_analytics_") {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
