package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered returns the summed value of every sample of the named family.
func gathered(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordInput(1, 2, 3)

			Convey("Then metric names carry the namespace and subsystem", func() {
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.Registry(), ShouldEqual, registry)
				So(gathered(registry, "test_unit_jets_total"), ShouldEqual, 2)
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))
			manager.RecordInput(4, 0, 0)

			Convey("Then the defaults are kept", func() {
				So(gathered(registry, "ucbtag_convert_events_total"), ShouldEqual, 4)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))

			Convey("Then recording is harmless and nothing is registered", func() {
				So(func() { manager.RecordInput(1, 1, 1) }, ShouldNotPanic)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When a run is recorded", func() {
			m.RecordMatching(7, 3, 1)
			m.RecordAssembly(2, 5, 40)
			m.ObserveStage(StageMatch, 20*time.Millisecond)
			m.ObserveStage(StageAssemble, time.Millisecond)
			m.RecordStageError(StageWrite)
			m.SetWorkers(8)
			m.SetOutputBytes(1024)
			m.MarkRunFinished(time.Unix(1700000000, 0))

			Convey("Then every counter reflects it", func() {
				So(gathered(registry, "ucbtag_convert_matched_jets_total"), ShouldEqual, 7)
				So(gathered(registry, "ucbtag_convert_unmatched_jets_total"), ShouldEqual, 3)
				So(gathered(registry, "ucbtag_convert_unknown_flavours_total"), ShouldEqual, 1)
				So(gathered(registry, "ucbtag_convert_truncated_jets_total"), ShouldEqual, 2)
				So(gathered(registry, "ucbtag_convert_dropped_tracks_total"), ShouldEqual, 5)
				So(gathered(registry, "ucbtag_convert_kept_tracks_total"), ShouldEqual, 40)
				So(gathered(registry, "ucbtag_convert_stage_duration_seconds"), ShouldEqual, 2)
				So(gathered(registry, "ucbtag_convert_stage_errors_total"), ShouldEqual, 1)
				So(gathered(registry, "ucbtag_convert_workers"), ShouldEqual, 8)
				So(gathered(registry, "ucbtag_convert_output_bytes"), ShouldEqual, 1024)
				So(gathered(registry, "ucbtag_convert_last_run_timestamp_seconds"), ShouldEqual, 1700000000)
			})
		})
	})

	Convey("Given the global functions", t, func() {
		So(func() {
			RecordInput(1, 1, 1)
			RecordMatching(1, 0, 0)
			RecordAssembly(0, 0, 1)
			ObserveStage(StageConvert, time.Millisecond)
			RecordStageError(StageRead)
			UpdateWorkerCount(2)
			UpdateOutputBytes(10)
			MarkRunFinished(time.Now())
		}, ShouldNotPanic)
		So(GetRegistry(), ShouldNotBeNil)
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given recorded global metrics", t, func() {
		RecordInput(2, 3, 4)
		path := filepath.Join(t.TempDir(), "ucbtag.prom")

		Convey("When exporting to a textfile", func() {
			err := WriteTextfile(path)

			Convey("Then the file holds the exposition format", func() {
				So(err, ShouldBeNil)
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(strings.Contains(string(raw), "ucbtag_convert_jets_total"), ShouldBeTrue)
			})
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
			So(errors.Is(err, ErrExport), ShouldBeTrue)
		})
	})
}
