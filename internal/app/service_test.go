package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/ucbtag/internal/app"
	"github.com/okian/ucbtag/internal/domain/assemble"
	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/ragged"
	"github.com/okian/ucbtag/internal/domain/schema"
	"github.com/okian/ucbtag/internal/testevents"
	"github.com/okian/ucbtag/pkg/logger"
	"github.com/okian/ucbtag/pkg/metrics"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const tolerance = 1e-5

// handBatch holds three events: two jets, no jets, one jet.
func handBatch() *event.Batch {
	f := ragged.FromRows[float64]
	return &event.Batch{
		Jets: event.Jets{
			Px:     f([][]float64{{10, 0}, {}, {0}}),
			Py:     f([][]float64{{0, -10}, {}, {10}}),
			Pz:     f([][]float64{{0, 0}, {}, {0}}),
			Energy: f([][]float64{{12, 11}, {}, {13}}),
			Mass:   f([][]float64{{1, 2}, {}, {3}}),
		},
		Tracks: event.Tracks{
			Omega:     f([][]float64{{0.001, 0, -0.002}, {}, {0.001}}),
			TanLambda: f([][]float64{{0, 0, 0}, {}, {0}}),
			D0:        f([][]float64{{0.02, 0.01, 0.03}, {}, {0.01}}),
			D0Sigma:   f([][]float64{{0.01, 0.01, 0.01}, {}, {0.01}}),
			Z0:        f([][]float64{{0, 0, 0}, {}, {0}}),
			Z0Sigma:   f([][]float64{{0.1, 0.1, 0.1}, {}, {0.1}}),
			Phi:       f([][]float64{{0.1, 0.5, -0.2}, {}, {math.Pi / 2}}),
		},
		Truths: event.Truths{
			PDGID:  ragged.FromRows([][]int32{{-5, 4}, {21, 1}, {4, 21}}),
			Energy: f([][]float64{{20, 20}, {5, 5}, {30, 50}}),
			Px:     f([][]float64{{20, -20}, {5, 0}, {0, 50}}),
			Py:     f([][]float64{{0, 0}, {0, 5}, {30, 0}}),
			Pz:     f([][]float64{{0, 0}, {0, 0}, {0.3, 0}}),
		},
	}
}

func gathered(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestService_Convert(t *testing.T) {
	ctx := context.Background()

	Convey("Given a hand-built batch", t, func() {
		reg := prometheus.NewRegistry()
		svc := service.New(
			service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(reg))),
			service.WithRunID(func() string { return "run-1" }),
		)

		res, err := svc.Convert(ctx, handBatch())
		So(err, ShouldBeNil)

		Convey("Then every jet gets one record, event-major", func() {
			So(res.RunID, ShouldEqual, "run-1")
			So(res.Events, ShouldEqual, 3)
			So(res.Jets, ShouldHaveLength, 3)
			So(res.Capacity, ShouldEqual, assemble.DefaultCapacity)
			So(res.Constituents, ShouldHaveLength, 3*assemble.DefaultCapacity)
			So(res.LabelNames, ShouldResemble, []string{"light", "charm", "bottom"})
		})

		Convey("And the first jet matches the b quark head-on", func() {
			j := res.Jets[0]
			So(j.IsMatched, ShouldBeTrue)
			So(j.Flavour, ShouldEqual, 5)
			So(j.FlavourLabel, ShouldEqual, schema.LabelBottom)
			So(j.DR, ShouldAlmostEqual, 0, tolerance)
			So(j.Pt, ShouldAlmostEqual, 10, tolerance)
			So(j.Energy, ShouldEqual, 12)
			So(j.Mass, ShouldEqual, 1)
		})

		Convey("And the second jet is too far from both partons", func() {
			j := res.Jets[1]
			So(j.IsMatched, ShouldBeFalse)
			So(j.Flavour, ShouldEqual, -1)
			So(j.FlavourLabel, ShouldEqual, schema.LabelUnmatched)
			So(j.DR, ShouldEqual, 999)
			So(j.Phi, ShouldAlmostEqual, -math.Pi/2, tolerance)
		})

		Convey("And the third jet matches the charm quark", func() {
			j := res.Jets[2]
			So(j.IsMatched, ShouldBeTrue)
			So(j.Flavour, ShouldEqual, 4)
			So(j.FlavourLabel, ShouldEqual, schema.LabelCharm)
			So(j.DR, ShouldAlmostEqual, math.Asinh(0.01), tolerance)
		})

		Convey("And constituents fill the leading slots of their jet", func() {
			row := res.ConstituentsOf(0)
			So(row[0].Valid, ShouldBeTrue)
			So(row[0].Charge, ShouldEqual, 1)
			So(row[0].PhiRel, ShouldAlmostEqual, 0.1, tolerance)
			So(row[0].Signed2DIP, ShouldAlmostEqual, 2, tolerance)
			So(row[1].Valid, ShouldBeFalse)
			So(row[1].Signed2DIP, ShouldEqual, 0)
			So(row[2].Charge, ShouldEqual, -1)
			So(row[2].Signed2DIP, ShouldAlmostEqual, -3, tolerance)
			So(row[3], ShouldResemble, schema.ConstituentRecord{})

			So(res.ConstituentsOf(1)[0], ShouldResemble, schema.ConstituentRecord{})
			So(res.ConstituentsOf(2)[0].Valid, ShouldBeTrue)
		})

		Convey("And the audit and metrics agree", func() {
			So(res.Audit, ShouldResemble, assemble.Audit{MatchedJets: 2, UnmatchedJets: 1, KeptTracks: 4})
			So(gathered(reg, "ucbtag_convert_events_total"), ShouldEqual, 3)
			So(gathered(reg, "ucbtag_convert_jets_total"), ShouldEqual, 3)
			So(gathered(reg, "ucbtag_convert_matched_jets_total"), ShouldEqual, 2)
			So(gathered(reg, "ucbtag_convert_kept_tracks_total"), ShouldEqual, 4)
		})
	})
}

func TestService_Policies(t *testing.T) {
	ctx := context.Background()

	Convey("Given a capacity below the busiest jet", t, func() {
		Convey("When truncating", func() {
			res, err := service.New(service.WithCapacity(2)).Convert(ctx, handBatch())

			Convey("Then the first tracks are kept and the rest counted", func() {
				So(err, ShouldBeNil)
				So(res.Audit.TruncatedJets, ShouldEqual, 1)
				So(res.Audit.DroppedTracks, ShouldEqual, 1)
				So(res.Audit.KeptTracks, ShouldEqual, 3)
				So(res.ConstituentsOf(0)[1].Valid, ShouldBeFalse)
			})
		})

		Convey("When overflow is an error", func() {
			_, err := service.New(
				service.WithCapacity(2),
				service.WithOverflowPolicy(assemble.Reject),
			).Convert(ctx, handBatch())

			So(errors.Is(err, assemble.ErrCapacityOverflow), ShouldBeTrue)
		})
	})

	Convey("Given a matched gluon jet", t, func() {
		b := handBatch()
		b.Truths.PDGID = ragged.FromRows([][]int32{{21, 4}, {21, 1}, {4, 21}})

		Convey("When flavours pass through", func() {
			res, err := service.New().Convert(ctx, b)

			Convey("Then the raw flavour becomes the label", func() {
				So(err, ShouldBeNil)
				So(res.Jets[0].FlavourLabel, ShouldEqual, 21)
				So(res.Audit.UnknownFlavours, ShouldEqual, 1)
			})
		})

		Convey("When unknown flavours are an error", func() {
			_, err := service.New(service.WithFlavourPolicy(assemble.Strict)).Convert(ctx, b)
			So(errors.Is(err, assemble.ErrUnknownFlavour), ShouldBeTrue)
		})
	})

	Convey("Given a tighter threshold", t, func() {
		res, err := service.New(service.WithThreshold(0.005)).Convert(ctx, handBatch())
		So(err, ShouldBeNil)
		So(res.Jets[0].IsMatched, ShouldBeTrue)
		So(res.Jets[2].IsMatched, ShouldBeFalse)
	})
}

func TestService_Parallel(t *testing.T) {
	ctx := context.Background()

	Convey("Given a generated batch", t, func() {
		cfg := testevents.DefaultConfig()
		cfg.Events = 300
		cfg.MaxTracks = 30
		cfg.Seed = 7
		b, err := testevents.GenerateBatch(ctx, &cfg)
		So(err, ShouldBeNil)

		sequential, err := service.New(service.WithWorkerCount(1)).Convert(ctx, b)
		So(err, ShouldBeNil)

		Convey("Then many workers give the same records as one", func() {
			parallel, err := service.New(
				service.WithWorkerCount(4),
				service.WithMinPartition(1),
			).Convert(ctx, b)

			So(err, ShouldBeNil)
			So(parallel.Jets, ShouldResemble, sequential.Jets)
			So(parallel.Constituents, ShouldResemble, sequential.Constituents)
			So(parallel.Audit, ShouldResemble, sequential.Audit)
		})

		Convey("And converting twice gives the same records", func() {
			again, err := service.New(service.WithWorkerCount(1)).Convert(ctx, b)
			So(err, ShouldBeNil)
			So(again.Jets, ShouldResemble, sequential.Jets)
			So(again.RunID, ShouldNotEqual, sequential.RunID)
		})

		Convey("And every jet is either matched or unmatched", func() {
			a := sequential.Audit
			So(a.MatchedJets+a.UnmatchedJets, ShouldEqual, b.NumJets())
			So(a.KeptTracks+a.DroppedTracks, ShouldEqual, b.NumTracks())
		})
	})
}

func TestService_Failures(t *testing.T) {
	Convey("Given a canceled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.New().Convert(ctx, handBatch())
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})

	Convey("Given a batch whose columns disagree", t, func() {
		b := handBatch()
		b.Jets.Mass = ragged.FromRows([][]float64{{1}, {}, {3}})

		_, err := service.New().Convert(context.Background(), b)
		So(errors.Is(err, event.ErrShape), ShouldBeTrue)
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given matched and unmatched jets", t, func() {
		jets := []schema.JetRecord{
			{IsMatched: true, DR: 0.1},
			{IsMatched: true, DR: 0.3},
			{DR: 999},
		}
		s := service.Summarize(jets, 0.4)

		Convey("Then only matched jets are histogrammed", func() {
			So(s.Matched, ShouldEqual, 2)
			So(s.MeanDR, ShouldAlmostEqual, 0.2, 1e-6)
			So(s.StdDR, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given no matched jets", t, func() {
		s := service.Summarize([]schema.JetRecord{{DR: 999}}, 0.4)
		So(s.Matched, ShouldEqual, 0)
		So(s.MeanDR, ShouldEqual, 0)
	})
}
