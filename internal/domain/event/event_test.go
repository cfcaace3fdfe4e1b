package event_test

import (
	"errors"
	"testing"

	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/ragged"
	. "github.com/smartystreets/goconvey/convey"
)

// fixture builds a two-event input: event 0 has two jets with 2 and 1
// tracks, event 1 has one jet with no tracks.
func fixture(br event.Branches) (*event.Table, *event.Table) {
	jets := event.NewTable("BUVertices", 2)
	jetRows := [][]float64{{10, 20}, {30}}
	for _, n := range br.JetColumns() {
		So(jets.PutJagged(n, ragged.FromRows(jetRows)), ShouldBeNil)
	}
	outer, _ := ragged.NewIndex([]int{2, 1})
	for i, n := range br.TrackColumns() {
		v := float64(i + 1)
		inner := ragged.FromRows([][]float64{{v, -v}, {2 * v}, {}})
		So(jets.PutNested(n, event.Nested{Outer: outer, Inner: inner}), ShouldBeNil)
	}

	truths := event.NewTable("showerData", 2)
	for _, n := range br.AllTruthColumns() {
		So(truths.PutScalar(n, []float64{1, 2}), ShouldBeNil)
	}
	So(truths.PutScalar(br.TruthPrefixes[0]+br.TruthPDGID, []float64{5.0000001, -4}), ShouldBeNil)
	So(truths.PutScalar(br.TruthPrefixes[1]+br.TruthPDGID, []float64{-5, 21}), ShouldBeNil)
	return jets, truths
}

func TestTable(t *testing.T) {
	Convey("Given a table for three events", t, func() {
		tbl := event.NewTable("showerData", 3)

		Convey("When storing columns of the wrong length", func() {
			err := tbl.PutScalar("x", []float64{1, 2})
			So(errors.Is(err, event.ErrShape), ShouldBeTrue)
			err = tbl.PutJagged("y", ragged.FromRows([][]float64{{1}}))
			So(errors.Is(err, event.ErrShape), ShouldBeTrue)
		})

		Convey("When a nested column disagrees with its own outer index", func() {
			outer, _ := ragged.NewIndex([]int{1, 1, 1})
			err := tbl.PutNested("z", event.Nested{Outer: outer, Inner: ragged.FromRows([][]float64{{1}, {2}})})
			So(errors.Is(err, event.ErrShape), ShouldBeTrue)
		})

		Convey("When reading an absent column", func() {
			_, err := tbl.Scalar("d1_mcPDGID")
			So(errors.Is(err, event.ErrMissingField), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "showerData.d1_mcPDGID")
			_, err = tbl.Jagged("jmox")
			So(errors.Is(err, event.ErrMissingField), ShouldBeTrue)
			_, err = tbl.Nested("daughters_trackD0")
			So(errors.Is(err, event.ErrMissingField), ShouldBeTrue)
		})

		Convey("When stacking sibling scalars", func() {
			So(tbl.PutScalar("d1_x", []float64{1, 2, 3}), ShouldBeNil)
			So(tbl.PutScalar("d2_x", []float64{4, 5, 6}), ShouldBeNil)
			s, err := tbl.Stack("d1_x", "d2_x")

			So(err, ShouldBeNil)
			So(s.Rows(), ShouldEqual, 3)
			So(s.Row(1), ShouldResemble, []float64{2, 5})
			So(tbl.Columns(), ShouldResemble, []string{"d1_x", "d2_x"})
		})
	})
}

func TestBuild(t *testing.T) {
	br := event.DefaultBranches()

	Convey("Given complete jet and truth tables", t, func() {
		jets, truths := fixture(br)

		b, err := event.Build(jets, truths, br)

		Convey("Then the batch has the expected shape", func() {
			So(err, ShouldBeNil)
			So(b.Events(), ShouldEqual, 2)
			So(b.NumJets(), ShouldEqual, 3)
			So(b.NumTracks(), ShouldEqual, 3)
			So(b.Tracks.D0.Row(0), ShouldResemble, []float64{3, -3})
			So(b.Tracks.D0.Row(2), ShouldBeEmpty)
			So(b.Truths.Px.Index().Counts(), ShouldResemble, []int{2, 2})
		})

		Convey("And PDG IDs are rounded to integers in prefix order", func() {
			So(b.Truths.PDGID.Row(0), ShouldResemble, []int32{5, -5})
			So(b.Truths.PDGID.Row(1), ShouldResemble, []int32{-4, 21})
		})

		Convey("And slicing by event keeps tracks with their jets", func() {
			s := b.Slice(1, 2)
			So(s.Validate(), ShouldBeNil)
			So(s.Events(), ShouldEqual, 1)
			So(s.NumJets(), ShouldEqual, 1)
			So(s.NumTracks(), ShouldEqual, 0)
			So(s.Jets.Px.Row(0), ShouldResemble, []float64{30})

			head := b.Slice(0, 1)
			So(head.Validate(), ShouldBeNil)
			So(head.NumTracks(), ShouldEqual, 3)

			empty := b.Slice(1, 1)
			So(empty.Validate(), ShouldBeNil)
			So(empty.NumJets(), ShouldEqual, 0)
		})
	})

	Convey("Given a jet table without a track branch", t, func() {
		_, truths := fixture(br)
		jets := event.NewTable("BUVertices", 2)
		for _, n := range br.JetColumns() {
			So(jets.PutJagged(n, ragged.FromRows([][]float64{{1}, {2}})), ShouldBeNil)
		}

		_, err := event.Build(jets, truths, br)

		Convey("Then the build fails naming the branch", func() {
			So(errors.Is(err, event.ErrMissingField), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, br.TrackOmega)
		})
	})

	Convey("Given trees with different event counts", t, func() {
		jets, _ := fixture(br)
		truths := event.NewTable("showerData", 3)

		_, err := event.Build(jets, truths, br)

		So(errors.Is(err, event.ErrShape), ShouldBeTrue)
	})

	Convey("Given track counts that disagree with the jet branches", t, func() {
		jets, truths := fixture(br)
		outer, _ := ragged.NewIndex([]int{1, 2})
		bad := event.Nested{Outer: outer, Inner: ragged.FromRows([][]float64{{1}, {2}, {3}})}
		So(jets.PutNested(br.TrackPhi, bad), ShouldBeNil)

		_, err := event.Build(jets, truths, br)

		So(errors.Is(err, event.ErrShape), ShouldBeTrue)
	})
}

func TestBranches(t *testing.T) {
	Convey("Given the default branches", t, func() {
		br := event.DefaultBranches()

		So(br.TruthColumns("mcE"), ShouldResemble, []string{"d1_mcE", "d2_mcE"})
		So(br.AllTruthColumns(), ShouldHaveLength, 10)
		So(br.JetColumns(), ShouldContain, "jmox")
		So(br.TrackColumns(), ShouldHaveLength, 7)
	})
}
