package testevents

import (
	"fmt"
	"slices"

	"github.com/okian/ucbtag/internal/domain/event"
)

// Verify compares every configured column of the written tables against
// the tables read back and returns how many columns matched.
func Verify(br event.Branches, wantJets, gotJets, wantTruths, gotTruths *event.Table) (int, error) {
	if wantJets.Events() != gotJets.Events() || wantTruths.Events() != gotTruths.Events() {
		return 0, fmt.Errorf("%w: event counts %d/%d, read back %d/%d", ErrMismatch,
			wantJets.Events(), wantTruths.Events(), gotJets.Events(), gotTruths.Events())
	}

	verified := 0
	for _, name := range br.JetColumns() {
		if err := verifyJagged(wantJets, gotJets, name); err != nil {
			return verified, err
		}
		verified++
	}
	for _, name := range br.TrackColumns() {
		if err := verifyNested(wantJets, gotJets, name); err != nil {
			return verified, err
		}
		verified++
	}
	for _, name := range br.AllTruthColumns() {
		want, err := wantTruths.Scalar(name)
		if err != nil {
			return verified, err
		}
		got, err := gotTruths.Scalar(name)
		if err != nil {
			return verified, err
		}
		if !slices.Equal(want, got) {
			return verified, fmt.Errorf("%w: %s.%s values differ", ErrMismatch, gotTruths.Name(), name)
		}
		verified++
	}
	return verified, nil
}

func verifyJagged(want, got *event.Table, name string) error {
	w, err := want.Jagged(name)
	if err != nil {
		return err
	}
	g, err := got.Jagged(name)
	if err != nil {
		return err
	}
	if !w.Index().Equal(g.Index()) {
		return fmt.Errorf("%w: %s.%s jet counts differ", ErrMismatch, got.Name(), name)
	}
	if !slices.Equal(w.Data(), g.Data()) {
		return fmt.Errorf("%w: %s.%s values differ", ErrMismatch, got.Name(), name)
	}
	return nil
}

func verifyNested(want, got *event.Table, name string) error {
	w, err := want.Nested(name)
	if err != nil {
		return err
	}
	g, err := got.Nested(name)
	if err != nil {
		return err
	}
	if !w.Outer.Equal(g.Outer) || !w.Inner.Index().Equal(g.Inner.Index()) {
		return fmt.Errorf("%w: %s.%s track counts differ", ErrMismatch, got.Name(), name)
	}
	if !slices.Equal(w.Inner.Data(), g.Inner.Data()) {
		return fmt.Errorf("%w: %s.%s values differ", ErrMismatch, got.Name(), name)
	}
	return nil
}
