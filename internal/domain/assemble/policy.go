package assemble

import (
	"fmt"
	"strings"
)

// DefaultCapacity is the number of constituent slots per jet.
const DefaultCapacity = 200

// OverflowPolicy decides what happens to a jet with more tracks than
// slots.
type OverflowPolicy int

const (
	// Truncate keeps the first capacity tracks in input order.
	Truncate OverflowPolicy = iota
	// Reject fails the batch with ErrCapacityOverflow.
	Reject
)

func (p OverflowPolicy) String() string {
	switch p {
	case Truncate:
		return "truncate"
	case Reject:
		return "error"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy maps a configuration name to an OverflowPolicy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return Truncate, nil
	case "error":
		return Reject, nil
	default:
		return 0, fmt.Errorf("%w: overflow policy %q", ErrPolicy, s)
	}
}

// FlavourPolicy decides what label a matched jet gets when its flavour is
// not in the label table.
type FlavourPolicy int

const (
	// Passthrough stores the raw flavour code as the label.
	Passthrough FlavourPolicy = iota
	// Strict fails the batch with ErrUnknownFlavour.
	Strict
)

func (p FlavourPolicy) String() string {
	switch p {
	case Passthrough:
		return "passthrough"
	case Strict:
		return "error"
	default:
		return fmt.Sprintf("FlavourPolicy(%d)", int(p))
	}
}

// ParseFlavourPolicy maps a configuration name to a FlavourPolicy.
func ParseFlavourPolicy(s string) (FlavourPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough":
		return Passthrough, nil
	case "error":
		return Strict, nil
	default:
		return 0, fmt.Errorf("%w: unknown flavour policy %q", ErrPolicy, s)
	}
}
