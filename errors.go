package adr

import (
	"fmt"
	"time"
)

// InvalidElementsError is returned when orbital elements do not describe a
// usable closed orbit (non-positive semi-major axis, negative eccentricity,
// non-finite values, or an unbound orbit fed to a closed-orbit routine).
type InvalidElementsError struct {
	Element string  // offending element, e.g. "a" or "e"
	Value   float64 // offending value
	Reason  string
}

func (e InvalidElementsError) Error() string {
	return fmt.Sprintf("invalid elements: %s=%g (%s)", e.Element, e.Value, e.Reason)
}

// UnsupportedGeometryError is returned by a transfer strategy which cannot
// handle the given orbit pair, e.g. an unbound orbit or an out-of-plane pair
// fed to the coplanar strategy.
type UnsupportedGeometryError struct {
	Strategy TransferStrategy
	Reason   string
}

func (e UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("%s: unsupported geometry: %s", e.Strategy, e.Reason)
}

// PhasingInfeasibleError is returned when no departure wait time within the
// configured budget aligns the chaser with its target.
type PhasingInfeasibleError struct {
	Wait    time.Duration // smallest aligning wait found, if any
	MaxWait time.Duration
	Reason  string
}

func (e PhasingInfeasibleError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("phasing infeasible: %s (needs %s, budget %s)", e.Reason, e.Wait, e.MaxWait)
	}
	return fmt.Sprintf("phasing infeasible: %s", e.Reason)
}

// NoFeasibleTourError is returned by the route solver when the unreachable
// sentinels disconnect the node set and no single path can visit every node.
type NoFeasibleTourError struct {
	Nodes  int // number of nodes in the instance
	Reason string
}

func (e NoFeasibleTourError) Error() string {
	return fmt.Sprintf("no feasible tour over %d nodes: %s", e.Nodes, e.Reason)
}
