package adr

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TransferStrategy defines the maneuver model used to price a transfer
// between two debris orbits.
type TransferStrategy uint8

const (
	// Coplanar is a two-burn transfer along the apse line, valid only when the
	// two orbital planes coincide within the configured tolerance.
	Coplanar TransferStrategy = iota + 1
	// InclinationChange adds the plane rotation cost to the coplanar two-burn
	// cost, with an explicitly selected combined or split burn policy.
	InclinationChange
	// PhasingAdjusted prices like Coplanar and additionally reports the
	// departure wait required for the chaser to intercept the target.
	PhasingAdjusted
	// LowThrust estimates a continuous-thrust spiral between near-circular
	// orbits via the Edelbaum closed form.
	LowThrust
)

func (s TransferStrategy) String() string {
	switch s {
	case Coplanar:
		return "coplanar"
	case InclinationChange:
		return "inclination-change"
	case PhasingAdjusted:
		return "phasing-adjusted"
	case LowThrust:
		return "low-thrust"
	default:
		panic("unknown transfer strategy")
	}
}

// TransferStrategyFromString returns the strategy from its name.
func TransferStrategyFromString(name string) (TransferStrategy, error) {
	switch strings.ToLower(name) {
	case "coplanar":
		return Coplanar, nil
	case "inclination-change":
		return InclinationChange, nil
	case "phasing-adjusted":
		return PhasingAdjusted, nil
	case "low-thrust":
		return LowThrust, nil
	default:
		return 0, fmt.Errorf("undefined transfer strategy '%s'", name)
	}
}

// PlaneChangePolicy defines where the plane rotation of an inclination
// change transfer is performed. There is no default: the policy must be
// explicitly selected in the configuration.
type PlaneChangePolicy uint8

const (
	// PlaneChangeCombined folds the full rotation into the burn at the
	// higher (slower) node of the transfer.
	PlaneChangeCombined PlaneChangePolicy = iota + 1
	// PlaneChangeSplit performs half the rotation as a standalone burn at
	// each node. Costlier than the combined policy whenever the planes differ.
	PlaneChangeSplit
)

func (p PlaneChangePolicy) String() string {
	switch p {
	case PlaneChangeCombined:
		return "combined"
	case PlaneChangeSplit:
		return "split"
	default:
		panic("unknown plane change policy")
	}
}

// PlaneChangePolicyFromString returns the policy from its name.
func PlaneChangePolicyFromString(name string) (PlaneChangePolicy, error) {
	switch strings.ToLower(name) {
	case "combined":
		return PlaneChangeCombined, nil
	case "split":
		return PlaneChangeSplit, nil
	default:
		return 0, fmt.Errorf("undefined plane change policy '%s'", name)
	}
}

// TransferLeg is the priced transfer between two orbit snapshots.
type TransferLeg struct {
	From, To Orbit
	Strategy TransferStrategy
	Δv       float64       // km/s
	TOF      time.Duration // time of flight of the transfer itself
	Wait     time.Duration // departure wait, phasing strategy only
}

func (l TransferLeg) String() string {
	return fmt.Sprintf("%s Δv=%.6f km/s tof=%s wait=%s", l.Strategy, l.Δv, l.TOF, l.Wait)
}

// costModel is the contract each transfer strategy implements. Strategies are
// statically known: the TransferStrategy enum dispatches exhaustively onto
// these implementations and unknown tags panic instead of silently falling
// back to another model.
type costModel interface {
	cost(from, to Orbit, cfg MissionConfig) (TransferLeg, error)
}

func (s TransferStrategy) model() costModel {
	switch s {
	case Coplanar:
		return coplanarModel{}
	case InclinationChange:
		return inclinationModel{}
	case PhasingAdjusted:
		return phasingModel{}
	case LowThrust:
		return lowThrustModel{}
	default:
		panic("unknown transfer strategy")
	}
}

// TransferCost prices the transfer from one orbit to another under the
// provided strategy. Identical inputs and configuration always yield the
// same leg: the models hold no state and use no randomness.
func TransferCost(from, to Orbit, strategy TransferStrategy, cfg MissionConfig) (TransferLeg, error) {
	if err := cfg.validateFor(strategy); err != nil {
		return TransferLeg{}, err
	}
	return strategy.model().cost(from, to, cfg)
}

// Hohmann computes the classic two-burn transfer between two circular radii.
// It returns both burn magnitudes and the time of flight.
func Hohmann(rI, rF float64, body CelestialObject) (ΔvDeparture, ΔvArrival float64, tof time.Duration) {
	aTransfer := 0.5 * (rI + rF)
	ΔvDeparture = math.Abs(math.Sqrt((2*body.GM()/rI)-(body.GM()/aTransfer)) - math.Sqrt(body.GM()/rI))
	ΔvArrival = math.Abs(math.Sqrt(body.GM()/rF) - math.Sqrt((2*body.GM()/rF)-(body.GM()/aTransfer)))
	tof = secondsToDuration(math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/body.GM()))
	return
}

// RelativeInclination returns the angle between two orbital planes in
// radians, accounting for both the inclination and the RAAN difference.
func RelativeInclination(o1, o2 Orbit) float64 {
	cosθ := math.Cos(o1.i)*math.Cos(o2.i) + math.Sin(o1.i)*math.Sin(o2.i)*math.Cos(o2.Ω-o1.Ω)
	if cosθ > 1 {
		cosθ = 1
	} else if cosθ < -1 {
		cosθ = -1
	}
	return math.Acos(cosθ)
}

// apsides returns the periapsis and apoapsis radii, collapsing near-circular
// orbits onto their semi-major axis so that a circular pair prices exactly
// like the closed form Hohmann.
func apsides(o Orbit) (rP, rA float64) {
	if o.e <= eccentricityε {
		return o.a, o.a
	}
	return o.Periapsis(), o.Apoapsis()
}

// visViva returns the orbital speed at radius r on an orbit of semi-major axis a.
func visViva(r, a, μ float64) float64 {
	return math.Sqrt(2*μ/r - μ/a)
}

// combinedΔv merges a speed change and a plane rotation of angle θ into a
// single burn via the law of cosines.
func combinedΔv(v1, v2, θ float64) float64 {
	return math.Sqrt(v1*v1 + v2*v2 - 2*v1*v2*math.Cos(θ))
}

// nodeSpeeds prices the apse line transfer between two bound orbits: the
// transfer ellipse runs from the periapsis of the inner orbit to the apoapsis
// of the outer one, so the cost depends only on which shapes are involved and
// not on the direction of travel. Returned speeds are the orbit and transfer
// speeds at the departure and arrival nodes.
func nodeSpeeds(from, to Orbit, μ float64) (vDep, vDepT, vArrT, vArr float64, raising bool, tofSec float64) {
	raising = to.a > from.a || (to.a == from.a && to.e >= from.e)
	var r1, r2 float64
	if raising {
		r1, _ = apsides(from)
		_, r2 = apsides(to)
	} else {
		_, r1 = apsides(from)
		r2, _ = apsides(to)
	}
	aT := 0.5 * (r1 + r2)
	vDep = visViva(r1, from.a, μ)
	vDepT = visViva(r1, aT, μ)
	vArrT = visViva(r2, aT, μ)
	vArr = visViva(r2, to.a, μ)
	tofSec = math.Pi * math.Sqrt(math.Pow(aT, 3)/μ)
	return
}

// requireBound rejects orbit pairs a two-burn strategy cannot price.
func requireBound(from, to Orbit, s TransferStrategy) error {
	if !from.Bound() {
		return UnsupportedGeometryError{s, fmt.Sprintf("origin orbit is not bound (e=%g, a=%g)", from.e, from.a)}
	}
	if !to.Bound() {
		return UnsupportedGeometryError{s, fmt.Sprintf("target orbit is not bound (e=%g, a=%g)", to.e, to.a)}
	}
	if !from.Origin.Equals(to.Origin) {
		return UnsupportedGeometryError{s, fmt.Sprintf("orbits have different origins (%s vs %s)", from.Origin.Name, to.Origin.Name)}
	}
	return nil
}

type coplanarModel struct{}

func (m coplanarModel) cost(from, to Orbit, cfg MissionConfig) (TransferLeg, error) {
	if err := requireBound(from, to, Coplanar); err != nil {
		return TransferLeg{}, err
	}
	if Δθ := RelativeInclination(from, to); Δθ > cfg.CoplanarTolerance {
		return TransferLeg{}, UnsupportedGeometryError{Coplanar, fmt.Sprintf("planes differ by %.4f deg, tolerance is %.4f deg", Rad2deg(Δθ), Rad2deg(cfg.CoplanarTolerance))}
	}
	vDep, vDepT, vArrT, vArr, _, tofSec := nodeSpeeds(from, to, from.Origin.GM())
	return TransferLeg{
		From:     from,
		To:       to,
		Strategy: Coplanar,
		Δv:       math.Abs(vDepT-vDep) + math.Abs(vArr-vArrT),
		TOF:      secondsToDuration(tofSec),
	}, nil
}

type inclinationModel struct{}

func (m inclinationModel) cost(from, to Orbit, cfg MissionConfig) (TransferLeg, error) {
	if err := requireBound(from, to, InclinationChange); err != nil {
		return TransferLeg{}, err
	}
	Δθ := RelativeInclination(from, to)
	vDep, vDepT, vArrT, vArr, raising, tofSec := nodeSpeeds(from, to, from.Origin.GM())
	var Δv float64
	switch cfg.PlaneChange {
	case PlaneChangeCombined:
		// Rotate during the burn at the higher radius node, where the
		// spacecraft is slowest.
		if raising {
			Δv = math.Abs(vDepT-vDep) + combinedΔv(vArrT, vArr, Δθ)
		} else {
			Δv = combinedΔv(vDep, vDepT, Δθ) + math.Abs(vArr-vArrT)
		}
	case PlaneChangeSplit:
		// Half the rotation as a standalone burn at each node, on top of the
		// coplanar two-burn cost.
		Δv = math.Abs(vDepT-vDep) + math.Abs(vArr-vArrT) +
			2*vDep*math.Sin(Δθ/4) + 2*vArr*math.Sin(Δθ/4)
	default:
		return TransferLeg{}, fmt.Errorf("plane change policy must be explicitly selected for the %s strategy", InclinationChange)
	}
	return TransferLeg{
		From:     from,
		To:       to,
		Strategy: InclinationChange,
		Δv:       Δv,
		TOF:      secondsToDuration(tofSec),
	}, nil
}

type phasingModel struct{}

func (m phasingModel) cost(from, to Orbit, cfg MissionConfig) (TransferLeg, error) {
	leg, err := coplanarModel{}.cost(from, to, cfg)
	if err != nil {
		if geomErr, ok := err.(UnsupportedGeometryError); ok {
			geomErr.Strategy = PhasingAdjusted
			return TransferLeg{}, geomErr
		}
		return TransferLeg{}, err
	}
	leg.Strategy = PhasingAdjusted
	nFrom, err := from.MeanMotion()
	if err != nil {
		return TransferLeg{}, err
	}
	nTo, err := to.MeanMotion()
	if err != nil {
		return TransferLeg{}, err
	}
	// Lead angle rendezvous (Vallado chap. 6): the target must lead the
	// chaser by π minus the angle it sweeps during the transfer.
	τ := leg.TOF.Seconds()
	if cfg.DesiredTOF > 0 {
		τ = cfg.DesiredTOF.Seconds()
	}
	φReq := wrap2π(math.Pi - nTo*τ)
	φ0 := wrap2π(to.ArgLatitudeU() - from.ArgLatitudeU())
	δ := wrap2π(φReq - φ0)
	Δn := nTo - nFrom
	var waitSec float64
	switch {
	case δ <= angleε || 2*math.Pi-δ <= angleε:
		waitSec = 0 // already aligned
	case math.Abs(Δn) < 1e-15:
		return TransferLeg{}, PhasingInfeasibleError{
			MaxWait: cfg.MaxPhasingWait,
			Reason:  fmt.Sprintf("co-orbital pair misaligned by %.4f deg never drifts into phase", Rad2deg(δ)),
		}
	case Δn > 0:
		waitSec = δ / Δn
	default:
		waitSec = (2*math.Pi - δ) / -Δn
	}
	leg.Wait = secondsToDuration(waitSec)
	if leg.Wait > cfg.MaxPhasingWait {
		return TransferLeg{}, PhasingInfeasibleError{
			Wait:    leg.Wait,
			MaxWait: cfg.MaxPhasingWait,
			Reason:  "phase alignment exceeds the wait budget",
		}
	}
	return leg, nil
}

type lowThrustModel struct{}

// cost estimates the continuous-thrust transfer via Edelbaum's closed form
// (Edelbaum 1961, reformulated by Kéchichian 1997). The model assumes
// near-circular orbits: only the semi-major axes and the relative
// inclination contribute.
func (m lowThrustModel) cost(from, to Orbit, cfg MissionConfig) (TransferLeg, error) {
	if err := requireBound(from, to, LowThrust); err != nil {
		return TransferLeg{}, err
	}
	μ := from.Origin.GM()
	v0 := math.Sqrt(μ / from.a)
	vf := math.Sqrt(μ / to.a)
	Δθ := RelativeInclination(from, to)
	Δv := math.Sqrt(v0*v0 + vf*vf - 2*v0*vf*math.Cos(Δθ*math.Pi/2))
	leg := TransferLeg{From: from, To: to, Strategy: LowThrust, Δv: Δv}
	if cfg.ThrustAccel > 0 {
		// Acceleration does not impact delta-V, only the time of flight.
		leg.TOF = secondsToDuration(Δv / cfg.ThrustAccel)
	}
	return leg, nil
}

// secondsToDuration keeps sub-second precision when converting to a
// time.Duration, in the same convoluted way Period does.
func secondsToDuration(seconds float64) time.Duration {
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", seconds))
	return duration
}
