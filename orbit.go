package adr

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 km
	velocityε     = 1e-6                         // in km/s

	// Kepler's equation converges very fast for the eccentricities dealt
	// with here, but badly degraded inputs should still terminate.
	keplerMaxIter = 50
	keplerε       = 1e-12
)

// Orbit defines an orbit via its orbital elements.
type Orbit struct {
	a, e, i, Ω, ω, ν float64
	Origin           CelestialObject // Orbit origin
	cacheHash        float64
	cachedR, cachedV []float64
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	return -o.Origin.μ / (2 * o.a)
}

// Tildeω returns the longitude of periapsis.
func (o Orbit) Tildeω() float64 {
	return math.Mod(o.ω+o.Ω, 2*math.Pi)
}

// TrueLongλ returns the *approximate* true longitude (cf. Vallado page 103).
// NOTE: One should only need this for equatorial orbits.
func (o Orbit) TrueLongλ() float64 {
	return math.Mod(o.ω+o.Ω+o.ν, 2*math.Pi)
}

// ArgLatitudeU returns the argument of latitude.
func (o Orbit) ArgLatitudeU() float64 {
	return math.Mod(o.ν+o.ω, 2*math.Pi)
}

// SemiParameter returns the semi parameter.
func (o Orbit) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Apoapsis returns the apoapsis.
func (o Orbit) Apoapsis() float64 {
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis.
func (o Orbit) Periapsis() float64 {
	return o.a * (1 - o.e)
}

// Bound returns whether this orbit is closed around its origin.
func (o Orbit) Bound() bool {
	return o.e < 1 && o.a > 0
}

// SinCosE returns the eccentric anomaly trig functions (sin and cos).
func (o Orbit) SinCosE() (sinE, cosE float64) {
	sinν, cosν := math.Sincos(o.ν)
	denom := 1 + o.e*cosν
	sinE = math.Sqrt(1-o.e*o.e) * sinν / denom
	cosE = (o.e + cosν) / denom
	return
}

// MeanMotion returns the mean motion n in rad/s.
func (o Orbit) MeanMotion() (float64, error) {
	if !o.Bound() {
		return 0, InvalidElementsError{"e", o.e, "mean motion undefined for unbound orbit"}
	}
	return math.Sqrt(o.Origin.μ / math.Pow(o.a, 3)), nil
}

// Period returns the period of this orbit.
func (o Orbit) Period() (time.Duration, error) {
	if !o.Bound() {
		return 0, InvalidElementsError{"e", o.e, "period undefined for unbound orbit"}
	}
	// The time package does not trivially handle fractions of a second, so let's
	// compute this in a convoluted way...
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.Origin.μ)
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", seconds))
	return duration, nil
}

// MeanAnomaly returns the mean anomaly M in radians.
func (o Orbit) MeanAnomaly() (float64, error) {
	if !o.Bound() {
		return 0, InvalidElementsError{"e", o.e, "mean anomaly undefined for unbound orbit"}
	}
	sinE, cosE := o.SinCosE()
	E := math.Atan2(sinE, cosE)
	return wrap2π(E - o.e*sinE), nil
}

// J2SecularRates returns the secular drift rates of Ω and ω in rad/s caused
// by the origin's oblateness. Higher order effects are not modeled.
func (o Orbit) J2SecularRates() (ΩDot, ωDot float64, err error) {
	if !o.Bound() {
		return 0, 0, InvalidElementsError{"e", o.e, "secular rates undefined for unbound orbit"}
	}
	n := math.Sqrt(o.Origin.μ / math.Pow(o.a, 3))
	Rp := o.Origin.Radius / o.SemiParameter()
	acc := n * math.Pow(Rp, 2) * o.Origin.J(2)
	sini2 := math.Pow(math.Sin(o.i), 2)
	ΩDot = -(3 / 2.) * acc * math.Cos(o.i)
	ωDot = (3 / 4.) * acc * (4 - 5*sini2)
	return
}

// RV returns the Cartesian position and velocity vectors in the inertial
// frame of the origin body. Results are cached between calls.
func (o *Orbit) RV() ([]float64, []float64, error) {
	if !o.Bound() {
		return nil, nil, InvalidElementsError{"e", o.e, "state vectors only computed for bound orbits"}
	}
	if o.hashValid() {
		return o.cachedR, o.cachedV, nil
	}
	p := o.SemiParameter()
	// Support special orbits.
	ν := o.ν
	ω := o.ω
	Ω := o.Ω
	if o.e < eccentricityε {
		ω = 0
		if o.i < angleε {
			// Circular equatorial
			Ω = 0
			ν = o.TrueLongλ()
		} else {
			// Circular inclined
			ν = o.ArgLatitudeU()
		}
	} else if o.i < angleε {
		Ω = 0
		ω = o.Tildeω()
	}

	R := make([]float64, 3)
	V := make([]float64, 3)
	sinν, cosν := math.Sincos(ν)
	R[0] = p * cosν / (1 + o.e*cosν)
	R[1] = p * sinν / (1 + o.e*cosν)
	R[2] = 0
	R = PQW2ECI(o.i, ω, Ω, R)

	V[0] = -math.Sqrt(o.Origin.μ/p) * sinν
	V[1] = math.Sqrt(o.Origin.μ/p) * (o.e + cosν)
	V[2] = 0
	V = PQW2ECI(o.i, ω, Ω, V)

	o.cachedR = R
	o.cachedV = V
	o.computeHash()
	return R, V, nil
}

// RNorm returns the norm of the radius vector, but without computing the radius vector.
func (o Orbit) RNorm() float64 {
	return o.SemiParameter() / (1 + o.e*math.Cos(o.ν))
}

// VNorm returns the norm of the velocity vector, but without computing the velocity vector.
func (o Orbit) VNorm() float64 {
	if scalar.EqualWithinAbs(o.e, 0, eccentricityε) {
		return math.Sqrt(o.Origin.μ / o.RNorm())
	}
	if scalar.EqualWithinAbs(o.e, 1, eccentricityε) {
		return math.Sqrt(2 * o.Origin.μ / o.RNorm())
	}
	return math.Sqrt(2 * (o.Origin.μ/o.RNorm() + o.Energyξ()))
}

// Elements returns the six Keplerian elements, angles in radians.
func (o Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	return o.a, o.e, o.i, o.Ω, o.ω, o.ν
}

func (o *Orbit) computeHash() {
	o.cacheHash = o.ω + o.ν + o.Ω + o.i + o.e + o.a
}

func (o Orbit) hashValid() bool {
	return o.cacheHash == o.ω+o.ν+o.Ω+o.i+o.e+o.a
}

// String implements the stringer interface (hence the value receiver)
func (o Orbit) String() string {
	if o.e < eccentricityε {
		// Circular orbit
		if o.i > angleε {
			return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f u=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ArgLatitudeU()))
		}
		// Equatorial
		return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f λ=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.TrueLongλ()))
	}
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// Equals returns whether two orbits are identical with free true anomaly.
// Use StrictlyEquals to also check true anomaly.
func (o Orbit) Equals(o1 Orbit) (bool, error) {
	if !o.Origin.Equals(o1.Origin) {
		return false, errors.New("different origin")
	}
	if !scalar.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !scalar.EqualWithinAbs(o.i, o1.i, angleε) {
		return false, errors.New("inclination invalid")
	}
	if !scalar.EqualWithinAbs(o.Ω, o1.Ω, angleε) {
		return false, errors.New("RAAN invalid")
	}
	if o.e < eccentricityε {
		// Circular orbit
		if o.i > angleε {
			// Inclined
			if !scalar.EqualWithinAbs(o.ArgLatitudeU(), o1.ArgLatitudeU(), angleε) {
				return false, errors.New("argument of latitude invalid")
			}
		} else {
			// Equatorial
			if !scalar.EqualWithinAbs(o.TrueLongλ(), o1.TrueLongλ(), angleε) {
				return false, errors.New("true longitude invalid")
			}
		}
	} else if !scalar.EqualWithinAbs(o.ω, o1.ω, angleε) {
		return false, errors.New("argument of perigee invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical.
func (o Orbit) StrictlyEquals(o1 Orbit) (bool, error) {
	// Only check for non circular orbits
	if o.e > eccentricityε && !scalar.EqualWithinAbs(o.ν, o1.ν, angleε) {
		return false, errors.New("true anomaly invalid")
	}
	return o.Equals(o1)
}

// NewOrbit creates an orbit from the provided orbital elements.
// WARNING: Angles must be in degrees not radians.
// Unbound element sets (e ≥ 1) are representable so that downstream
// strategies can reject them with a geometry error, but every routine
// assuming a closed orbit returns an InvalidElementsError for them.
func NewOrbit(a, e, i, Ω, ω, ν float64, c CelestialObject) (*Orbit, error) {
	for _, elem := range []struct {
		name string
		val  float64
	}{{"a", a}, {"e", e}, {"i", i}, {"Ω", Ω}, {"ω", ω}, {"ν", ν}} {
		if math.IsNaN(elem.val) || math.IsInf(elem.val, 0) {
			return nil, InvalidElementsError{elem.name, elem.val, "element is not finite"}
		}
	}
	if e < 0 {
		return nil, InvalidElementsError{"e", e, "eccentricity cannot be negative"}
	}
	if e < 1 && a <= 0 {
		return nil, InvalidElementsError{"a", a, "semi-major axis must be positive for a bound orbit"}
	}
	return newOrbitRad(a, e, Deg2rad(i), Deg2rad(Ω), Deg2rad(ω), Deg2rad(ν), c), nil
}

// newOrbitRad builds an orbit from already validated elements, angles in radians.
func newOrbitRad(a, e, i, Ω, ω, ν float64, c CelestialObject) *Orbit {
	// Making an approximation for circular and equatorial orbits.
	if e < eccentricityε {
		e = eccentricityε
	}
	if i < angleε {
		i = angleε
	}
	orbit := Orbit{a, e, i, wrap2π(Ω), wrap2π(ω), wrap2π(ν), c, 0.0, nil, nil}
	orbit.computeHash()
	return &orbit
}

// NewOrbitFromRV returns orbital elements from the R and V vectors.
func NewOrbitFromRV(R, V []float64, c CelestialObject) (*Orbit, error) {
	// From Vallado's RV2COE, page 113
	r := norm(R)
	v := norm(V)
	if r < distanceε {
		return nil, InvalidElementsError{"r", r, "degenerate position vector"}
	}
	if v < velocityε {
		return nil, InvalidElementsError{"v", v, "degenerate velocity vector"}
	}
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	ξ := (v*v)/2 - c.μ/r
	a := -c.μ / (2 * ξ)
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-c.μ/r)*R[i] - dot(R, V)*V[i]) / c.μ
	}
	e := norm(eVec)
	if e >= 1 || a <= 0 {
		return nil, InvalidElementsError{"e", e, "state vector describes an unbound orbit"}
	}
	i := math.Acos(hVec[2] / norm(hVec))
	ω := math.Acos(dot(n, eVec) / (norm(n) * e))
	if math.IsNaN(ω) {
		ω = 0
	}
	if eVec[2] < 0 {
		ω = 2*math.Pi - ω
	}
	Ω := math.Acos(n[0] / norm(n))
	if math.IsNaN(Ω) {
		Ω = 0
	}
	if n[1] < 0 {
		Ω = 2*math.Pi - Ω
	}
	cosν := dot(eVec, R) / (e * r)
	if abscosν := math.Abs(cosν); abscosν > 1 && scalar.EqualWithinAbs(abscosν, 1, 1e-12) {
		// Welcome to the edge case which took about 1.5 hours of my time.
		cosν = sign(cosν) // GTFO NaN!
	}
	ν := math.Acos(cosν)
	if dot(R, V) < 0 {
		ν = 2*math.Pi - ν
	}
	// Fix rounding errors.
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω, 2*math.Pi)
	ω = math.Mod(ω, 2*math.Pi)
	ν = math.Mod(ν, 2*math.Pi)

	orbit := Orbit{a, e, i, Ω, ω, ν, c, 0.0, R, V}
	orbit.computeHash()
	return &orbit, nil
}

// Helper functions go here.

// Radii2ae returns the semi major axis and the eccentricity from the radii.
func Radii2ae(rA, rP float64) (a, e float64) {
	if rA < rP {
		panic("periapsis cannot be greater than apoapsis")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}

// anomalyFromMean solves Kepler's equation M = E - e sinE for E via
// Newton-Raphson and returns the matching true anomaly in radians.
func anomalyFromMean(M, e float64) float64 {
	M = wrap2π(M)
	E := M
	if e > 0.8 {
		E = math.Pi
	}
	for iter := 0; iter < keplerMaxIter; iter++ {
		δ := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= δ
		if math.Abs(δ) < keplerε {
			break
		}
	}
	sinν := math.Sqrt(1-e*e) * math.Sin(E)
	cosν := math.Cos(E) - e
	return wrap2π(math.Atan2(sinν, cosν))
}
