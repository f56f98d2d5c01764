package adr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/meeus/v3/julian"
)

// DebrisObject is one candidate removal target: an element snapshot plus the
// physical attributes consumed by models external to this analysis core.
// Objects are read-only during mission analysis.
type DebrisObject struct {
	ID       int    // NORAD catalog number, 0 when unknown
	Name     string
	Orbit    Orbit
	Mass     float64   // kg
	XSectAvg float64   // average cross section, m²
	Epoch    time.Time // epoch of the element snapshot, zero when unspecified
}

func (d DebrisObject) String() string {
	return fmt.Sprintf("#%d %s (%s)", d.ID, d.Name, d.Orbit)
}

// NewDebrisObjectFromTLE builds a debris object from a two line element set
// by evaluating the SGP4 model at the provided date and converting the
// resulting state vector to orbital elements. No catalog lookup happens here:
// the TLE lines come from an external acquisition step.
func NewDebrisObjectFromTLE(name, line1, line2 string, mass, xsect float64, at time.Time) (DebrisObject, error) {
	if len(line1) < 69 || !strings.HasPrefix(line1, "1 ") {
		return DebrisObject{}, fmt.Errorf("malformed TLE line 1 for %s", name)
	}
	if len(line2) < 69 || !strings.HasPrefix(line2, "2 ") {
		return DebrisObject{}, fmt.Errorf("malformed TLE line 2 for %s", name)
	}
	catalog, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return DebrisObject{}, fmt.Errorf("malformed catalog number in TLE for %s: %s", name, err)
	}
	at = at.UTC()
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	pos, vel := satellite.Propagate(sat, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
	orbit, err := NewOrbitFromRV([]float64{pos.X, pos.Y, pos.Z}, []float64{vel.X, vel.Y, vel.Z}, Earth)
	if err != nil {
		return DebrisObject{}, fmt.Errorf("TLE for %s does not describe a bound orbit: %s", name, err)
	}
	return DebrisObject{
		ID:       catalog,
		Name:     name,
		Orbit:    *orbit,
		Mass:     mass,
		XSectAvg: xsect,
		Epoch:    at,
	}, nil
}

// AtEpoch returns a copy of this object with its element snapshot propagated
// to the provided date: two-body motion of the mean anomaly plus the simple
// secular J2 drift of Ω and ω. Objects without an epoch are returned as is.
func (d DebrisObject) AtEpoch(t time.Time) (DebrisObject, error) {
	if d.Epoch.IsZero() || t.Equal(d.Epoch) {
		return d, nil
	}
	Δsec := (julian.TimeToJD(t.UTC()) - julian.TimeToJD(d.Epoch.UTC())) * 86400
	n, err := d.Orbit.MeanMotion()
	if err != nil {
		return DebrisObject{}, err
	}
	M0, err := d.Orbit.MeanAnomaly()
	if err != nil {
		return DebrisObject{}, err
	}
	ΩDot, ωDot, err := d.Orbit.J2SecularRates()
	if err != nil {
		return DebrisObject{}, err
	}
	a, e, i, Ω, ω, _ := d.Orbit.Elements()
	ν := anomalyFromMean(M0+n*Δsec, e)
	prop := d
	prop.Orbit = *newOrbitRad(a, e, i, Ω+ΩDot*Δsec, ω+ωDot*Δsec, ν, d.Orbit.Origin)
	prop.Epoch = t
	return prop, nil
}
