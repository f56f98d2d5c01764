package adr

import (
	"testing"
	"time"
)

func TestDefaultMissionConfig(t *testing.T) {
	cfg := DefaultMissionConfig()
	if cfg.CoplanarTolerance != Deg2rad(1.0) {
		t.Fatalf("default coplanar tolerance invalid: %f", cfg.CoplanarTolerance)
	}
	if cfg.MaxPhasingWait != 168*time.Hour {
		t.Fatalf("default wait budget invalid: %s", cfg.MaxPhasingWait)
	}
	if cfg.ThrustAccel != 0 {
		t.Fatalf("default thrust acceleration invalid: %g", cfg.ThrustAccel)
	}
	if cfg.ExactThreshold != 12 {
		t.Fatalf("default exact threshold invalid: %d", cfg.ExactThreshold)
	}
	if cfg.TwoOptPasses != 25 {
		t.Fatalf("default two-opt budget invalid: %d", cfg.TwoOptPasses)
	}
	if cfg.Workers != 0 {
		t.Fatalf("default worker count invalid: %d", cfg.Workers)
	}
	if cfg.ClosedTour {
		t.Fatal("routes must be open paths by default")
	}
	if cfg.PlaneChange != 0 {
		t.Fatalf("the plane change policy cannot have a default, got %s", cfg.PlaneChange)
	}
	if cfg.DesiredTOF != 0 || !cfg.DepartureEpoch.IsZero() {
		t.Fatal("time settings must default to unset")
	}
	if err := cfg.validateSolver(); err != nil {
		t.Fatalf("defaults must validate: %s", err)
	}
}

func TestValidateSolver(t *testing.T) {
	for _, it := range []struct {
		threshold, passes int
		ok                bool
	}{
		{12, 25, true},
		{1, 0, true},
		{heldKarpMaxNodes, 25, true},
		{0, 25, false},
		{heldKarpMaxNodes + 1, 25, false},
		{12, -1, false},
	} {
		cfg := DefaultMissionConfig()
		cfg.ExactThreshold = it.threshold
		cfg.TwoOptPasses = it.passes
		err := cfg.validateSolver()
		if it.ok && err != nil {
			t.Fatalf("threshold=%d passes=%d must validate: %s", it.threshold, it.passes, err)
		}
		if !it.ok && err == nil {
			t.Fatalf("threshold=%d passes=%d must be rejected", it.threshold, it.passes)
		}
	}
}

func TestValidateFor(t *testing.T) {
	// Per-strategy requirements.
	flat := DefaultMissionConfig()
	flat.CoplanarTolerance = 0
	if err := flat.validateFor(Coplanar); err == nil {
		t.Fatal("zero tolerance must be rejected for the coplanar strategy")
	}
	if err := flat.validateFor(LowThrust); err != nil {
		t.Fatalf("the tolerance does not concern the low thrust strategy: %s", err)
	}
	unbudgeted := DefaultMissionConfig()
	unbudgeted.MaxPhasingWait = 0
	if err := unbudgeted.validateFor(PhasingAdjusted); err == nil {
		t.Fatal("zero wait budget must be rejected for the phasing strategy")
	}
	if err := unbudgeted.validateFor(Coplanar); err != nil {
		t.Fatalf("the wait budget does not concern the coplanar strategy: %s", err)
	}
	rewound := DefaultMissionConfig()
	rewound.DesiredTOF = -time.Hour
	if err := rewound.validateFor(PhasingAdjusted); err == nil {
		t.Fatal("negative desired time of flight must be rejected")
	}
	if err := DefaultMissionConfig().validateFor(InclinationChange); err == nil {
		t.Fatal("the inclination change strategy requires an explicit policy")
	}
	split := DefaultMissionConfig()
	split.PlaneChange = PlaneChangeSplit
	if err := split.validateFor(InclinationChange); err != nil {
		t.Fatalf("split policy must validate: %s", err)
	}
	braking := DefaultMissionConfig()
	braking.ThrustAccel = -1e-7
	if err := braking.validateFor(LowThrust); err == nil {
		t.Fatal("negative acceleration must be rejected")
	}
	if err := DefaultMissionConfig().validateFor(LowThrust); err != nil {
		t.Fatalf("acceleration is optional for the low thrust strategy: %s", err)
	}
	// Solver problems surface through every strategy.
	lopsided := DefaultMissionConfig()
	lopsided.ExactThreshold = 0
	if err := lopsided.validateFor(Coplanar); err == nil {
		t.Fatal("solver validation must run for every strategy")
	}
	assertPanic(t, func() {
		_ = DefaultMissionConfig().validateFor(TransferStrategy(0))
	})
}
