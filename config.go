package adr

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// heldKarpMaxNodes bounds the exact solver threshold: the subset table grows
// as n·2ⁿ and anything past this is not worth holding in memory.
const heldKarpMaxNodes = 20

// MissionConfig carries every knob of a mission analysis run: strategy
// tolerances, solver thresholds and budgets, and the matrix fill options.
// The zero value is not usable directly; start from DefaultMissionConfig.
type MissionConfig struct {
	CoplanarTolerance float64           // max relative inclination for the coplanar models, radians
	PlaneChange       PlaneChangePolicy // required by the inclination change strategy, no default
	DesiredTOF        time.Duration     // phasing: desired transfer duration, zero means the Hohmann time of flight
	MaxPhasingWait    time.Duration     // phasing: wait budget before the transfer is declared infeasible
	ThrustAccel       float64           // low thrust acceleration in km/s², zero leaves the time of flight unset
	DepartureEpoch    time.Time         // when set, objects are propagated to this date before pricing
	ExactThreshold    int               // largest node count solved exactly
	TwoOptPasses      int               // local search budget of the heuristic solver
	ClosedTour        bool              // require the route to return to the servicer's start
	Workers           int               // matrix fill parallelism, zero or less means GOMAXPROCS
}

// validateSolver checks the knobs the route solver depends on.
func (c MissionConfig) validateSolver() error {
	if c.ExactThreshold < 1 {
		return fmt.Errorf("exact solve threshold must be at least 1, got %d", c.ExactThreshold)
	}
	if c.ExactThreshold > heldKarpMaxNodes {
		return fmt.Errorf("exact solve threshold capped at %d nodes, got %d", heldKarpMaxNodes, c.ExactThreshold)
	}
	if c.TwoOptPasses < 0 {
		return fmt.Errorf("two-opt pass budget cannot be negative, got %d", c.TwoOptPasses)
	}
	return nil
}

// validateFor checks the solver knobs plus the settings the provided
// strategy depends on.
func (c MissionConfig) validateFor(s TransferStrategy) error {
	if err := c.validateSolver(); err != nil {
		return err
	}
	if c.ThrustAccel < 0 {
		return fmt.Errorf("thrust acceleration cannot be negative, got %g", c.ThrustAccel)
	}
	switch s {
	case Coplanar, PhasingAdjusted:
		if c.CoplanarTolerance <= 0 {
			return fmt.Errorf("coplanar inclination tolerance must be positive for the %s strategy", s)
		}
		if s == PhasingAdjusted {
			if c.MaxPhasingWait <= 0 {
				return fmt.Errorf("phasing wait budget must be positive for the %s strategy", s)
			}
			if c.DesiredTOF < 0 {
				return fmt.Errorf("desired time of flight cannot be negative")
			}
		}
	case InclinationChange:
		if c.PlaneChange != PlaneChangeCombined && c.PlaneChange != PlaneChangeSplit {
			return fmt.Errorf("plane change policy must be explicitly selected for the %s strategy", s)
		}
	case LowThrust:
		// Nothing mandatory: acceleration is optional.
	default:
		panic("unknown transfer strategy")
	}
	return nil
}

// DefaultMissionConfig returns the configuration file backed defaults.
func DefaultMissionConfig() MissionConfig {
	conf := adrConfig()
	return MissionConfig{
		CoplanarTolerance: Deg2rad(conf.coplanarTolDeg),
		MaxPhasingWait:    secondsToDuration(conf.maxWaitHours * 3600),
		ThrustAccel:       conf.thrustAccel,
		ExactThreshold:    conf.exactThreshold,
		TwoOptPasses:      conf.twoOptPasses,
		Workers:           conf.workers,
	}
}

var (
	cfgLoaded = false
	config    = _adrconfig{}
)

// _adrconfig is a "hidden" struct, just use `adrConfig`
type _adrconfig struct {
	coplanarTolDeg float64
	maxWaitHours   float64
	thrustAccel    float64
	exactThreshold int
	twoOptPasses   int
	workers        int
	outputDir      string
}

// adrConfig returns the file backed defaults. The configuration file is
// optional: when the ADR_CONFIG environment variable is unset, or names a
// directory without a conf.toml, the built-in defaults apply so the library
// stays usable without any setup.
func adrConfig() _adrconfig {
	if cfgLoaded {
		return config
	}
	viper.SetDefault("transfer.coplanar_tolerance_deg", 1.0)
	viper.SetDefault("transfer.max_phasing_wait_hours", 168.0)
	viper.SetDefault("transfer.thrust_accel", 0.0)
	viper.SetDefault("optimizer.exact_threshold", 12)
	viper.SetDefault("optimizer.two_opt_passes", 25)
	viper.SetDefault("optimizer.workers", 0)
	viper.SetDefault("output.directory", "./")
	if confPath := os.Getenv("ADR_CONFIG"); confPath != "" {
		viper.SetConfigName("conf")
		viper.AddConfigPath(confPath)
		if err := viper.ReadInConfig(); err != nil {
			panic(fmt.Errorf("%s/conf.toml not found", confPath))
		}
	}
	config = _adrconfig{
		coplanarTolDeg: viper.GetFloat64("transfer.coplanar_tolerance_deg"),
		maxWaitHours:   viper.GetFloat64("transfer.max_phasing_wait_hours"),
		thrustAccel:    viper.GetFloat64("transfer.thrust_accel"),
		exactThreshold: viper.GetInt("optimizer.exact_threshold"),
		twoOptPasses:   viper.GetInt("optimizer.two_opt_passes"),
		workers:        viper.GetInt("optimizer.workers"),
		outputDir:      viper.GetString("output.directory"),
	}
	cfgLoaded = true
	return config
}
