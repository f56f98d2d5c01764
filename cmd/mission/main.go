package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	adr "github.com/Josh-Fitch/ADR-Toolbox"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// This code effectively only reads the scenario file and runs the campaign analysis.

const (
	defaultScenario = "~~unset~~"
)

var (
	scenario string
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "mission scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "print every priced leg of the plan")
}

func main() {
	flag.Parse()
	// Load scenario
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}

	// Read mission parameters
	strategy, err := adr.TransferStrategyFromString(viper.GetString("mission.strategy"))
	if err != nil {
		log.Fatal(err)
	}
	cfg := adr.DefaultMissionConfig()
	if viper.IsSet("mission.planechange") {
		policy, err := adr.PlaneChangePolicyFromString(viper.GetString("mission.planechange"))
		if err != nil {
			log.Fatal(err)
		}
		cfg.PlaneChange = policy
	}
	if viper.IsSet("mission.coplanarToleranceDeg") {
		cfg.CoplanarTolerance = adr.Deg2rad(viper.GetFloat64("mission.coplanarToleranceDeg"))
	}
	cfg.ClosedTour = viper.GetBool("mission.closed")
	if viper.IsSet("mission.departure") {
		cfg.DepartureEpoch = confReadJDEorTime("mission.departure")
	}

	// Read servicer
	servicer, err := confReadObject("servicer")
	if err != nil {
		log.Fatalf("[servicer] %s", err)
	}

	// Read targets
	var targets []adr.DebrisObject
	for tgtNo := 0; viper.IsSet(fmt.Sprintf("targets.%d", tgtNo)); tgtNo++ {
		target, err := confReadObject(fmt.Sprintf("targets.%d", tgtNo))
		if err != nil {
			log.Fatalf("[targets.%d] %s", tgtNo, err)
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		log.Fatal("scenario defines no targets")
	}

	plan, err := adr.NewMission(servicer, targets, strategy, cfg).Analyze()
	if err != nil {
		log.Fatal(err)
	}
	if verbose {
		for _, record := range adr.PlanRecords(plan) {
			fmt.Printf("leg %d: %s → %s: Δv=%.6f km/s (tof %.1f s, wait %.1f s)\n", record.Sequence, record.FromName, record.ToName, record.Δv, record.TOFSec, record.WaitSec)
		}
	}
	if viper.GetBool("mission.export") {
		adr.ExportPlan(plan, adr.ExportConfig{Filename: scenario, AsCSV: true, AsJSON: true, Timestamp: viper.GetBool("mission.timestamp")})
	}
	fmt.Printf("%s\n", plan)
}

// confReadObject reads one debris object from the scenario, either as a TLE
// pair or as explicit orbital elements around a named body.
func confReadObject(key string) (adr.DebrisObject, error) {
	name := viper.GetString(key + ".name")
	mass := viper.GetFloat64(key + ".mass")
	xsect := viper.GetFloat64(key + ".xsect")
	if viper.IsSet(key + ".tle1") {
		at := time.Now().UTC()
		if viper.IsSet(key + ".epoch") {
			at = confReadJDEorTime(key + ".epoch")
		}
		return adr.NewDebrisObjectFromTLE(name, viper.GetString(key+".tle1"), viper.GetString(key+".tle2"), mass, xsect, at)
	}
	body := adr.Earth
	if viper.IsSet(key + ".body") {
		var err error
		body, err = adr.CelestialObjectFromString(viper.GetString(key + ".body"))
		if err != nil {
			return adr.DebrisObject{}, err
		}
	}
	orbit, err := adr.NewOrbit(viper.GetFloat64(key+".sma"), viper.GetFloat64(key+".ecc"),
		viper.GetFloat64(key+".inc"), viper.GetFloat64(key+".RAAN"),
		viper.GetFloat64(key+".argPeri"), viper.GetFloat64(key+".tAnomaly"), body)
	if err != nil {
		return adr.DebrisObject{}, err
	}
	obj := adr.DebrisObject{ID: viper.GetInt(key + ".norad"), Name: name, Orbit: *orbit, Mass: mass, XSectAvg: xsect}
	if viper.IsSet(key + ".epoch") {
		obj.Epoch = confReadJDEorTime(key + ".epoch")
	}
	return obj, nil
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		dt = viper.GetTime(key)
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}
