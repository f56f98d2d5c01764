package adr

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ExportConfig configures the exporting of a computed mission plan.
type ExportConfig struct {
	Filename  string
	AsCSV     bool
	AsJSON    bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.AsJSON
}

// PlanCatalog is the JSON rendition of a mission plan.
type PlanCatalog struct {
	Version string          `json:"version"`
	Name    string          `json:"name"`
	Method  string          `json:"method"`
	Closed  bool            `json:"closed"`
	TotalΔv float64         `json:"totalDeltaV"`
	Legs    []PlanLegRecord `json:"legs"`
}

func (c PlanCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// PlanLegRecord is one leg of an exported plan, flattened for serialization.
type PlanLegRecord struct {
	Sequence int     `json:"sequence"`
	FromID   int     `json:"fromNorad"`
	FromName string  `json:"fromName"`
	ToID     int     `json:"toNorad"`
	ToName   string  `json:"toName"`
	Strategy string  `json:"strategy"`
	Δv       float64 `json:"deltaV"`
	TOFSec   float64 `json:"tofSec"`
	WaitSec  float64 `json:"waitSec"`
}

// ToText converts to text for the CSV output.
func (r PlanLegRecord) ToText() string {
	return fmt.Sprintf("%d,%d,%s,%d,%s,%s,%.6f,%.3f,%.3f", r.Sequence, r.FromID, r.FromName, r.ToID, r.ToName, r.Strategy, r.Δv, r.TOFSec, r.WaitSec)
}

// PlanRecords flattens the legs of a plan, pairing each with the object
// names of its endpoints.
func PlanRecords(plan MissionPlan) []PlanLegRecord {
	records := make([]PlanLegRecord, len(plan.Legs))
	for k, leg := range plan.Legs {
		to := k + 1
		if plan.Closed && k == len(plan.Legs)-1 {
			to = 0
		}
		records[k] = PlanLegRecord{
			Sequence: k + 1,
			FromID:   plan.Objects[k].ID,
			FromName: plan.Objects[k].Name,
			ToID:     plan.Objects[to].ID,
			ToName:   plan.Objects[to].Name,
			Strategy: leg.Strategy.String(),
			Δv:       leg.Δv,
			TOFSec:   leg.TOF.Seconds(),
			WaitSec:  leg.Wait.Seconds(),
		}
	}
	return records
}

// createPlanFile returns a file which requires a defer close statement!
func createPlanFile(filename, extension string, stamped bool) *os.File {
	config := adrConfig()
	if stamped {
		t := time.Now()
		filename = fmt.Sprintf("%s/plan-%s-%d-%02d-%02dT%02d.%02d.%02d.%s", config.outputDir, filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), extension)
	} else {
		filename = fmt.Sprintf("%s/plan-%s.%s", config.outputDir, filename, extension)
	}
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	return f
}

// ExportPlan writes the plan to the configured output directory in the
// formats enabled in the export configuration.
func ExportPlan(plan MissionPlan, conf ExportConfig) {
	if conf.IsUseless() {
		return
	}
	records := PlanRecords(plan)
	if conf.AsCSV {
		f := createPlanFile(conf.Filename, "csv", conf.Timestamp)
		defer f.Close()
		// Header
		f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Records are leg sequence, endpoints, delta-V in km/s, times in seconds.
sequence,fromNorad,fromName,toNorad,toName,strategy,deltaV,tofSec,waitSec`, time.Now().UTC()))
		for _, record := range records {
			if _, err := f.WriteString("\n" + record.ToText()); err != nil {
				panic(err)
			}
		}
		f.WriteString(fmt.Sprintf("\n# Total delta-V (km/s): %.6f (%s)\n", plan.TotalΔv, plan.Method))
	}
	if conf.AsJSON {
		catalog := PlanCatalog{Version: "1.0", Name: conf.Filename, Method: plan.Method.String(), Closed: plan.Closed, TotalΔv: plan.TotalΔv, Legs: records}
		f := createPlanFile(conf.Filename, "json", conf.Timestamp)
		defer f.Close()
		if marsh, err := json.Marshal(catalog); err != nil {
			panic(err)
		} else {
			f.Write(marsh)
		}
	}
}
