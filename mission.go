package adr

import (
	"fmt"
	"os"
	"time"

	kitlog "github.com/go-kit/log"
)

/* Ties the pricing, routing and aggregation stages into one campaign analysis. */

// MissionPlan is the final answer of an analysis: the objects in visiting
// order, the priced legs between consecutive stops and the aggregate costs.
// Leg k goes from Objects[k] to Objects[k+1]; a closed plan appends the
// return leg to Objects[0] at the end.
type MissionPlan struct {
	Objects   []DebrisObject
	Legs      []TransferLeg
	TotalΔv   float64
	TotalTOF  time.Duration
	TotalWait time.Duration
	Method    SolveMethod
	Closed    bool
}

func (p MissionPlan) String() string {
	return fmt.Sprintf("%d objects, %d legs, Δv=%.6f km/s (%s)", len(p.Objects), len(p.Legs), p.TotalΔv, p.Method)
}

// AssembleMissionPlan combines a solved route with the matrix it was solved
// on. It is pure aggregation: every leg reuses the matrix entries, so the
// reported total is exactly the sum the solver minimized, never a
// recomputation. It fails only when the route is inconsistent with the
// object set, which indicates a caller bug rather than a mission property.
func AssembleMissionPlan(objects []DebrisObject, m *CostMatrix, route Route) (MissionPlan, error) {
	if len(objects) != m.Len() {
		return MissionPlan{}, fmt.Errorf("object count %d does not match matrix size %d", len(objects), m.Len())
	}
	if len(route.Order) != m.Len() {
		return MissionPlan{}, fmt.Errorf("route visits %d of %d nodes", len(route.Order), m.Len())
	}
	seen := make([]bool, m.Len())
	for _, node := range route.Order {
		if node < 0 || node >= m.Len() {
			return MissionPlan{}, fmt.Errorf("route references node %d outside the object set", node)
		}
		if seen[node] {
			return MissionPlan{}, fmt.Errorf("route visits node %d twice", node)
		}
		seen[node] = true
	}
	plan := MissionPlan{
		Objects: make([]DebrisObject, len(route.Order)),
		Legs:    make([]TransferLeg, 0, len(route.Order)),
		Method:  route.Method,
		Closed:  route.Closed,
	}
	addLeg := func(from, to int) {
		leg := TransferLeg{
			From:     objects[from].Orbit,
			To:       objects[to].Orbit,
			Strategy: m.Strategy,
			Δv:       m.Δv[from][to],
			TOF:      m.TOF[from][to],
			Wait:     m.Wait[from][to],
		}
		plan.Legs = append(plan.Legs, leg)
		plan.TotalΔv += leg.Δv
		plan.TotalTOF += leg.TOF
		plan.TotalWait += leg.Wait
	}
	for k, node := range route.Order {
		plan.Objects[k] = objects[node]
		if k > 0 {
			addLeg(route.Order[k-1], node)
		}
	}
	if route.Closed && len(route.Order) > 1 {
		addLeg(route.Order[len(route.Order)-1], route.Order[0])
	}
	return plan, nil
}

// Mission holds a removal campaign: one servicer, the debris targets it
// should visit and the strategy pricing each leg.
type Mission struct {
	Servicer DebrisObject
	Targets  []DebrisObject
	Strategy TransferStrategy
	Config   MissionConfig
	Cache    *MatrixCache
	logger   kitlog.Logger
}

// NewMission returns a mission ready to analyze. The cache starts empty and
// is consulted on every call to Analyze, so repeated analyses of the same
// object set and configuration reuse the priced matrix.
func NewMission(servicer DebrisObject, targets []DebrisObject, strategy TransferStrategy, cfg MissionConfig) *Mission {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "mission", servicer.Name)
	return &Mission{Servicer: servicer, Targets: targets, Strategy: strategy, Config: cfg, Cache: NewMatrixCache(), logger: klog}
}

// SetLogger changes the output logger (e.g. to a nop logger in tests).
func (a *Mission) SetLogger(l kitlog.Logger) {
	a.logger = l
}

// Analyze prices all pairs, solves the visiting order and assembles the
// plan. Node 0 is always the servicer; targets keep their input order in
// the matrix indexing.
func (a *Mission) Analyze() (MissionPlan, error) {
	objects := make([]DebrisObject, 0, len(a.Targets)+1)
	objects = append(objects, a.Servicer)
	objects = append(objects, a.Targets...)
	a.logger.Log("level", "info", "subsys", "adr", "status", "pricing", "objects", len(objects), "strategy", a.Strategy)
	matrix, cached := a.Cache.Get(objects, a.Strategy, a.Config)
	if !cached {
		var err error
		matrix, err = BuildCostMatrix(objects, a.Strategy, a.Config)
		if err != nil {
			return MissionPlan{}, err
		}
		a.Cache.Put(objects, a.Strategy, a.Config, matrix)
	}
	if unreach := matrix.UnreachableCount(); unreach > 0 {
		a.logger.Log("level", "warning", "subsys", "adr", "status", "priced", "cached", cached, "unreachable", unreach)
	} else {
		a.logger.Log("level", "info", "subsys", "adr", "status", "priced", "cached", cached)
	}
	route, err := SolveRoute(matrix, a.Config)
	if err != nil {
		return MissionPlan{}, err
	}
	plan, err := AssembleMissionPlan(objects, matrix, route)
	if err != nil {
		return MissionPlan{}, err
	}
	a.logger.Log("level", "notice", "subsys", "adr", "status", "solved", "method", route.Method, "Δv(km/s)", fmt.Sprintf("%.6f", plan.TotalΔv), "legs", len(plan.Legs))
	return plan, nil
}
