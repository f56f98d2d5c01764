package adr

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func ordersEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSolveRouteExact(t *testing.T) {
	objects := coplanarRing(t, 7000, 7200, 7500, 8000)
	cfg := DefaultMissionConfig()
	m, err := BuildCostMatrix(objects, Coplanar, cfg)
	if err != nil {
		t.Fatalf("build failed: %s", err)
	}
	route, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("solve failed: %s", err)
	}
	if route.Method != ExactHeldKarp {
		t.Fatalf("four nodes must solve exactly, got %s", route.Method)
	}
	if route.Closed {
		t.Fatal("route must be open by default")
	}
	if !ordersEqual(route.Order, []int{0, 1, 2, 3}) {
		t.Fatalf("monotone ring must be visited in radius order, got %v", route.Order)
	}
	// The total is the exact left fold of the leg costs, no more, no less.
	ΔvD, ΔvA, _ := Hohmann(7000, 7200, Earth)
	total := ΔvD + ΔvA
	ΔvD, ΔvA, _ = Hohmann(7200, 7500, Earth)
	total += ΔvD + ΔvA
	ΔvD, ΔvA, _ = Hohmann(7500, 8000, Earth)
	total += ΔvD + ΔvA
	if route.TotalΔv != total {
		t.Fatalf("total invalid: %.16f != %.16f", route.TotalΔv, total)
	}
	if pathCost(route.Order, m, false) != route.TotalΔv {
		t.Fatal("total does not match the path cost fold")
	}
	// Solving again yields the same route, bit for bit.
	again, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("repeat solve failed: %s", err)
	}
	if !ordersEqual(route.Order, again.Order) || route.TotalΔv != again.TotalΔv {
		t.Fatal("repeated solve changed the route")
	}

	cfg.ClosedTour = true
	closed, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("closed solve failed: %s", err)
	}
	if !closed.Closed {
		t.Fatal("closed flag not set on the route")
	}
	if !scalar.EqualWithinAbs(closed.TotalΔv, 0.974110148950194, 1e-12) {
		t.Fatalf("closed total invalid: %.16f", closed.TotalΔv)
	}
	if pathCost(closed.Order, m, true) != closed.TotalΔv {
		t.Fatal("closed total does not match the path cost fold")
	}
	if closed.TotalΔv <= route.TotalΔv {
		t.Fatal("closed tour cannot be cheaper than the open path")
	}
}

func TestSolveRouteHeuristic(t *testing.T) {
	// The greedy construction hops to 7450 then 7600, stranding 7300 for an
	// expensive backtrack from 7900. One segment reversal repairs it.
	objects := coplanarRing(t, 7500, 7450, 7600, 7300, 7900)
	cfg := DefaultMissionConfig()
	m, err := BuildCostMatrix(objects, Coplanar, cfg)
	if err != nil {
		t.Fatalf("build failed: %s", err)
	}
	exact, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("exact solve failed: %s", err)
	}
	if !ordersEqual(exact.Order, []int{0, 1, 3, 2, 4}) {
		t.Fatalf("exact order invalid: %v", exact.Order)
	}
	if !scalar.EqualWithinAbs(exact.TotalΔv, 0.3853102529656356, 1e-12) {
		t.Fatalf("exact total invalid: %.16f", exact.TotalΔv)
	}

	cfg.ExactThreshold = 1
	heur, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("heuristic solve failed: %s", err)
	}
	if heur.Method != NearestNeighbor2Opt {
		t.Fatalf("above the threshold the solve must be heuristic, got %s", heur.Method)
	}
	if !ordersEqual(heur.Order, exact.Order) || heur.TotalΔv != exact.TotalΔv {
		t.Fatalf("2-opt missed the repair: %v (%.12f)", heur.Order, heur.TotalΔv)
	}

	// Without the local search budget the greedy order stands.
	cfg.TwoOptPasses = 0
	greedy, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("greedy solve failed: %s", err)
	}
	if !ordersEqual(greedy.Order, []int{0, 1, 2, 4, 3}) {
		t.Fatalf("greedy order invalid: %v", greedy.Order)
	}
	if !scalar.EqualWithinAbs(greedy.TotalΔv, 0.5218275023446761, 1e-12) {
		t.Fatalf("greedy total invalid: %.16f", greedy.TotalΔv)
	}
	if greedy.TotalΔv <= exact.TotalΔv {
		t.Fatal("this greedy route cannot beat the optimum")
	}
}

func TestSolveRouteAsymmetric(t *testing.T) {
	cfg := DefaultMissionConfig()
	inf := math.Inf(1)
	m := &CostMatrix{Strategy: Coplanar, Δv: [][]float64{
		{0, 1, 5},
		{10, 0, 1},
		{1, 10, 0},
	}}
	route, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("solve failed: %s", err)
	}
	if !ordersEqual(route.Order, []int{0, 1, 2}) || route.TotalΔv != 2 {
		t.Fatalf("open route invalid: %v (%.1f)", route.Order, route.TotalΔv)
	}
	cfg.ClosedTour = true
	closed, err := SolveRoute(m, cfg)
	if err != nil {
		t.Fatalf("closed solve failed: %s", err)
	}
	if !ordersEqual(closed.Order, []int{0, 1, 2}) || closed.TotalΔv != 3 {
		t.Fatalf("closed route invalid: %v (%.1f)", closed.Order, closed.TotalΔv)
	}
	// A single forbidden arc forces a detour, not a failure.
	detour := &CostMatrix{Strategy: Coplanar, Δv: [][]float64{
		{0, inf, 1, 100},
		{100, 0, 100, 1},
		{100, 100, 0, 1},
		{100, 1, 100, 0},
	}}
	cfg.ClosedTour = false
	route, err = SolveRoute(detour, cfg)
	if err != nil {
		t.Fatalf("detour solve failed: %s", err)
	}
	if !ordersEqual(route.Order, []int{0, 2, 3, 1}) || route.TotalΔv != 3 {
		t.Fatalf("detour route invalid: %v (%.1f)", route.Order, route.TotalΔv)
	}
}

func TestSolveRouteInfeasible(t *testing.T) {
	// Disconnect one node entirely: a tilted object under the coplanar
	// strategy holds only sentinels.
	objects := coplanarRing(t, 7000, 7200, 7500, 8000)
	objects = append(objects, DebrisObject{ID: 90001, Name: "tilted", Orbit: circularOrbit(t, 7300, 70, 120, 0)})
	cfg := DefaultMissionConfig()
	m, err := BuildCostMatrix(objects, Coplanar, cfg)
	if err != nil {
		t.Fatalf("build failed: %s", err)
	}
	var tourErr NoFeasibleTourError
	if _, err := SolveRoute(m, cfg); !errors.As(err, &tourErr) {
		t.Fatalf("expected NoFeasibleTourError, got %v", err)
	}
	if tourErr.Nodes != 5 {
		t.Fatalf("error node count invalid: %d", tourErr.Nodes)
	}
	// The heuristic path dead-ends on the same instance.
	cfg.ExactThreshold = 1
	if _, err := SolveRoute(m, cfg); !errors.As(err, &tourErr) {
		t.Fatalf("expected NoFeasibleTourError from the heuristic, got %v", err)
	}

	// A tour which cannot return to the start is infeasible only when closed.
	inf := math.Inf(1)
	oneWay := &CostMatrix{Strategy: Coplanar, Δv: [][]float64{
		{0, 1},
		{inf, 0},
	}}
	cfg = DefaultMissionConfig()
	route, err := SolveRoute(oneWay, cfg)
	if err != nil {
		t.Fatalf("open solve failed: %s", err)
	}
	if !ordersEqual(route.Order, []int{0, 1}) || route.TotalΔv != 1 {
		t.Fatalf("open route invalid: %v", route.Order)
	}
	cfg.ClosedTour = true
	if _, err := SolveRoute(oneWay, cfg); !errors.As(err, &tourErr) {
		t.Fatalf("expected NoFeasibleTourError for the closed tour, got %v", err)
	}

	// Degenerate sizes.
	empty := &CostMatrix{Strategy: Coplanar}
	if _, err := SolveRoute(empty, cfg); !errors.As(err, &tourErr) {
		t.Fatalf("expected NoFeasibleTourError for an empty matrix, got %v", err)
	}
	single := &CostMatrix{Strategy: Coplanar, Δv: [][]float64{{0}}}
	route, err = SolveRoute(single, cfg)
	if err != nil {
		t.Fatalf("single node solve failed: %s", err)
	}
	if !ordersEqual(route.Order, []int{0}) || route.TotalΔv != 0 || route.Method != ExactHeldKarp {
		t.Fatalf("single node route invalid: %+v", route)
	}
}

func TestSolveRouteValidation(t *testing.T) {
	objects := coplanarRing(t, 7000, 7200)
	m, err := BuildCostMatrix(objects, Coplanar, DefaultMissionConfig())
	if err != nil {
		t.Fatalf("build failed: %s", err)
	}
	for _, tweak := range []func(*MissionConfig){
		func(c *MissionConfig) { c.ExactThreshold = 0 },
		func(c *MissionConfig) { c.ExactThreshold = heldKarpMaxNodes + 1 },
		func(c *MissionConfig) { c.TwoOptPasses = -1 },
	} {
		cfg := DefaultMissionConfig()
		tweak(&cfg)
		if _, err := SolveRoute(m, cfg); err == nil {
			t.Fatalf("invalid solver configuration must be rejected: %+v", cfg)
		}
	}
}

func TestSolveMethodStrings(t *testing.T) {
	if ExactHeldKarp.String() != "exact-held-karp" {
		t.Fatal("exact method name invalid")
	}
	if NearestNeighbor2Opt.String() != "nearest-neighbor-2opt" {
		t.Fatal("heuristic method name invalid")
	}
	assertPanic(t, func() {
		_ = SolveMethod(0).String()
	})
	route := Route{Order: []int{0, 2, 1}, TotalΔv: 1.5, Method: ExactHeldKarp, Closed: true}
	str := route.String()
	if !strings.Contains(str, "0→2→1→0") || !strings.Contains(str, "exact-held-karp") {
		t.Fatalf("route string invalid: %s", str)
	}
}
