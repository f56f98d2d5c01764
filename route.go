package adr

import (
	"fmt"
	"math"
	"strings"
)

// SolveMethod tags which solver produced a route, so callers can tell an
// exact optimum from a heuristic answer. There is no silent fallback.
type SolveMethod uint8

const (
	// ExactHeldKarp marks a provably optimal route from the subset dynamic program.
	ExactHeldKarp SolveMethod = iota + 1
	// NearestNeighbor2Opt marks a heuristic route with no optimality guarantee.
	NearestNeighbor2Opt
)

func (m SolveMethod) String() string {
	switch m {
	case ExactHeldKarp:
		return "exact-held-karp"
	case NearestNeighbor2Opt:
		return "nearest-neighbor-2opt"
	default:
		panic("unknown solve method")
	}
}

// Route is a visiting order over the matrix nodes, starting at node 0.
type Route struct {
	Order   []int // node indices, Order[0] == 0
	TotalΔv float64
	Method  SolveMethod
	Closed  bool
}

func (r Route) String() string {
	stops := make([]string, len(r.Order))
	for i, n := range r.Order {
		stops[i] = fmt.Sprintf("%d", n)
	}
	route := strings.Join(stops, "→")
	if r.Closed {
		route += "→0"
	}
	return fmt.Sprintf("%s (Δv=%.6f km/s, %s)", route, r.TotalΔv, r.Method)
}

// SolveRoute finds the visiting order of all matrix nodes which starts at
// node 0 (the servicer) and minimizes the summed leg costs, returning to the
// start only when the configuration asks for a closed tour. Instances up to
// the configured threshold are solved exactly by Held-Karp dynamic
// programming; larger ones fall back to nearest-neighbor construction plus
// bounded 2-opt improvement, which carries no optimality guarantee. The
// returned route always names the method which produced it. Unreachable
// arcs never appear in a returned route.
func SolveRoute(m *CostMatrix, cfg MissionConfig) (Route, error) {
	if err := cfg.validateSolver(); err != nil {
		return Route{}, err
	}
	n := m.Len()
	if n == 0 {
		return Route{}, NoFeasibleTourError{0, "empty cost matrix"}
	}
	if n == 1 {
		return Route{Order: []int{0}, Method: ExactHeldKarp, Closed: cfg.ClosedTour}, nil
	}
	if n <= cfg.ExactThreshold {
		return heldKarp(m, cfg.ClosedTour)
	}
	order, err := nearestNeighbor(m, cfg.ClosedTour)
	if err != nil {
		return Route{}, err
	}
	order = twoOpt(order, m, cfg.TwoOptPasses, cfg.ClosedTour)
	return Route{
		Order:   order,
		TotalΔv: pathCost(order, m, cfg.ClosedTour),
		Method:  NearestNeighbor2Opt,
		Closed:  cfg.ClosedTour,
	}, nil
}

// heldKarp solves the open path (or closed tour) exactly via the subset
// dynamic program: state (visited target set, last node), value the minimum
// cost to reach it from node 0. Iteration runs in increasing bitmask order
// then increasing node index, and only strict improvements replace a state,
// so equal-cost optima always resolve to the same route.
func heldKarp(m *CostMatrix, closed bool) (Route, error) {
	n := m.Len()
	k := n - 1 // targets, node 0 excluded from the mask
	full := (1 << uint(k)) - 1
	dp := make([][]float64, full+1)
	parents := make([][]int8, full+1)
	for mask := 0; mask <= full; mask++ {
		dp[mask] = make([]float64, k)
		parents[mask] = make([]int8, k)
		for j := 0; j < k; j++ {
			dp[mask][j] = math.Inf(1)
		}
	}
	for j := 1; j < n; j++ {
		if c := m.Δv[0][j]; !math.IsInf(c, 1) {
			dp[1<<uint(j-1)][j-1] = c
		}
	}
	for mask := 1; mask <= full; mask++ {
		for last := 1; last < n; last++ {
			lastBit := 1 << uint(last-1)
			if mask&lastBit == 0 || math.IsInf(dp[mask][last-1], 1) {
				continue
			}
			for next := 1; next < n; next++ {
				nextBit := 1 << uint(next-1)
				if mask&nextBit != 0 {
					continue
				}
				arc := m.Δv[last][next]
				if math.IsInf(arc, 1) {
					continue
				}
				cand := dp[mask][last-1] + arc
				if cand < dp[mask|nextBit][next-1] {
					dp[mask|nextBit][next-1] = cand
					parents[mask|nextBit][next-1] = int8(last)
				}
			}
		}
	}
	best := math.Inf(1)
	bestLast := -1
	for last := 1; last < n; last++ {
		c := dp[full][last-1]
		if closed {
			ret := m.Δv[last][0]
			if math.IsInf(ret, 1) {
				continue
			}
			c += ret
		}
		if c < best {
			best = c
			bestLast = last
		}
	}
	if bestLast == -1 || math.IsInf(best, 1) {
		return Route{}, NoFeasibleTourError{n, "unreachable pairs disconnect the node set"}
	}
	order := make([]int, 0, n)
	mask := full
	for cur := bestLast; cur != 0; {
		order = append(order, cur)
		prev := int(parents[mask][cur-1])
		mask ^= 1 << uint(cur-1)
		cur = prev
	}
	order = append(order, 0)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return Route{Order: order, TotalΔv: best, Method: ExactHeldKarp, Closed: closed}, nil
}

// nearestNeighbor builds an initial order greedily: from the current node,
// always hop to the cheapest unvisited target. Ties resolve to the lower
// node index so construction stays deterministic. The greedy walk can
// dead-end on sentinel-dense matrices even when a feasible path exists;
// callers wanting completeness should raise the exact solve threshold.
func nearestNeighbor(m *CostMatrix, closed bool) ([]int, error) {
	n := m.Len()
	order := make([]int, 0, n)
	order = append(order, 0)
	visited := make([]bool, n)
	visited[0] = true
	current := 0
	for len(order) < n {
		next := -1
		nextCost := math.Inf(1)
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if c := m.Δv[current][j]; c < nextCost {
				next = j
				nextCost = c
			}
		}
		if next == -1 {
			return nil, NoFeasibleTourError{n, fmt.Sprintf("greedy construction dead-ends at node %d", current)}
		}
		visited[next] = true
		order = append(order, next)
		current = next
	}
	if closed && !m.Reachable(current, 0) {
		return nil, NoFeasibleTourError{n, "return arc to the start is unreachable"}
	}
	return order, nil
}

// twoOpt improves the order by segment reversals, keeping node 0 fixed.
// Candidate costs are evaluated over the whole path, so asymmetric matrices
// are handled correctly. The sweep budget bounds the local search.
func twoOpt(order []int, m *CostMatrix, passes int, closed bool) []int {
	best := pathCost(order, m, closed)
	for pass := 0; pass < passes; pass++ {
		improved := false
		for i := 1; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				reverseSegment(order, i, j)
				if c := pathCost(order, m, closed); c < best {
					best = c
					improved = true
				} else {
					reverseSegment(order, i, j)
				}
			}
		}
		if !improved {
			break
		}
	}
	return order
}

func reverseSegment(order []int, i, j int) {
	for ; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
}

// pathCost folds the leg costs along the order, left to right, returning
// Unreachable as soon as a sentinel arc appears. The fold order matches the
// solvers and the mission aggregation, so totals compare bit-identical.
func pathCost(order []int, m *CostMatrix, closed bool) float64 {
	var total float64
	for k := 0; k < len(order)-1; k++ {
		c := m.Δv[order[k]][order[k+1]]
		if math.IsInf(c, 1) {
			return Unreachable
		}
		total += c
	}
	if closed && len(order) > 1 {
		c := m.Δv[order[len(order)-1]][order[0]]
		if math.IsInf(c, 1) {
			return Unreachable
		}
		total += c
	}
	return total
}
