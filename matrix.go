package adr

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Unreachable is the sentinel cost recorded for a pair the strategy could
// not price. The route solver treats these arcs as forbidden.
var Unreachable = math.Inf(1)

// CostMatrix is the full pairwise pricing of an ordered object set under one
// strategy and configuration. Δv entries are in km/s with Unreachable
// marking failed pairs; the diagonal is zero and never used by the solver.
// Wait entries are only populated by the phasing strategy.
type CostMatrix struct {
	Strategy TransferStrategy
	Config   MissionConfig
	Δv       [][]float64
	TOF      [][]time.Duration
	Wait     [][]time.Duration
}

// Len returns the node count.
func (m *CostMatrix) Len() int {
	return len(m.Δv)
}

// Reachable returns whether the strategy priced the (i, j) pair.
func (m *CostMatrix) Reachable(i, j int) bool {
	return !math.IsInf(m.Δv[i][j], 1)
}

// UnreachableCount returns how many off-diagonal pairs hold the sentinel.
func (m *CostMatrix) UnreachableCount() (count int) {
	for i := 0; i < m.Len(); i++ {
		for j := 0; j < m.Len(); j++ {
			if i != j && !m.Reachable(i, j) {
				count++
			}
		}
	}
	return
}

// BuildCostMatrix prices every ordered pair of the object set under the
// provided strategy. A strategy error on a single pair never aborts the
// build: the pair is recorded as Unreachable and the rest of the set is
// still analyzed. Input objects are never mutated. Entries are filled by a
// bounded worker pool writing to disjoint cells; the result is bit-identical
// for any worker count, including the sequential Workers == 1 case.
func BuildCostMatrix(objects []DebrisObject, strategy TransferStrategy, cfg MissionConfig) (*CostMatrix, error) {
	if err := cfg.validateFor(strategy); err != nil {
		return nil, err
	}
	n := len(objects)
	if n == 0 {
		return nil, fmt.Errorf("cannot build a cost matrix without objects")
	}
	// Snapshot the orbits, propagating to the departure epoch when one is
	// set. An object that cannot be propagated poisons only its own pairs.
	orbits := make([]Orbit, n)
	bad := make([]bool, n)
	for i, obj := range objects {
		if cfg.DepartureEpoch.IsZero() {
			orbits[i] = obj.Orbit
			continue
		}
		prop, err := obj.AtEpoch(cfg.DepartureEpoch)
		if err != nil {
			bad[i] = true
			orbits[i] = obj.Orbit
			continue
		}
		orbits[i] = prop.Orbit
	}

	m := &CostMatrix{
		Strategy: strategy,
		Config:   cfg,
		Δv:       make([][]float64, n),
		TOF:      make([][]time.Duration, n),
		Wait:     make([][]time.Duration, n),
	}
	for i := 0; i < n; i++ {
		m.Δv[i] = make([]float64, n)
		m.TOF[i] = make([]time.Duration, n)
		m.Wait[i] = make([]time.Duration, n)
	}

	model := strategy.model()
	fillRow := func(i int) {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if bad[i] || bad[j] {
				m.Δv[i][j] = Unreachable
				continue
			}
			leg, err := model.cost(orbits[i], orbits[j], cfg)
			if err != nil {
				m.Δv[i][j] = Unreachable
				continue
			}
			m.Δv[i][j] = leg.Δv
			m.TOF[i][j] = leg.TOF
			m.Wait[i][j] = leg.Wait
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || n == 1 {
		for i := 0; i < n; i++ {
			fillRow(i)
		}
		return m, nil
	}
	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				fillRow(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		rows <- i
	}
	close(rows)
	wg.Wait()
	return m, nil
}

// MatrixCache memoizes built matrices across repeated queries. The cache is
// an explicit value owned by the caller; the package itself keeps no
// process-wide state between calls. Safe for concurrent use.
type MatrixCache struct {
	mu      sync.Mutex
	entries map[string]*CostMatrix
}

// NewMatrixCache returns an empty cache.
func NewMatrixCache() *MatrixCache {
	return &MatrixCache{entries: make(map[string]*CostMatrix)}
}

// Get returns the cached matrix for this exact object set, strategy and
// configuration, if one was stored.
func (c *MatrixCache) Get(objects []DebrisObject, strategy TransferStrategy, cfg MissionConfig) (*CostMatrix, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[cacheKey(objects, strategy, cfg)]
	return m, ok
}

// Put stores a built matrix under its object set, strategy and configuration.
func (c *MatrixCache) Put(objects []DebrisObject, strategy TransferStrategy, cfg MissionConfig, m *CostMatrix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(objects, strategy, cfg)] = m
}

// cacheKey identifies a build by object set, strategy and the configuration
// fields which affect pricing. Worker count and solver knobs are excluded:
// they never change the entries.
func cacheKey(objects []DebrisObject, strategy TransferStrategy, cfg MissionConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "s%d|pc%d|tol%.12e|tof%d|wait%d|acc%.12e|epoch%s|", strategy, cfg.PlaneChange,
		cfg.CoplanarTolerance, cfg.DesiredTOF, cfg.MaxPhasingWait, cfg.ThrustAccel,
		cfg.DepartureEpoch.UTC().Format(time.RFC3339Nano))
	for _, obj := range objects {
		a, e, i, Ω, ω, ν := obj.Orbit.Elements()
		fmt.Fprintf(&b, "%d:%.12e,%.12e,%.12e,%.12e,%.12e,%.12e,%d;", obj.ID, a, e, i, Ω, ω, ν, obj.Epoch.UnixNano())
	}
	return b.String()
}
