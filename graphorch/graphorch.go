// Package graphorch implements the GraphOrchestrator: it watches a stream of
// executed plans and, once an adjacent step pair becomes frequent, installs
// a fused kernel into the shared registry and seeds its cost in
// HardwareProfile.
//
// Plan history is a fixed-capacity slice with a write cursor, oldest entry
// dropped on overflow, rather than an unbounded append.
package graphorch

import (
	"log/slog"
	"sync"

	"github.com/sbl8/vpudispatch/hwprofile"
	"github.com/sbl8/vpudispatch/orchestrator"
	"github.com/sbl8/vpudispatch/registry"
	"github.com/sbl8/vpudispatch/task"
)

const (
	defaultFusionThreshold   = 10
	defaultAnalysisInterval  = 5
	defaultHistoryCapacity   = 256
	defaultFusedCostFallback = 100.0
	fusedCostScale           = 0.8
)

// GraphOrchestrator mines adjacent step-name pairs across recorded plans and
// synthesizes fused kernels once a pair crosses the fusion threshold.
type GraphOrchestrator struct {
	Registry *registry.Registry
	HW       *hwprofile.Profile
	Log      *slog.Logger

	FusionThreshold  int
	AnalysisInterval int

	mu       sync.Mutex
	history  []orchestrator.Plan
	capacity int
	writeAt  int
	full     bool
	recorded int
}

// New constructs a GraphOrchestrator with the default fusionThreshold=10,
// analysisInterval=5, and a bounded plan-history ring of capacity entries.
func New(reg *registry.Registry, hw *hwprofile.Profile, log *slog.Logger, capacity int) *GraphOrchestrator {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &GraphOrchestrator{
		Registry:         reg,
		HW:               hw,
		Log:              log,
		FusionThreshold:  defaultFusionThreshold,
		AnalysisInterval: defaultAnalysisInterval,
		history:          make([]orchestrator.Plan, capacity),
		capacity:         capacity,
	}
}

// RecordExecutedPlan appends plan to the bounded history ring and, once the
// recorded count is divisible by AnalysisInterval, runs pair-frequency
// analysis and fuses any pair that has crossed FusionThreshold.
//
// Fusion is best-effort: any inconsistency in the belief store is logged and
// swallowed rather than surfaced to the caller.
func (g *GraphOrchestrator) RecordExecutedPlan(plan orchestrator.Plan) {
	g.mu.Lock()
	g.history[g.writeAt] = plan
	g.writeAt = (g.writeAt + 1) % g.capacity
	if g.writeAt == 0 {
		g.full = true
	}
	g.recorded++
	shouldAnalyse := g.recorded%g.AnalysisInterval == 0
	snapshot := g.snapshotLocked()
	g.mu.Unlock()

	if !shouldAnalyse {
		return
	}
	g.analyse(snapshot)
}

func (g *GraphOrchestrator) snapshotLocked() []orchestrator.Plan {
	n := g.writeAt
	if g.full {
		n = g.capacity
	}
	out := make([]orchestrator.Plan, n)
	if !g.full {
		copy(out, g.history[:n])
		return out
	}
	// oldest entry is at writeAt when full; unroll into chronological order.
	copy(out, g.history[g.writeAt:])
	copy(out[g.capacity-g.writeAt:], g.history[:g.writeAt])
	return out
}

// analyse scans every recorded plan's adjacent step pairs, counting only
// pairs where both names are present in baseCost, excluding JIT_/EXECUTE_
// meta-steps and self-pairs, then fuses every pair at or above threshold.
func (g *GraphOrchestrator) analyse(plans []orchestrator.Plan) {
	defer func() {
		if r := recover(); r != nil {
			g.Log.Warn("graph orchestrator analysis panicked, swallowing", "recover", r)
		}
	}()

	counts := make(map[[2]string]int)
	for _, plan := range plans {
		for i := 0; i+1 < len(plan.Steps); i++ {
			a, b := plan.Steps[i].OpName, plan.Steps[i+1].OpName
			if !g.isFusible(a, b) {
				continue
			}
			counts[[2]string{a, b}]++
		}
	}

	for pair, count := range counts {
		if count < g.FusionThreshold {
			continue
		}
		g.fuse(pair[0], pair[1])
	}
}

func (g *GraphOrchestrator) isFusible(a, b string) bool {
	if a == b {
		return false
	}
	if isMetaStep(a) || isMetaStep(b) {
		return false
	}
	_, aOK := g.HW.BaseCost(a)
	_, bOK := g.HW.BaseCost(b)
	return aOK && bOK
}

func isMetaStep(name string) bool {
	return hasPrefix(name, "JIT_") || hasPrefix(name, "EXECUTE_")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// fuse installs "FUSED_a_b" as a placeholder callable if absent, and seeds
// its base cost as 0.8*(baseCost[a]+baseCost[b]), defaulting a missing
// operand to 100.0.
func (g *GraphOrchestrator) fuse(a, b string) {
	fusedName := "FUSED_" + a + "_" + b

	installed := g.Registry.InstallIfAbsent(fusedName, placeholderFusedKernel)
	if !installed {
		return
	}

	costA := g.costOrDefault(a)
	costB := g.costOrDefault(b)
	g.HW.SetBaseCost(fusedName, fusedCostScale*(costA+costB))
	g.Log.Info("fused kernel installed", "name", fusedName, "base_cost", fusedCostScale*(costA+costB))
}

func (g *GraphOrchestrator) costOrDefault(name string) float64 {
	if v, ok := g.HW.BaseCost(name); ok {
		return v
	}
	return defaultFusedCostFallback
}

// placeholderFusedKernel is installed for a newly-fused pair. Actually
// executing a fused sequence as a single kernel call is out of scope; this
// stub keeps registry.Contains(fusedName) true and reports zero cost, so
// re-recording the same pattern never creates a second entry.
func placeholderFusedKernel(_ *task.Task) registry.FluxReport {
	return registry.FluxReport{}
}
