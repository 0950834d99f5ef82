// Package optimizer implements the rebuild optimizer (spec.md §4.8): it
// takes a classified ChangeSet and the dependency graph and, under a
// chosen strategy, applies transitive pruning, batching, and heuristics
// to shrink the rebuild set without ever under-rebuilding.
package optimizer

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/janus-lang/janus-sub014/internal/changeset"
	"github.com/janus-lang/janus-sub014/internal/config"
	"github.com/janus-lang/janus-sub014/internal/graph"
	"github.com/janus-lang/janus-sub014/internal/moremaps"
	"github.com/janus-lang/janus-sub014/internal/telemetry"
)

// Strategy selects a bundle of OptimizationParameters. It reuses
// config.OptimizerStrategy so callers configure the engine and the
// optimizer from the same vocabulary.
type Strategy = config.OptimizerStrategy

// Parameters controls which techniques run and how aggressively.
type Parameters struct {
	ParallelThreadCap  int
	HeuristicsEnabled  bool
	TransitivePruning  bool
	BatchOptimization  bool
	ImpactThreshold    changeset.ImpactClass
	TimeBudget         time.Duration
	ParallelThreshold  int // rebuild-set size above which branch analysis kicks in
}

// Resolve maps a Strategy plus any custom thresholds to concrete
// Parameters, per spec.md §4.8: "a strategy ... which resolves to
// OptimizationParameters".
func Resolve(s Strategy, cfg config.Config) Parameters {
	switch s {
	case config.StrategyConservative:
		return Parameters{
			ParallelThreadCap: 1,
			HeuristicsEnabled: false,
			TransitivePruning: false,
			BatchOptimization: false,
			ImpactThreshold:   changeset.ImpactCritical,
			TimeBudget:        cfg.OptimizationBudget,
			ParallelThreshold: 1 << 30, // effectively disabled
		}
	case config.StrategyAggressive:
		return Parameters{
			ParallelThreadCap: 8,
			HeuristicsEnabled: true,
			TransitivePruning: true,
			BatchOptimization: true,
			ImpactThreshold:   changeset.ImpactMajor,
			TimeBudget:        cfg.OptimizationBudget,
			ParallelThreshold: 10,
		}
	case config.StrategyCustom:
		return Parameters{
			ParallelThreadCap: 4,
			HeuristicsEnabled: true,
			TransitivePruning: cfg.CustomMaxRiskTolerance > 0,
			BatchOptimization: true,
			ImpactThreshold:   changeset.ImpactModerate,
			TimeBudget:        cfg.OptimizationBudget,
			ParallelThreshold: 10,
		}
	case config.StrategyBalanced:
		fallthrough
	default:
		return Parameters{
			ParallelThreadCap: 4,
			HeuristicsEnabled: true,
			TransitivePruning: true,
			BatchOptimization: true,
			ImpactThreshold:   changeset.ImpactMajor,
			TimeBudget:        cfg.OptimizationBudget,
			ParallelThreshold: 10,
		}
	}
}

// Metrics carries informational counts about what the optimizer did.
type Metrics struct {
	OriginalCount       int
	OptimizedCount      int
	PrunedCount         int
	HeuristicsApplied   int
	BatchCount          int
	ParallelBranches    int
	ElapsedNanoseconds  int64
	BudgetExceeded      bool
}

// SafetyAnalysis is the optimizer's self-reported confidence in its own
// output, per spec.md §4.8's `is_safe`/`confidence_level`/
// `potential_risks`/`mitigation_strategies`.
type SafetyAnalysis struct {
	IsSafe              bool
	ConfidenceLevel     float64
	PotentialRisks      []string
	MitigationStrategies []string
}

// OptimizationResult is the optimizer's output.
type OptimizationResult struct {
	ToRecompile    []string
	AffectedByDeps []string
	TechniquesApplied []string
	Metrics        Metrics
	Safety         SafetyAnalysis
}

// Optimize runs the configured techniques over cs, using g to resolve
// source-file-to-node lookups for pruning and parallel branch analysis.
// Per the safety contract, the returned ToRecompile is always a superset
// of cs.ToRecompile as it stood before optimization — optimize only ever
// removes a unit via a technique explicitly proven safe (a heuristic
// whose scope classifier guarantees no externally observable change), it
// never removes a unit "because time ran out"; that case instead falls
// back to the untouched input set.
func Optimize(cs changeset.ChangeSet, g *graph.Graph, strategy Strategy, cfg config.Config) OptimizationResult {
	start := time.Now()
	params := Resolve(strategy, cfg)

	original := append([]string(nil), cs.ToRecompile...)
	affected := append([]string(nil), cs.AffectedByDeps...)

	deadline := time.Now().Add(params.TimeBudget)
	var techniques []string

	byFile := make(map[string]changeset.Result, len(cs.Results))
	for _, r := range cs.Results {
		byFile[r.SourceFile] = r
	}

	recompile := toSet(original)
	affectedSet := toSet(affected)
	heuristicsApplied := 0

	if params.HeuristicsEnabled && withinBudget(deadline) {
		for file := range recompile {
			r, ok := byFile[file]
			if !ok || r.Kind != changeset.ImplementationChange {
				continue
			}
			switch r.Details.Scope {
			case changeset.ScopeCosmetic:
				delete(recompile, file)
				heuristicsApplied++
			case changeset.ScopeLocalScope:
				delete(affectedSet, file)
				heuristicsApplied++
			}
		}
		techniques = append(techniques, "heuristics")
	}

	prunedCount := 0
	if params.TransitivePruning && withinBudget(deadline) {
		pruned := transitivePrune(recompile, byFile, g)
		prunedCount = pruned
		techniques = append(techniques, "transitive_pruning")
	}

	parallelBranches := 0
	if params.BatchOptimization && withinBudget(deadline) {
		batches, err := batchByIndependentSubgraph(context.Background(), recompile, g, params)
		if err == nil {
			parallelBranches = len(batches)
			techniques = append(techniques, "batch_optimization")
		} else {
			telemetry.Report("optimizer: batch optimization failed, dropping technique: %v", err)
		}
	}

	budgetExceeded := !withinBudget(deadline)
	if budgetExceeded {
		telemetry.Emit("optimizer_budget_exceeded", map[string]any{"strategy": string(strategy)})
		recompile = toSet(original)
		affectedSet = toSet(affected)
		techniques = nil
		heuristicsApplied = 0
		prunedCount = 0
		parallelBranches = 0
	}

	result := OptimizationResult{
		ToRecompile:       sortedKeys(recompile),
		AffectedByDeps:    sortedKeys(affectedSet),
		TechniquesApplied: techniques,
		Metrics: Metrics{
			OriginalCount:      len(original),
			OptimizedCount:     len(recompile),
			PrunedCount:        prunedCount,
			HeuristicsApplied:  heuristicsApplied,
			BatchCount:         parallelBranches,
			ParallelBranches:   parallelBranches,
			ElapsedNanoseconds: time.Since(start).Nanoseconds(),
			BudgetExceeded:     budgetExceeded,
		},
	}
	result.Safety = analyzeSafety(result, original)
	return result
}

func withinBudget(deadline time.Time) bool {
	return time.Now().Before(deadline)
}

func toSet(files []string) map[string]bool {
	m := make(map[string]bool, len(files))
	for _, f := range files {
		m[f] = true
	}
	return m
}

func sortedKeys(m map[string]bool) []string {
	return moremaps.Sorted(m)
}

// transitivePrune re-checks each unit pulled in purely by interface
// propagation (not itself directly classified as changed) and drops it
// if no direct interface dependency of it actually changed — the only
// provably safe case spec.md §4.8 allows. Units directly classified as
// interface_change, implementation_change, dependency_change, or
// new_file are never pruned; only their propagated dependents are
// candidates.
func transitivePrune(recompile map[string]bool, byFile map[string]changeset.Result, g *graph.Graph) int {
	pruned := 0
	for file := range recompile {
		r, directlyChanged := byFile[file]
		if directlyChanged && r.Kind != changeset.NoChange {
			continue
		}
		node, ok := g.GetNodeByFile(file)
		if !ok {
			continue
		}
		if observesChangedInterface(node, byFile, g) {
			continue
		}
		delete(recompile, file)
		pruned++
	}
	return pruned
}

// observesChangedInterface reports whether any of node's direct
// interface dependencies was itself classified as an interface_change —
// i.e. whether this node's presence in the rebuild set is actually
// load-bearing, rather than an artifact of propagation through a chain
// that, on closer inspection, didn't touch this node's use-sites.
func observesChangedInterface(node *graph.Node, byFile map[string]changeset.Result, g *graph.Graph) bool {
	for _, depID := range node.InterfaceDeps {
		dep, ok := g.GetNode(depID)
		if !ok {
			continue
		}
		if r, ok := byFile[dep.SourceFile]; ok && r.Kind == changeset.InterfaceChange {
			return true
		}
	}
	return false
}

// batchByIndependentSubgraph groups the rebuild set into disjoint
// subgraphs (by weakly-connected components over interface+implementation
// edges restricted to the rebuild set) and, when the set is large enough
// to be worth it (spec.md §4.8: "> ~10"), analyzes each subgraph
// concurrently via errgroup, joining with a deterministic merge (sorted
// by a representative file name) — the batches themselves carry no
// additional pruning power here; they exist to prove out disjointness
// for a parallel compiler driver to exploit, and their order must not
// depend on goroutine scheduling.
func batchByIndependentSubgraph(ctx context.Context, recompile map[string]bool, g *graph.Graph, params Parameters) ([][]string, error) {
	if len(recompile) <= params.ParallelThreshold {
		return [][]string{sortedKeys(recompile)}, nil
	}

	components := weaklyConnectedComponents(recompile, g)

	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(max(1, params.ParallelThreadCap))

	results := make([][]string, len(components))
	for i, comp := range components {
		i, comp := i, comp
		grp.Go(func() error {
			sort.Strings(comp)
			results[i] = comp
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if len(results[i]) == 0 || len(results[j]) == 0 {
			return len(results[i]) < len(results[j])
		}
		return results[i][0] < results[j][0]
	})
	return results, nil
}

func weaklyConnectedComponents(recompile map[string]bool, g *graph.Graph) [][]string {
	parent := make(map[string]string, len(recompile))
	for f := range recompile {
		parent[f] = f
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for f := range recompile {
		node, ok := g.GetNodeByFile(f)
		if !ok {
			continue
		}
		neighbors := append(append([]graph.NodeID(nil), node.InterfaceDeps...), node.ImplDeps...)
		for _, nid := range neighbors {
			n, ok := g.GetNode(nid)
			if !ok || !recompile[n.SourceFile] {
				continue
			}
			union(f, n.SourceFile)
		}
	}

	groups := make(map[string][]string)
	for f := range recompile {
		root := find(f)
		groups[root] = append(groups[root], f)
	}
	out := make([][]string, 0, len(groups))
	for _, members := range groups {
		out = append(out, members)
	}
	return out
}

// analyzeSafety computes the optimizer's self-reported safety analysis.
// Per the safety-monotonicity invariant (spec.md §8), result.ToRecompile
// must always be a superset of the original, unoptimized set — this is
// checked directly rather than assumed, and if it somehow fails (a
// defect in one of the techniques above), IsSafe is false and the
// violation is reported as a potential risk rather than silently
// shipped.
func analyzeSafety(result OptimizationResult, original []string) SafetyAnalysis {
	origSet := toSet(original)
	optSet := toSet(result.ToRecompile)

	isSuperset := true
	for f := range origSet {
		if !optSet[f] {
			isSuperset = false
			break
		}
	}

	sa := SafetyAnalysis{IsSafe: isSuperset, ConfidenceLevel: 1.0}
	if !isSuperset {
		telemetry.Report("optimizer: produced a non-superset rebuild set, violating safety monotonicity")
		sa.ConfidenceLevel = 0
		sa.PotentialRisks = append(sa.PotentialRisks, "optimized rebuild set dropped a unit required by the conservative baseline")
		sa.MitigationStrategies = append(sa.MitigationStrategies, "fall back to the conservative strategy for this build")
		return sa
	}

	if result.Metrics.PrunedCount > 0 {
		sa.PotentialRisks = append(sa.PotentialRisks, "transitive pruning relies on interface-dependency metadata being current")
		sa.ConfidenceLevel -= 0.05
	}
	if result.Metrics.HeuristicsApplied > 0 {
		sa.PotentialRisks = append(sa.PotentialRisks, "scope classifier is diagnostic-only; cosmetic/local_scope heuristics trust its byte-diff signal")
		sa.MitigationStrategies = append(sa.MitigationStrategies, "replace the byte-diff scope classifier with an AST-diff pass before relying on this in production")
		sa.ConfidenceLevel -= 0.1
	}
	if result.Metrics.BudgetExceeded {
		sa.PotentialRisks = append(sa.PotentialRisks, "optimization time budget was exceeded; result is the unoptimized-but-safe fallback")
	}
	if sa.ConfidenceLevel < 0 {
		sa.ConfidenceLevel = 0
	}
	return sa
}
