package optimizer

import (
	"testing"
	"time"

	"github.com/janus-lang/janus-sub014/internal/changeset"
	"github.com/janus-lang/janus-sub014/internal/cid"
	"github.com/janus-lang/janus-sub014/internal/config"
	"github.com/janus-lang/janus-sub014/internal/graph"
	"github.com/janus-lang/janus-sub014/internal/unit"
)

func mustCID(b byte) cid.CID {
	var c cid.CID
	c[0] = b
	return c
}

func TestResolveBalancedEnablesAllTechniques(t *testing.T) {
	p := Resolve(config.StrategyBalanced, config.New())
	if !p.HeuristicsEnabled || !p.TransitivePruning || !p.BatchOptimization {
		t.Errorf("balanced strategy should enable every technique: %+v", p)
	}
}

func TestResolveConservativeDisablesEverything(t *testing.T) {
	p := Resolve(config.StrategyConservative, config.New())
	if p.HeuristicsEnabled || p.TransitivePruning || p.BatchOptimization {
		t.Errorf("conservative strategy must disable every technique: %+v", p)
	}
}

func TestOptimizeIsSupersetOfConservativeBaseline(t *testing.T) {
	cs := changeset.ChangeSet{
		Results: []changeset.Result{
			{SourceFile: "a.jn", Kind: changeset.ImplementationChange, NeedsRecompile: true,
				Details: changeset.Details{Scope: changeset.ScopeCosmetic}},
			{SourceFile: "b.jn", Kind: changeset.InterfaceChange, NeedsRecompile: true, AffectsDependents: true},
		},
		ToRecompile: []string{"a.jn", "b.jn"},
	}
	g := graph.New()
	g.AddNode(unit.New("a.jn", 0, mustCID(1), mustCID(1), mustCID(1)))
	g.AddNode(unit.New("b.jn", 0, mustCID(2), mustCID(2), mustCID(2)))

	cfg := config.New()
	baseline := Optimize(cs, g, config.StrategyConservative, cfg)
	optimized := Optimize(cs, g, config.StrategyAggressive, cfg)

	base := toSet(baseline.ToRecompile)
	optSet := toSet(optimized.ToRecompile)
	for f := range base {
		if !optSet[f] {
			t.Errorf("optimized set %v missing %q present in conservative baseline %v", optimized.ToRecompile, f, baseline.ToRecompile)
		}
	}
	if !optimized.Safety.IsSafe {
		t.Errorf("Safety.IsSafe = false, want true: %+v", optimized.Safety)
	}
}

func TestHeuristicClearsCosmeticImplementationChange(t *testing.T) {
	cs := changeset.ChangeSet{
		Results: []changeset.Result{
			{SourceFile: "a.jn", Kind: changeset.ImplementationChange, NeedsRecompile: true,
				Details: changeset.Details{Scope: changeset.ScopeCosmetic}},
		},
		ToRecompile: []string{"a.jn"},
	}
	g := graph.New()
	g.AddNode(unit.New("a.jn", 0, mustCID(1), mustCID(1), mustCID(1)))

	result := Optimize(cs, g, config.StrategyAggressive, config.New())
	if len(result.ToRecompile) != 0 {
		t.Errorf("ToRecompile = %v, want empty after cosmetic heuristic", result.ToRecompile)
	}
	if result.Metrics.HeuristicsApplied != 1 {
		t.Errorf("HeuristicsApplied = %d, want 1", result.Metrics.HeuristicsApplied)
	}
}

func TestBudgetExceededFallsBackToOriginalSet(t *testing.T) {
	cs := changeset.ChangeSet{
		Results: []changeset.Result{
			{SourceFile: "a.jn", Kind: changeset.ImplementationChange, NeedsRecompile: true,
				Details: changeset.Details{Scope: changeset.ScopeCosmetic}},
		},
		ToRecompile: []string{"a.jn"},
	}
	g := graph.New()
	g.AddNode(unit.New("a.jn", 0, mustCID(1), mustCID(1), mustCID(1)))

	cfg := config.New(config.WithOptimizationBudget(0))
	time.Sleep(time.Millisecond) // Optimize sets its deadline to its own start time, so every budget check fails
	result := Optimize(cs, g, config.StrategyAggressive, cfg)

	if !result.Metrics.BudgetExceeded {
		t.Fatalf("expected BudgetExceeded = true with a zero time budget")
	}
	if len(result.ToRecompile) != 1 || result.ToRecompile[0] != "a.jn" {
		t.Errorf("ToRecompile = %v, want unchanged [a.jn] on budget exceeded", result.ToRecompile)
	}
}

func TestTransitivePruningKeepsDirectlyChangedUnits(t *testing.T) {
	g := graph.New()
	core := g.AddNode(unit.New("core.jn", 0, mustCID(1), mustCID(1), mustCID(1)))
	dep := g.AddNode(unit.New("dep.jn", 0, mustCID(2), mustCID(2), mustCID(2)))
	if err := g.AddDependency(dep, core, graph.InterfaceEdge); err != nil {
		t.Fatal(err)
	}

	cs := changeset.ChangeSet{
		Results: []changeset.Result{
			{SourceFile: "core.jn", Kind: changeset.InterfaceChange, NeedsRecompile: true, AffectsDependents: true},
			{SourceFile: "dep.jn", Kind: changeset.NoChange},
		},
		ToRecompile: []string{"core.jn", "dep.jn"},
	}

	result := Optimize(cs, g, config.StrategyAggressive, config.New())
	found := false
	for _, f := range result.ToRecompile {
		if f == "core.jn" {
			found = true
		}
	}
	if !found {
		t.Errorf("ToRecompile = %v, must always keep the directly-changed unit core.jn", result.ToRecompile)
	}
}
