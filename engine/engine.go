// Package engine wires the nine components together into the single
// per-build pipeline spec.md §2 describes: Snapshot → Extractor → CID
// Generators → Compilation Units, graph construction, change detection
// against a prior cache, rebuild optimization, and the resulting
// recompile set. It is the one exported entry point; every algorithm it
// calls lives in internal/ and is independently testable on its own.
package engine

import (
	"time"

	"github.com/janus-lang/janus-sub014/internal/changeset"
	"github.com/janus-lang/janus-sub014/internal/cid"
	"github.com/janus-lang/janus-sub014/internal/config"
	"github.com/janus-lang/janus-sub014/internal/graph"
	"github.com/janus-lang/janus-sub014/internal/interfaceextract"
	"github.com/janus-lang/janus-sub014/internal/optimizer"
	"github.com/janus-lang/janus-sub014/internal/snapshot"
	"github.com/janus-lang/janus-sub014/internal/telemetry"
	"github.com/janus-lang/janus-sub014/internal/unit"
)

// Engine owns the configuration and, across builds, the prior build's
// compilation units and dependency graph — the only process-wide state
// this module keeps, per spec.md §5's shared-resource policy.
type Engine struct {
	Config config.Config

	cached []unit.Unit
	graph  *graph.Graph
}

// New returns an Engine configured with cfg and no prior build state
// (every unit will classify as new_file on the first Build call).
func New(cfg config.Config) *Engine {
	return &Engine{Config: cfg, graph: graph.New()}
}

// SourceUnit is one source file's input to a build: its parsed root in
// some Snapshot, plus the source file path the Unit model keys on.
type SourceUnit struct {
	SourceFile string
	Root       snapshot.NodeID
}

// Dependency declares that From depends On, with the given edge kind,
// discovered by the caller's own import/use-site analysis (out of this
// module's scope — spec.md §1's "out of scope: the lexer/parser").
type Dependency struct {
	From, On string
	Kind     graph.EdgeKind
}

// BuildResult is one Build call's outcome: the classified change set,
// the optimizer's result, and the fresh compilation units now held as
// this Engine's cache for the next call.
type BuildResult struct {
	Changes   changeset.ChangeSet
	Optimized optimizer.OptimizationResult
	Units     []unit.Unit
}

// Build runs one full incremental-compilation decision pass: extracts
// interfaces and generates CIDs for every SourceUnit against s, builds a
// fresh dependency graph from deps, detects and propagates changes
// against the Engine's previously cached units, and runs the rebuild
// optimizer under the configured strategy. The returned BuildResult's
// Units become the new cache for the Engine's next Build call.
func Build(e *Engine, s snapshot.Snapshot, sources []SourceUnit, deps []Dependency) (BuildResult, error) {
	start := time.Now()

	g := graph.New()
	nodeByFile := make(map[string]graph.NodeID, len(sources))
	unitByFile := make(map[string]unit.Unit, len(sources))

	for _, src := range sources {
		elems := interfaceextract.Extract(s, src.Root)
		ifaceCID := cid.InterfaceCIDOfElements(elems)
		semCID := cid.GenerateSemanticCID(s, src.Root)

		u := unit.New(src.SourceFile, src.Root, ifaceCID, semCID, cid.CID{})
		unitByFile[src.SourceFile] = u
		nodeByFile[src.SourceFile] = g.AddNode(u)
	}

	for _, d := range deps {
		srcID, ok := nodeByFile[d.From]
		if !ok {
			continue // dependency from a unit outside this build's source set
		}
		dstID, ok := nodeByFile[d.On]
		if !ok {
			continue
		}
		if err := g.AddDependency(srcID, dstID, d.Kind); err != nil {
			return BuildResult{}, err
		}
	}

	// DependencyCID recomputation: spec.md §9's open question requires
	// that whenever a direct dependency's InterfaceCID changes, the
	// dependent's DependencyCID reflects it before the next
	// needs_rebuild check. Since this Build call always regenerates
	// every unit's CIDs fresh from the current snapshot and graph, the
	// DependencyCID is simply derived here, once, from the now-final
	// graph's direct interface dependencies — never carried stale from a
	// prior build.
	units := make([]unit.Unit, 0, len(sources))
	for _, src := range sources {
		id := nodeByFile[src.SourceFile]
		node, _ := g.GetNode(id)
		depCIDs := make([]cid.CID, 0, len(node.InterfaceDeps))
		for _, depID := range node.InterfaceDeps {
			depNode, ok := g.GetNode(depID)
			if !ok {
				continue
			}
			depCIDs = append(depCIDs, unitByFile[depNode.SourceFile].InterfaceCID)
		}
		depCID := cid.GenerateDependencyCID(depCIDs)

		u := unitByFile[src.SourceFile]
		u.DependencyCID = depCID
		unitByFile[src.SourceFile] = u
		node.Unit = u
		units = append(units, u)
	}

	cs := changeset.DetectChanges(units, e.cached)
	if err := changeset.PropagateChanges(&cs, g); err != nil {
		return BuildResult{}, err
	}

	result := optimizer.Optimize(cs, g, e.Config.OptimizerStrategy, e.Config)

	telemetry.Emit("build_completed", map[string]any{
		"total_units":     cs.Stats.TotalUnits,
		"to_recompile":    len(result.ToRecompile),
		"elapsed_ns":      time.Since(start).Nanoseconds(),
		"optimizer_safe":  result.Safety.IsSafe,
	})

	e.cached = units
	e.graph = g

	return BuildResult{Changes: cs, Optimized: result, Units: units}, nil
}

// Graph returns the dependency graph from the Engine's most recent
// Build call, or an empty graph if none has run yet.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// CachedUnits returns a copy of the compilation units held after the
// Engine's most recent Build call.
func (e *Engine) CachedUnits() []unit.Unit {
	return append([]unit.Unit(nil), e.cached...)
}
