// Package changeset implements the change-detection engine (spec.md
// §4.7): it joins the current build's compilation units against the
// cached set from the prior build and classifies each as an interface,
// implementation, or dependency change, a new file, a deleted file, or no
// change, then derives the recompilation lists the rebuild optimizer
// consumes.
package changeset

import (
	"github.com/janus-lang/janus-sub014/internal/cid"
	"github.com/janus-lang/janus-sub014/internal/graph"
	"github.com/janus-lang/janus-sub014/internal/unit"
)

// Kind discriminates the classification of one unit's change.
type Kind uint8

const (
	NoChange Kind = iota
	InterfaceChange
	ImplementationChange
	DependencyChange
	NewFile
	DeletedFile
)

func (k Kind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case InterfaceChange:
		return "interface_change"
	case ImplementationChange:
		return "implementation_change"
	case DependencyChange:
		return "dependency_change"
	case NewFile:
		return "new_file"
	case DeletedFile:
		return "deleted_file"
	default:
		return "unknown"
	}
}

// Scope classifies the extent of an implementation_change, used only by
// the rebuild optimizer's heuristics (spec.md §4.8/§9). It is derived
// here from the CID byte-diff count as an interim, explicitly unsound
// stand-in for a real AST-diff pass — spec.md §9 says so directly — so
// only two scopes are ever produced: `Cosmetic` under a narrow condition
// and `FunctionBodies` otherwise (see classifyScope).
type Scope uint8

const (
	ScopeUnknown Scope = iota
	ScopeCosmetic
	ScopeLocalScope
	ScopePrivateMembers
	ScopeFunctionBodies
	ScopeAlgorithms
	ScopeMixed
)

// ImpactClass re-exports cid.ImpactClass under the change-detection
// vocabulary used by spec.md §3 ("impact class").
type ImpactClass = cid.ImpactClass

// Details is the kind-tagged payload of a Result, carrying previous and
// current CIDs, scope, and impact class (spec.md §3).
type Details struct {
	PreviousInterfaceCID  cid.CID
	CurrentInterfaceCID   cid.CID
	PreviousSemanticCID   cid.CID
	CurrentSemanticCID    cid.CID
	PreviousDependencyCID cid.CID
	CurrentDependencyCID  cid.CID
	Scope                 Scope
	Impact                ImpactClass
}

// Result is one unit's classification outcome.
type Result struct {
	SourceFile        string
	Kind              Kind
	Details           Details
	NeedsRecompile    bool
	AffectsDependents bool
}

// Metrics carries the aggregate, purely informational counts spec.md
// §3/§8 scenario 1 references (e.g. "changes.len == N").
type Metrics struct {
	TotalUnits       int
	UnchangedUnits   int
	InterfaceChanges int
	ImplChanges      int
	DependencyChanges int
	NewFiles         int
	DeletedFiles     int
}

// ChangeSet aggregates every classification result for one build plus the
// derived lists the optimizer and the external compiler driver consume.
type ChangeSet struct {
	Results []Result

	ToRecompile    []string
	AffectedByDeps []string
	NewFiles       []string
	DeletedFiles   []string

	Stats Metrics
}

// HasInterfaceChanges reports whether any unit was classified as an
// interface_change, per spec.md §8 scenario 1's
// `hasInterfaceChanges == false` check.
func (cs ChangeSet) HasInterfaceChanges() bool {
	for _, r := range cs.Results {
		if r.Kind == InterfaceChange {
			return true
		}
	}
	return false
}

// UnitsToRecompile returns len(cs.ToRecompile), matching spec.md §8
// scenario 1's `units_to_recompile == 0` summary field name.
func (cs ChangeSet) UnitsToRecompile() int { return len(cs.ToRecompile) }

// DetectChanges joins current against cached and classifies every unit,
// per spec.md §4.7's algorithm. It does not consult the graph; call
// PropagateChanges afterward to add transitive interface dependents.
func DetectChanges(current, cached []unit.Unit) ChangeSet {
	cachedByFile := make(map[string]unit.Unit, len(cached))
	for _, u := range cached {
		cachedByFile[u.SourceFile] = u
	}

	seenCurrent := make(map[string]bool, len(current))
	var cs ChangeSet

	for _, cur := range current {
		seenCurrent[cur.SourceFile] = true
		old, existed := cachedByFile[cur.SourceFile]
		if !existed {
			cs.Results = append(cs.Results, classifyNew(cur))
			continue
		}
		cs.Results = append(cs.Results, classifyExisting(old, cur))
	}

	for _, old := range cached {
		if !seenCurrent[old.SourceFile] {
			cs.Results = append(cs.Results, classifyDeleted(old))
		}
	}

	populateDerivedLists(&cs)
	return cs
}

func classifyNew(cur unit.Unit) Result {
	return Result{
		SourceFile:        cur.SourceFile,
		Kind:              NewFile,
		NeedsRecompile:    true,
		AffectsDependents: true,
		Details: Details{
			CurrentInterfaceCID:   cur.InterfaceCID,
			CurrentSemanticCID:    cur.SemanticCID,
			CurrentDependencyCID:  cur.DependencyCID,
		},
	}
}

func classifyDeleted(old unit.Unit) Result {
	return Result{
		SourceFile:     old.SourceFile,
		Kind:           DeletedFile,
		NeedsRecompile: false,
		Details: Details{
			PreviousInterfaceCID:  old.InterfaceCID,
			PreviousSemanticCID:   old.SemanticCID,
			PreviousDependencyCID: old.DependencyCID,
		},
	}
}

// classifyExisting applies spec.md §4.7's ordered, first-mismatch rule:
// interface_change > implementation_change > dependency_change >
// no_change. An unknown/unexpected condition is never silent; the
// classification always lands in one of the six kinds, defaulting toward
// the safest (recompile) choice, per spec.md §4.7/§7.
func classifyExisting(old, cur unit.Unit) Result {
	details := Details{
		PreviousInterfaceCID:  old.InterfaceCID,
		CurrentInterfaceCID:   cur.InterfaceCID,
		PreviousSemanticCID:   old.SemanticCID,
		CurrentSemanticCID:    cur.SemanticCID,
		PreviousDependencyCID: old.DependencyCID,
		CurrentDependencyCID:  cur.DependencyCID,
	}

	ifaceCmp := cid.CompareInterface(old.InterfaceCID, cur.InterfaceCID)
	if !ifaceCmp.Equal {
		details.Impact = cid.GenerateDiagnostics(ifaceCmp).Impact
		return Result{
			SourceFile:        cur.SourceFile,
			Kind:              InterfaceChange,
			Details:           details,
			NeedsRecompile:    true,
			AffectsDependents: true,
		}
	}

	semCmp := cid.CompareSemantic(old.SemanticCID, cur.SemanticCID)
	if !semCmp.Equal {
		details.Impact = cid.GenerateDiagnostics(semCmp).Impact
		details.Scope = classifyScope(semCmp)
		return Result{
			SourceFile:        cur.SourceFile,
			Kind:              ImplementationChange,
			Details:           details,
			NeedsRecompile:    true,
			AffectsDependents: false,
		}
	}

	depCmp := cid.CompareDependency(old.DependencyCID, cur.DependencyCID)
	if !depCmp.Equal {
		details.Impact = cid.GenerateDiagnostics(depCmp).Impact
		return Result{
			SourceFile:        cur.SourceFile,
			Kind:              DependencyChange,
			Details:           details,
			NeedsRecompile:    true,
			AffectsDependents: false,
		}
	}

	return Result{SourceFile: cur.SourceFile, Kind: NoChange, Details: details}
}

// classifyScope is the narrow, explicitly-conservative scope classifier
// spec.md §9 calls for pending a real AST-diff pass: it assigns Cosmetic
// only when the hash difference is a single byte — the smallest possible BLAKE3 perturbation, which is still
// not a soundness guarantee (spec.md §9 warns a one-bit source change can
// yield a large hash diff) but keeps this classifier from ever claiming
// more confidence than it has. Every other case is ScopeFunctionBodies,
// the safest non-propagating default.
func classifyScope(cmp cid.CompareResult) Scope {
	if cmp.HashDiffBytes == 1 {
		return ScopeCosmetic
	}
	return ScopeFunctionBodies
}

func populateDerivedLists(cs *ChangeSet) {
	cs.Stats.TotalUnits = len(cs.Results)
	seenRecompile := make(map[string]bool)

	addRecompile := func(file string) {
		if !seenRecompile[file] {
			seenRecompile[file] = true
			cs.ToRecompile = append(cs.ToRecompile, file)
		}
	}

	for _, r := range cs.Results {
		switch r.Kind {
		case InterfaceChange:
			cs.Stats.InterfaceChanges++
			if r.NeedsRecompile {
				addRecompile(r.SourceFile)
			}
		case ImplementationChange:
			cs.Stats.ImplChanges++
			if r.NeedsRecompile {
				addRecompile(r.SourceFile)
			}
		case DependencyChange:
			cs.Stats.DependencyChanges++
			cs.AffectedByDeps = append(cs.AffectedByDeps, r.SourceFile)
			addRecompile(r.SourceFile)
		case NewFile:
			cs.Stats.NewFiles++
			cs.NewFiles = append(cs.NewFiles, r.SourceFile)
			addRecompile(r.SourceFile)
		case DeletedFile:
			cs.Stats.DeletedFiles++
			cs.DeletedFiles = append(cs.DeletedFiles, r.SourceFile)
		case NoChange:
			cs.Stats.UnchangedUnits++
		}
	}
}

// PropagateChanges walks the graph from every interface_change and
// new_file result and unions the transitive interface-dependent closure
// (once each) into ToRecompile and AffectedByDeps, per spec.md §4.7 step
// 5. It is idempotent: calling it twice on the same ChangeSet and graph
// produces the same result as calling it once, since it only ever adds
// members of a set.
func PropagateChanges(cs *ChangeSet, g *graph.Graph) error {
	toRecompile := make(map[string]bool, len(cs.ToRecompile))
	for _, f := range cs.ToRecompile {
		toRecompile[f] = true
	}
	affected := make(map[string]bool, len(cs.AffectedByDeps))
	for _, f := range cs.AffectedByDeps {
		affected[f] = true
	}

	var roots []string
	for _, r := range cs.Results {
		if r.Kind == InterfaceChange || r.Kind == NewFile {
			roots = append(roots, r.SourceFile)
		}
	}

	for _, root := range roots {
		node, ok := g.GetNodeByFile(root)
		if !ok {
			continue // unit not yet present in the graph (e.g. first build): nothing to propagate
		}
		set, err := g.RebuildSet(node.ID)
		if err != nil {
			return err
		}
		for _, id := range set {
			n, ok := g.GetNode(id)
			if !ok {
				continue
			}
			if !toRecompile[n.SourceFile] {
				toRecompile[n.SourceFile] = true
				cs.ToRecompile = append(cs.ToRecompile, n.SourceFile)
			}
			if !affected[n.SourceFile] {
				affected[n.SourceFile] = true
				cs.AffectedByDeps = append(cs.AffectedByDeps, n.SourceFile)
			}
		}
	}
	return nil
}
