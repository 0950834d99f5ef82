package changeset

import (
	"testing"

	"github.com/janus-lang/janus-sub014/internal/cid"
	"github.com/janus-lang/janus-sub014/internal/graph"
	"github.com/janus-lang/janus-sub014/internal/unit"
)

func c(b byte) cid.CID {
	var out cid.CID
	out[0] = b
	return out
}

func mk(file string, iface, sem, dep byte) unit.Unit {
	return unit.New(file, 0, c(iface), c(sem), c(dep))
}

func TestPureNoOp(t *testing.T) {
	units := []unit.Unit{mk("a.jn", 1, 10, 100), mk("b.jn", 2, 20, 200)}
	cs := DetectChanges(units, units)

	if cs.UnitsToRecompile() != 0 {
		t.Errorf("UnitsToRecompile() = %d, want 0", cs.UnitsToRecompile())
	}
	if len(cs.Results) != len(units) {
		t.Errorf("len(Results) = %d, want %d", len(cs.Results), len(units))
	}
	for _, r := range cs.Results {
		if r.Kind != NoChange {
			t.Errorf("unit %s classified as %v, want no_change", r.SourceFile, r.Kind)
		}
	}
	if cs.HasInterfaceChanges() {
		t.Errorf("HasInterfaceChanges() = true, want false")
	}
}

func TestCommentOnlyEditClassifiedImplementationChange(t *testing.T) {
	old := []unit.Unit{mk("a.jn", 1, 10, 100)}
	cur := []unit.Unit{mk("a.jn", 1, 11, 100)} // semantic differs, interface identical

	cs := DetectChanges(cur, old)
	if len(cs.Results) != 1 || cs.Results[0].Kind != ImplementationChange {
		t.Fatalf("got %+v, want single implementation_change", cs.Results)
	}
	if cs.Results[0].AffectsDependents {
		t.Errorf("implementation_change must not affect dependents")
	}
}

func TestSignatureChangePropagatesToDependents(t *testing.T) {
	g := graph.New()
	u := g.AddNode(mk("u.jn", 1, 10, 100))
	d1 := g.AddNode(mk("d1.jn", 2, 20, 200))
	d2 := g.AddNode(mk("d2.jn", 3, 30, 300))
	d3Indirect := g.AddNode(mk("d3.jn", 4, 40, 400))
	if err := g.AddDependency(d1, u, graph.InterfaceEdge); err != nil {
		t.Fatal(err)
	}
	if err := g.AddDependency(d2, u, graph.InterfaceEdge); err != nil {
		t.Fatal(err)
	}
	if err := g.AddDependency(d3Indirect, d1, graph.InterfaceEdge); err != nil {
		t.Fatal(err)
	}

	old := []unit.Unit{mk("u.jn", 1, 10, 100), mk("d1.jn", 2, 20, 200), mk("d2.jn", 3, 30, 300), mk("d3.jn", 4, 40, 400)}
	cur := []unit.Unit{mk("u.jn", 9, 10, 100), mk("d1.jn", 2, 20, 200), mk("d2.jn", 3, 30, 300), mk("d3.jn", 4, 40, 400)}

	cs := DetectChanges(cur, old)
	if err := PropagateChanges(&cs, g); err != nil {
		t.Fatalf("PropagateChanges: %v", err)
	}

	want := map[string]bool{"u.jn": true, "d1.jn": true, "d2.jn": true, "d3.jn": true}
	got := map[string]bool{}
	for _, f := range cs.ToRecompile {
		got[f] = true
	}
	for f := range want {
		if !got[f] {
			t.Errorf("ToRecompile missing %s; got %v", f, cs.ToRecompile)
		}
	}
	_ = u
}

func TestNewFile(t *testing.T) {
	cur := []unit.Unit{mk("new.jn", 1, 10, 100)}
	cs := DetectChanges(cur, nil)

	if len(cs.Results) != 1 || cs.Results[0].Kind != NewFile {
		t.Fatalf("got %+v, want single new_file", cs.Results)
	}
	if !cs.Results[0].NeedsRecompile || !cs.Results[0].AffectsDependents {
		t.Errorf("new_file must need recompile and affect dependents")
	}
	if len(cs.NewFiles) != 1 || len(cs.ToRecompile) != 1 {
		t.Errorf("new file must appear in both NewFiles and ToRecompile")
	}
}

func TestDeletedFile(t *testing.T) {
	old := []unit.Unit{mk("gone.jn", 1, 10, 100)}
	cs := DetectChanges(nil, old)

	if len(cs.Results) != 1 || cs.Results[0].Kind != DeletedFile {
		t.Fatalf("got %+v, want single deleted_file", cs.Results)
	}
	if cs.Results[0].NeedsRecompile {
		t.Errorf("deleted_file must not need recompile")
	}
	if len(cs.DeletedFiles) != 1 || cs.DeletedFiles[0] != "gone.jn" {
		t.Errorf("DeletedFiles = %v, want [gone.jn]", cs.DeletedFiles)
	}
}

func TestImplementationChangeNeverAddsOtherNodes(t *testing.T) {
	g := graph.New()
	u := g.AddNode(mk("u.jn", 1, 10, 100))
	dep := g.AddNode(mk("dep.jn", 2, 20, 200))
	if err := g.AddDependency(dep, u, graph.InterfaceEdge); err != nil {
		t.Fatal(err)
	}

	old := []unit.Unit{mk("u.jn", 1, 10, 100), mk("dep.jn", 2, 20, 200)}
	cur := []unit.Unit{mk("u.jn", 1, 11, 100), mk("dep.jn", 2, 20, 200)} // u's impl changed only

	cs := DetectChanges(cur, old)
	if err := PropagateChanges(&cs, g); err != nil {
		t.Fatal(err)
	}
	if len(cs.ToRecompile) != 1 || cs.ToRecompile[0] != "u.jn" {
		t.Errorf("ToRecompile = %v, want only [u.jn]", cs.ToRecompile)
	}
}

func TestPropagateChangesIdempotent(t *testing.T) {
	g := graph.New()
	u := g.AddNode(mk("u.jn", 1, 10, 100))
	dep := g.AddNode(mk("dep.jn", 2, 20, 200))
	if err := g.AddDependency(dep, u, graph.InterfaceEdge); err != nil {
		t.Fatal(err)
	}

	old := []unit.Unit{mk("u.jn", 1, 10, 100), mk("dep.jn", 2, 20, 200)}
	cur := []unit.Unit{mk("u.jn", 9, 10, 100), mk("dep.jn", 2, 20, 200)}

	cs := DetectChanges(cur, old)
	if err := PropagateChanges(&cs, g); err != nil {
		t.Fatal(err)
	}
	firstPass := append([]string(nil), cs.ToRecompile...)

	if err := PropagateChanges(&cs, g); err != nil {
		t.Fatal(err)
	}
	if len(cs.ToRecompile) != len(firstPass) {
		t.Errorf("PropagateChanges is not idempotent: %v then %v", firstPass, cs.ToRecompile)
	}
}
