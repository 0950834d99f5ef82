// Package graph implements the dependency graph (spec.md §4.6): nodes are
// compilation units, edges are split into interface (rebuild-propagating)
// and implementation (non-propagating) sets, with topological ordering
// (Kahn), cycle/SCC detection (Tarjan, interface edges only), and a
// rebuild-set DFS.
//
// Nodes live in a stable, append-only array indexed by NodeID, and the
// dependents list is a transposed index maintained alongside the forward
// edge lists — the same "stable integer ids, no aliased pointers" shape
// gopls's metadata.Graph uses for its ImportedBy index
// (gopls/internal/cache/metadata/graph.go), adapted from package-import
// graphs to compilation-unit dependency graphs and from an immutable,
// rebuild-a-new-Graph-per-update design to an in-place mutable one, since
// spec.md's add_node/add_dependency contract is imperative.
package graph

import (
	"fmt"

	"github.com/janus-lang/janus-sub014/internal/unit"
)

// NodeID is a stable, append-only index into the graph's node array.
// spec.md §9: "stable integer NodeIds into an append-only node array ...
// avoids aliased pointers and makes serialization trivial."
type NodeID uint32

// EdgeKind discriminates interface (rebuild-propagating) from
// implementation (non-propagating) dependency edges.
type EdgeKind uint8

const (
	ImplementationEdge EdgeKind = iota
	InterfaceEdge
)

// Node owns its edge lists; the graph owns nodes (spec.md §3).
type Node struct {
	Unit    unit.Unit
	ID      NodeID
	SourceFile string

	// InterfaceDeps/ImplDeps are the node's own outgoing edges, in
	// insertion order (spec.md §4.6: "sibling edges are traversed in
	// insertion order").
	InterfaceDeps []NodeID
	ImplDeps      []NodeID

	// Dependents is the transpose of all incoming interface edges only —
	// spec.md §3: "Dependents list is the transpose of all incoming
	// interface edges."
	Dependents []NodeID
}

// ErrNodeNotFound is returned by AddDependency when either endpoint is
// unknown, per spec.md §4.6/§7.
type ErrNodeNotFound struct{ NodeID NodeID }

func (e ErrNodeNotFound) Error() string { return fmt.Sprintf("graph: node %d not found", e.NodeID) }

// ErrCircularDependency is returned by TopologicalOrder when the
// interface-edge subgraph is not acyclic.
type ErrCircularDependency struct {
	// Cycle lists the NodeIDs of one offending strongly connected
	// component, in the order Tarjan's algorithm pops them off its stack
	// (the reverse of the order it discovered them).
	Cycle []NodeID
}

func (e ErrCircularDependency) Error() string {
	return fmt.Sprintf("graph: circular interface dependency among nodes %v", e.Cycle)
}

// Graph is the mutable dependency graph owned exclusively by the engine
// during a build (spec.md §5: "graph state is mutable and is owned
// exclusively by the engine during a build").
type Graph struct {
	nodes    []*Node
	byFile   map[string]NodeID

	// Cached, invalidated on any edge insertion (spec.md §4.6).
	topoOrder    []NodeID
	topoValid    bool
	sccs         [][]NodeID
	sccsValid    bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{byFile: make(map[string]NodeID)}
}

// AddNode adds a unit as a new graph node and returns its NodeID. Adding
// the same source file twice creates two distinct nodes; callers that
// want upsert semantics should consult GetNodeByFile first.
func (g *Graph) AddNode(u unit.Unit) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{Unit: u, ID: id, SourceFile: u.SourceFile})
	g.byFile[u.SourceFile] = id
	g.invalidateCaches()
	return id
}

// GetNode returns the node for id.
func (g *Graph) GetNode(id NodeID) (*Node, bool) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// GetNodeByFile returns the node for the given source file, if any. When a
// file was added more than once, the most recently added node wins.
func (g *Graph) GetNodeByFile(path string) (*Node, bool) {
	id, ok := g.byFile[path]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// NodeCount returns the number of nodes currently in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Nodes returns all nodes, in NodeID order. The returned slice is a fresh
// copy; mutating it does not affect the graph.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// AddDependency records that src depends on dst with the given edge kind.
// kind selects which of src's edge lists dst is appended to,
// and, for interface edges, appends src to dst's Dependents list (the
// transpose). Any edge insertion invalidates the cached topological order
// and SCC decomposition (spec.md §4.6).
func (g *Graph) AddDependency(src, dst NodeID, kind EdgeKind) error {
	srcNode, ok := g.GetNode(src)
	if !ok {
		return ErrNodeNotFound{NodeID: src}
	}
	dstNode, ok := g.GetNode(dst)
	if !ok {
		return ErrNodeNotFound{NodeID: dst}
	}

	switch kind {
	case InterfaceEdge:
		srcNode.InterfaceDeps = append(srcNode.InterfaceDeps, dst)
		dstNode.Dependents = append(dstNode.Dependents, src)
	default:
		srcNode.ImplDeps = append(srcNode.ImplDeps, dst)
	}
	g.invalidateCaches()
	return nil
}

func (g *Graph) invalidateCaches() {
	g.topoValid = false
	g.sccsValid = false
}
