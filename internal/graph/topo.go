package graph

import "container/heap"

// nodeIDHeap is a small min-heap of NodeIDs, used so Kahn's algorithm
// drains its ready queue in NodeId-ascending order wherever more than one
// node becomes ready at once — spec.md §4.6: "where ambiguity remains
// (e.g. Kahn's queue), ordering is by NodeId ascending, so builds are
// deterministic."
type nodeIDHeap []NodeID

func (h nodeIDHeap) Len() int            { return len(h) }
func (h nodeIDHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h nodeIDHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeIDHeap) Push(x interface{}) { *h = append(*h, x.(NodeID)) }
func (h *nodeIDHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopologicalOrder returns a linear extension of the interface-edge DAG
// using Kahn's algorithm, per spec.md §4.6. It fails with
// ErrCircularDependency if not every node could be emitted, i.e. an
// interface-edge cycle exists. The result is cached and reused until the
// next edge insertion invalidates it.
func (g *Graph) TopologicalOrder() ([]NodeID, error) {
	if g.topoValid {
		return append([]NodeID(nil), g.topoOrder...), nil
	}

	inDegree := make([]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, dst := range n.InterfaceDeps {
			inDegree[dst]++
		}
	}

	ready := &nodeIDHeap{}
	for _, n := range g.nodes {
		if inDegree[n.ID] == 0 {
			heap.Push(ready, n.ID)
		}
	}

	order := make([]NodeID, 0, len(g.nodes))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(NodeID)
		order = append(order, id)
		n := g.nodes[id]
		for _, dst := range n.InterfaceDeps {
			inDegree[dst]--
			if inDegree[dst] == 0 {
				heap.Push(ready, dst)
			}
		}
	}

	if len(order) != len(g.nodes) {
		sccs := g.computeSCCs()
		var cycle []NodeID
		for _, scc := range sccs {
			if len(scc) > 1 {
				cycle = scc
				break
			}
		}
		return nil, ErrCircularDependency{Cycle: cycle}
	}

	g.topoOrder = order
	g.topoValid = true
	return append([]NodeID(nil), order...), nil
}

// DetectSCCs returns the strongly connected components of the
// interface-edge subgraph via Tarjan's algorithm. Any component of size
// greater than 1 is an interface cycle (an error condition the caller
// must act on); implementation edges are never considered, per spec.md
// §4.6: "Implementation edges are never considered for cycles."
func (g *Graph) DetectSCCs() [][]NodeID {
	if g.sccsValid {
		out := make([][]NodeID, len(g.sccs))
		for i, scc := range g.sccs {
			out[i] = append([]NodeID(nil), scc...)
		}
		return out
	}
	g.sccs = g.computeSCCs()
	g.sccsValid = true
	out := make([][]NodeID, len(g.sccs))
	for i, scc := range g.sccs {
		out[i] = append([]NodeID(nil), scc...)
	}
	return out
}

// tarjan implements Tarjan's strongly connected components algorithm over
// the interface-edge graph only.
type tarjan struct {
	g        *Graph
	index    []int
	lowlink  []int
	onStack  []bool
	stack    []NodeID
	counter  int
	sccs     [][]NodeID
}

func (g *Graph) computeSCCs() [][]NodeID {
	n := len(g.nodes)
	t := &tarjan{
		g:       g,
		index:   make([]int, n),
		lowlink: make([]int, n),
		onStack: make([]bool, n),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	// Iterate in NodeId order for determinism, per spec.md §4.6.
	for id := 0; id < n; id++ {
		if t.index[id] == -1 {
			t.strongConnect(NodeID(id))
		}
	}
	return t.sccs
}

func (t *tarjan) strongConnect(v NodeID) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.nodes[v].InterfaceDeps {
		if t.index[w] == -1 {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []NodeID
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

// RebuildSet returns the transitive closure of interface-level dependents
// of the given node, inclusive of the node itself: a DFS over the
// Dependents relation, following an edge u -> v only when v's
// InterfaceDeps actually lists u (spec.md §4.6). Traversal order follows
// each node's Dependents slice in insertion order; the returned slice is
// deterministic for identical graph-construction history.
func (g *Graph) RebuildSet(start NodeID) ([]NodeID, error) {
	if _, ok := g.GetNode(start); !ok {
		return nil, ErrNodeNotFound{NodeID: start}
	}

	visited := make(map[NodeID]bool)
	var order []NodeID

	var visit func(NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		for _, dependent := range g.nodes[id].Dependents {
			if dependsOnInterface(g, dependent, id) {
				visit(dependent)
			}
		}
	}
	visit(start)
	return order, nil
}

// dependsOnInterface reports whether node dependent's InterfaceDeps
// actually contains target — the Dependents transpose is maintained
// alongside forward edges, but RebuildSet re-checks the forward list per
// spec.md §4.6 so that the traversal only ever follows a true interface
// edge, never a stale transpose entry.
func dependsOnInterface(g *Graph, dependent, target NodeID) bool {
	for _, d := range g.nodes[dependent].InterfaceDeps {
		if d == target {
			return true
		}
	}
	return false
}
