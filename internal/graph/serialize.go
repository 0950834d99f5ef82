package graph

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Statistics is the fixed six-field statistics block appended to the
// serialized graph, per spec.md §6.
type Statistics struct {
	NodeCount                uint32
	InterfaceEdgeCount       uint32
	ImplementationEdgeCount  uint32
	CycleCount               uint32
	MaxDepth                 uint32
	AvgDependenciesPerNode   float32
}

// Stats computes the current GraphStatistics block from the graph's live
// state.
func (g *Graph) Stats() Statistics {
	var ifaceEdges, implEdges uint32
	for _, n := range g.nodes {
		ifaceEdges += uint32(len(n.InterfaceDeps))
		implEdges += uint32(len(n.ImplDeps))
	}

	cycles := 0
	for _, scc := range g.DetectSCCs() {
		if len(scc) > 1 {
			cycles++
		}
	}

	maxDepth := uint32(0)
	if order, err := g.TopologicalOrder(); err == nil {
		depth := make([]uint32, len(g.nodes))
		for _, id := range order {
			d := depth[id]
			if d+1 > maxDepth {
				maxDepth = d + 1
			}
			for _, dst := range g.nodes[id].InterfaceDeps {
				if depth[dst] < d+1 {
					depth[dst] = d + 1
				}
			}
		}
	}

	avg := float32(0)
	if len(g.nodes) > 0 {
		avg = float32(ifaceEdges+implEdges) / float32(len(g.nodes))
	}

	return Statistics{
		NodeCount:               uint32(len(g.nodes)),
		InterfaceEdgeCount:      ifaceEdges,
		ImplementationEdgeCount: implEdges,
		CycleCount:              uint32(cycles),
		MaxDepth:                maxDepth,
		AvgDependenciesPerNode:  avg,
	}
}

// Serialize writes the graph to w in the little-endian, append-only wire
// format specified by spec.md §6:
//
//	u32 node_count
//	 repeat node_count times:
//	   u32 path_len, path_len bytes (source file)
//	   u32 n_iface, n_iface x u32 (target NodeIds)
//	   u32 n_impl,  n_impl  x u32 (target NodeIds)
//	GraphStatistics { six u32/f32 fields }
func (g *Graph) Serialize(w io.Writer) error {
	if err := writeU32(w, uint32(len(g.nodes))); err != nil {
		return err
	}
	for _, n := range g.nodes {
		if err := writeU32(w, uint32(len(n.SourceFile))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(n.SourceFile)); err != nil {
			return fmt.Errorf("graph: write source_file: %w", err)
		}
		if err := writeU32Slice(w, n.InterfaceDeps); err != nil {
			return err
		}
		if err := writeU32Slice(w, n.ImplDeps); err != nil {
			return err
		}
	}

	stats := g.Stats()
	for _, v := range []uint32{
		stats.NodeCount,
		stats.InterfaceEdgeCount,
		stats.ImplementationEdgeCount,
		stats.CycleCount,
		stats.MaxDepth,
		math.Float32bits(stats.AvgDependenciesPerNode),
	} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads a graph previously written by Serialize. Because
// NodeIds are not persisted as an explicit field (they are implied by
// array position, per spec.md §9), the returned graph reconstructs nodes
// in file order and the Dependents transpose is rebuilt from scratch, as
// spec.md §9 requires ("back-references are... rebuilt on load"). The
// trailing Statistics block is read and discarded; Stats() recomputes it
// from the live graph so that Serialize(Deserialize(x)) is not required
// to reproduce a CycleCount computed before a crash mid-build.
func Deserialize(r io.Reader) (*Graph, error) {
	nodeCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("graph: read node_count: %w", err)
	}

	type rawNode struct {
		sourceFile string
		ifaceDeps  []NodeID
		implDeps   []NodeID
	}
	raw := make([]rawNode, nodeCount)

	for i := range raw {
		pathLen, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read path_len: %w", err)
		}
		buf := make([]byte, pathLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("graph: read source_file: %w", err)
		}
		raw[i].sourceFile = string(buf)

		raw[i].ifaceDeps, err = readU32SliceAsNodeIDs(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read n_iface: %w", err)
		}
		raw[i].implDeps, err = readU32SliceAsNodeIDs(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read n_impl: %w", err)
		}
	}

	// Statistics block: six fixed u32 fields, discarded on load.
	for i := 0; i < 6; i++ {
		if _, err := readU32(r); err != nil {
			return nil, fmt.Errorf("graph: read statistics field %d: %w", i, err)
		}
	}

	g := New()
	for _, rn := range raw {
		id := NodeID(len(g.nodes))
		g.nodes = append(g.nodes, &Node{ID: id, SourceFile: rn.sourceFile})
		g.byFile[rn.sourceFile] = id
	}
	for i, rn := range raw {
		id := NodeID(i)
		g.nodes[id].InterfaceDeps = rn.ifaceDeps
		g.nodes[id].ImplDeps = rn.implDeps
		for _, dst := range rn.ifaceDeps {
			g.nodes[dst].Dependents = append(g.nodes[dst].Dependents, id)
		}
	}
	return g, nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("graph: write u32: %w", err)
	}
	return nil
}

func writeU32Slice(w io.Writer, ids []NodeID) error {
	if err := writeU32(w, uint32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writeU32(w, uint32(id)); err != nil {
			return err
		}
	}
	return nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU32SliceAsNodeIDs(r io.Reader) ([]NodeID, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]NodeID, n)
	for i := range out {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		out[i] = NodeID(v)
	}
	return out, nil
}
