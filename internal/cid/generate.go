package cid

import (
	"sort"

	"github.com/janus-lang/janus-sub014/internal/interfaceextract"
	"github.com/janus-lang/janus-sub014/internal/snapshot"
)

// canonicalOrder sorts interface elements by the stable key (kind, name)
// spec.md §4.3 mandates, so that identical element sets always serialize
// identically regardless of extraction or map-iteration order.
func canonicalOrder(elems []interfaceextract.InterfaceElement) []interfaceextract.InterfaceElement {
	out := make([]interfaceextract.InterfaceElement, len(elems))
	copy(out, elems)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Signature.Name < out[j].Signature.Name
	})
	return out
}

// GenerateInterfaceCID hashes the public-interface element set reachable
// from root, in canonical order, using only signature fields: no bodies,
// no literal values (except those participating in type inference), no
// whitespace, no comments (spec.md §4.3).
func GenerateInterfaceCID(s snapshot.Snapshot, root snapshot.NodeID) CID {
	elems := interfaceextract.Extract(s, root)
	return InterfaceCIDOfElements(elems)
}

// InterfaceCIDOfElements hashes a pre-extracted element set. Exposed
// separately so change-detection and tests can compute a CID without
// re-walking a snapshot.
func InterfaceCIDOfElements(elems []interfaceextract.InterfaceElement) CID {
	h := newHasher()
	for _, el := range canonicalOrder(elems) {
		hashElementHeader(h, el)
	}
	return h.sum()
}

func hashElementHeader(h *hasher, el interfaceextract.InterfaceElement) {
	h.writeByte(byte(el.Kind))
	sig := el.Signature
	h.writeStr(sig.Name)
	h.writeBool(sig.Exported)

	binaryWriteTypeParams(h, sig.TypeParams)

	switch el.Kind {
	case interfaceextract.PublicFunction:
		binaryWriteParams(h, sig.Params)
		h.writeStr(sig.ReturnText)
		h.writeBool(sig.Inline)

	case interfaceextract.PublicType:
		h.writeStr(sig.TypeKind)
		h.writeByte(byte(len(sig.Fields)))
		for _, f := range sig.Fields {
			h.writeStr(f.Name)
			h.writeStr(f.TypeText)
		}
		h.writeByte(byte(len(sig.Variants)))
		for _, v := range sig.Variants {
			h.writeStr(v.Name)
			h.writeStr(v.AssociatedType)
		}

	case interfaceextract.PublicConstant:
		h.writeStr(sig.ConstTypeText)
		h.writeBool(sig.ValueParticipatesInInference)
		if sig.ValueParticipatesInInference {
			h.writeStr(sig.ConstValueText)
		}

	case interfaceextract.PublicModule:
		for _, name := range sig.ExportedSymbols {
			h.writeStr(name)
		}
	}
}

func binaryWriteTypeParams(h *hasher, tps []interfaceextract.TypeParamSig) {
	for _, tp := range tps {
		h.writeStr(tp.Name)
		h.writeStr(tp.BoundText)
	}
}

func binaryWriteParams(h *hasher, params []interfaceextract.ParamSig) {
	for _, p := range params {
		h.writeStr(p.Name)
		h.writeStr(p.TypeText)
		h.writeBool(p.Optional)
		h.writeBool(p.HasDefault)
	}
}

// GenerateSemanticCID hashes the full semantic content reachable from
// root: the same per-element header information as the interface CID,
// plus bodies, statements, expressions, literals, and identifiers,
// descended into and hashed as their textual/tokenized representation
// (spec.md §4.3). An equivalent-interface, different-implementation pair
// of snapshots must yield equal InterfaceCIDs and different SemanticCIDs.
func GenerateSemanticCID(s snapshot.Snapshot, root snapshot.NodeID) CID {
	h := newHasher()
	hashSemanticNode(s, h, root, make(map[snapshot.NodeID]bool))
	return h.sum()
}

func hashSemanticNode(s snapshot.Snapshot, h *hasher, id snapshot.NodeID, visited map[snapshot.NodeID]bool) {
	if id == 0 || visited[id] {
		return
	}
	visited[id] = true

	n, ok := s.GetNode(id)
	if !ok {
		return // same "skip silently" policy as the interface extractor
	}

	h.writeByte(byte(n.Kind))
	h.writeStr(string(s.StrBytes(n.NameStr)))
	h.writeBool(n.Exported)

	if n.DeclID != 0 {
		if d, ok := s.GetDecl(n.DeclID); ok {
			h.writeBool(d.IsInline)
			h.writeBool(d.ValueParticipatesInInference)
			binaryWriteTypeParams(h, toSignatureTypeParams(s, d.TypeParams))
			for _, p := range d.Params {
				h.writeStr(string(s.StrBytes(p.Name)))
				h.writeBool(p.Optional)
				hashSemanticNode(s, h, p.TypeNode, visited)
				hashSemanticNode(s, h, p.DefaultValue, visited)
			}
			hashSemanticNode(s, h, d.ReturnTypeNode, visited)
			hashSemanticNode(s, h, d.ConstType, visited)
			hashSemanticNode(s, h, d.ConstValueNode, visited)
			for _, f := range d.Fields {
				hashSemanticNode(s, h, f, visited)
			}
			for _, v := range d.Variants {
				hashSemanticNode(s, h, v, visited)
			}
		}
	}

	switch n.Kind {
	case snapshot.KindIdentifier, snapshot.KindLiteral:
		// textual/tokenized representation: the interned name carries it.
	}

	for _, c := range n.Children {
		hashSemanticNode(s, h, c, visited)
	}
}

func toSignatureTypeParams(s snapshot.Snapshot, tps []snapshot.TypeParam) []interfaceextract.TypeParamSig {
	out := make([]interfaceextract.TypeParamSig, len(tps))
	for i, tp := range tps {
		boundText := ""
		if tp.Bound != 0 {
			if bn, ok := s.GetNode(tp.Bound); ok {
				boundText = string(s.StrBytes(bn.NameStr))
			}
		}
		out[i] = interfaceextract.TypeParamSig{Name: string(s.StrBytes(tp.Name)), BoundText: boundText}
	}
	return out
}

// GenerateDependencyCID computes the DependencyCID of a unit from the
// InterfaceCIDs of its direct interface dependencies, in canonical
// (ascending byte) order, per spec.md §3: "structurally an InterfaceCID
// computed over the multiset of InterfaceCIDs of direct
// interface-dependencies, in a canonical order."
func GenerateDependencyCID(depInterfaceCIDs []CID) CID {
	sorted := make([]CID, len(depInterfaceCIDs))
	copy(sorted, depInterfaceCIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	h := newHasher()
	for _, c := range sorted {
		h.writeCID(c)
	}
	return h.sum()
}
