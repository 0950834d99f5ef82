// Package unit defines the Compilation Unit model (spec.md §3/§4.4): the
// binding of a source file to its root snapshot node and dual CIDs, along
// with the metadata accumulated across recompilations.
package unit

import (
	"time"

	"github.com/janus-lang/janus-sub014/internal/cid"
	"github.com/janus-lang/janus-sub014/internal/snapshot"
)

// Metadata accumulates statistics across a unit's lifetime: counts,
// cumulative/last timings, and cache-hit counters, per spec.md §3.
type Metadata struct {
	Compilations      uint64
	InterfaceElements uint64
	Nodes             uint64

	CumulativeCompileTime time.Duration
	LastCompileTime       time.Duration

	CacheHits   uint64
	CacheMisses uint64
}

// Unit binds one source file to its parsed root, its dual CIDs, and its
// lifecycle metadata.
type Unit struct {
	SourceFile   string
	RootNode     snapshot.NodeID
	InterfaceCID cid.CID
	SemanticCID  cid.CID
	DependencyCID cid.CID
	LastModified time.Time
	Meta         Metadata
}

// New creates a compilation unit once per source file, after the initial
// parse and CID computation (spec.md §3: "Lifecycle: created once per
// source file after initial parse + CID computation").
func New(source string, root snapshot.NodeID, interfaceCID, semanticCID, dependencyCID cid.CID) Unit {
	return Unit{
		SourceFile:    source,
		RootNode:      root,
		InterfaceCID:  interfaceCID,
		SemanticCID:   semanticCID,
		DependencyCID: dependencyCID,
		LastModified:  time.Now(),
	}
}

// InterfaceChanged reports whether new's InterfaceCID differs from u's.
func (u Unit) InterfaceChanged(new Unit) bool {
	return u.InterfaceCID != new.InterfaceCID
}

// ImplementationChanged reports whether new's SemanticCID differs from
// u's while the InterfaceCID is unchanged — the classic "body-only edit"
// case spec.md's scenarios describe.
func (u Unit) ImplementationChanged(new Unit) bool {
	return u.SemanticCID != new.SemanticCID && u.InterfaceCID == new.InterfaceCID
}

// NeedsRebuild reports whether new must be recompiled relative to u:
// its SemanticCID is stale, or its DependencyCID differs from the cached
// value (spec.md §3 invariants).
func (u Unit) NeedsRebuild(new Unit) bool {
	return u.SemanticCID != new.SemanticCID || u.DependencyCID != new.DependencyCID
}

// UpdateCIDs returns a copy of u with its CIDs replaced and its metadata
// advanced to reflect one more recompilation, per spec.md §3: "updated
// atomically after recompilation via updateCIDs". The receiver is never
// mutated; callers install the result as the new current unit.
func (u Unit) UpdateCIDs(interfaceCID, semanticCID, dependencyCID cid.CID, elapsed time.Duration, interfaceElementCount, nodeCount uint64) Unit {
	next := u
	next.InterfaceCID = interfaceCID
	next.SemanticCID = semanticCID
	next.DependencyCID = dependencyCID
	next.LastModified = time.Now()
	next.Meta.Compilations++
	next.Meta.InterfaceElements = interfaceElementCount
	next.Meta.Nodes = nodeCount
	next.Meta.CumulativeCompileTime += elapsed
	next.Meta.LastCompileTime = elapsed
	return next
}

// RecordCacheHit returns a copy of u with its cache-hit counter advanced.
func (u Unit) RecordCacheHit() Unit {
	next := u
	next.Meta.CacheHits++
	return next
}

// RecordCacheMiss returns a copy of u with its cache-miss counter
// advanced.
func (u Unit) RecordCacheMiss() Unit {
	next := u
	next.Meta.CacheMisses++
	return next
}
