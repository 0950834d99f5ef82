// Package snapshottest provides a minimal in-memory snapshot.Snapshot
// implementation for use by the engine's own tests. It is not part of the
// public surface; production snapshots are supplied by the external
// parser.
package snapshottest

import (
	"github.com/janus-lang/janus-sub014/internal/snapshot"
)

// Fake is a builder-style, in-memory snapshot.Snapshot.
type Fake struct {
	nodes   map[snapshot.NodeID]snapshot.Node
	decls   map[snapshot.DeclID]snapshot.Decl
	tokens  map[snapshot.TokenID]snapshot.Token
	strs    map[snapshot.StrID][]byte
	interned map[string]snapshot.StrID
	nextStr snapshot.StrID
}

// New returns an empty Fake snapshot.
func New() *Fake {
	return &Fake{
		nodes:    make(map[snapshot.NodeID]snapshot.Node),
		decls:    make(map[snapshot.DeclID]snapshot.Decl),
		tokens:   make(map[snapshot.TokenID]snapshot.Token),
		strs:     make(map[snapshot.StrID][]byte),
		interned: make(map[string]snapshot.StrID),
	}
}

// AddNode inserts or replaces a node.
func (f *Fake) AddNode(n snapshot.Node) *Fake {
	f.nodes[n.ID] = n
	return f
}

// AddDecl inserts or replaces a declaration.
func (f *Fake) AddDecl(d snapshot.Decl) *Fake {
	f.decls[d.ID] = d
	return f
}

// AddToken inserts or replaces a token.
func (f *Fake) AddToken(t snapshot.Token) *Fake {
	f.tokens[t.ID] = t
	return f
}

// Str interns s and returns its StrID, reusing an existing ID if s was
// already interned.
func (f *Fake) Str(s string) snapshot.StrID {
	return f.Intern([]byte(s))
}

func (f *Fake) GetNode(id snapshot.NodeID) (snapshot.Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

func (f *Fake) GetDecl(id snapshot.DeclID) (snapshot.Decl, bool) {
	d, ok := f.decls[id]
	return d, ok
}

func (f *Fake) GetToken(id snapshot.TokenID) (snapshot.Token, bool) {
	t, ok := f.tokens[id]
	return t, ok
}

func (f *Fake) Children(id snapshot.NodeID) []snapshot.NodeID {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	return n.Children
}

func (f *Fake) DeclCount() uint32 { return uint32(len(f.decls)) }

func (f *Fake) StrBytes(id snapshot.StrID) []byte { return f.strs[id] }

func (f *Fake) Intern(s []byte) snapshot.StrID {
	if id, ok := f.interned[string(s)]; ok {
		return id
	}
	f.nextStr++
	id := f.nextStr
	f.interned[string(s)] = id
	f.strs[id] = append([]byte(nil), s...)
	return id
}

var _ snapshot.Snapshot = (*Fake)(nil)
