// Package snapshot defines the read-only contract the engine consumes from
// the external lexer/parser and AST/snapshot database. The core never
// constructs a Snapshot itself; it is handed one by the caller for each
// compilation unit it must extract, hash, or diff.
package snapshot

// NodeID identifies a node within a Snapshot. The zero value is never a
// valid node.
type NodeID uint32

// DeclID identifies a declaration within a Snapshot.
type DeclID uint32

// TokenID identifies a token within a Snapshot.
type TokenID uint32

// StrID identifies an interned string.
type StrID uint32

// NodeKind classifies a Node. The engine only distinguishes the kinds it
// needs to decide interface membership and to recurse structurally; all
// other kinds are opaque to it.
type NodeKind uint8

const (
	KindUnknown NodeKind = iota
	KindModule
	KindFunctionDecl
	KindStructDecl
	KindEnumDecl
	KindAliasDecl
	KindConstDecl
	KindStructField
	KindEnumVariant
	KindParameter
	KindTypeExpr
	KindStatement
	KindExpression
	KindLiteral
	KindIdentifier
	KindBlock
)

// Node is a read-only view of one AST node.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	DeclID   DeclID   // zero if this node is not itself a declaration
	NameStr  StrID    // interned name, zero if anonymous
	Exported bool     // externally-visible per the source language's export rule
	Children []NodeID // ordered, as written
}

// Decl is a read-only view of a declaration's extra metadata not carried on
// the Node itself (parameters, return type, type parameters, and so on).
// Fields are populated only for the declaration kinds that need them; a
// function declaration has Params/Return/TypeParams, a type declaration has
// TypeParams/Fields/Variants, a const declaration has ConstType/ConstValueNode.
type Decl struct {
	ID              DeclID
	Params          []Param
	ReturnTypeNode  NodeID
	TypeParams      []TypeParam
	IsInline        bool
	Fields          []NodeID // KindStructField children, in source order
	Variants        []NodeID // KindEnumVariant children, in source order
	ConstType       NodeID   // type node of a const decl
	ConstValueNode  NodeID   // literal node; only hashed when participates in type inference
	ValueParticipatesInInference bool
	ExportedSymbols []StrID // ordered exported symbol names, for KindModule
}

// Param describes one function parameter's signature.
type Param struct {
	Name         StrID
	TypeNode     NodeID
	Optional     bool
	DefaultValue NodeID // zero if none; present iff Optional and a default exists
}

// TypeParam describes one generic type parameter and its bound.
type TypeParam struct {
	Name  StrID
	Bound NodeID // zero if unbounded
}

// Token is a read-only view of a single lexical token, used only by the
// semantic CID generator when it descends into bodies.
type Token struct {
	ID   TokenID
	Text []byte
}

// Snapshot is the read-only view of one parsed source file that the engine
// walks. Implementations are supplied by the external parser; the engine
// never mutates a Snapshot.
type Snapshot interface {
	GetNode(NodeID) (Node, bool)
	GetDecl(DeclID) (Decl, bool)
	GetToken(TokenID) (Token, bool)
	Children(NodeID) []NodeID
	DeclCount() uint32
	StrBytes(StrID) []byte
	Intern(s []byte) StrID
}
