// Package cid implements the dual content-addressed identifier model:
// InterfaceCID, SemanticCID, and DependencyCID, all 256-bit BLAKE3
// digests, plus the structural comparison and integrity-heuristic
// functions of the CID validator (spec.md §4.3, §4.5).
package cid

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Size is the digest width in bytes, per spec.md §3 ("a 256-bit value").
const Size = 32

// CID is an immutable 256-bit content-addressed identifier. Two CIDs are
// equal iff their bytes are equal; ordering is lexicographic byte order.
type CID [Size]byte

// Kind names the domain a CID was computed over. All three CID flavors
// share the CID type and the bytes themselves carry no tag, so nothing
// stops one flavor being used in place of another.
type Kind uint8

const (
	KindInterface Kind = iota
	KindSemantic
	KindDependency
)

// Zero reports whether c is the all-zero CID (the digest of the empty
// stream is not the zero value; this is a distinct, much rarer condition
// used only by the integrity heuristic).
func (c CID) Zero() bool { return c == CID{} }

// Equal reports byte-equality.
func (c CID) Equal(other CID) bool { return c == other }

// Less implements the lexicographic byte ordering spec.md §3 requires.
func (c CID) Less(other CID) bool { return bytes.Compare(c[:], other[:]) < 0 }

// String returns the lowercase hex encoding used for on-disk paths
// (spec.md §6: "<hex32> is lowercase hex of the 32-byte CID").
func (c CID) String() string { return hex.EncodeToString(c[:]) }

// FromHex parses the lowercase hex encoding produced by String.
func FromHex(s string) (CID, bool) {
	var c CID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != Size {
		return c, false
	}
	copy(c[:], b)
	return c, true
}

// hasher wraps a BLAKE3-256 hash.Hash with the little write helpers the
// generators need, following the same "write ordered fields, then Sum"
// shape as golang-tools's check.go localPackageKey/typerefsKey (there over
// sha256, here over BLAKE3 at the width spec.md mandates).
type hasher struct {
	h *blake3.Hasher
}

func newHasher() *hasher {
	return &hasher{h: blake3.New(Size, nil)}
}

// writeLenPrefixed writes s preceded by its length, so that concatenation
// of adjacent fields can never be ambiguous (e.g. "ab"+"c" vs "a"+"bc").
func (h *hasher) writeLenPrefixed(s []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	h.h.Write(lenBuf[:])
	h.h.Write(s)
}

func (h *hasher) writeStr(s string) { h.writeLenPrefixed([]byte(s)) }

func (h *hasher) writeByte(b byte) { h.h.Write([]byte{b}) }

func (h *hasher) writeBool(b bool) {
	if b {
		h.writeByte(1)
	} else {
		h.writeByte(0)
	}
}

func (h *hasher) writeCID(c CID) { h.h.Write(c[:]) }

func (h *hasher) sum() CID {
	var out CID
	sum := h.h.Sum(nil)
	copy(out[:], sum)
	return out
}
