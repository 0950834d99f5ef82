package unit

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"
)

// wireUnit is the gob-serializable projection of Unit. RootNode is a
// snapshot.NodeID valid only within the snapshot that produced it, so it
// is not persisted — a cached unit is re-anchored to a fresh root the next
// time its source file is parsed; only the CIDs and metadata cross a
// process boundary.
type wireUnit struct {
	SourceFile    string
	InterfaceCID  [32]byte
	SemanticCID   [32]byte
	DependencyCID [32]byte
	LastModified  time.Time
	Meta          Metadata
}

// Encode serializes u for the on-disk cached-unit set that change
// detection compares the current build against.
func Encode(u Unit) ([]byte, error) {
	w := wireUnit{
		SourceFile:    u.SourceFile,
		InterfaceCID:  u.InterfaceCID,
		SemanticCID:   u.SemanticCID,
		DependencyCID: u.DependencyCID,
		LastModified:  u.LastModified,
		Meta:          u.Meta,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("encode unit %s: %w", u.SourceFile, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a Unit previously produced by Encode. Its RootNode
// is left zero; the caller must re-anchor it once the source file is
// reparsed for the current build.
func Decode(data []byte) (Unit, error) {
	var w wireUnit
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return Unit{}, fmt.Errorf("decode unit: %w", err)
	}
	return Unit{
		SourceFile:    w.SourceFile,
		InterfaceCID:  w.InterfaceCID,
		SemanticCID:   w.SemanticCID,
		DependencyCID: w.DependencyCID,
		LastModified:  w.LastModified,
		Meta:          w.Meta,
	}, nil
}
